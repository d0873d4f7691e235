package automatic

import (
	"fmt"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a batch of self-play games.
type Summary struct {
	Engines [2]EngineSettings
	Games   int
	Wins    [2]int
	Draws   int
	// Unique counts distinct move sequences.
	Unique int

	MeanLength   float64
	StdDevLength float64
	MeanDepth    float64
	StdDevDepth  float64

	LengthHistogram histogram.Histogram
}

func Summarize(engines [2]EngineSettings, records []GameRecord) Summary {
	s := Summary{Engines: engines, Games: len(records)}
	if len(records) == 0 {
		return s
	}
	for e := range s.Wins {
		s.Wins[e] = lo.CountBy(records, func(g GameRecord) bool { return g.WinnerEngine == e })
	}
	s.Draws = lo.CountBy(records, func(g GameRecord) bool { return g.WinnerEngine == -1 })
	s.Unique = len(lo.UniqBy(records, func(g GameRecord) uint64 { return g.Fingerprint() }))

	lengths := lo.Map(records, func(g GameRecord, _ int) float64 { return float64(len(g.Moves)) })
	s.MeanLength, s.StdDevLength = meanStdDev(lengths)

	var depths []float64
	for _, g := range records {
		for _, m := range g.Records {
			if !m.Book {
				depths = append(depths, float64(m.Depth))
			}
		}
	}
	s.MeanDepth, s.StdDevDepth = meanStdDev(depths)
	s.LengthHistogram = histogram.Hist(10, lengths)
	return s
}

// meanStdDev is stat.MeanStdDev with a spread of zero for fewer than two
// samples.
func meanStdDev(xs []float64) (float64, float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}

// WinRate is the share of games won by engine e, counting draws as half.
func (s Summary) WinRate(e int) float64 {
	if s.Games == 0 {
		return 0
	}
	return (float64(s.Wins[e]) + float64(s.Draws)/2) / float64(s.Games)
}

func (s Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d games (%d unique)\n", s.Games, s.Unique)
	for e, settings := range s.Engines {
		fmt.Fprintf(&sb, "  %-24v wins: %-5d score: %.3f\n", settings, s.Wins[e], s.WinRate(e))
	}
	fmt.Fprintf(&sb, "  draws: %d\n", s.Draws)
	fmt.Fprintf(&sb, "  game length: %.2f ± %.2f plies\n", s.MeanLength, s.StdDevLength)
	fmt.Fprintf(&sb, "  search depth: %.2f ± %.2f\n", s.MeanDepth, s.StdDevDepth)
	if s.Games > 1 {
		sb.WriteString("game lengths:\n")
		histogram.Fprint(&sb, s.LengthHistogram, histogram.Linear(30))
	}
	return sb.String()
}
