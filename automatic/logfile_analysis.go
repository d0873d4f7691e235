package automatic

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

type engineLogStats struct {
	moves  int
	depths []float64
	nodes  []float64
}

// AnalyzeLogFile reads a move log written by StartCompVComp and reports how
// deep each engine searched.
func AnalyzeLogFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return analyzeLog(file)
}

func analyzeLog(rd io.Reader) (string, error) {
	r := csv.NewReader(rd)

	// Record looks like:
	// gameID,ply,engine,column,score,depth,nodes
	games := map[string]bool{}
	engines := map[string]*engineLogStats{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if record[0] == "gameID" {
			// this is the header line
			continue
		}
		if len(record) != 7 {
			return "", fmt.Errorf("bad record %v", record)
		}
		depth, err := strconv.Atoi(record[5])
		if err != nil {
			return "", err
		}
		nodes, err := strconv.ParseUint(record[6], 10, 64)
		if err != nil {
			return "", err
		}
		games[record[0]] = true
		es, ok := engines[record[2]]
		if !ok {
			es = &engineLogStats{}
			engines[record[2]] = es
		}
		es.moves++
		es.depths = append(es.depths, float64(depth))
		es.nodes = append(es.nodes, float64(nodes))
	}

	names := make([]string, 0, len(engines))
	for n := range engines {
		names = append(names, n)
	}
	sort.Strings(names)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Games played: %d\n", len(games))
	for _, n := range names {
		es := engines[n]
		md, sd := meanStdDev(es.depths)
		fmt.Fprintf(&sb, "%v moves: %d  Mean depth: %.2f  Stdev: %.2f  Mean nodes: %.0f\n",
			n, es.moves, md, sd, stat.Mean(es.nodes, nil))
	}
	return sb.String(), nil
}
