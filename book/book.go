package book

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/domino14/connectfour/board"
)

// DefaultMaxPlies is how deep into the game a book is consulted.
const DefaultMaxPlies = 6

//go:embed default_book.yaml
var defaultBook []byte

// column is a 0-indexed column that may be written as a number or as a
// string in the book file.
type column int

func (c *column) UnmarshalYAML(value *yaml.Node) error {
	n, err := strconv.Atoi(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: bad column %q", value.Line, value.Value)
	}
	*c = column(n)
	return nil
}

// Book maps a 1-indexed move history such as "4453" to the best replies in
// that position.
type Book struct {
	entries  map[string][]int
	maxPlies int
}

// New creates an empty book.
func New(maxPlies int) *Book {
	return &Book{
		entries:  make(map[string][]int),
		maxPlies: maxPlies,
	}
}

// Default returns the small book that ships with the engine.
func Default(maxPlies int) *Book {
	b, err := LoadReader(bytes.NewReader(defaultBook), maxPlies)
	if err != nil {
		panic("bad embedded book: " + err.Error())
	}
	return b
}

// Load loads a book file. JSON books load too, as JSON is valid YAML.
func Load(filename string, maxPlies int) (*Book, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := LoadReader(f, maxPlies)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	log.Info().Str("path", filename).Int("positions", b.Len()).Msg("loaded-opening-book")
	return b, nil
}

// LoadReader loads a book from r.
func LoadReader(r io.Reader, maxPlies int) (*Book, error) {
	raw := map[string][]column{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}
	b := New(maxPlies)
	for moves, cols := range raw {
		for _, c := range cols {
			b.Add(moves, int(c))
		}
	}
	return b, nil
}

// Add appends a candidate reply for the given move history.
func (b *Book) Add(moves string, col int) {
	b.entries[moves] = append(b.entries[moves], col)
}

// Len is the number of positions in the book.
func (b *Book) Len() int {
	return len(b.entries)
}

func (b *Book) MaxPlies() int {
	return b.maxPlies
}

// Lookup returns the book replies for a move history. Replies that are not
// legal in that position are dropped. It reports false past MaxPlies, for
// histories that cannot be replayed and when no reply is left.
func (b *Book) Lookup(moves string) ([]int, bool) {
	if len(moves) > b.maxPlies {
		return nil, false
	}
	cands, ok := b.entries[moves]
	if !ok {
		return nil, false
	}
	history, err := board.ParseMoveString(moves)
	if err != nil {
		return nil, false
	}
	p, err := board.NewPositionFromMoves(history)
	if err != nil || p.IsGameOver() {
		return nil, false
	}
	legal := make([]int, 0, len(cands))
	for _, c := range cands {
		if p.IsValidMove(c) {
			legal = append(legal, c)
		} else {
			log.Debug().Str("moves", moves).Int("column", c).Msg("dropping-illegal-book-move")
		}
	}
	return legal, len(legal) > 0
}

// Pick chooses one of the book replies uniformly at random.
func (b *Book) Pick(moves string) (int, bool) {
	cands, ok := b.Lookup(moves)
	if !ok {
		return board.NoMove, false
	}
	return cands[frand.Intn(len(cands))], true
}
