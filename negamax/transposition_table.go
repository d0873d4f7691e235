package negamax

import (
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const (
	TTExact = 0x01
	TTLower = 0x02
	TTUpper = 0x03
)

// DefaultCapacity is a prime close to 2^23.
const DefaultCapacity = 8388593

const entrySize = 16

// 16 bytes (entrySize)
type TableEntry struct {
	key   uint64
	score int16
	move  int8
	depth uint8
	flag  uint8
}

// NewTableEntry builds an entry for Store. The key is filled in by Store.
func NewTableEntry(score int16, move int, depth int, flag uint8) TableEntry {
	return TableEntry{score: score, move: int8(move), depth: uint8(depth), flag: flag}
}

func (t TableEntry) Key() uint64 { return t.key }
func (t TableEntry) Score() int16 { return t.score }
func (t TableEntry) Move() int { return int(t.move) }
func (t TableEntry) Depth() int { return int(t.depth) }
func (t TableEntry) Flag() uint8 { return t.flag }
func (t TableEntry) valid() bool { return t.flag != 0 }

// TableStats is a snapshot of the table counters.
type TableStats struct {
	Created      uint64
	Lookups      uint64
	Hits         uint64
	T2Collisions uint64
}

// TranspositionTable is a fixed-size, always-replace cache of search results
// indexed by key modulo capacity. A table belongs to one solver; it is not
// safe for concurrent searches.
type TranspositionTable struct {
	table    []TableEntry
	capacity uint64

	created atomic.Uint64
	lookups atomic.Uint64
	hits    atomic.Uint64
	// a slot holding a different position than the one looked up.
	t2collisions atomic.Uint64
}

// NewTranspositionTable allocates a table with the given number of slots.
func NewTranspositionTable(capacity uint64) *TranspositionTable {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	t := &TranspositionTable{
		table:    make([]TableEntry, capacity),
		capacity: capacity,
	}
	log.Debug().Uint64("num-elems", capacity).
		Uint64("estimated-total-memory-bytes", capacity*entrySize).
		Msg("transposition-table-size")
	return t
}

// SizeFor clamps the requested capacity so the table does not take more
// than fractionOfMemory of the system memory. A fraction of 0 disables the
// clamp.
func SizeFor(capacity uint64, fractionOfMemory float64) uint64 {
	totalMem := memory.TotalMemory()
	if totalMem == 0 || fractionOfMemory <= 0 {
		return capacity
	}
	maxElems := uint64(fractionOfMemory * (float64(totalMem) / float64(entrySize)))
	if capacity > maxElems {
		log.Warn().Uint64("requested", capacity).Uint64("max", maxElems).
			Uint64("total-system-memory-bytes", totalMem).
			Msg("clamping-transposition-table")
		return maxElems
	}
	return capacity
}

func (t *TranspositionTable) Capacity() uint64 {
	return t.capacity
}

// Lookup returns the entry stored for key. It reports false if the slot is
// empty or holds another position.
func (t *TranspositionTable) Lookup(key uint64) (TableEntry, bool) {
	t.lookups.Add(1)
	entry := t.table[key%t.capacity]
	if !entry.valid() {
		return TableEntry{}, false
	}
	if entry.key != key {
		t.t2collisions.Add(1)
		return TableEntry{}, false
	}
	t.hits.Add(1)
	return entry, true
}

// Store writes the entry for key, overwriting whatever was in its slot.
func (t *TranspositionTable) Store(key uint64, entry TableEntry) {
	entry.key = key
	t.table[key%t.capacity] = entry
	t.created.Add(1)
}

// Reset empties every slot and zeroes the counters.
func (t *TranspositionTable) Reset() {
	clear(t.table)
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.t2collisions.Store(0)
}

func (t *TranspositionTable) Stats() TableStats {
	return TableStats{
		Created:      t.created.Load(),
		Lookups:      t.lookups.Load(),
		Hits:         t.hits.Load(),
		T2Collisions: t.t2collisions.Load(),
	}
}
