package visibility

import (
	"sync/atomic"
	"time"
)

// Snapshot is one immutable, versioned result of a full tick. Exactly one
// snapshot is "current" at any instant; a new one atomically replaces the
// previous in the stream publisher. Nothing mutates a Snapshot after
// construction.
type Snapshot struct {
	Epoch      time.Time
	SunAltDeg  float64
	Night      bool
	Rows       []Row
	Generation uint64
}

// Builder assembles Snapshots with a strictly increasing generation
// counter. The night flag uses the same twilight threshold as the filter,
// so every consumer agrees on day/night classification.
type Builder struct {
	twilightDeg float64
	gen         atomic.Uint64
}

// NewBuilder creates a Builder using the given twilight threshold (degrees,
// negative).
func NewBuilder(twilightDeg float64) *Builder {
	return &Builder{twilightDeg: twilightDeg}
}

// Build constructs the tick's Snapshot. Construction never fails; an empty
// row sequence is a valid snapshot meaning nothing is currently visible.
func (b *Builder) Build(epoch time.Time, sunAltDeg float64, rows []Row) *Snapshot {
	return &Snapshot{
		Epoch:      epoch,
		SunAltDeg:  sunAltDeg,
		Night:      sunAltDeg <= b.twilightDeg,
		Rows:       rows,
		Generation: b.gen.Add(1),
	}
}
