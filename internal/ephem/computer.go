package ephem

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/n4hy/VisibleEphemeris/internal/transform"
)

// Sentinel values for a sample whose computation failed. The elevation
// sentinel guarantees an invalid object fails every elevation mask.
const (
	InvalidElevationDeg = -90.0
	InvalidRangeKm      = 0.0
)

// GeometrySample is one object's per-tick result. Either fully populated
// with Valid set, or carrying the sentinel values with Valid clear —
// never partially written.
type GeometrySample struct {
	AzimuthDeg   float64
	ElevationDeg float64
	RangeKm      float64
	Sunlit       bool
	Valid        bool
}

// invalidSample is the sentinel result for a failed computation.
var invalidSample = GeometrySample{
	AzimuthDeg:   0,
	ElevationDeg: InvalidElevationDeg,
	RangeKm:      InvalidRangeKm,
	Sunlit:       false,
	Valid:        false,
}

// Computer produces one GeometrySample per object per tick. Sample
// storage is allocated once, sized to the object count, and reused every
// tick; the per-tick path allocates nothing.
//
// Computation is spread across a fixed set of workers striding over the
// sample array, which bounds wall-clock tick time for catalogs in the
// thousands while keeping writes index-disjoint.
type Computer struct {
	providers []Provider
	workers   int
	samples   []GeometrySample
	logger    *slog.Logger
}

// NewComputer creates a Computer over the given providers.
// workers < 1 falls back to single-threaded computation.
func NewComputer(providers []Provider, workers int, logger *slog.Logger) *Computer {
	if workers < 1 {
		workers = 1
	}
	return &Computer{
		providers: providers,
		workers:   workers,
		samples:   make([]GeometrySample, len(providers)),
		logger:    logger,
	}
}

// Len returns the number of objects the Computer tracks.
func (c *Computer) Len() int {
	return len(c.providers)
}

// ComputeTick computes geometry for every object at time t. The returned
// slice is the Computer's reused storage: it is valid only until the next
// ComputeTick call, and callers must copy anything they keep.
//
// One object's failure never aborts or corrupts other objects' samples;
// the failing object gets the sentinel sample for this tick only.
func (c *Computer) ComputeTick(obs transform.ObserverPosition, t time.Time) []GeometrySample {
	n := len(c.providers)
	if n == 0 {
		return c.samples
	}

	workers := c.workers
	if workers > n {
		workers = n
	}

	if workers == 1 {
		for i := 0; i < n; i++ {
			c.samples[i] = c.computeOne(i, obs, t)
		}
		return c.samples
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for i := start; i < n; i += workers {
				c.samples[i] = c.computeOne(i, obs, t)
			}
		}(w)
	}
	wg.Wait()

	return c.samples
}

// computeOne evaluates a single object, converting any failure — error
// return, NaN output, or a panic out of the propagation library — into
// the sentinel sample.
func (c *Computer) computeOne(i int, obs transform.ObserverPosition, t time.Time) (sample GeometrySample) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("geometry computation panicked", "index", i, "panic", fmt.Sprint(r))
			sample = invalidSample
		}
	}()

	la, err := c.providers[i].Geometry(obs, t)
	if err != nil {
		c.logger.Debug("geometry computation failed", "index", i, "error", err)
		return invalidSample
	}
	if math.IsNaN(la.AzimuthDeg) || math.IsNaN(la.ElevationDeg) || math.IsNaN(la.RangeKm) {
		c.logger.Debug("geometry computation produced NaN", "index", i)
		return invalidSample
	}

	// Illumination fails independently of geometry: an otherwise valid
	// sample defaults to sunlit so a potentially visible object is never
	// silently hidden.
	sunlit, err := c.providers[i].Illuminated(t)
	if err != nil {
		sunlit = true
	}

	return GeometrySample{
		AzimuthDeg:   math.Mod(la.AzimuthDeg+360.0, 360.0),
		ElevationDeg: la.ElevationDeg,
		RangeKm:      la.RangeKm,
		Sunlit:       sunlit,
		Valid:        true,
	}
}
