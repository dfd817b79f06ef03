// Package visibility ranks per-tick geometry into the published snapshot:
// multi-criterion filtering, elevation ranking, row classification, and
// the immutable versioned Snapshot all sinks consume.
package visibility

import (
	"sort"
	"strings"

	"github.com/n4hy/VisibleEphemeris/internal/catalog"
	"github.com/n4hy/VisibleEphemeris/internal/ephem"
)

// Classification is informational row metadata; it never filters.
type Classification string

const (
	ClassSpecial  Classification = "special"  // marquee allow-list member
	ClassVisible  Classification = "visible"  // sunlit
	ClassEclipsed Classification = "eclipsed" // in Earth's shadow
)

// Display colors per classification, consumed by the web view.
const (
	ColorSpecial  = "#ffcc44"
	ColorVisible  = "#7fff9e"
	ColorEclipsed = "#8a94a6"
)

// Row is one ranked entry of a Snapshot.
type Row struct {
	Name         string
	NORADID      int
	AzimuthDeg   float64
	ElevationDeg float64
	RangeKm      float64
	Sunlit       bool
	Special      bool
	Class        Classification
}

// Color returns the display color for the row's classification.
func (r Row) Color() string {
	switch r.Class {
	case ClassSpecial:
		return ColorSpecial
	case ClassVisible:
		return ColorVisible
	default:
		return ColorEclipsed
	}
}

// Config is the active filter configuration, fixed for the run.
type Config struct {
	MinElevationDeg float64
	Include         []string // keep names containing any of these (empty: keep all)
	Exclude         []string // drop names containing any of these
	VisibleOnly     bool     // require sunlit object AND dark sky
	TwilightDeg     float64  // solar altitude threshold, always negative
	MaxSat          int      // row cap
}

// Filter applies the per-tick visibility pipeline over the fixed catalog.
type Filter struct {
	cfg     Config
	objects []catalog.Object
	include []string // lowercased masks
	exclude []string
}

// NewFilter creates a Filter over the validated catalog. The objects slice
// must be index-aligned with the sample arrays passed to Apply.
func NewFilter(cfg Config, objects []catalog.Object) *Filter {
	return &Filter{
		cfg:     cfg,
		objects: objects,
		include: lowerAll(cfg.Include),
		exclude: lowerAll(cfg.Exclude),
	}
}

// Apply produces the ranked row sequence for one tick. The pipeline order
// is: validity gate, elevation mask, name masks, visible-only mode, stable
// elevation-descending sort, cap to MaxSat. Apply is pure with respect to
// its inputs: identical samples and sun altitude yield identical rows.
func (f *Filter) Apply(samples []ephem.GeometrySample, sunAltDeg float64) []Row {
	night := sunAltDeg <= f.cfg.TwilightDeg

	rows := make([]Row, 0, f.cfg.MaxSat)
	for i, s := range samples {
		if !s.Valid {
			continue
		}
		if s.ElevationDeg < f.cfg.MinElevationDeg {
			continue
		}
		obj := f.objects[i]
		if !f.nameMatches(obj.Name) {
			continue
		}
		if f.cfg.VisibleOnly && !(s.Sunlit && night) {
			continue
		}

		rows = append(rows, Row{
			Name:         obj.Name,
			NORADID:      obj.NORADID,
			AzimuthDeg:   s.AzimuthDeg,
			ElevationDeg: s.ElevationDeg,
			RangeKm:      s.RangeKm,
			Sunlit:       s.Sunlit,
			Special:      obj.Special,
			Class:        classify(obj.Special, s.Sunlit),
		})
	}

	// Elevation descending; the stable sort preserves catalog order on ties.
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].ElevationDeg > rows[b].ElevationDeg
	})

	if f.cfg.MaxSat > 0 && len(rows) > f.cfg.MaxSat {
		rows = rows[:f.cfg.MaxSat]
	}
	return rows
}

// classify assigns row metadata: special takes precedence over visible
// over eclipsed.
func classify(special, sunlit bool) Classification {
	switch {
	case special:
		return ClassSpecial
	case sunlit:
		return ClassVisible
	default:
		return ClassEclipsed
	}
}

// nameMatches applies the exclude masks first, then requires at least one
// include match when include masks are configured.
func (f *Filter) nameMatches(name string) bool {
	lname := strings.ToLower(name)
	for _, p := range f.exclude {
		if strings.Contains(lname, p) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, p := range f.include {
		if strings.Contains(lname, p) {
			return true
		}
	}
	return false
}

func lowerAll(masks []string) []string {
	if len(masks) == 0 {
		return nil
	}
	out := make([]string, 0, len(masks))
	for _, m := range masks {
		m = strings.TrimSpace(m)
		if m != "" {
			out = append(out, strings.ToLower(m))
		}
	}
	return out
}
