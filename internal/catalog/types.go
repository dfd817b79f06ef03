// Package catalog acquires and validates the orbital-element catalog the
// visibility pipeline runs against. Raw TLE records are fetched from
// Celestrak (or loaded from the disk cache), parsed, and converted once
// into validated Objects before the tick loop starts. The retained set is
// immutable for the lifetime of the run.
package catalog

import "time"

// Record is a raw two-line element set as parsed from the catalog source.
// Orbital elements beyond the identity fields stay opaque until validation.
type Record struct {
	NORADID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}

// Object is a validated catalog entry retained for the run.
type Object struct {
	NORADID int
	Name    string // display name, bracketed qualifiers stripped
	Epoch   time.Time
	Line1   string
	Line2   string

	Eccentricity    float64
	SemiMajorAxisKm float64
	ApogeeAltKm     float64
	Special         bool // fixed allow-list membership (marquee objects)
}

// Dataset is one complete catalog load.
type Dataset struct {
	Source    string
	FetchedAt time.Time
	Objects   []Object
}
