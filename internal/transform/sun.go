package transform

import (
	"math"
	"time"
)

const (
	deg2rad = math.Pi / 180.0
	rad2deg = 180.0 / math.Pi

	// astronomicalUnitKm converts the solar distance from AU to km.
	astronomicalUnitKm = 149597870.7
)

// SunVector holds the geocentric position of the Sun.
// The frame is mean-of-date, which is within ~0.01° of TEME — far below
// the accuracy needed for an illumination test.
type SunVector struct {
	X, Y, Z float64 // unit vector components
	DistKm  float64 // Earth-Sun distance
	RARad   float64 // right ascension
	DecRad  float64 // declination
}

// SunPosition computes the geocentric solar position at the given UTC time
// using the low-precision algorithm from Vallado Section 5.1 (also
// Astronomical Almanac page C24). Accurate to ~0.01°, valid 1950–2050.
func SunPosition(t time.Time) SunVector {
	tUT1 := (JulianDate(t.UTC()) - j2000) / 36525.0

	// Mean longitude and mean anomaly of the Sun (degrees).
	meanLon := math.Mod(280.460+36000.771*tUT1, 360.0)
	meanAnom := math.Mod(357.5291092+35999.05034*tUT1, 360.0) * deg2rad

	// Ecliptic longitude (degrees → radians).
	eclLon := (meanLon + 1.914666471*math.Sin(meanAnom) +
		0.019994643*math.Sin(2.0*meanAnom)) * deg2rad

	// Obliquity of the ecliptic (radians).
	obliquity := (23.439291 - 0.0130042*tUT1) * deg2rad

	// Distance in AU.
	distAU := 1.000140612 - 0.016708617*math.Cos(meanAnom) -
		0.000139589*math.Cos(2.0*meanAnom)

	sinEcl := math.Sin(eclLon)
	x := math.Cos(eclLon)
	y := math.Cos(obliquity) * sinEcl
	z := math.Sin(obliquity) * sinEcl

	return SunVector{
		X:      x,
		Y:      y,
		Z:      z,
		DistKm: distAU * astronomicalUnitKm,
		RARad:  math.Atan2(y, x),
		DecRad: math.Asin(z),
	}
}

// SunAltitudeDeg returns the Sun's altitude above the observer's horizon in
// degrees. Negative values mean the Sun is below the horizon; the twilight
// thresholds in the visibility filter compare against this value.
func SunAltitudeDeg(obs ObserverPosition, t time.Time) float64 {
	sun := SunPosition(t)

	// Local hour angle = GMST + east longitude - right ascension.
	ha := GMST(t) + obs.LonRad - sun.RARad

	sinAlt := math.Sin(obs.LatRad)*math.Sin(sun.DecRad) +
		math.Cos(obs.LatRad)*math.Cos(sun.DecRad)*math.Cos(ha)
	return math.Asin(sinAlt) * rad2deg
}

// Sunlit reports whether a satellite at the given TEME position (km) is in
// direct sunlight at time t, using a cylindrical Earth-shadow model: the
// satellite is eclipsed only when it is on the anti-Sun side of Earth and
// within one Earth radius of the shadow axis.
func Sunlit(sat PositionTEME, t time.Time) bool {
	return SunlitWithSun(sat, SunPosition(t))
}

// SunlitWithSun is Sunlit with a precomputed solar position, so one tick's
// sun vector can be shared across the whole catalog.
func SunlitWithSun(sat PositionTEME, sun SunVector) bool {
	// Projection of the satellite position onto the Sun direction.
	along := sat.X*sun.X + sat.Y*sun.Y + sat.Z*sun.Z
	if along >= 0 {
		return true // Sun side of Earth, always lit.
	}

	// Perpendicular distance from the shadow axis.
	px := sat.X - along*sun.X
	py := sat.Y - along*sun.Y
	pz := sat.Z - along*sun.Z
	perp := math.Sqrt(px*px + py*py + pz*pz)

	return perp > EarthRadiusKm
}
