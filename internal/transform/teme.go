// Package transform provides the coordinate frame machinery behind the
// visibility pipeline: TEME (True Equator Mean Equinox) satellite state
// vectors from SGP4 are rotated into ECEF, then into topocentric look
// angles for a fixed ground observer. A low-precision solar ephemeris
// supplies the observer's sun altitude and the satellite illumination
// test.
//
// Method: simplified Vallado-style rotation using GMST only
// (TEME → PEF ≈ ECEF). This ignores polar motion and equation of
// equinoxes, which introduces ~50m error at most — well under the
// accuracy of the TLE data itself.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"math"
	"time"
)

// PositionTEME represents a satellite position and velocity in the TEME frame.
type PositionTEME struct {
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s
}

// PositionECEF represents a satellite position and velocity in the ECEF frame.
type PositionECEF struct {
	X, Y, Z    float64 // meters
	VX, VY, VZ float64 // m/s
}

// TEMEToECEF transforms a TEME position/velocity to ECEF at the given UTC time.
// Input: TEME in km and km/s. Output: ECEF in meters and m/s.
func TEMEToECEF(teme PositionTEME, t time.Time) PositionECEF {
	return TEMEToECEFWithGMST(teme, GMST(t))
}

// TEMEToECEFWithGMST transforms TEME to ECEF using a precomputed GMST angle
// (radians). Useful when transforming many satellites at the same tick time.
//
// Position transform: r_ECEF = R3(θ) * r_TEME
// Velocity transform: v_ECEF = R3(θ) * v_TEME - ω × r_ECEF
//
// where R3(θ) is a rotation about the Z-axis by angle θ (GMST),
// and ω = [0, 0, ω_earth] is Earth's angular velocity vector.
func TEMEToECEFWithGMST(teme PositionTEME, gmst float64) PositionECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	xECEF := teme.X*cosG + teme.Y*sinG
	yECEF := -teme.X*sinG + teme.Y*cosG
	zECEF := teme.Z

	vxRot := teme.VX*cosG + teme.VY*sinG
	vyRot := -teme.VX*sinG + teme.VY*cosG
	vzRot := teme.VZ

	// ω × r_ECEF = [-ω*y_ECEF, ω*x_ECEF, 0]
	vxECEF := vxRot + OmegaEarth*yECEF
	vyECEF := vyRot - OmegaEarth*xECEF
	vzECEF := vzRot

	// km → meters, km/s → m/s.
	return PositionECEF{
		X:  xECEF * 1000.0,
		Y:  yECEF * 1000.0,
		Z:  zECEF * 1000.0,
		VX: vxECEF * 1000.0,
		VY: vyECEF * 1000.0,
		VZ: vzECEF * 1000.0,
	}
}
