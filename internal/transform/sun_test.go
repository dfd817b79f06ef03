package transform

import (
	"math"
	"testing"
	"time"
)

func TestSunPosition_Equinox(t *testing.T) {
	// Near the March equinox the Sun sits on the celestial equator:
	// declination and right ascension both close to zero.
	sun := SunPosition(time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC))

	if math.Abs(sun.DecRad*rad2deg) > 0.5 {
		t.Errorf("equinox declination = %.3f deg, want ~0", sun.DecRad*rad2deg)
	}
	if math.Abs(sun.RARad*rad2deg) > 2.0 {
		t.Errorf("equinox right ascension = %.3f deg, want ~0", sun.RARad*rad2deg)
	}
}

func TestSunPosition_SolsticeDeclination(t *testing.T) {
	// June solstice: declination at the obliquity of the ecliptic (+23.44 deg).
	sun := SunPosition(time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC))
	if math.Abs(sun.DecRad*rad2deg-23.44) > 0.2 {
		t.Errorf("solstice declination = %.3f deg, want ~23.44", sun.DecRad*rad2deg)
	}
}

func TestSunPosition_UnitVectorAndDistance(t *testing.T) {
	sun := SunPosition(time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC))

	mag := math.Sqrt(sun.X*sun.X + sun.Y*sun.Y + sun.Z*sun.Z)
	if math.Abs(mag-1.0) > 1e-9 {
		t.Errorf("sun direction magnitude = %.12f, want 1", mag)
	}

	// Earth-Sun distance stays within ~1.7% of one AU.
	if math.Abs(sun.DistKm-astronomicalUnitKm)/astronomicalUnitKm > 0.02 {
		t.Errorf("sun distance = %.0f km, want within 2%% of 1 AU", sun.DistKm)
	}
}

func TestSunAltitudeDeg_NoonAndMidnight(t *testing.T) {
	// Equatorial observer on the equinox: near-zenith Sun at local noon,
	// deep below the horizon at local midnight.
	obs := NewObserverPosition(0, 0, 0)

	noon := SunAltitudeDeg(obs, time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC))
	if noon < 80 {
		t.Errorf("equinox noon altitude = %.2f deg, want > 80", noon)
	}

	midnight := SunAltitudeDeg(obs, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC))
	if midnight > -60 {
		t.Errorf("equinox midnight altitude = %.2f deg, want < -60", midnight)
	}
}

func TestSunlitWithSun_ShadowGeometry(t *testing.T) {
	// Fixed sun direction along +X keeps the geometry readable.
	sun := SunVector{X: 1, DistKm: astronomicalUnitKm}

	cases := []struct {
		name string
		sat  PositionTEME
		want bool
	}{
		{"day side", PositionTEME{X: 7000}, true},
		{"day side off axis", PositionTEME{X: 500, Y: 6800}, true},
		{"deep in shadow", PositionTEME{X: -7000}, false},
		{"anti-sun but clear of cylinder", PositionTEME{X: -7000, Y: 7000}, true},
		{"just inside shadow radius", PositionTEME{X: -8000, Z: 6000}, false},
	}

	for _, tc := range cases {
		if got := SunlitWithSun(tc.sat, sun); got != tc.want {
			t.Errorf("%s: SunlitWithSun = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSunlit_MatchesPrecomputed(t *testing.T) {
	at := time.Date(2026, 8, 25, 3, 0, 0, 0, time.UTC)
	sat := PositionTEME{X: 6771, Y: 0, Z: 0}

	if Sunlit(sat, at) != SunlitWithSun(sat, SunPosition(at)) {
		t.Error("Sunlit and SunlitWithSun disagree for the same instant")
	}
}
