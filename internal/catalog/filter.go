package catalog

import (
	"log/slog"

	"github.com/n4hy/VisibleEphemeris/internal/transform"
)

// specialIDs is the fixed allow-list of marquee objects flagged for
// display emphasis regardless of classification.
var specialIDs = map[int]bool{
	20580: true, // Hubble Space Telescope
	25544: true, // ISS (Zarya)
	48274: true, // CSS (Tianhe)
}

// Filter converts raw records into validated Objects, applying the
// load-time screen: records with unparseable orbital fields, eccentricity
// outside [0,1), non-positive semi-major axis, or apogee altitude above
// maxApogeeKm are silently excluded (debug log only). Runs once; the
// result is the fixed object set for the whole run.
func Filter(records []Record, maxApogeeKm float64, logger *slog.Logger) []Object {
	objects := make([]Object, 0, len(records))

	for _, rec := range records {
		el, err := parseElements(rec.Line2)
		if err != nil {
			logger.Debug("catalog reject: unparseable elements",
				"norad_id", rec.NORADID, "name", rec.Name, "error", err)
			continue
		}
		if el.eccentricity < 0 || el.eccentricity >= 1 {
			logger.Debug("catalog reject: eccentricity out of range",
				"norad_id", rec.NORADID, "name", rec.Name, "eccentricity", el.eccentricity)
			continue
		}
		if el.semiMajorAxisKm <= 0 {
			logger.Debug("catalog reject: non-positive semi-major axis",
				"norad_id", rec.NORADID, "name", rec.Name)
			continue
		}

		apogeeAlt := el.semiMajorAxisKm*(1.0+el.eccentricity) - transform.EarthRadiusKm
		if apogeeAlt > maxApogeeKm {
			logger.Debug("catalog reject: apogee above ceiling",
				"norad_id", rec.NORADID, "name", rec.Name,
				"apogee_km", apogeeAlt, "ceiling_km", maxApogeeKm)
			continue
		}

		objects = append(objects, Object{
			NORADID:         rec.NORADID,
			Name:            AbbreviateName(rec.Name),
			Epoch:           rec.Epoch,
			Line1:           rec.Line1,
			Line2:           rec.Line2,
			Eccentricity:    el.eccentricity,
			SemiMajorAxisKm: el.semiMajorAxisKm,
			ApogeeAltKm:     apogeeAlt,
			Special:         specialIDs[rec.NORADID],
		})
	}

	return objects
}
