package ephem

import (
	"log/slog"
	"time"

	"github.com/n4hy/VisibleEphemeris/internal/catalog"
	"github.com/n4hy/VisibleEphemeris/internal/transform"
)

// Provider computes instantaneous geometry and illumination for a single
// object. Both calls are synchronous and bounded-time; either may fail,
// and the Computer converts failures into sentinel samples.
type Provider interface {
	// Geometry returns look angles from the observer to the object at t.
	Geometry(obs transform.ObserverPosition, t time.Time) (transform.LookAngles, error)
	// Illuminated reports whether the object is in direct sunlight at t.
	Illuminated(t time.Time) (bool, error)
}

// sgp4Provider is the production Provider: SGP4 state vector, TEME→ECEF
// rotation, SEZ look angles, cylindrical-shadow illumination.
type sgp4Provider struct {
	prop *SGP4Propagator
}

func (p *sgp4Provider) Geometry(obs transform.ObserverPosition, t time.Time) (transform.LookAngles, error) {
	teme, err := p.prop.PropagateAt(t)
	if err != nil {
		return transform.LookAngles{}, err
	}
	ecef := transform.TEMEToECEF(teme, t)
	return transform.ECEFToLookAngles(obs, ecef.X, ecef.Y, ecef.Z), nil
}

func (p *sgp4Provider) Illuminated(t time.Time) (bool, error) {
	teme, err := p.prop.PropagateAt(t)
	if err != nil {
		return false, err
	}
	return transform.Sunlit(teme, t), nil
}

// failedProvider stands in for an object whose SGP4 model could not be
// initialized; it keeps the provider slice index-aligned with the catalog
// so the object yields an invalid sample every tick instead of shifting
// its neighbours.
type failedProvider struct {
	err error
}

func (p *failedProvider) Geometry(transform.ObserverPosition, time.Time) (transform.LookAngles, error) {
	return transform.LookAngles{}, p.err
}

func (p *failedProvider) Illuminated(time.Time) (bool, error) {
	return false, p.err
}

// NewProviders builds one Provider per catalog object, in catalog order.
// Initialization failures are logged and replaced with a failedProvider.
func NewProviders(objects []catalog.Object, logger *slog.Logger) []Provider {
	providers := make([]Provider, len(objects))
	var failed int
	for i, obj := range objects {
		prop, err := NewSGP4Propagator(obj.Line1, obj.Line2, obj.NORADID)
		if err != nil {
			logger.Warn("sgp4 init failed", "norad_id", obj.NORADID, "name", obj.Name, "error", err)
			providers[i] = &failedProvider{err: err}
			failed++
			continue
		}
		providers[i] = &sgp4Provider{prop: prop}
	}
	if failed > 0 {
		logger.Info("sgp4 providers built", "total", len(objects), "failed", failed)
	}
	return providers
}
