// Package engine drives the real-time visibility loop: one tick computes
// geometry for the whole catalog, filters and ranks it, builds the
// snapshot, and hands it to the distributor, then the loop sleeps out the
// remainder of the configured interval.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/n4hy/VisibleEphemeris/internal/ephem"
	"github.com/n4hy/VisibleEphemeris/internal/metrics"
	"github.com/n4hy/VisibleEphemeris/internal/sink"
	"github.com/n4hy/VisibleEphemeris/internal/transform"
	"github.com/n4hy/VisibleEphemeris/internal/visibility"
)

// Scheduler owns the tick cadence and the cooperative shutdown point.
type Scheduler struct {
	computer *ephem.Computer
	filter   *visibility.Filter
	builder  *visibility.Builder
	dist     *sink.Distributor
	obs      transform.ObserverPosition
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler wires the pipeline stages into a runnable loop.
func NewScheduler(
	computer *ephem.Computer,
	filter *visibility.Filter,
	builder *visibility.Builder,
	dist *sink.Distributor,
	obs transform.ObserverPosition,
	interval time.Duration,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		computer: computer,
		filter:   filter,
		builder:  builder,
		dist:     dist,
		obs:      obs,
		interval: interval,
		logger:   logger,
	}
}

// Tick runs one compute→filter→build→publish cycle at time t and returns
// the published snapshot.
func (s *Scheduler) Tick(t time.Time) *visibility.Snapshot {
	start := time.Now()
	epoch := t.UTC().Truncate(time.Second)

	sunAlt := transform.SunAltitudeDeg(s.obs, epoch)
	samples := s.computer.ComputeTick(s.obs, epoch)

	var invalid int
	for _, smp := range samples {
		if !smp.Valid {
			invalid++
		}
	}

	rows := s.filter.Apply(samples, sunAlt)
	snap := s.builder.Build(epoch, sunAlt, rows)
	s.dist.Publish(snap)

	metrics.RecordTick(time.Since(start), snap.Generation, len(rows), invalid)
	return snap
}

// Run executes the fixed-interval loop until ctx is cancelled. The sleep
// is the interval minus the elapsed tick time, clamped at zero: an
// overrunning tick is followed immediately by the next one instead of
// accumulating drift, and ticks are never skipped. Cancellation is
// cooperative — an in-flight tick always completes before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("tick loop started",
		"interval", s.interval.String(),
		"objects", s.computer.Len(),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("tick loop stopped")
			return
		default:
		}

		start := time.Now()
		snap := s.Tick(start)

		s.logger.Debug("tick published",
			"generation", snap.Generation,
			"visible", len(snap.Rows),
			"sun_alt_deg", snap.SunAltDeg,
			"duration_ms", time.Since(start).Milliseconds(),
		)

		delay := s.interval - time.Since(start)
		if delay < 0 {
			delay = 0
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("tick loop stopped")
			return
		case <-timer.C:
		}
	}
}
