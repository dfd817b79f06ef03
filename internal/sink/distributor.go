// Package sink fans each tick's snapshot out to its consumers: the
// console table, the UDP datagram feed, and the web stream publisher.
// Every sink is independently optional and independently failing — one
// sink's error is logged and never stalls the others or the next tick.
package sink

import (
	"log/slog"

	"github.com/n4hy/VisibleEphemeris/internal/metrics"
	"github.com/n4hy/VisibleEphemeris/internal/visibility"
)

// Sink consumes published snapshots. Publish must not block on network
// I/O; it either completes promptly or returns an error for the
// Distributor to log.
type Sink interface {
	Name() string
	Publish(s *visibility.Snapshot) error
	Close() error
}

// Distributor publishes snapshots to all registered sinks.
type Distributor struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewDistributor creates a Distributor over the given sinks. A nil sink
// (a disabled option) is skipped at registration.
func NewDistributor(logger *slog.Logger, sinks ...Sink) *Distributor {
	d := &Distributor{logger: logger}
	for _, s := range sinks {
		if s != nil {
			d.sinks = append(d.sinks, s)
		}
	}
	return d
}

// Publish offers the snapshot to every sink. Failures are logged and
// counted; the next tick retries naturally.
func (d *Distributor) Publish(s *visibility.Snapshot) {
	for _, sink := range d.sinks {
		if err := sink.Publish(s); err != nil {
			metrics.IncSinkErrors(sink.Name())
			d.logger.Warn("sink publish failed",
				"sink", sink.Name(),
				"generation", s.Generation,
				"error", err,
			)
			continue
		}
		metrics.IncSinkPublished(sink.Name())
	}
}

// Close releases all sink resources in registration order. Every sink is
// closed even when an earlier one fails; the first error is returned.
func (d *Distributor) Close() error {
	var firstErr error
	for _, sink := range d.sinks {
		if err := sink.Close(); err != nil {
			d.logger.Warn("sink close failed", "sink", sink.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
