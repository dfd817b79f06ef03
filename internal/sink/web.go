package sink

import (
	"github.com/n4hy/VisibleEphemeris/internal/stream"
	"github.com/n4hy/VisibleEphemeris/internal/visibility"
)

// WebSink hands snapshots to the stream publisher. The publish is an
// atomic pointer swap plus non-blocking channel offers, so it never
// fails and never waits on a viewer.
type WebSink struct {
	pub *stream.Publisher
}

// NewWebSink wraps the publisher serving the SSE feed.
func NewWebSink(pub *stream.Publisher) *WebSink {
	return &WebSink{pub: pub}
}

func (w *WebSink) Name() string { return "web" }

func (w *WebSink) Publish(s *visibility.Snapshot) error {
	w.pub.Publish(s)
	return nil
}

// Close is a no-op; the HTTP server owns the connection lifecycle.
func (w *WebSink) Close() error { return nil }
