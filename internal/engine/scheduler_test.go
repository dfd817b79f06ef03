package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/n4hy/VisibleEphemeris/internal/catalog"
	"github.com/n4hy/VisibleEphemeris/internal/ephem"
	"github.com/n4hy/VisibleEphemeris/internal/sink"
	"github.com/n4hy/VisibleEphemeris/internal/transform"
	"github.com/n4hy/VisibleEphemeris/internal/visibility"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// fixedProvider always reports the same geometry.
type fixedProvider struct {
	la transform.LookAngles
}

func (f *fixedProvider) Geometry(transform.ObserverPosition, time.Time) (transform.LookAngles, error) {
	return f.la, nil
}

func (f *fixedProvider) Illuminated(time.Time) (bool, error) {
	return true, nil
}

// captureSink records every published snapshot.
type captureSink struct {
	mu    sync.Mutex
	snaps []*visibility.Snapshot
}

func (c *captureSink) Name() string { return "capture" }

func (c *captureSink) Publish(s *visibility.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps = append(c.snaps, s)
	return nil
}

func (c *captureSink) Close() error { return nil }

func (c *captureSink) snapshots() []*visibility.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*visibility.Snapshot(nil), c.snaps...)
}

func catalogObjects(names ...string) []catalog.Object {
	objs := make([]catalog.Object, len(names))
	for i, n := range names {
		objs[i] = catalog.Object{NORADID: 10000 + i, Name: n}
	}
	return objs
}

func testScheduler(capture *captureSink, interval time.Duration) *Scheduler {
	providers := []ephem.Provider{
		&fixedProvider{la: transform.LookAngles{AzimuthDeg: 120, ElevationDeg: 45, RangeKm: 800}},
	}
	computer := ephem.NewComputer(providers, 1, testLogger)

	filter := visibility.NewFilter(visibility.Config{
		MinElevationDeg: 0,
		VisibleOnly:     false,
		TwilightDeg:     -6,
		MaxSat:          40,
	}, catalogObjects("TESTSAT"))
	builder := visibility.NewBuilder(-6)

	dist := sink.NewDistributor(testLogger, capture)
	obs := transform.NewObserverPosition(39.7392, -104.9903, 1609)

	return NewScheduler(computer, filter, builder, dist, obs, interval, testLogger)
}

func TestTick_PublishesSnapshot(t *testing.T) {
	capture := &captureSink{}
	s := testScheduler(capture, time.Second)

	at := time.Date(2026, 8, 25, 3, 15, 42, 987654321, time.UTC)
	snap := s.Tick(at)

	if snap == nil {
		t.Fatal("Tick returned nil snapshot")
	}
	// Epoch is truncated to whole seconds.
	want := time.Date(2026, 8, 25, 3, 15, 42, 0, time.UTC)
	if !snap.Epoch.Equal(want) {
		t.Errorf("epoch = %v, want %v", snap.Epoch, want)
	}
	if len(snap.Rows) != 1 || snap.Rows[0].Name != "TESTSAT" {
		t.Errorf("rows = %+v, want the single test object", snap.Rows)
	}

	got := capture.snapshots()
	if len(got) != 1 || got[0] != snap {
		t.Errorf("sink received %d snapshots, want exactly the returned one", len(got))
	}
}

func TestTick_GenerationIncreases(t *testing.T) {
	s := testScheduler(&captureSink{}, time.Second)

	a := s.Tick(time.Now())
	b := s.Tick(time.Now())
	if b.Generation <= a.Generation {
		t.Errorf("generations %d then %d, want strictly increasing", a.Generation, b.Generation)
	}
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	capture := &captureSink{}
	s := testScheduler(capture, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	snaps := capture.snapshots()
	if len(snaps) < 2 {
		t.Fatalf("got %d snapshots in 100ms at 10ms interval, want several", len(snaps))
	}
	for i := 1; i < len(snaps); i++ {
		if snaps[i].Generation <= snaps[i-1].Generation {
			t.Fatalf("generation went from %d to %d", snaps[i-1].Generation, snaps[i].Generation)
		}
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	capture := &captureSink{}
	s := testScheduler(capture, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return promptly with a cancelled context")
	}
	if len(capture.snapshots()) != 0 {
		t.Error("no tick should run when the context is already cancelled")
	}
}
