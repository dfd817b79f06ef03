package stream

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/n4hy/VisibleEphemeris/internal/visibility"
)

func testConfig() Config {
	return Config{
		MaxConcurrentPerIP: 10,
		KeepaliveInterval:  30 * time.Second,
		MaxRows:            40,
	}
}

// readEvent scans the SSE stream until it finds a data: line and returns
// the decoded message.
func readEvent(t *testing.T, r *bufio.Reader) visibility.Message {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("reading stream: %v", err)
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var msg visibility.Message
		if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &msg); err != nil {
			t.Fatalf("decoding event: %v", err)
		}
		return msg
	}
}

func TestHandleEvents_InitialSnapshotOnConnect(t *testing.T) {
	pub := NewPublisher()
	pub.Publish(&visibility.Snapshot{
		Epoch:      time.Date(2026, 8, 25, 3, 0, 0, 0, time.UTC),
		SunAltDeg:  -15,
		Night:      true,
		Rows:       []visibility.Row{{Name: "ISS", ElevationDeg: 40, Class: visibility.ClassSpecial, Special: true}},
		Generation: 3,
	})

	h := NewHandler(pub, testConfig(), testLogger())
	server := httptest.NewServer(http.HandlerFunc(h.HandleEvents))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}

	msg := readEvent(t, bufio.NewReader(resp.Body))
	if msg.Type != "snapshot" || !msg.IsNight {
		t.Errorf("initial message = %+v, want the current night snapshot", msg)
	}
	if len(msg.Rows) != 1 || msg.Rows[0].Name != "ISS" {
		t.Errorf("initial rows = %+v, want the ISS row", msg.Rows)
	}
}

func TestHandleEvents_DeliversSubsequentSnapshots(t *testing.T) {
	pub := NewPublisher()
	h := NewHandler(pub, testConfig(), testLogger())
	server := httptest.NewServer(http.HandlerFunc(h.HandleEvents))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()
	reader := bufio.NewReader(resp.Body)

	// No snapshot yet, so nothing but the retry preamble is on the wire.
	// Publish after the subscription is live.
	deadline := time.After(2 * time.Second)
	published := make(chan struct{})
	go func() {
		for {
			select {
			case <-deadline:
				return
			case <-time.After(20 * time.Millisecond):
				if pub.Subscribers() > 0 {
					pub.Publish(&visibility.Snapshot{
						Epoch:      time.Now().UTC(),
						SunAltDeg:  -20,
						Night:      true,
						Rows:       []visibility.Row{{Name: "HST"}},
						Generation: 1,
					})
					close(published)
					return
				}
			}
		}
	}()

	msg := readEvent(t, reader)
	<-published
	if len(msg.Rows) != 1 || msg.Rows[0].Name != "HST" {
		t.Errorf("streamed message rows = %+v, want the HST row", msg.Rows)
	}
}

func TestHandleEvents_RateLimit(t *testing.T) {
	pub := NewPublisher()
	cfg := testConfig()
	cfg.MaxConcurrentPerIP = 1

	h := NewHandler(pub, cfg, testLogger())
	server := httptest.NewServer(http.HandlerFunc(h.HandleEvents))
	defer server.Close()

	first, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("first connect: %v", err)
	}
	defer first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first connection status = %d, want 200", first.StatusCode)
	}

	second, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("second connect: %v", err)
	}
	defer second.Body.Close()
	if second.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second connection status = %d, want 429", second.StatusCode)
	}
	if second.Header.Get("Retry-After") == "" {
		t.Error("429 response should carry Retry-After")
	}
}

func TestStreamLimiter(t *testing.T) {
	l := newStreamLimiter(2)

	if !l.acquire("1.2.3.4") || !l.acquire("1.2.3.4") {
		t.Fatal("first two acquires for an IP should succeed")
	}
	if l.acquire("1.2.3.4") {
		t.Error("third acquire should fail at the per-IP cap")
	}
	if !l.acquire("5.6.7.8") {
		t.Error("another IP should be unaffected")
	}

	l.release("1.2.3.4")
	if !l.acquire("1.2.3.4") {
		t.Error("acquire should succeed again after release")
	}
	if l.count("1.2.3.4") != 2 {
		t.Errorf("count = %d, want 2", l.count("1.2.3.4"))
	}
}
