package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func parseTimeMust(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parsing %q: %v", s, err)
	}
	return ts
}

func TestFetcher_Success(t *testing.T) {
	body := issName + "\n" + issLine1 + "\n" + issLine2 + "\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, testLogger)
	data, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != body {
		t.Errorf("body mismatch: got %d bytes, want %d", len(data), len(body))
	}
}

func TestFetcher_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, testLogger)
	if _, err := fetcher.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
}

func TestFetcher_BodyLimit(t *testing.T) {
	// Server streams chunks past the 50 MB limit until the client stops reading.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		chunk := strings.Repeat("A", 1024*1024)
		for i := 0; i < 52; i++ {
			if _, err := w.Write([]byte(chunk)); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, testLogger)
	_, err := fetcher.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for oversized response, got nil")
	}
	if !strings.Contains(err.Error(), "byte limit") {
		t.Errorf("expected body limit error, got: %v", err)
	}
}

func TestFetcher_DefaultsToActiveGroup(t *testing.T) {
	fetcher := NewFetcher("", testLogger)
	if fetcher.SourceURL() != Groups["active"] {
		t.Errorf("default source = %q, want the active group URL", fetcher.SourceURL())
	}
}

func TestLoad_FetchFallsBackToCache(t *testing.T) {
	// Unreachable source plus a warm cache: the run starts on stale elements.
	dir := t.TempDir()
	cache := NewCache(dir, 5)
	body := issName + "\n" + issLine1 + "\n" + issLine2 + "\n"
	if err := cache.Write([]byte(body), parseTimeMust(t, "2026-08-20T00:00:00Z")); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	dataset, err := Load(context.Background(), LoadConfig{
		SourceURL:   "http://127.0.0.1:0/unreachable",
		CacheDir:    dir,
		MaxFiles:    5,
		RefreshAge:  0, // always stale, forces the fetch attempt
		MaxApogeeKm: 500,
	}, testLogger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dataset.Source != "cache" {
		t.Errorf("dataset source = %q, want %q", dataset.Source, "cache")
	}
	if len(dataset.Objects) != 1 || dataset.Objects[0].NORADID != 25544 {
		t.Fatalf("got %d objects, want the single ISS entry", len(dataset.Objects))
	}
}

func TestLoad_FailsWithNothingAvailable(t *testing.T) {
	_, err := Load(context.Background(), LoadConfig{
		SourceURL:   "http://127.0.0.1:0/unreachable",
		CacheDir:    t.TempDir(),
		MaxFiles:    5,
		RefreshAge:  0,
		MaxApogeeKm: 500,
	}, testLogger)
	if err == nil {
		t.Fatal("expected error when fetch fails and cache is empty, got nil")
	}
}

func TestLoad_ServesFromHTTP(t *testing.T) {
	body := issName + "\n" + issLine1 + "\n" + issLine2 + "\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	dataset, err := Load(context.Background(), LoadConfig{
		SourceURL:   server.URL,
		CacheDir:    t.TempDir(),
		MaxFiles:    5,
		RefreshAge:  0,
		MaxApogeeKm: 500,
	}, testLogger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dataset.Source != server.URL {
		t.Errorf("dataset source = %q, want the fetch URL", dataset.Source)
	}
	if len(dataset.Objects) != 1 {
		t.Fatalf("got %d objects, want 1", len(dataset.Objects))
	}
}
