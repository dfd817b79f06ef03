package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandler_Exposition(t *testing.T) {
	RecordTick(25*time.Millisecond, 3, 12, 1)
	SetCatalogObjects(1500)
	IncSinkPublished("console")
	IncSinkErrors("udp")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	for _, series := range []string{
		"visephem_tick_generation",
		"visephem_visible_objects",
		"visephem_catalog_objects",
		"visephem_sink_published_total",
		"visephem_sink_errors_total",
	} {
		if !strings.Contains(string(body), series) {
			t.Errorf("exposition missing %s", series)
		}
	}
}

func TestMiddleware_RecordsAndPassesThrough(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/teapot", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418 passed through", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("body = %q, not passed through", rec.Body.String())
	}
}

func TestMiddleware_WrapperKeepsFlusher(t *testing.T) {
	// The SSE handler type-asserts http.Flusher on the writer it receives;
	// the metrics wrapper must not hide it.
	var sawFlusher bool
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawFlusher = w.(http.Flusher)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/events", nil))
	if !sawFlusher {
		t.Error("metrics middleware wrapper does not expose http.Flusher")
	}
}
