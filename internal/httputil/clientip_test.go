package httputil

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP_RemoteAddr(t *testing.T) {
	r := httptest.NewRequest("GET", "/events", nil)
	r.RemoteAddr = "203.0.113.9:51234"

	if got := ClientIP(r, false); got != "203.0.113.9" {
		t.Errorf("ClientIP = %q, want the host part of RemoteAddr", got)
	}
}

func TestClientIP_IgnoresHeadersWithoutTrust(t *testing.T) {
	r := httptest.NewRequest("GET", "/events", nil)
	r.RemoteAddr = "203.0.113.9:51234"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	r.Header.Set("X-Real-IP", "198.51.100.2")

	if got := ClientIP(r, false); got != "203.0.113.9" {
		t.Errorf("ClientIP = %q, proxy headers must be ignored without trustProxy", got)
	}
}

func TestClientIP_TrustsForwardedFor(t *testing.T) {
	r := httptest.NewRequest("GET", "/events", nil)
	r.RemoteAddr = "10.0.0.1:80"
	r.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.2, 10.0.0.3")

	if got := ClientIP(r, true); got != "198.51.100.1" {
		t.Errorf("ClientIP = %q, want the leftmost forwarded entry", got)
	}
}

func TestClientIP_FallsBackToRealIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/events", nil)
	r.RemoteAddr = "10.0.0.1:80"
	r.Header.Set("X-Real-IP", " 198.51.100.7 ")

	if got := ClientIP(r, true); got != "198.51.100.7" {
		t.Errorf("ClientIP = %q, want trimmed X-Real-IP", got)
	}
}

func TestClientIP_MalformedRemoteAddr(t *testing.T) {
	r := httptest.NewRequest("GET", "/events", nil)
	r.RemoteAddr = "no-port-here"

	if got := ClientIP(r, false); got != "no-port-here" {
		t.Errorf("ClientIP = %q, want the raw RemoteAddr when unsplittable", got)
	}
}
