package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("a"); !ok {
			t.Fatalf("Allow() #%d = false, want true", i+1)
		}
	}
	ok, wait := rl.Allow("a")
	if ok {
		t.Fatal("Allow() over limit = true")
	}
	if wait != time.Minute {
		t.Errorf("Allow() wait = %v, want %v", wait, time.Minute)
	}
	if ok, _ := rl.Allow("b"); !ok {
		t.Error("Allow(other client) = false")
	}

	now = now.Add(time.Minute)
	if ok, _ := rl.Allow("a"); !ok {
		t.Error("Allow() after window = false")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(1, time.Second)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(5 * time.Second)
	rl.Allow("b")
	if _, ok := rl.buckets["a"]; ok {
		t.Error("idle bucket not swept")
	}
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		remote, xff, want string
	}{
		{"10.0.0.1:5555", "", "10.0.0.1"},
		{"[::1]:80", "", "::1"},
		{"10.0.0.1:5555", "203.0.113.9, 10.0.0.1", "203.0.113.9"},
		{"pipe", "", "pipe"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tt.remote
		if tt.xff != "" {
			r.Header.Set("X-Forwarded-For", tt.xff)
		}
		if got := clientAddr(r); got != tt.want {
			t.Errorf("clientAddr(%q, %q) = %q, want %q", tt.remote, tt.xff, got, tt.want)
		}
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	h := RateLimitMiddleware(rl, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != want {
			t.Errorf("request %d status = %d, want %d", i+1, rec.Code, want)
		}
		if want == http.StatusTooManyRequests && rec.Header().Get("Retry-After") == "" {
			t.Error("429 without Retry-After")
		}
	}
}
