package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func TestRateLimiterAllow(t *testing.T) {
	clock := newStepClock()
	rl := newRateLimiter(clock.now)

	for i := 0; i < 5; i++ {
		if ok, _ := rl.Allow("1.2.3.4", 5, time.Minute); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	clock.advance(20 * time.Second)
	ok, retry := rl.Allow("1.2.3.4", 5, time.Minute)
	if ok {
		t.Fatal("6th request should be denied")
	}
	if retry != 40*time.Second {
		t.Errorf("retry = %v, want 40s", retry)
	}

	if ok, _ := rl.Allow("5.6.7.8", 5, time.Minute); !ok {
		t.Error("other keys should have their own window")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	clock := newStepClock()
	rl := newRateLimiter(clock.now)

	for i := 0; i < 3; i++ {
		rl.Allow("key", 3, time.Minute)
	}
	if ok, _ := rl.Allow("key", 3, time.Minute); ok {
		t.Fatal("should be blocked within window")
	}

	clock.advance(time.Minute)
	if ok, _ := rl.Allow("key", 3, time.Minute); !ok {
		t.Error("should be allowed once the window resets")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	clock := newStepClock()
	rl := newRateLimiter(clock.now)

	rl.Allow("stale", 5, time.Second)
	clock.advance(2 * time.Second)
	rl.Allow("fresh", 5, time.Minute)

	if n := rl.Cleanup(); n != 1 {
		t.Errorf("Cleanup removed %d, want 1", n)
	}
	if _, ok := rl.windows["stale"]; ok {
		t.Error("stale window should be removed")
	}
	if _, ok := rl.windows["fresh"]; !ok {
		t.Error("fresh window should be kept")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := newRateLimiter(newStepClock().now)
	h := RateLimit(rl, RealIP, 2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.7:5123"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send(); rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("3rd request: status = %d, want 429", rec.Code)
	}
	if ra := rec.Header().Get("Retry-After"); ra != "60" {
		t.Errorf("Retry-After = %q, want 60", ra)
	}
	if !strings.Contains(rec.Body.String(), `"code":"rate_limited"`) {
		t.Errorf("body = %s, want rate_limited code", rec.Body.String())
	}
}

func TestRealIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.0.2.10:4000", "192.0.2.10"},
		{"x-real-ip", map[string]string{"X-Real-IP": "203.0.113.5"}, "10.0.0.1:80", "203.0.113.5"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.1"}, "10.0.0.1:80", "198.51.100.2"},
		{"no port", nil, "unix", "unix"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := RealIP(req); got != tc.want {
				t.Errorf("RealIP = %q, want %q", got, tc.want)
			}
		})
	}
}
