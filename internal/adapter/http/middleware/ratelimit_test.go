package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterBlocksAboveBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	statuses := make([]int, 3)
	for i := range statuses {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		statuses[i] = rec.Code
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("first two requests = %v, want 200s", statuses[:2])
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", statuses[2])
	}
}

func TestRateLimiterIsPerClient(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, addr := range []string{"10.0.0.1:1234", "10.0.0.2:1234"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request from %s = %d, want 200", addr, rec.Code)
		}
	}
}

func TestCleanupLimitersEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.maxIdle = time.Millisecond

	rl.getLimiter("10.0.0.1")
	time.Sleep(5 * time.Millisecond)
	rl.CleanupLimiters()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.clients) != 0 {
		t.Fatalf("clients remaining = %d, want 0", len(rl.clients))
	}
}

func TestStartCleanupEvictsAndStopsOnCancel(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.maxIdle = time.Millisecond
	rl.getLimiter("10.0.0.1")

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		rl.StartCleanup(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(time.Second)
	for {
		rl.mu.Lock()
		remaining := len(rl.clients)
		rl.mu.Unlock()
		if remaining == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("idle client was not evicted")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop after cancel")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		realIP    string
		remote    string
		want      string
	}{
		{name: "forwarded chain", forwarded: "203.0.113.5, 10.0.0.1", remote: "10.0.0.2:80", want: "203.0.113.5"},
		{name: "real ip", realIP: "203.0.113.9", remote: "10.0.0.2:80", want: "203.0.113.9"},
		{name: "remote addr", remote: "10.0.0.2:80", want: "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			if got := clientIP(req); got != tt.want {
				t.Fatalf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
