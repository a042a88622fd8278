package serverstatus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetPlayers_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/players.json" {
			t.Fatalf("path = %s, want /players.json", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Ana","ping":40},{"id":2,"name":"Bob","ping":90}]`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	n, code, retry, err := client.GetPlayers(ctx)
	if err != nil {
		t.Fatalf("GetPlayers error: %v", err)
	}
	if code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", code, http.StatusOK)
	}
	if retry != 0 {
		t.Fatalf("retryAfter = %v, want 0", retry)
	}
	if n != 2 {
		t.Fatalf("players = %d, want 2", n)
	}
}

func TestGetPlayers_TooManyRequests(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	n, code, retry, err := client.GetPlayers(ctx)
	if err != nil {
		t.Fatalf("GetPlayers error: %v", err)
	}
	if n != 0 {
		t.Fatalf("players = %d, want 0", n)
	}
	if code != http.StatusTooManyRequests {
		t.Fatalf("status code = %d, want %d", code, http.StatusTooManyRequests)
	}
	if retry < 5*time.Second {
		t.Fatalf("retryAfter = %v, want at least 5s", retry)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, 429 must not be retried by the client", calls.Load())
	}
}

func TestGetPlayers_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"id":7}]`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	client.httpClient.RetryWaitMin = time.Millisecond
	client.httpClient.RetryWaitMax = 5 * time.Millisecond

	n, _, _, err := client.GetPlayers(context.Background())
	if err != nil {
		t.Fatalf("GetPlayers error: %v", err)
	}
	if n != 1 {
		t.Fatalf("players = %d, want 1", n)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestGetPlayers_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, code, _, err := NewClient(ts.URL).GetPlayers(context.Background())
	if err == nil {
		t.Fatalf("expected error for 404")
	}
	if code != http.StatusNotFound {
		t.Fatalf("status code = %d, want %d", code, http.StatusNotFound)
	}
}

func TestGetPlayers_NotConfigured(t *testing.T) {
	var c *Client
	if _, _, _, err := c.GetPlayers(context.Background()); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestNewClient_AddsScheme(t *testing.T) {
	c := NewClient("play.hydracity.gg:30120/")
	if c.baseURL != "http://play.hydracity.gg:30120" {
		t.Fatalf("baseURL = %q", c.baseURL)
	}
}
