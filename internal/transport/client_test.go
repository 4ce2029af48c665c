package transport_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"podcaster/internal/transport"
)

func testPolicy() transport.Policy {
	policy := transport.DefaultPolicy()
	policy.Unit = time.Millisecond
	return policy
}

func statusServer(t *testing.T, hits *atomic.Int32, codes ...int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(hits.Add(1))
		code := codes[len(codes)-1]
		if n <= len(codes) {
			code = codes[n-1]
		}
		w.WriteHeader(code)
		_, _ = io.WriteString(w, http.StatusText(code))
	}))
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, client *transport.Client, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestClientReturnsTerminalStatusWithoutRetry(t *testing.T) {
	for _, code := range []int{200, 400, 404, 480, 481, 482, 500} {
		var hits atomic.Int32
		server := statusServer(t, &hits, code)
		resp := get(t, transport.NewClient("test", testPolicy(), time.Second), server.URL)
		if resp.StatusCode != code {
			t.Fatalf("status = %d, want %d", resp.StatusCode, code)
		}
		if hits.Load() != 1 {
			t.Fatalf("code %d: expected 1 attempt, got %d", code, hits.Load())
		}
	}
}

func TestClientRetriesUntilTerminal(t *testing.T) {
	var hits atomic.Int32
	server := statusServer(t, &hits, 503, 502, 200)
	resp := get(t, transport.NewClient("test", testPolicy(), time.Second), server.URL)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if hits.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits.Load())
	}
}

func TestClientReturnsLastResponseAfterBudget(t *testing.T) {
	var hits atomic.Int32
	server := statusServer(t, &hits, 503)
	resp := get(t, transport.NewClient("test", testPolicy(), time.Second), server.URL)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	if hits.Load() != transport.MaxAttempts {
		t.Fatalf("expected %d attempts, got %d", transport.MaxAttempts, hits.Load())
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != http.StatusText(http.StatusServiceUnavailable) {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestClientHonorsCustomTerminalSet(t *testing.T) {
	var hits atomic.Int32
	server := statusServer(t, &hits, 503)
	policy := testPolicy()
	policy.Terminal = []int{200, 503}
	resp := get(t, transport.NewClient("test", policy, time.Second), server.URL)
	if resp.StatusCode != http.StatusServiceUnavailable || hits.Load() != 1 {
		t.Fatalf("expected single 503 attempt, got status %d after %d", resp.StatusCode, hits.Load())
	}
}

func TestClientLinearBackoff(t *testing.T) {
	var hits atomic.Int32
	server := statusServer(t, &hits, 503)
	policy := testPolicy()
	policy.Unit = 20 * time.Millisecond

	started := time.Now()
	get(t, transport.NewClient("test", policy, time.Second), server.URL)
	elapsed := time.Since(started)
	// 1*unit + 2*unit between three attempts.
	if elapsed < 60*time.Millisecond {
		t.Fatalf("expected at least 60ms of backoff, got %s", elapsed)
	}
}

func TestClientStopsOnCanceledContext(t *testing.T) {
	var hits atomic.Int32
	server := statusServer(t, &hits, 503)
	policy := testPolicy()
	policy.Unit = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	resp, err := transport.NewClient("test", policy, time.Second).Do(req)
	if resp != nil {
		resp.Body.Close()
	}
	if err == nil {
		t.Fatal("expected context error")
	}
	if hits.Load() != 1 {
		t.Fatalf("expected 1 attempt before cancel, got %d", hits.Load())
	}
}

func TestStandardClientUsesRetries(t *testing.T) {
	var hits atomic.Int32
	server := statusServer(t, &hits, 502, 200)
	resp, err := transport.NewClient("test", testPolicy(), time.Second).StandardClient().Get(server.URL)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || hits.Load() != 2 {
		t.Fatalf("expected 200 after 2 attempts, got %d after %d", resp.StatusCode, hits.Load())
	}
}
