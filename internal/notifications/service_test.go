package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"podcaster/internal/config"
	"podcaster/internal/notifications"
	"podcaster/internal/transport"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		captured []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		captured = append(captured, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), captured...)
	}
}

func testPolicy() transport.Policy {
	policy := transport.DefaultPolicy()
	policy.Unit = time.Millisecond
	return policy
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg, testPolicy())
	if err := svc.NotifyPodcastReady(context.Background(), 10001, "technology", "audio/10001.mp3"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil, testPolicy()).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to yield noop notifier, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	srv, requests := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL + "/podcasts"
	svc := notifications.NewService(&cfg, testPolicy())

	ctx := context.Background()
	if err := svc.NotifyPodcastReady(ctx, 10001, "technology", "audio/10001.mp3"); err != nil {
		t.Fatalf("NotifyPodcastReady: %v", err)
	}
	if err := svc.NotifyStageFailed(ctx, 10002, "space", "summarize", errors.New("llm unavailable")); err != nil {
		t.Fatalf("NotifyStageFailed: %v", err)
	}

	got := requests()
	if len(got) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(got))
	}
	if got[0].title != "Podcaster - Podcast Ready" {
		t.Fatalf("unexpected title %q", got[0].title)
	}
	if got[0].body != `🎙️ Podcast ready for "technology" (query 10001)` {
		t.Fatalf("unexpected body %q", got[0].body)
	}
	if got[0].tags != "podcaster,podcast,ready" {
		t.Fatalf("unexpected tags %q", got[0].tags)
	}
	if got[0].priority != "" {
		t.Fatalf("expected default priority, got %q", got[0].priority)
	}

	if got[1].priority != "high" {
		t.Fatalf("expected high priority for failures, got %q", got[1].priority)
	}
	if got[1].body != `❌ summarize failed for "space" (query 10002): llm unavailable` {
		t.Fatalf("unexpected failure body %q", got[1].body)
	}
	if got[1].tags != "podcaster,error,summarize" {
		t.Fatalf("unexpected failure tags %q", got[1].tags)
	}
}

func TestNtfyServiceReportsRejectedRequests(t *testing.T) {
	srv, requests := newNtfyServer(t, http.StatusBadRequest)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg, testPolicy())

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if n := len(requests()); n != 1 {
		t.Fatalf("expected terminal status to skip retries, got %d requests", n)
	}
}
