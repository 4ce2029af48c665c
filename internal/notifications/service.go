package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podcaster/internal/config"
	"podcaster/internal/transport"
)

const userAgent = "Podcaster-Go/0.1.0"

const defaultTimeout = 10 * time.Second

// Event identifies the kind of pipeline notification.
type Event string

const (
	EventPodcastReady Event = "podcast_ready"
	EventStageFailed  Event = "stage_failed"
	EventTest         Event = "test"
)

// Service is the notification surface used by the workflow controller.
type Service interface {
	NotifyPodcastReady(ctx context.Context, queryID int64, topic, audioRef string) error
	NotifyStageFailed(ctx context.Context, queryID int64, topic, stage string, cause error) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed notifier, or a no-op one when
// notifications.ntfy_topic is empty.
func NewService(cfg *config.Config, policy transport.Policy) Service {
	if cfg == nil {
		return noopService{}
	}
	endpoint := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if endpoint == "" {
		return noopService{}
	}
	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ntfyService{
		endpoint: endpoint,
		client:   transport.NewClient("ntfy", policy, timeout),
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *transport.Client
}

func (n *ntfyService) NotifyPodcastReady(ctx context.Context, queryID int64, topic, audioRef string) error {
	return n.send(ctx, format(EventPodcastReady, queryID, topic, audioRef, nil))
}

func (n *ntfyService) NotifyStageFailed(ctx context.Context, queryID int64, topic, stage string, cause error) error {
	return n.send(ctx, format(EventStageFailed, queryID, topic, stage, cause))
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, format(EventTest, 0, "", "", nil))
}

func format(event Event, queryID int64, topic, detail string, cause error) payload {
	topic = strings.TrimSpace(topic)
	switch event {
	case EventPodcastReady:
		return payload{
			title:   "Podcaster - Podcast Ready",
			message: fmt.Sprintf("🎙️ Podcast ready for %q (query %d)", topic, queryID),
			tags:    []string{"podcaster", "podcast", "ready"},
		}
	case EventStageFailed:
		msg := fmt.Sprintf("❌ %s failed for %q (query %d)", detail, topic, queryID)
		if cause != nil {
			msg += ": " + cause.Error()
		}
		return payload{
			title:    "Podcaster - Stage Failed",
			message:  msg,
			tags:     []string{"podcaster", "error", detail},
			priority: "high",
		}
	default:
		return payload{
			title:   "Podcaster - Test",
			message: "🧪 Notification system test",
			tags:    []string{"podcaster", "test"},
		}
	}
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Noop returns a notifier that discards every event.
func Noop() Service { return noopService{} }

type noopService struct{}

func (noopService) NotifyPodcastReady(context.Context, int64, string, string) error       { return nil }
func (noopService) NotifyStageFailed(context.Context, int64, string, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                                { return nil }
