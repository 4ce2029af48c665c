package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"podcaster/internal/api"
	"podcaster/internal/services"
	"podcaster/internal/transport"
)

// DefaultTimeout bounds a single request. Generation waits on every provider.
const DefaultTimeout = 15 * time.Minute

// Error is a failed daemon response.
type Error struct {
	StatusCode int
	Message    string
	Kind       string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned http %d", e.StatusCode)
	}
	return e.Message
}

// Unwrap maps the response kind back onto the services sentinel so callers
// can use errors.Is across the wire.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case "invalid_topic":
		return services.ErrInvalidTopic
	case "not_found":
		return services.ErrNotFound
	case "stage_precondition":
		return services.ErrStagePrecondition
	case "no_content_found":
		return services.ErrNoContentFound
	case "empty_input":
		return services.ErrEmptyInput
	case "conflict":
		return services.ErrConflict
	case "provider":
		return services.ErrProvider
	case "validation":
		return services.ErrValidation
	case "configuration":
		return services.ErrConfiguration
	case "transient":
		return services.ErrTransient
	default:
		return nil
	}
}

// Client calls the daemon's HTTP routes.
type Client struct {
	baseURL string
	token   string
	http    *transport.Client
}

// New returns a client for the daemon at baseURL.
func New(baseURL, token string, policy transport.Policy, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    transport.NewClient("daemon", policy, timeout),
	}
}

// BaseURL returns the daemon address the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch creates a query for topic and gathers its articles.
func (c *Client) Fetch(ctx context.Context, topic string) (api.FetchResult, error) {
	var out api.FetchResult
	err := c.call(ctx, http.MethodPost, "/fetch/"+url.PathEscape(topic), &out)
	return out, err
}

// Summarize generates the script for query id.
func (c *Client) Summarize(ctx context.Context, id int64) (api.ScriptResult, error) {
	var out api.ScriptResult
	err := c.call(ctx, http.MethodPost, "/summarize/"+strconv.FormatInt(id, 10), &out)
	return out, err
}

// Podcast synthesizes audio for query id.
func (c *Client) Podcast(ctx context.Context, id int64) (api.AudioResult, error) {
	var out api.AudioResult
	err := c.call(ctx, http.MethodPost, "/podcast/"+strconv.FormatInt(id, 10), &out)
	return out, err
}

// Generate runs the whole pipeline for topic.
func (c *Client) Generate(ctx context.Context, topic string) (api.AudioResult, error) {
	var out api.AudioResult
	err := c.call(ctx, http.MethodPost, "/generate/"+url.PathEscape(topic), &out)
	return out, err
}

// Queries lists every query.
func (c *Client) Queries(ctx context.Context) ([]api.QueryView, error) {
	var out []api.QueryView
	err := c.call(ctx, http.MethodGet, "/queries", &out)
	return out, err
}

// Articles lists every gathered article.
func (c *Client) Articles(ctx context.Context) ([]api.ArticleView, error) {
	var out []api.ArticleView
	err := c.call(ctx, http.MethodGet, "/articles", &out)
	return out, err
}

// Reset wipes the daemon's records.
func (c *Client) Reset(ctx context.Context) error {
	var out string
	return c.call(ctx, http.MethodDelete, "/reset", &out)
}

// Status reports daemon readiness.
func (c *Client) Status(ctx context.Context) (api.Status, error) {
	var out api.Status
	err := c.call(ctx, http.MethodGet, "/status", &out)
	return out, err
}

func (c *Client) call(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransient, "client", method+" "+path,
			fmt.Sprintf("daemon unreachable at %s", c.baseURL), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	apiErr := &Error{StatusCode: status}
	var payload api.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Kind = payload.Kind
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// IsUnreachable reports whether err means the daemon could not be contacted.
func IsUnreachable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return false
	}
	return errors.Is(err, services.ErrTransient)
}
