// Package guardian searches the Guardian Content API for articles on a topic
// and fetches their HTML bodies.
package guardian

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"podcaster/internal/config"
	"podcaster/internal/gather"
	"podcaster/internal/services"
	"podcaster/internal/transport"
)

const (
	defaultBaseURL  = "https://content.guardianapis.com"
	defaultPageSize = 10
	defaultTimeout  = 30 * time.Second
)

// Config holds the content API settings.
type Config struct {
	APIKey   string
	BaseURL  string
	PageSize int
	Timeout  time.Duration
}

// ConfigFrom maps the [guardian] section plus the shared transport timeout.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		APIKey:   cfg.Guardian.APIKey,
		BaseURL:  cfg.Guardian.BaseURL,
		PageSize: cfg.Guardian.PageSize,
		Timeout:  time.Duration(cfg.Transport.TimeoutSeconds) * time.Second,
	}
}

type doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client implements gather.Searcher.
type Client struct {
	cfg  Config
	http doer
}

// NewClient builds a client whose requests go through the retrying transport.
func NewClient(cfg Config, policy transport.Policy) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{cfg: cfg, http: transport.NewClient("guardian", policy, cfg.Timeout)}
}

type searchResponse struct {
	Response struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Results []struct {
			ID     string `json:"id"`
			WebURL string `json:"webUrl"`
			Title  string `json:"webTitle"`
			Fields struct {
				Headline string `json:"headline"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

type itemResponse struct {
	Response struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Content struct {
			Fields struct {
				Body string `json:"body"`
			} `json:"fields"`
		} `json:"content"`
	} `json:"response"`
}

// Search returns up to page_size hits for topic, most relevant first.
func (c *Client) Search(ctx context.Context, topic string) ([]gather.Hit, error) {
	params := url.Values{}
	params.Set("q", topic)
	params.Set("show-fields", "headline")
	params.Set("page-size", strconv.Itoa(c.cfg.PageSize))

	var payload searchResponse
	if err := c.get(ctx, "search", c.cfg.BaseURL+"/search", params, &payload); err != nil {
		return nil, err
	}
	hits := make([]gather.Hit, 0, len(payload.Response.Results))
	for _, result := range payload.Response.Results {
		headline := strings.TrimSpace(result.Fields.Headline)
		if headline == "" {
			headline = strings.TrimSpace(result.Title)
		}
		hits = append(hits, gather.Hit{ID: result.ID, URL: result.WebURL, Headline: headline})
	}
	return hits, nil
}

// FetchBody returns the HTML body of one article.
func (c *Client) FetchBody(ctx context.Context, id string) (string, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, id)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "guardian", "fetch body", "build url", err)
	}
	params := url.Values{}
	params.Set("show-fields", "body")

	var payload itemResponse
	if err := c.get(ctx, "fetch body", endpoint, params, &payload); err != nil {
		return "", err
	}
	return payload.Response.Content.Fields.Body, nil
}

// HealthCheck runs a one-result search to confirm the key is accepted.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "guardian", "health", "api key required", nil)
	}
	params := url.Values{}
	params.Set("page-size", "1")
	var payload searchResponse
	return c.get(ctx, "health", c.cfg.BaseURL+"/search", params, &payload)
}

func (c *Client) get(ctx context.Context, op, endpoint string, params url.Values, target any) error {
	params.Set("api-key", c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "guardian", op, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransient, "guardian", op, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return services.Wrap(services.ErrTransient, "guardian", op, "read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrProvider, "guardian", op,
			fmt.Sprintf("http %d: %s", resp.StatusCode, snippet(body)), nil)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return services.Wrap(services.ErrProvider, "guardian", op, "decode response", err)
	}
	return nil
}

func snippet(body []byte) string {
	text := strings.Join(strings.Fields(string(body)), " ")
	if text == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(text); len(runes) > limit {
		text = string(runes[:limit]) + "..."
	}
	return text
}
