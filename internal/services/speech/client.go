// Package speech renders podcast scripts to audio through an HTTP
// text-to-speech service.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podcaster/internal/config"
	"podcaster/internal/services"
	"podcaster/internal/transport"
)

const (
	speechPath     = "/v1/speech"
	healthPath     = "/health"
	defaultVoice   = "Joanna"
	defaultEngine  = "standard"
	defaultFormat  = "mp3"
	defaultTimeout = 120 * time.Second
	maxAudioBytes  = 256 << 20
)

// Config holds the synthesis settings.
type Config struct {
	APIKey       string
	BaseURL      string
	VoiceID      string
	Engine       string
	OutputFormat string
	Timeout      time.Duration
}

// ConfigFrom maps the [speech] config section.
func ConfigFrom(section config.Speech) Config {
	return Config{
		APIKey:       section.APIKey,
		BaseURL:      section.BaseURL,
		VoiceID:      section.VoiceID,
		Engine:       section.Engine,
		OutputFormat: section.OutputFormat,
		Timeout:      time.Duration(section.TimeoutSeconds) * time.Second,
	}
}

type doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client implements synthesize.Synthesizer.
type Client struct {
	cfg  Config
	http doer
}

// NewClient builds a client whose requests go through the retrying transport.
func NewClient(cfg Config, policy transport.Policy) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if strings.TrimSpace(cfg.VoiceID) == "" {
		cfg.VoiceID = defaultVoice
	}
	if strings.TrimSpace(cfg.Engine) == "" {
		cfg.Engine = defaultEngine
	}
	if strings.TrimSpace(cfg.OutputFormat) == "" {
		cfg.OutputFormat = defaultFormat
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{cfg: cfg, http: transport.NewClient("speech", policy, cfg.Timeout)}
}

type speechRequest struct {
	Text         string `json:"text"`
	VoiceID      string `json:"voice_id"`
	Engine       string `json:"engine"`
	OutputFormat string `json:"output_format"`
}

// OutputFormat reports the audio format requested from the service.
func (c *Client) OutputFormat() string { return c.cfg.OutputFormat }

// Synthesize returns the raw audio for script.
func (c *Client) Synthesize(ctx context.Context, script string) ([]byte, error) {
	if c.cfg.BaseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "speech", "synthesize", "base url required", nil)
	}
	encoded, err := json.Marshal(speechRequest{
		Text:         script,
		VoiceID:      c.cfg.VoiceID,
		Engine:       c.cfg.Engine,
		OutputFormat: c.cfg.OutputFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("speech: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+speechPath, bytes.NewReader(encoded))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "speech", "synthesize", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Wrap(services.ErrTransient, "speech", "synthesize", "request failed", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "speech", "synthesize", "read audio", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrProvider, "speech", "synthesize",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(audio))), nil)
	}
	if len(audio) == 0 {
		return nil, services.Wrap(services.ErrProvider, "speech", "synthesize", "empty audio", nil)
	}
	return audio, nil
}

// HealthCheck probes the service's health endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.BaseURL == "" {
		return services.Wrap(services.ErrConfiguration, "speech", "health", "base url required", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+healthPath, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "speech", "health", "build request", err)
	}
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "speech", "health", "request failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrProvider, "speech", "health", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}
