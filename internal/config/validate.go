package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateArtifacts(); err != nil {
		return err
	}
	if err := c.validateTransport(); err != nil {
		return err
	}
	if err := c.validateGather(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

// ValidateProviders ensures credentials for the external content, model, and
// speech services are present. Only the daemon needs them; the CLI talks to
// the daemon and can run without.
func (c *Config) ValidateProviders() error {
	hint := "edit the config file (create with 'podcaster config init')"
	if path, err := DefaultConfigPath(); err == nil {
		hint = fmt.Sprintf("edit %s (create with 'podcaster config init')", path)
	}
	if c.Guardian.APIKey == "" {
		return fmt.Errorf("guardian.api_key is required. Set GUARDIAN_API_KEY env var or %s", hint)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required. Set LLM_API_KEY env var or %s", hint)
	}
	if strings.TrimSpace(c.Speech.BaseURL) == "" {
		return errors.New("speech.base_url must be set")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case StoreDriverSQLite:
	case StoreDriverMySQL, StoreDriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set when store.driver is %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("store.driver: unsupported value %q (use sqlite, mysql, or postgres)", c.Store.Driver)
	}
	if c.Store.MaxOpenConns < 0 {
		return errors.New("store.max_open_conns must be >= 0")
	}
	return nil
}

func (c *Config) validateArtifacts() error {
	switch c.Artifacts.Backend {
	case ArtifactBackendFile:
		if strings.TrimSpace(c.Artifacts.Dir) == "" {
			return errors.New("artifacts.dir must be set when artifacts.backend is file")
		}
	case ArtifactBackendRedis:
		if c.Artifacts.RedisDB < 0 {
			return errors.New("artifacts.redis_db must be >= 0")
		}
	default:
		return fmt.Errorf("artifacts.backend: unsupported value %q (use file or redis)", c.Artifacts.Backend)
	}
	return nil
}

func (c *Config) validateTransport() error {
	if c.Transport.BackoffUnitMillis < 0 {
		return errors.New("transport.backoff_unit_millis must be >= 0")
	}
	if c.Transport.TimeoutSeconds <= 0 {
		return errors.New("transport.timeout_seconds must be positive")
	}
	for _, code := range c.Transport.TerminalStatusCodes {
		if code < 100 || code > 599 {
			return fmt.Errorf("transport.terminal_status_codes: %d is not an HTTP status code", code)
		}
	}
	for _, code := range c.Transport.TerminalStatusCodes {
		if code == http.StatusOK {
			return nil
		}
	}
	return errors.New("transport.terminal_status_codes must include 200")
}

func (c *Config) validateGather() error {
	if c.Gather.MaxArticles <= 0 {
		return errors.New("gather.max_articles must be positive")
	}
	if c.Guardian.PageSize < c.Gather.MaxArticles {
		return errors.New("guardian.page_size must be at least gather.max_articles")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if err := ensurePositiveMap(map[string]int{
		"llm.max_tokens":         c.LLM.MaxTokens,
		"llm.timeout_seconds":    c.LLM.TimeoutSeconds,
		"speech.timeout_seconds": c.Speech.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.LLM.TopP <= 0 || c.LLM.TopP > 1 {
		return errors.New("llm.top_p must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.claim_poll_millis": c.Workflow.ClaimPollMillis,
	}); err != nil {
		return err
	}
	lease := c.Workflow.StageLeaseSeconds
	switch {
	case lease < 0:
		return errors.New("workflow.stage_lease_seconds must not be negative")
	case lease > 0 && time.Duration(lease)*time.Second < c.StageBudget():
		return fmt.Errorf("workflow.stage_lease_seconds (%d) is shorter than the worst-case stage time %s; raise it or leave it unset to derive it",
			lease, c.StageBudget())
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic: %q is not an http(s) URL", topic)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
