package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Store selects the relational record store.
type Store struct {
	Driver       string `toml:"driver"`
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
}

// Artifacts selects the blob store backend.
type Artifacts struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// Transport contains the retry settings shared by every outbound call.
type Transport struct {
	BackoffUnitMillis   int   `toml:"backoff_unit_millis"`
	TerminalStatusCodes []int `toml:"terminal_status_codes"`
	TimeoutSeconds      int   `toml:"timeout_seconds"`
}

// Guardian contains configuration for the Guardian content API.
type Guardian struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	PageSize int    `toml:"page_size"`
}

// Gather contains settings for the article gathering stage.
type Gather struct {
	MaxArticles int `toml:"max_articles"`
}

// LLM contains the summarization model connection settings.
type LLM struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Referer        string  `toml:"referer"`
	Title          string  `toml:"title"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MaxTokens      int     `toml:"max_tokens"`
	Temperature    float64 `toml:"temperature"`
	TopP           float64 `toml:"top_p"`
}

// Speech contains the text-to-speech service settings.
type Speech struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	VoiceID        string `toml:"voice_id"`
	Engine         string `toml:"engine"`
	OutputFormat   string `toml:"output_format"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains stage claim timing. A zero stage lease is derived from
// the provider timeouts; see Config.StageLease.
type Workflow struct {
	StageLeaseSeconds int `toml:"stage_lease_seconds"`
	ClaimPollMillis   int `toml:"claim_poll_millis"`
}

// Client contains settings used by the CLI when talking to the daemon.
type Client struct {
	ServerURL string `toml:"server_url"`
}

// Notifications contains the optional ntfy settings. An empty topic disables
// notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Podcaster.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and the API bind address
//   - Store: record store driver and DSN
//   - Artifacts: blob store backend
//   - Transport: retry backoff unit and terminal status codes
//   - Guardian: content search provider
//   - Gather: article selection
//   - LLM: summarization model
//   - Speech: text-to-speech provider
//   - Workflow: stage lease and claim polling
//   - Client: daemon URL used by the CLI
//   - Notifications: ntfy topic for pipeline events
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Store     Store     `toml:"store"`
	Artifacts Artifacts `toml:"artifacts"`
	Transport Transport `toml:"transport"`
	Guardian  Guardian  `toml:"guardian"`
	Gather    Gather    `toml:"gather"`
	LLM       LLM       `toml:"llm"`
	Speech    Speech    `toml:"speech"`
	Workflow  Workflow  `toml:"workflow"`
	Client    Client    `toml:"client"`
	Logging   Logging   `toml:"logging"`

	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("podcaster.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if c.Artifacts.Backend == ArtifactBackendFile {
		dirs = append(dirs, c.Artifacts.Dir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StoreDSN returns the data source name for the configured record store driver.
// SQLite defaults to a database file inside the data directory.
func (c *Config) StoreDSN() string {
	if dsn := strings.TrimSpace(c.Store.DSN); dsn != "" {
		return dsn
	}
	if c.Store.Driver == StoreDriverSQLite {
		return filepath.Join(c.Paths.DataDir, "podcaster.db")
	}
	return ""
}

// BackoffUnit returns the transport's linear backoff step.
func (c *Config) BackoffUnit() time.Duration {
	return time.Duration(c.Transport.BackoffUnitMillis) * time.Millisecond
}

// NotificationTimeout returns the per-request timeout for ntfy deliveries.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// StageLease returns how long a stage claim stays valid. Unless set
// explicitly it is the worst-case stage time plus a safety margin.
func (c *Config) StageLease() time.Duration {
	if c.Workflow.StageLeaseSeconds > 0 {
		return time.Duration(c.Workflow.StageLeaseSeconds) * time.Second
	}
	return c.StageBudget() + stageLeaseMargin
}

// StageBudget returns the longest any one stage can spend in provider calls
// when every attempt runs into its timeout. Gather makes one search plus one
// fetch per kept article.
func (c *Config) StageBudget() time.Duration {
	seconds := func(n int) time.Duration { return time.Duration(n) * time.Second }
	gather := time.Duration(1+c.Gather.MaxArticles) * c.callBudget(seconds(c.Transport.TimeoutSeconds))
	summarize := c.callBudget(seconds(c.LLM.TimeoutSeconds))
	synthesize := c.callBudget(seconds(c.Speech.TimeoutSeconds))
	return max(gather, summarize, synthesize)
}

// callBudget is the wall time of one call that exhausts its retries: every
// attempt times out and attempt k is followed by a k*unit pause.
func (c *Config) callBudget(timeout time.Duration) time.Duration {
	budget := time.Duration(RetryAttempts) * timeout
	for k := 1; k < RetryAttempts; k++ {
		budget += time.Duration(k) * c.BackoffUnit()
	}
	return budget
}

// ClaimPollInterval returns how often a waiting caller re-reads a claimed query.
func (c *Config) ClaimPollInterval() time.Duration {
	return time.Duration(c.Workflow.ClaimPollMillis) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
