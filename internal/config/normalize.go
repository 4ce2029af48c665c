package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStore()
	if err := c.normalizeArtifacts(); err != nil {
		return err
	}
	c.normalizeTransport()
	c.normalizeProviders()
	c.normalizeClient()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("PODCASTER_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeStore() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case "":
		c.Store.Driver = defaultStoreDriver
	case "sqlite3":
		c.Store.Driver = StoreDriverSQLite
	case "postgresql", "pgx":
		c.Store.Driver = StoreDriverPostgres
	}
	c.Store.DSN = strings.TrimSpace(c.Store.DSN)
	if c.Store.DSN == "" {
		if value, ok := os.LookupEnv("PODCASTER_STORE_DSN"); ok {
			c.Store.DSN = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeArtifacts() error {
	c.Artifacts.Backend = strings.ToLower(strings.TrimSpace(c.Artifacts.Backend))
	if c.Artifacts.Backend == "" {
		c.Artifacts.Backend = defaultArtifactBackend
	}
	if strings.TrimSpace(c.Artifacts.Dir) == "" {
		c.Artifacts.Dir = filepath.Join(c.Paths.DataDir, defaultArtifactsSubdirName)
	}
	var err error
	if c.Artifacts.Dir, err = expandPath(c.Artifacts.Dir); err != nil {
		return fmt.Errorf("artifacts.dir: %w", err)
	}
	c.Artifacts.RedisAddr = strings.TrimSpace(c.Artifacts.RedisAddr)
	if c.Artifacts.RedisAddr == "" {
		c.Artifacts.RedisAddr = defaultRedisAddr
	}
	return nil
}

func (c *Config) normalizeTransport() {
	if len(c.Transport.TerminalStatusCodes) == 0 {
		c.Transport.TerminalStatusCodes = append([]int(nil), defaultTerminalStatusCodes...)
	}
}

func (c *Config) normalizeProviders() {
	c.Guardian.APIKey = strings.TrimSpace(c.Guardian.APIKey)
	if c.Guardian.APIKey == "" {
		if value, ok := os.LookupEnv("GUARDIAN_API_KEY"); ok {
			c.Guardian.APIKey = strings.TrimSpace(value)
		}
	}
	c.Guardian.BaseURL = strings.TrimRight(strings.TrimSpace(c.Guardian.BaseURL), "/")
	if c.Guardian.BaseURL == "" {
		c.Guardian.BaseURL = defaultGuardianBaseURL
	}

	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}

	c.Speech.APIKey = strings.TrimSpace(c.Speech.APIKey)
	if c.Speech.APIKey == "" {
		if value, ok := os.LookupEnv("SPEECH_API_KEY"); ok {
			c.Speech.APIKey = strings.TrimSpace(value)
		}
	}
	c.Speech.BaseURL = strings.TrimRight(strings.TrimSpace(c.Speech.BaseURL), "/")
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = defaultSpeechBaseURL
	}
	if strings.TrimSpace(c.Speech.VoiceID) == "" {
		c.Speech.VoiceID = defaultSpeechVoice
	}
	c.Speech.Engine = strings.ToLower(strings.TrimSpace(c.Speech.Engine))
	if c.Speech.Engine == "" {
		c.Speech.Engine = defaultSpeechEngine
	}
	c.Speech.OutputFormat = strings.ToLower(strings.TrimSpace(c.Speech.OutputFormat))
	if c.Speech.OutputFormat == "" {
		c.Speech.OutputFormat = defaultSpeechOutputFormat
	}
}

func (c *Config) normalizeClient() {
	if value, ok := os.LookupEnv("PODCASTER_SERVER_URL"); ok && strings.TrimSpace(value) != "" {
		c.Client.ServerURL = strings.TrimSpace(value)
	}
	c.Client.ServerURL = strings.TrimRight(strings.TrimSpace(c.Client.ServerURL), "/")
	if c.Client.ServerURL == "" {
		c.Client.ServerURL = defaultClientServerURL
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("PODCASTER_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyRequestTimeout
	}
}
