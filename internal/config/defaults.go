package config

import "time"

// RetryAttempts bounds every outbound call: one try plus two retries.
const RetryAttempts = 3

// stageLeaseMargin is added to the derived stage budget to cover the record
// and artifact writes around the provider calls.
const stageLeaseMargin = time.Minute

// Record store drivers.
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverMySQL    = "mysql"
	StoreDriverPostgres = "postgres"
)

// Artifact store backends.
const (
	ArtifactBackendFile  = "file"
	ArtifactBackendRedis = "redis"
)

const (
	defaultConfigPath          = "~/.config/podcaster/config.toml"
	defaultDataDir             = "~/.local/share/podcaster"
	defaultLogDir              = "~/.local/share/podcaster/logs"
	defaultArtifactsDir        = "~/.local/share/podcaster/artifacts"
	defaultAPIBind             = "127.0.0.1:7489"
	defaultStoreDriver         = StoreDriverSQLite
	defaultArtifactBackend     = ArtifactBackendFile
	defaultRedisAddr           = "127.0.0.1:6379"
	defaultBackoffUnitMillis   = 1000
	defaultTransportTimeout    = 30
	defaultGuardianBaseURL     = "https://content.guardianapis.com"
	defaultGuardianPageSize    = 10
	defaultMaxArticles         = 6
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "cohere/command-r"
	defaultLLMReferer          = "https://github.com/podcaster/podcaster"
	defaultLLMTitle            = "Podcaster"
	defaultLLMTimeoutSeconds   = 60
	defaultLLMMaxTokens        = 512
	defaultLLMTemperature      = 0.5
	defaultLLMTopP             = 0.9
	defaultSpeechBaseURL       = "http://127.0.0.1:5002"
	defaultSpeechVoice         = "Joanna"
	defaultSpeechEngine        = "standard"
	defaultSpeechOutputFormat  = "mp3"
	defaultSpeechTimeout       = 120
	defaultClaimPollMillis     = 250
	defaultClientServerURL     = "http://127.0.0.1:7489"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultArtifactsSubdirName = "artifacts"
	defaultNtfyRequestTimeout  = 10
)

// defaultTerminalStatusCodes are responses the transport hands back without
// retrying: success plus the well-defined client and server errors.
var defaultTerminalStatusCodes = []int{200, 400, 404, 480, 481, 482, 500}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Store: Store{
			Driver: defaultStoreDriver,
		},
		Artifacts: Artifacts{
			Backend:   defaultArtifactBackend,
			Dir:       defaultArtifactsDir,
			RedisAddr: defaultRedisAddr,
		},
		Transport: Transport{
			BackoffUnitMillis:   defaultBackoffUnitMillis,
			TerminalStatusCodes: append([]int(nil), defaultTerminalStatusCodes...),
			TimeoutSeconds:      defaultTransportTimeout,
		},
		Guardian: Guardian{
			BaseURL:  defaultGuardianBaseURL,
			PageSize: defaultGuardianPageSize,
		},
		Gather: Gather{
			MaxArticles: defaultMaxArticles,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			MaxTokens:      defaultLLMMaxTokens,
			Temperature:    defaultLLMTemperature,
			TopP:           defaultLLMTopP,
		},
		Speech: Speech{
			BaseURL:        defaultSpeechBaseURL,
			VoiceID:        defaultSpeechVoice,
			Engine:         defaultSpeechEngine,
			OutputFormat:   defaultSpeechOutputFormat,
			TimeoutSeconds: defaultSpeechTimeout,
		},
		Workflow: Workflow{
			ClaimPollMillis: defaultClaimPollMillis,
		},
		Client: Client{
			ServerURL: defaultClientServerURL,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyRequestTimeout,
		},
	}
}
