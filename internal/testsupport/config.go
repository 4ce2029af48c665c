package testsupport

import (
	"path/filepath"
	"testing"

	"podcaster/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Retries back off by one millisecond and stage claims poll quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Artifacts.Dir = filepath.Join(base, "data", "artifacts")
	cfgVal.Guardian.APIKey = "test"
	cfgVal.LLM.APIKey = "test"
	cfgVal.Transport.BackoffUnitMillis = 1
	cfgVal.Workflow.ClaimPollMillis = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithRedisArtifacts points the artifact store at a Redis address.
func WithRedisArtifacts(addr string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Artifacts.Backend = config.ArtifactBackendRedis
		b.cfg.Artifacts.RedisAddr = addr
	}
}

// WithAPIToken enables bearer authentication on the daemon.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithMaxArticles overrides how many search hits gather keeps.
func WithMaxArticles(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gather.MaxArticles = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
