// Package artifacts stores the immutable blobs each stage produces: the
// combined article text, the script, and the audio.
package artifacts

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"podcaster/internal/config"
	"podcaster/internal/services"
	"podcaster/internal/transport"
)

// Name describes where a new artifact goes: <prefix>/<uuid><extension>.
type Name struct {
	Prefix    string
	Extension string
}

var (
	TextName   = Name{Prefix: "combinedarticles", Extension: ".txt"}
	ScriptName = Name{Prefix: "summaries", Extension: ".txt"}
	AudioName  = Name{Prefix: "podcasts", Extension: ".mp3"}
)

// WithExtension returns n with a different extension.
func (n Name) WithExtension(ext string) Name {
	ext = strings.TrimSpace(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	n.Extension = ext
	return n
}

// NewKey generates a fresh, collision-free key for n.
func (n Name) NewKey() string {
	return path.Join(n.Prefix, uuid.NewString()+n.Extension)
}

// Store puts and gets artifacts by ref. Refs are write-once.
type Store interface {
	Put(ctx context.Context, name Name, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Close() error
}

// Open selects the backend named by artifacts.backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("artifacts: config is required")
	}
	policy := transport.PolicyFromConfig(cfg, logger)
	switch cfg.Artifacts.Backend {
	case config.ArtifactBackendFile, "":
		return NewFileStore(cfg.Artifacts.Dir, policy)
	case config.ArtifactBackendRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.Artifacts.RedisAddr,
			Password: cfg.Artifacts.RedisPassword,
			DB:       cfg.Artifacts.RedisDB,
		}, policy)
	default:
		return nil, fmt.Errorf("artifacts: unsupported backend %q", cfg.Artifacts.Backend)
	}
}

// validateRef rejects refs that could escape the store's namespace.
func validateRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", services.Wrap(services.ErrValidation, "artifacts", "get", "artifact ref is empty", nil)
	}
	cleaned := path.Clean(ref)
	if cleaned != ref || path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", services.Wrap(services.ErrValidation, "artifacts", "get", fmt.Sprintf("invalid artifact ref %q", ref), nil)
	}
	return cleaned, nil
}

func notFound(ref string) error {
	return services.Wrap(services.ErrNotFound, "artifacts", "get", fmt.Sprintf("artifact %q does not exist", ref), nil)
}
