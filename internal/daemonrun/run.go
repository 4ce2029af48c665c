// Package daemonrun assembles the podcaster daemon from configuration: it
// opens the stores, builds the provider clients and stages, and serves the
// HTTP front end until the process is signalled.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"podcaster/internal/api"
	"podcaster/internal/artifacts"
	"podcaster/internal/config"
	"podcaster/internal/daemon"
	"podcaster/internal/gather"
	"podcaster/internal/logging"
	"podcaster/internal/notifications"
	"podcaster/internal/records"
	"podcaster/internal/services/guardian"
	"podcaster/internal/services/llm"
	"podcaster/internal/services/speech"
	"podcaster/internal/summarize"
	"podcaster/internal/synthesize"
	"podcaster/internal/transport"
	"podcaster/internal/workflow"
)

// PIDFileName is written to the data directory while the daemon runs.
const PIDFileName = "podcasterd.pid"

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides logging.level when set.
	LogLevel string
}

// Run starts the podcaster daemon and blocks until SIGINT, SIGTERM, or
// cancellation of cmdCtx.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.ValidateProviders(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = strings.ToLower(level)
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.DataDir, PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := records.Open(cfg, logger)
	if err != nil {
		logger.Error("open record store", logging.Error(err),
			logging.String(logging.FieldEventType, "record_store_open_failed"),
			logging.String(logging.FieldErrorHint, "check store.driver and store.dsn"),
		)
		return err
	}
	defer store.Close()

	blobs, err := artifacts.Open(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("open artifact store", logging.Error(err),
			logging.String(logging.FieldEventType, "artifact_store_open_failed"),
			logging.String(logging.FieldErrorHint, "check artifacts.backend settings"),
		)
		return err
	}
	defer blobs.Close()

	notifier := notifications.NewService(cfg, transport.PolicyFromConfig(cfg, logger))
	controller, err := workflow.NewController(cfg, store, blobs, buildStages(cfg, blobs, logger), logger,
		workflow.WithNotifier(notifier))
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}
	service := api.NewService(store, controller, logger)

	d, err := daemon.New(cfg, service, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Run(signalCtx); err != nil {
		logger.Error("daemon exited", logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_run_failed"),
			logging.String(logging.FieldErrorHint, "check paths.api_bind and that no other daemon holds the lock"),
		)
		return err
	}
	logger.Info("podcaster daemon shutting down")
	return nil
}

func buildStages(cfg *config.Config, blobs artifacts.Store, logger *slog.Logger) workflow.StageSet {
	policy := transport.PolicyFromConfig(cfg, logger)
	return workflow.StageSet{
		Gather:    gather.New(guardian.NewClient(guardian.ConfigFrom(cfg), policy), blobs, cfg.Gather.MaxArticles, logger),
		Summarize: summarize.New(llm.NewClient(llm.ConfigFrom(cfg.LLM), policy), blobs, logger),
		Synthesize: synthesize.New(speech.NewClient(speech.ConfigFrom(cfg.Speech), policy), blobs,
			cfg.Speech.OutputFormat, logger),
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("store_driver", cfg.Store.Driver),
		logging.String("artifact_backend", cfg.Artifacts.Backend),
		logging.Bool("guardian_key_present", cfg.Guardian.APIKey != ""),
		logging.Bool("llm_key_present", cfg.LLM.APIKey != ""),
		logging.String("llm_model", cfg.LLM.Model),
		logging.String("speech_base_url", cfg.Speech.BaseURL),
		logging.String("speech_voice", cfg.Speech.VoiceID),
		logging.Bool("api_token_set", cfg.Paths.APIToken != ""),
		logging.String("api_bind", cfg.Paths.APIBind),
		logging.Bool("ntfy_enabled", cfg.Notifications.NtfyTopic != ""),
	)
}
