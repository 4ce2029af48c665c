// Package synthesize converts a query's script into podcast audio.
package synthesize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"podcaster/internal/artifacts"
	"podcaster/internal/logging"
	"podcaster/internal/records"
	"podcaster/internal/services"
	"podcaster/internal/stage"
)

// Synthesizer renders speech for a script.
type Synthesizer interface {
	Synthesize(ctx context.Context, script string) ([]byte, error)
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Stage is the synthesize stage handler.
type Stage struct {
	synthesizer Synthesizer
	store       artifacts.Store
	name        artifacts.Name
	logger      *slog.Logger
}

// New constructs the synthesize stage. format selects the audio artifact's
// extension; empty keeps mp3.
func New(synthesizer Synthesizer, store artifacts.Store, format string, logger *slog.Logger) *Stage {
	name := artifacts.AudioName
	if strings.TrimSpace(format) != "" {
		name = name.WithExtension(format)
	}
	return &Stage{
		synthesizer: synthesizer,
		store:       store,
		name:        name,
		logger:      logging.NewComponentLogger(logger, "synthesize"),
	}
}

func (s *Stage) Name() string { return "synthesize" }

func (s *Stage) Target() records.Status { return records.StatusAudioGenerated }

// Execute downloads the script, synthesizes audio, and stores it.
func (s *Stage) Execute(ctx context.Context, q *records.Query) (stage.Result, error) {
	if cached, ok := stage.Cached(q, s.Target()); ok {
		return cached, nil
	}
	logger := logging.WithContext(ctx, s.logger)

	script, err := s.store.Get(ctx, q.ScriptRef)
	if err != nil {
		return stage.Result{}, err
	}
	if strings.TrimSpace(string(script)) == "" {
		return stage.Result{}, services.Wrap(services.ErrEmptyInput, s.Name(), "load script",
			fmt.Sprintf("script artifact %s is empty", q.ScriptRef), nil)
	}

	audio, err := s.synthesizer.Synthesize(ctx, string(script))
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrProvider, s.Name(), "synthesize", "speech request failed", err)
	}
	if len(audio) == 0 {
		return stage.Result{}, services.Wrap(services.ErrProvider, s.Name(), "synthesize", "speech service returned no audio", nil)
	}

	ref, err := s.store.Put(ctx, s.name, audio)
	if err != nil {
		return stage.Result{}, err
	}
	logger.Info("audio synthesized",
		logging.Int("script_bytes", len(script)),
		logging.Int("audio_bytes", len(audio)),
		logging.String("artifact", ref),
	)
	return stage.Result{Ref: ref, Output: audio}, nil
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	if s.synthesizer == nil {
		return stage.Unhealthy(s.Name(), "synthesizer not configured")
	}
	if checker, ok := s.synthesizer.(healthChecker); ok {
		if err := checker.HealthCheck(ctx); err != nil {
			return stage.Unhealthy(s.Name(), err.Error())
		}
	}
	return stage.Healthy(s.Name())
}
