// Package summarize turns a query's combined article text into a narration
// script using a language model.
package summarize

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

// Instruction is sent ahead of the article text.
const Instruction = "Generate a podcast script summarizing the provided articles in a natural and engaging style. " +
	"The script should flow seamlessly without including meta text like 'Here's the podcast script' or section headers such as 'Segment 1'. " +
	"Instead, transition smoothly between topics as a natural conversation or narration would. " +
	"Keep it to 250 words max and professional, engaging, and structured without explicit labels"

// Summarizer produces a script from an instruction and source text.
type Summarizer interface {
	Summarize(ctx context.Context, instruction, text string) (string, error)
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Stage is the summarize stage handler.
type Stage struct {
	summarizer Summarizer
	store      artifacts.Store
	logger     *slog.Logger
}

// New constructs the summarize stage.
func New(summarizer Summarizer, store artifacts.Store, logger *slog.Logger) *Stage {
	return &Stage{
		summarizer: summarizer,
		store:      store,
		logger:     logging.NewComponentLogger(logger, "summarize"),
	}
}

func (s *Stage) Name() string { return "summarize" }

func (s *Stage) Target() records.Status { return records.StatusScriptGenerated }

// Execute downloads the text artifact, asks the model for a script, and
// stores the script.
func (s *Stage) Execute(ctx context.Context, q *records.Query) (stage.Result, error) {
	if cached, ok := stage.Cached(q, s.Target()); ok {
		return cached, nil
	}
	logger := logging.WithContext(ctx, s.logger)

	text, err := s.store.Get(ctx, q.TextRef)
	if err != nil {
		return stage.Result{}, err
	}
	if strings.TrimSpace(string(text)) == "" {
		return stage.Result{}, services.Wrap(services.ErrEmptyInput, s.Name(), "load text",
			fmt.Sprintf("text artifact %s is empty", q.TextRef), nil)
	}

	script, err := s.summarizer.Summarize(ctx, Instruction, string(text))
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrProvider, s.Name(), "summarize", "model request failed", err)
	}
	script = strings.TrimSpace(script)
	if script == "" {
		return stage.Result{}, services.Wrap(services.ErrProvider, s.Name(), "summarize", "model returned an empty script", nil)
	}

	ref, err := s.store.Put(ctx, artifacts.ScriptName, []byte(script))
	if err != nil {
		return stage.Result{}, err
	}
	logger.Info("script generated",
		logging.Int("text_bytes", len(text)),
		logging.Int("script_words", len(strings.Fields(script))),
		logging.String("artifact", ref),
	)
	return stage.Result{Ref: ref, Output: []byte(script)}, nil
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	if s.summarizer == nil {
		return stage.Unhealthy(s.Name(), "summarizer not configured")
	}
	if checker, ok := s.summarizer.(healthChecker); ok {
		if err := checker.HealthCheck(ctx); err != nil {
			return stage.Unhealthy(s.Name(), err.Error())
		}
	}
	return stage.Healthy(s.Name())
}
