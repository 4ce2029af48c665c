package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"podcaster/internal/logging"
	"podcaster/internal/records"
	"podcaster/internal/services"
	"podcaster/internal/stage"
)

// RecordReader abstracts the record store operations the front end needs.
type RecordReader interface {
	GetQuery(ctx context.Context, id int64) (*records.Query, error)
	ListQueries(ctx context.Context) ([]*records.Query, error)
	ListArticles(ctx context.Context) ([]*records.Article, error)
	ListArticlesForQuery(ctx context.Context, queryID int64) ([]*records.Article, error)
	Reset(ctx context.Context) error
	CheckHealth(ctx context.Context) (records.DatabaseHealth, error)
}

// Pipeline abstracts the stage controller.
type Pipeline interface {
	Start(ctx context.Context, text string) (*records.Query, error)
	EnsureStage(ctx context.Context, id int64, target records.Status) (*records.Query, error)
	Artifact(ctx context.Context, q *records.Query, status records.Status) ([]byte, error)
	StageHealth(ctx context.Context) []stage.Health
}

// Service implements the front-end operations on top of the record store and
// the pipeline controller.
type Service struct {
	store    RecordReader
	pipeline Pipeline
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(store RecordReader, pipeline Pipeline, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		pipeline: pipeline,
		logger:   logging.NewComponentLogger(logger, "api"),
	}
}

// CreateAndGather creates a query for topic and gathers its articles.
func (s *Service) CreateAndGather(ctx context.Context, topic string) (FetchResult, error) {
	topic, err := ValidateTopic(topic)
	if err != nil {
		return FetchResult{}, err
	}
	q, err := s.pipeline.Start(ctx, topic)
	if err != nil {
		return FetchResult{}, err
	}
	articles, err := s.store.ListArticlesForQuery(ctx, q.ID)
	if err != nil {
		return FetchResult{}, err
	}
	headlines := make([]string, 0, len(articles))
	for _, a := range articles {
		headlines = append(headlines, a.Headline)
	}
	return FetchResult{
		QueryID:          q.ID,
		QueryText:        q.Text,
		Status:           string(q.Status),
		ArticleHeadlines: headlines,
	}, nil
}

// Summarize produces (or returns the existing) script for query id.
func (s *Service) Summarize(ctx context.Context, id int64) (ScriptResult, error) {
	if _, err := s.requireStatus(ctx, id, records.StatusArticlesGathered, "summarize"); err != nil {
		return ScriptResult{}, err
	}
	q, err := s.pipeline.EnsureStage(ctx, id, records.StatusScriptGenerated)
	if err != nil {
		return ScriptResult{}, err
	}
	script, err := s.pipeline.Artifact(ctx, q, records.StatusScriptGenerated)
	if err != nil {
		return ScriptResult{}, err
	}
	return ScriptResult{QueryID: q.ID, ScriptKey: q.ScriptRef, Script: string(script)}, nil
}

// Synthesize produces (or returns the existing) audio for query id.
func (s *Service) Synthesize(ctx context.Context, id int64) (AudioResult, error) {
	if _, err := s.requireStatus(ctx, id, records.StatusScriptGenerated, "synthesize"); err != nil {
		return AudioResult{}, err
	}
	return s.audio(ctx, id)
}

// Generate runs the whole pipeline for a new topic and returns the audio.
func (s *Service) Generate(ctx context.Context, topic string) (AudioResult, error) {
	fetched, err := s.CreateAndGather(ctx, topic)
	if err != nil {
		return AudioResult{}, err
	}
	return s.audio(ctx, fetched.QueryID)
}

func (s *Service) audio(ctx context.Context, id int64) (AudioResult, error) {
	q, err := s.pipeline.EnsureStage(ctx, id, records.StatusAudioGenerated)
	if err != nil {
		return AudioResult{}, err
	}
	audio, err := s.pipeline.Artifact(ctx, q, records.StatusAudioGenerated)
	if err != nil {
		return AudioResult{}, err
	}
	return AudioResult{QueryID: q.ID, QueryText: q.Text, AudioKey: q.AudioRef, AudioData: audio}, nil
}

// requireStatus loads query id and fails with services.ErrStagePrecondition
// when it has not yet reached minStatus.
func (s *Service) requireStatus(ctx context.Context, id int64, minStatus records.Status, op string) (*records.Query, error) {
	q, err := s.store.GetQuery(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.Status.AtLeast(minStatus) {
		return nil, services.Wrap(services.ErrStagePrecondition, "api", op,
			fmt.Sprintf("query %d is %q; it must reach %q first", id, q.Status, minStatus), nil)
	}
	return q, nil
}

// ListQueries returns every query ordered by id.
func (s *Service) ListQueries(ctx context.Context) ([]QueryView, error) {
	queries, err := s.store.ListQueries(ctx)
	if err != nil {
		return nil, err
	}
	return FromQueries(queries), nil
}

// ListArticles returns every gathered article ordered by id.
func (s *Service) ListArticles(ctx context.Context) ([]ArticleView, error) {
	articles, err := s.store.ListArticles(ctx)
	if err != nil {
		return nil, err
	}
	return FromArticles(articles), nil
}

// Reset wipes all queries and articles. Artifacts are left in place.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return err
	}
	s.logger.Info("database reset", logging.String(logging.FieldEventType, "database_reset"))
	return nil
}

// Status reports record store health and stage readiness.
func (s *Service) Status(ctx context.Context) (Status, error) {
	health, err := s.store.CheckHealth(ctx)
	status := Status{
		PID:      os.Getpid(),
		Database: FromDatabaseHealth(health),
		Stages:   FromStageHealth(s.pipeline.StageHealth(ctx)),
	}
	if err != nil {
		s.logger.Warn("record store health check failed",
			logging.String(logging.FieldEventType, "health_check_failed"),
			logging.String(logging.FieldErrorHint, "check store.driver and store.dsn"),
			logging.Error(err),
		)
		return status, nil
	}
	status.Ready = health.Reachable && health.SchemaCurrent
	for _, st := range status.Stages {
		if !st.Ready {
			status.Ready = false
		}
	}
	return status, nil
}
