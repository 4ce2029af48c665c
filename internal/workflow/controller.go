package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"podcaster/internal/artifacts"
	"podcaster/internal/config"
	"podcaster/internal/logging"
	"podcaster/internal/notifications"
	"podcaster/internal/records"
	"podcaster/internal/services"
	"podcaster/internal/stage"
)

const (
	defaultLease        = 5 * time.Minute
	defaultPollInterval = 250 * time.Millisecond
)

// RecordStore is the subset of the record store the controller drives.
type RecordStore interface {
	CreateQuery(ctx context.Context, text string) (*records.Query, error)
	GetQuery(ctx context.Context, id int64) (*records.Query, error)
	AdvanceStage(ctx context.Context, id int64, expected, next records.Status, token, ref string, articles ...records.Article) error
	ClaimStage(ctx context.Context, id int64, expected records.Status, token string, until time.Time) error
	ReleaseStage(ctx context.Context, id int64, token string) error
}

// StageSet bundles the concrete stage handlers the controller orchestrates.
type StageSet struct {
	Gather     stage.Handler
	Summarize  stage.Handler
	Synthesize stage.Handler
}

// Controller advances queries through the pipeline.
type Controller struct {
	store     RecordStore
	artifacts artifacts.Store
	handlers  map[records.Status]stage.Handler
	ordered   []stage.Handler
	lease     time.Duration
	poll      time.Duration
	logger    *slog.Logger
	notifier  notifications.Service
	now       func() time.Time
}

// Option customizes a Controller.
type Option func(*Controller)

// WithNotifier publishes podcast-ready and stage-failure events through n.
func WithNotifier(n notifications.Service) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// NewController wires the stage handlers to the stores. Lease and poll timing
// come from the [workflow] config section.
func NewController(cfg *config.Config, store RecordStore, blobs artifacts.Store, stages StageSet, logger *slog.Logger, opts ...Option) (*Controller, error) {
	if store == nil {
		return nil, errors.New("workflow: record store is required")
	}
	if blobs == nil {
		return nil, errors.New("workflow: artifact store is required")
	}
	c := &Controller{
		store:     store,
		artifacts: blobs,
		handlers:  make(map[records.Status]stage.Handler, 3),
		lease:     defaultLease,
		poll:      defaultPollInterval,
		logger:    logging.NewComponentLogger(logger, "workflow"),
		notifier:  notifications.Noop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if cfg != nil {
		if lease := cfg.StageLease(); lease > 0 {
			c.lease = lease
		}
		if poll := cfg.ClaimPollInterval(); poll > 0 {
			c.poll = poll
		}
	}

	for _, h := range []stage.Handler{stages.Gather, stages.Summarize, stages.Synthesize} {
		if h == nil {
			continue
		}
		target := h.Target()
		if target == records.StatusCreated || !target.Valid() {
			return nil, fmt.Errorf("workflow: stage %s has invalid target %q", h.Name(), target)
		}
		if _, dup := c.handlers[target]; dup {
			return nil, fmt.Errorf("workflow: two stages target %q", target)
		}
		c.handlers[target] = h
		c.ordered = append(c.ordered, h)
	}
	return c, nil
}

// Start creates a query for text and gathers its articles.
func (c *Controller) Start(ctx context.Context, text string) (*records.Query, error) {
	q, err := c.store.CreateQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	logging.WithContext(services.WithQueryID(ctx, q.ID), c.logger).Info("query created",
		logging.String(logging.FieldEventType, "query_created"),
		logging.String("query_text", q.Text),
	)
	return c.EnsureStage(ctx, q.ID, records.StatusArticlesGathered)
}

// Artifact downloads the artifact produced when q reached status.
func (c *Controller) Artifact(ctx context.Context, q *records.Query, status records.Status) ([]byte, error) {
	if q == nil {
		return nil, services.Wrap(services.ErrValidation, "workflow", "artifact", "query is nil", nil)
	}
	ref := q.Ref(status)
	if ref == "" {
		return nil, services.Wrap(services.ErrStagePrecondition, "workflow", "artifact",
			fmt.Sprintf("query %d has no %q artifact (status %q)", q.ID, status, q.Status), nil)
	}
	return c.artifacts.Get(ctx, ref)
}
