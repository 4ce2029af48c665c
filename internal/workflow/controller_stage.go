package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"podcaster/internal/logging"
	"podcaster/internal/metrics"
	"podcaster/internal/records"
	"podcaster/internal/services"
	"podcaster/internal/stage"
)

const (
	releaseTimeout = 5 * time.Second
	notifyTimeout  = 30 * time.Second
)

// errStageRaced marks a claim or commit that lost to another runner. Any
// other conflict, such as one raised by an executor or the artifact store,
// fails the stage.
var errStageRaced = errors.New("stage raced")

// EnsureStage brings query id up to target, running each missing stage in
// order, and returns the query as stored afterwards. A query already at or
// past target is returned untouched.
func (c *Controller) EnsureStage(ctx context.Context, id int64, target records.Status) (*records.Query, error) {
	if target == records.StatusCreated || !target.Valid() {
		return nil, services.Wrap(services.ErrValidation, "workflow", "ensure stage",
			fmt.Sprintf("invalid target status %q", target), nil)
	}
	ctx = services.WithQueryID(ctx, id)
	waiting := false

	for {
		q, err := c.store.GetQuery(ctx, id)
		if err != nil {
			return nil, err
		}
		if q.Status.AtLeast(target) {
			return q, nil
		}
		next, _ := q.Status.Next()
		handler, ok := c.handlers[next]
		if !ok {
			return nil, services.Wrap(services.ErrConfiguration, "workflow", "ensure stage",
				fmt.Sprintf("no stage produces %q", next), nil)
		}

		if q.Leased(c.now()) {
			if !waiting {
				logging.WithContext(ctx, c.logger).Debug("stage claimed elsewhere; waiting",
					logging.String(logging.FieldStage, handler.Name()),
					logging.String("status", string(q.Status)),
				)
				waiting = true
			}
			if err := c.sleep(ctx); err != nil {
				return nil, err
			}
			continue
		}
		waiting = false

		err = c.runStage(ctx, q, handler)
		switch {
		case err == nil:
		case errors.Is(err, errStageRaced):
			// Another caller claimed or advanced first; re-read and follow it.
		default:
			return nil, err
		}
	}
}

// runStage claims q's next stage, executes handler, and commits the result.
// errStageRaced means the record moved underneath us and the caller should
// reload.
func (c *Controller) runStage(ctx context.Context, q *records.Query, handler stage.Handler) error {
	expected := q.Status
	name := handler.Name()
	token := uuid.NewString()

	if err := c.store.ClaimStage(ctx, q.ID, expected, token, c.now().Add(c.lease)); err != nil {
		if errors.Is(err, services.ErrConflict) {
			metrics.RecordStage(name, metrics.OutcomeConflict, 0)
			return fmt.Errorf("%w: %w", errStageRaced, err)
		}
		return err
	}

	stageCtx := services.WithRequestID(services.WithStage(ctx, name), uuid.NewString())
	logger := logging.WithContext(stageCtx, c.logger)
	start := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("from_status", string(expected)),
		logging.String("target_status", string(handler.Target())),
	)

	result, err := handler.Execute(stageCtx, q)
	if err != nil {
		c.release(stageCtx, q.ID, token)
		return c.stageFailed(stageCtx, q, name, start, err)
	}

	if err := c.store.AdvanceStage(stageCtx, q.ID, expected, handler.Target(), token, result.Ref, result.Articles...); err != nil {
		c.release(stageCtx, q.ID, token)
		if errors.Is(err, services.ErrConflict) {
			metrics.RecordStage(name, metrics.OutcomeConflict, time.Since(start).Seconds())
			logging.WarnWithContext(logger, "stage result discarded", "stage_conflict",
				logging.String("artifact", result.Ref),
				logging.String(logging.FieldErrorHint, "lease was taken over before the stage finished; raise workflow.stage_lease_seconds"),
			)
			return fmt.Errorf("%w: %w", errStageRaced, err)
		}
		return c.stageFailed(stageCtx, q, name, start, err)
	}

	elapsed := time.Since(start)
	metrics.RecordStage(name, metrics.OutcomeSuccess, elapsed.Seconds())
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(handler.Target())),
		logging.String("artifact", result.Ref),
		logging.Int("articles", len(result.Articles)),
		logging.Duration("stage_duration", elapsed),
	)
	if handler.Target() == records.StatusAudioGenerated {
		c.notify(stageCtx, func(ctx context.Context) error {
			return c.notifier.NotifyPodcastReady(ctx, q.ID, q.Text, result.Ref)
		})
	}
	return nil
}

func (c *Controller) stageFailed(ctx context.Context, q *records.Query, name string, start time.Time, err error) error {
	elapsed := time.Since(start)
	if errors.Is(err, context.Canceled) {
		logging.WithContext(ctx, c.logger).Debug("stage interrupted", logging.Duration("stage_duration", elapsed))
		return err
	}
	metrics.RecordStage(name, metrics.OutcomeFailure, elapsed.Seconds())

	logger := logging.WithContext(ctx, c.logger)
	attrs := []logging.Attr{
		logging.ErrorKind(err),
		logging.String(logging.FieldErrorHint, failureHint(err)),
		logging.String("status", string(q.Status)),
		logging.Duration("stage_duration", elapsed),
		logging.Error(err),
	}
	if services.IsUserError(err) {
		logging.WarnWithContext(logger, "stage failed", "stage_failed", attrs...)
	} else {
		logging.ErrorWithContext(logger, "stage failed", "stage_failed", append(attrs, logging.Alert("stage_failure"))...)
		c.notify(ctx, func(ctx context.Context) error {
			return c.notifier.NotifyStageFailed(ctx, q.ID, q.Text, name, err)
		})
	}
	return fmt.Errorf("query %d: %s: %w", q.ID, name, err)
}

// release drops the lease even when ctx is already canceled so the stage is
// not blocked until the lease expires.
func (c *Controller) release(ctx context.Context, id int64, token string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := c.store.ReleaseStage(releaseCtx, id, token); err != nil {
		logging.WithContext(ctx, c.logger).Warn("failed to release stage lease",
			logging.String(logging.FieldEventType, "lease_release_failed"),
			logging.String(logging.FieldErrorHint, "the lease will expire on its own"),
			logging.Error(err),
		)
	}
}

// notify delivers an event without letting a slow or failing ntfy endpoint
// affect the stage outcome.
func (c *Controller) notify(ctx context.Context, send func(context.Context) error) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := send(notifyCtx); err != nil {
		logging.WithContext(ctx, c.logger).Warn("notification failed",
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.Error(err),
		)
	}
}

func (c *Controller) sleep(ctx context.Context) error {
	timer := time.NewTimer(c.poll)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func failureHint(err error) string {
	switch services.Kind(err) {
	case "no_content_found":
		return "try a broader topic"
	case "empty_input":
		return "the previous stage produced no usable text"
	case "provider":
		return "check the provider's credentials and status"
	case "transient":
		return "the service was unreachable after retries; try again"
	case "configuration":
		return "check the config file"
	default:
		return "check logs for details"
	}
}
