package workflow

import (
	"context"

	"podcaster/internal/stage"
)

// StageHealth reports the readiness of every configured stage, in order.
func (c *Controller) StageHealth(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, len(c.ordered))
	for _, h := range c.ordered {
		out = append(out, h.HealthCheck(ctx))
	}
	return out
}
