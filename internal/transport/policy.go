package transport

import (
	"log/slog"
	"slices"
	"time"

	"podcaster/internal/config"
)

// MaxAttempts bounds every outbound call: one try plus two retries.
const MaxAttempts = config.RetryAttempts

// DefaultTerminal lists the HTTP statuses returned to the caller without retry.
var DefaultTerminal = []int{200, 400, 404, 480, 481, 482, 500}

// Policy configures the retry budget shared by HTTP and non-HTTP calls.
type Policy struct {
	// Unit is the linear backoff step; attempt k waits k*Unit before the next.
	Unit time.Duration
	// Terminal holds the statuses that end an HTTP retry loop.
	Terminal []int
	Logger   *slog.Logger
}

// DefaultPolicy returns the production policy with a one second unit.
func DefaultPolicy() Policy {
	return Policy{Unit: time.Second, Terminal: slices.Clone(DefaultTerminal)}
}

// PolicyFromConfig builds a policy from the [transport] section.
func PolicyFromConfig(cfg *config.Config, logger *slog.Logger) Policy {
	policy := DefaultPolicy()
	policy.Logger = logger
	if cfg == nil {
		return policy
	}
	policy.Unit = cfg.BackoffUnit()
	if len(cfg.Transport.TerminalStatusCodes) > 0 {
		policy.Terminal = slices.Clone(cfg.Transport.TerminalStatusCodes)
	}
	return policy
}

// IsTerminal reports whether an HTTP status ends the retry loop.
func (p Policy) IsTerminal(code int) bool {
	terminal := p.Terminal
	if len(terminal) == 0 {
		terminal = DefaultTerminal
	}
	return slices.Contains(terminal, code)
}

// Wait returns the pause after the given 1-based attempt.
func (p Policy) Wait(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * p.Unit
}
