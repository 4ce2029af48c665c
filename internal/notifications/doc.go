// Package notifications publishes pipeline events to ntfy.
//
// NewService returns a no-op notifier when no topic is configured, so the
// workflow controller can call it unconditionally.
package notifications
