// Package logging builds the slog loggers shared by the daemon and CLI.
//
// It provides a console handler tuned for humans, a JSON handler for log
// shipping, and context helpers that stamp query IDs, stage names, and
// correlation IDs onto every line emitted while a stage runs. NewNop gives
// tests and optional wiring a logger that cannot fail.
package logging
