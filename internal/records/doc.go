// Package records persists queries and their gathered article rows.
//
// A Store wraps database/sql over SQLite (default), MySQL, or PostgreSQL.
// Stage transitions are conditional writes: AdvanceStage only succeeds when
// the row still carries the expected status and the stage's ref is unset, and
// ClaimStage hands out a time-bounded lease so at most one caller executes a
// stage for a query. These conditional writes are the only serialization point
// in the pipeline; callers that lose observe services.ErrConflict.
package records
