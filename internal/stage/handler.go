package stage

import (
	"context"

	"podcaster/internal/records"
)

// Handler describes the contract the pipeline controller needs from each stage.
// Execute must not touch the record store: it returns the artifact ref (and,
// for gather, the article rows) and the controller performs the transition.
type Handler interface {
	Name() string
	Target() records.Status
	Execute(context.Context, *records.Query) (Result, error)
	HealthCheck(context.Context) Health
}

// Result is what a stage produced.
type Result struct {
	Ref      string
	Articles []records.Article
	// Output holds the artifact bytes so callers can skip a download.
	Output []byte
}

// Cached returns the stored ref when q has already passed target.
func Cached(q *records.Query, target records.Status) (Result, bool) {
	if q == nil || !q.Status.AtLeast(target) {
		return Result{}, false
	}
	ref := q.Ref(target)
	if ref == "" {
		return Result{}, false
	}
	return Result{Ref: ref}, true
}
