// Package workflow drives a query through the pipeline stages.
//
// The Controller owns one operation, EnsureStage: bring a query up to a target
// status by running whichever stages it is missing, in order. Each stage run
// takes a lease on the query record (ClaimStage), executes the stage handler,
// and commits the produced artifact ref with a conditional write
// (AdvanceStage). Callers racing on the same query never run a stage twice:
// the loser sees the lease, polls until the winner's transition lands, and
// returns the winner's result. A crashed holder's lease expires so the stage
// becomes claimable again.
//
// Handlers never touch the record store. They return the artifact ref and
// the controller performs the transition, so status only moves forward and a
// ref is only written after its upload succeeded.
package workflow
