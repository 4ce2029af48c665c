// Package stage defines the executor contract shared by the gather,
// summarize, and synthesize stages.
package stage
