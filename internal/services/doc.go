// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp query IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so every failure carries
//     a classification (transient, not found, precondition, provider, ...)
//     that front ends can map to user-visible responses.
//
// Provider clients live in subpackages (guardian, llm, speech) and report
// failures through the same markers.
package services
