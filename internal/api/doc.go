// Package api defines the front-end operations and wire-format types shared
// by the HTTP daemon and the CLI.
//
// # Key Types
//
// Service: the core front-end contract. Each method maps onto one CLI command
// and one daemon route (fetch, summarize, podcast, generate, queries,
// articles, reset, status).
//
// QueryView/ArticleView: transport representations of records.Query and
// records.Article. JSON tags use the lowercase column names (queryid,
// querytext, textkey, ...) that API consumers already know.
//
// FetchResult, ScriptResult, AudioResult: per-operation payloads. AudioResult
// carries the audio bytes, which encoding/json writes as base64 under
// "audiodata".
//
// # Validation
//
// ValidateTopic and ParseQueryID apply the same rules on both sides of the
// wire: a topic must not be empty or purely numeric, and a query id must be
// numeric.
package api
