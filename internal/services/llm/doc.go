// Package llm provides an OpenAI-compatible chat client that writes podcast
// scripts.
//
// Summarize sends the instruction and the combined article text as one user
// message, with max_tokens, temperature, and top_p taken from the [llm]
// config section, and returns the first choice's content. HealthCheck asks for
// a tiny JSON reply to confirm the key and model work.
//
// The client does not retry on its own. Requests go through transport.Client,
// which retries non-terminal statuses and connection failures. A non-200
// answer or an unusable body is reported as services.ErrProvider; a failure
// to reach the service at all is services.ErrTransient.
package llm
