// Package apiclient talks to a running podcaster daemon over HTTP.
//
// Requests go through transport.Client, so the CLI gets the same bounded
// retry behaviour as the daemon's outbound provider calls. Error bodies are
// decoded back into *Error values that unwrap to the services sentinels.
package apiclient
