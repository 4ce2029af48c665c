// Package transport centralizes the retry budget for every outbound call.
//
// Client wraps go-retryablehttp for HTTP providers; Retry applies the same
// three-attempt linear schedule to store and cache operations through
// cenkalti/backoff. Neither raises after the budget is spent: callers get the
// final response or error and classify it themselves.
package transport
