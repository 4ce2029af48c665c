package transport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"podcaster/internal/logging"
	"podcaster/internal/metrics"
)

// Client is an HTTP client with the bounded linear retry policy. After the
// last attempt it hands back whatever the final attempt produced, response or
// error, and never converts a non-terminal status into an error.
type Client struct {
	target string
	policy Policy
	inner  *retryablehttp.Client
	logger *slog.Logger
}

// NewClient builds a client for the named target (used as a metric label).
func NewClient(target string, policy Policy, timeout time.Duration) *Client {
	logger := logging.NewComponentLogger(policy.Logger, "transport").With(logging.String("target", target))

	inner := retryablehttp.NewClient()
	inner.HTTPClient = &http.Client{Timeout: timeout}
	inner.Logger = nil
	inner.RetryMax = MaxAttempts - 1
	inner.RetryWaitMin = policy.Unit
	inner.RetryWaitMax = time.Duration(MaxAttempts) * policy.Unit
	inner.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{target: target, policy: policy, inner: inner, logger: logger}
	inner.Backoff = c.backoff
	inner.CheckRetry = c.checkRetry
	return c
}

// Do sends req, retrying transport errors and non-terminal statuses.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	wrapped, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, err
	}
	return c.inner.Do(wrapped)
}

// StandardClient exposes the retrying client as a plain *http.Client.
func (c *Client) StandardClient() *http.Client {
	return c.inner.StandardClient()
}

func (c *Client) backoff(_, _ time.Duration, attemptNum int, _ *http.Response) time.Duration {
	return c.policy.Wait(attemptNum + 1)
}

func (c *Client) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		metrics.RecordAttempt(c.target, metrics.OutcomeFailure)
		return false, ctxErr
	}
	if err != nil {
		retry, checkErr := retryablehttp.DefaultRetryPolicy(ctx, nil, err)
		outcome := metrics.OutcomeRetry
		if !retry {
			outcome = metrics.OutcomeFailure
		}
		metrics.RecordAttempt(c.target, outcome)
		c.logger.Debug("transport attempt failed", logging.Error(err), logging.Bool("retry", retry))
		return retry, checkErr
	}
	if c.policy.IsTerminal(resp.StatusCode) {
		metrics.RecordAttempt(c.target, metrics.OutcomeSuccess)
		return false, nil
	}
	metrics.RecordAttempt(c.target, metrics.OutcomeRetry)
	c.logger.Debug("transport attempt returned non-terminal status",
		logging.String("status", strconv.Itoa(resp.StatusCode)),
	)
	return true, nil
}
