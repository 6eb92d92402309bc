package gemini

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gemini-relay/internal/config"
	mw "gemini-relay/internal/middleware"
)

// retryPolicy retries the whole HTTP round trip on network-layer failure.
// Attempts counts total tries. The delay is fixed; a delivered HTTP response
// is never retried regardless of its status code.
type retryPolicy struct {
	Attempts  int
	Delay     time.Duration
	Retryable func(error) bool
}

func retryPolicyFromConfig(cfg *config.Config) retryPolicy {
	attempts := cfg.RetryMax
	if attempts <= 0 {
		attempts = 1
	}
	return retryPolicy{
		Attempts:  attempts,
		Delay:     cfg.RetryInterval(),
		Retryable: isRetryableNetworkErr,
	}
}

// isRetryableNetworkErr reports whether the round trip failed at the network
// layer in a way worth retrying. Context cancellation and deadline are the
// caller giving up, not the network flaking.
func isRetryableNetworkErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// run executes fn until it succeeds, the error is not retryable, or the
// attempt budget is spent. It returns the last result and the count of
// attempts beyond the first.
func (p retryPolicy) run(fn func() (*http.Response, error)) (*http.Response, error, int) {
	var resp *http.Response
	var err error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(p.Delay)
		}
		resp, err = fn()
		if err == nil {
			return resp, nil, attempt
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return resp, err, attempt
		}
	}
	return resp, err, p.Attempts - 1
}

// doAttempt executes one logical upstream call with the retry policy
// applied. It returns the final response, error, and retry count.
//
// IMPORTANT: Caller is responsible for closing resp.Body if resp is non-nil.
func (c *Client) doAttempt(ctx context.Context, url string, payload []byte, bearer string) (*http.Response, error, int) {
	doOnce := func() (*http.Response, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		c.applyDefaultHeaders(req, bearer)
		return c.cli.Do(req)
	}

	start := time.Now()
	resp, err, tries := c.retry.run(doOnce)
	dur := time.Since(start)

	mw.RecordUpstream(actionFromURL(url), dur, getStatus(resp), err != nil)
	if tries > 0 {
		mw.RecordUpstreamRetry(tries, err == nil)
	}
	if err != nil {
		mw.RecordUpstreamError(classifyErr(err))
	}

	return resp, err, tries
}

func actionFromURL(u string) string {
	if strings.Contains(u, "streamGenerateContent") {
		return "streamGenerateContent"
	}
	return "generateContent"
}

func classifyErr(err error) string {
	if err == nil {
		return ""
	}
	if ue, ok := err.(*url.Error); ok {
		if ue.Timeout() {
			return "timeout"
		}
		if ue.Err != nil {
			s := ue.Err.Error()
			if strings.Contains(s, "no such host") {
				return "dns"
			}
			if strings.Contains(s, "connection reset") {
				return "conn_reset"
			}
			if strings.Contains(s, "broken pipe") {
				return "conn_broken_pipe"
			}
			if strings.Contains(s, "i/o timeout") {
				return "timeout"
			}
		}
	}
	s := err.Error()
	switch {
	case strings.Contains(s, "deadline exceeded"):
		return "deadline"
	case strings.Contains(s, "context canceled"):
		return "canceled"
	case strings.Contains(s, "no such host"):
		return "dns"
	case strings.Contains(s, "connection reset"):
		return "conn_reset"
	case strings.Contains(s, "broken pipe"):
		return "conn_broken_pipe"
	case strings.Contains(s, "timeout"):
		return "timeout"
	}
	return "other"
}
