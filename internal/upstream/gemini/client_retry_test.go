package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"gemini-relay/internal/config"
)

func testConfig(endpoint string) *config.Config {
	cfg := config.Default()
	cfg.CodeAssistEndpoint = endpoint
	cfg.RetryIntervalSec = 0.001
	cfg.GoogleBearerToken = "test-token"
	cfg.GoogleProjectID = "test-project"
	return cfg
}

func TestRetryPolicySucceedsAfterTwoFailures(t *testing.T) {
	calls := 0
	p := retryPolicy{Attempts: 3, Delay: time.Millisecond, Retryable: isRetryableNetworkErr}
	resp, err, retries := p.run(func() (*http.Response, error) {
		calls++
		if calls < 3 {
			return nil, &url.Error{Op: "Post", URL: "http://upstream", Err: errors.New("connection reset by peer")}
		}
		return &http.Response{StatusCode: 200, Body: http.NoBody}, nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
	if retries != 2 {
		t.Fatalf("expected 2 retries, got %d", retries)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	calls := 0
	p := retryPolicy{Attempts: 3, Delay: time.Millisecond, Retryable: isRetryableNetworkErr}
	_, err, _ := p.run(func() (*http.Response, error) {
		calls++
		return nil, errors.New("dial tcp: i/o timeout")
	})
	if err == nil {
		t.Fatal("expected terminal error")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts total, got %d", calls)
	}
}

func TestRetryPolicyDoesNotRetryCancellation(t *testing.T) {
	calls := 0
	p := retryPolicy{Attempts: 3, Delay: time.Millisecond, Retryable: isRetryableNetworkErr}
	_, err, _ := p.run(func() (*http.Response, error) {
		calls++
		return nil, context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("cancellation must not be retried, got %d attempts", calls)
	}
}

func TestHTTPErrorStatusIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cli := New(testConfig(srv.URL))
	resp, err := cli.Generate(context.Background(), []byte(`{"model":"gemini-2.5-pro"}`))
	if err != nil {
		t.Fatalf("delivered response must not error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("HTTP error status must not be retried, got %d attempts", got)
	}
}

func TestClassifyErr(t *testing.T) {
	timeoutErr := &url.Error{Err: context.DeadlineExceeded, Op: "Post", URL: "http://example.com"}
	if got := classifyErr(timeoutErr); got != "timeout" {
		t.Fatalf("expected timeout, got %s", got)
	}
	if got := classifyErr(context.DeadlineExceeded); got != "deadline" {
		t.Fatalf("expected deadline, got %s", got)
	}
	hostErr := &url.Error{Err: errors.New("lookup fail: no such host")}
	if got := classifyErr(hostErr); got != "dns" {
		t.Fatalf("expected dns, got %s", got)
	}
	if got := classifyErr(errors.New("connection reset by peer")); got != "conn_reset" {
		t.Fatalf("expected conn_reset, got %s", got)
	}
	if got := classifyErr(nil); got != "" {
		t.Fatalf("expected empty classification, got %s", got)
	}
}
