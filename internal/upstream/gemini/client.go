package gemini

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"gemini-relay/internal/config"
	"gemini-relay/internal/monitoring/tracing"
	"gemini-relay/internal/oauth"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDialTimeout           = 15 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultResponseHeaderTimeout = 120 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
)

// Client talks to the Code Assist API. It holds no per-request state: one
// Client may serve concurrent logical requests.
type Client struct {
	cfg         *config.Config
	cli         *http.Client
	retry       retryPolicy
	credentials *oauth.Credentials
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func New(cfg *config.Config) *Client {
	dialTO := durationOrDefault(cfg.DialTimeoutSec, defaultDialTimeout)
	tlsTO := durationOrDefault(cfg.TLSHandshakeTimeoutSec, defaultTLSHandshakeTimeout)
	hdrTO := durationOrDefault(cfg.ResponseHeaderTimeoutSec, defaultResponseHeaderTimeout)
	expTO := durationOrDefault(cfg.ExpectContinueTimeoutSec, defaultExpectContinueTimeout)

	tr := &http.Transport{
		Proxy: getProxyFunc(cfg.ProxyURL),
		DialContext: (&net.Dialer{
			Timeout:   dialTO,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   tlsTO,
		ResponseHeaderTimeout: hdrTO,
		ExpectContinueTimeout: expTO,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
	}
	return &Client{
		cfg:   cfg,
		cli:   &http.Client{Transport: tr, Timeout: 0},
		retry: retryPolicyFromConfig(cfg),
	}
}

// NewWithCredential creates a client bound to a specific credential.
func NewWithCredential(cfg *config.Config, creds *oauth.Credentials) *Client {
	client := New(cfg)
	client.credentials = creds
	return client
}

// getProxyFunc returns the proxy function for the configured URL, falling
// back to environment proxy settings.
func getProxyFunc(proxyURL string) func(*http.Request) (*url.URL, error) {
	if proxyURL != "" {
		if parsedURL, err := url.Parse(proxyURL); err == nil {
			return http.ProxyURL(parsedURL)
		}
	}
	return http.ProxyFromEnvironment
}

// getToken returns the bearer token (credential first, config fallback).
// An expired credential is still sent, the upstream response decides; the
// warning gives operators the likely cause ahead of the 401.
func (c *Client) getToken() string {
	if c.credentials != nil && c.credentials.AccessToken != "" {
		if c.credentials.IsExpired() {
			logrus.WithField("expires_at", c.credentials.ExpiresAt).
				Warn("credential expired or expiring, upstream may reject it")
		}
		return c.credentials.AccessToken
	}
	return c.cfg.GoogleBearerToken
}

// postJSON sends the payload to url with the retry policy applied.
//
// IMPORTANT: Caller MUST close resp.Body if resp is non-nil and err is nil.
func (c *Client) postJSON(ctx context.Context, url string, body []byte) (*http.Response, error) {
	spanCtx, span := tracing.StartSpan(ctx, "upstream/gemini", "Gemini.PostJSON",
		trace.WithAttributes(
			attribute.String("http.method", http.MethodPost),
			attribute.String("http.url", url),
		))
	defer span.End()

	resp, err, retries := c.doAttempt(spanCtx, url, body, c.getToken())

	status := getStatus(resp)
	span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.Int("upstream.retry_total", retries),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if status >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("http_status=%d", status))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return resp, err
}

func getStatus(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

// Generate sends a non-stream request to v1internal:generateContent.
//
// IMPORTANT: Caller MUST close resp.Body if resp is non-nil and err is nil.
func (c *Client) Generate(ctx context.Context, payload []byte) (*http.Response, error) {
	return c.postJSON(ctx, c.cfg.CodeAssistEndpoint+PathGenerate, payload)
}

// Stream sends a stream request to v1internal:streamGenerateContent?alt=sse.
//
// IMPORTANT: Caller MUST close resp.Body if resp is non-nil and err is nil.
func (c *Client) Stream(ctx context.Context, payload []byte) (*http.Response, error) {
	return c.postJSON(ctx, c.cfg.CodeAssistEndpoint+PathStreamGenerate, payload)
}

// ReadAll reads and returns the response body, closing it afterwards.
func ReadAll(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, nil
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
