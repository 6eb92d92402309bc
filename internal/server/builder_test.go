package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"gemini-relay/internal/config"
	gh "gemini-relay/internal/handlers/gemini"
	"gemini-relay/internal/oauth"
	"gemini-relay/internal/relay"
)

type stubUpstream struct {
	generateCalls atomic.Int32
	streamCalls   atomic.Int32
	generateBody  string
	generateCode  int
	streamBody    string
	streamCode    int
}

func (s *stubUpstream) Generate(context.Context, []byte) (*http.Response, error) {
	s.generateCalls.Add(1)
	return &http.Response{StatusCode: s.generateCode, Body: io.NopCloser(strings.NewReader(s.generateBody))}, nil
}

func (s *stubUpstream) Stream(context.Context, []byte) (*http.Response, error) {
	s.streamCalls.Add(1)
	return &http.Response{StatusCode: s.streamCode, Body: io.NopCloser(strings.NewReader(s.streamBody))}, nil
}

func testRouter(cfg *config.Config, stub *stubUpstream) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	relayEngine := relay.NewEngineWithFactory(func() *config.Config { return cfg }, func(*config.Config, *oauth.Credentials) relay.UpstreamClient {
		return stub
	})
	RegisterGeminiRoutes(engine, gh.NewWithEngine(relayEngine))
	return engine
}

const stubOneShot = `{"response":{"candidates":[{"content":{"role":"model","parts":[{"text":"hello"}]},"finishReason":"STOP"}]}}`

func TestGenerateContentEndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.GoogleBearerToken = "server-token"
	cfg.GoogleProjectID = "proj"
	stub := &stubUpstream{generateBody: stubOneShot, generateCode: 200}
	router := testRouter(cfg, stub)

	for _, target := range []string{
		"/v1beta/models/gemini-2.5-pro/:generateContent",
		"/v1beta/models/gemini-2.5-pro:generateContent/",
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{"contents":[{"parts":[{"text":"hi"}]}]}`))
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, target)
		body := rec.Body.Bytes()
		assert.Equal(t, "hello", gjson.GetBytes(body, "candidates.0.content.parts.0.text").String())
		assert.False(t, gjson.GetBytes(body, "response").Exists())
	}
	assert.Equal(t, int32(2), stub.generateCalls.Load())
}

func TestStreamGenerateContentSingleFrameNoHeartbeats(t *testing.T) {
	cfg := config.Default()
	cfg.GoogleBearerToken = "server-token"
	cfg.GoogleProjectID = "proj"
	stub := &stubUpstream{
		streamCode: 200,
		streamBody: "data: {\"response\":{\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"chunk\"}]},\"finishReason\":\"STOP\"}]}}\n\n",
	}
	router := testRouter(cfg, stub)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-2.5-pro/:streamGenerateContent", strings.NewReader(`{"contents":[]}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	frames := parseSSEFrames(rec.Body.String())
	require.Len(t, frames, 1)
	assert.NotContains(t, frames, "{}")
	assert.Equal(t, "chunk", gjson.Get(frames[0], "candidates.0.content.parts.0.text").String())
	assert.Equal(t, int32(1), stub.streamCalls.Load())
	assert.Equal(t, int32(0), stub.generateCalls.Load())
}

func TestMissingCredentialShortCircuits(t *testing.T) {
	cfg := config.Default()
	stub := &stubUpstream{generateBody: stubOneShot, generateCode: 200, streamBody: "", streamCode: 200}
	router := testRouter(cfg, stub)

	for _, action := range []string{":generateContent", ":streamGenerateContent"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-2.5-pro/"+action, strings.NewReader(`{}`))
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code, action)
		assert.Equal(t, "auth_error", gjson.Get(rec.Body.String(), "error.type").String())
	}
	assert.Equal(t, int32(0), stub.generateCalls.Load())
	assert.Equal(t, int32(0), stub.streamCalls.Load())
}

func TestCallerBearerTokenOverridesNothingConfigured(t *testing.T) {
	cfg := config.Default()
	stub := &stubUpstream{generateBody: stubOneShot, generateCode: 200}
	router := testRouter(cfg, stub)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-2.5-pro/:generateContent", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer caller-token")
	req.Header.Set("x-goog-user-project", "caller-proj")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), stub.generateCalls.Load())
}

func TestInvalidJSONBodyRejected(t *testing.T) {
	cfg := config.Default()
	cfg.GoogleBearerToken = "server-token"
	stub := &stubUpstream{generateBody: stubOneShot, generateCode: 200}
	router := testRouter(cfg, stub)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-2.5-pro/:generateContent", strings.NewReader(`{not json`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request_error", gjson.Get(rec.Body.String(), "error.type").String())
	assert.Equal(t, int32(0), stub.generateCalls.Load())
}

func TestUnknownActionIs404(t *testing.T) {
	cfg := config.Default()
	cfg.GoogleBearerToken = "server-token"
	router := testRouter(cfg, &stubUpstream{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-2.5-pro/:embedContent", strings.NewReader(`{}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildRegistersHealthAndMetrics(t *testing.T) {
	cfg := config.Default()
	router := Build(cfg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gemini_relay_")
}

func parseSSEFrames(body string) []string {
	var frames []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "data: ") {
			frames = append(frames, strings.TrimPrefix(line, "data: "))
		}
	}
	return frames
}
