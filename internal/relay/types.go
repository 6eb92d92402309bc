package relay

import (
	"context"
	"net/http"

	"gemini-relay/internal/oauth"
)

// Request is one logical generation request, independent of which transport
// strategy ultimately serves it. Immutable once constructed; consumed once.
type Request struct {
	// Model is the upstream model identifier.
	Model string
	// Body is the upstream-shaped inner request (contents, generationConfig,
	// ...). Field rewriting happens before the relay sees it.
	Body []byte
	// Credentials carries the bearer token. Opaque to the relay.
	Credentials *oauth.Credentials
	// ProjectID is the target project. Falls back to the credential's
	// project binding when empty.
	ProjectID string
	// Stream reports whether the client asked for incremental delivery.
	Stream bool
}

// EffectiveProject resolves the project the upstream call is billed to.
func (r *Request) EffectiveProject() string {
	if r.ProjectID != "" {
		return r.ProjectID
	}
	if r.Credentials != nil {
		return r.Credentials.ProjectID
	}
	return ""
}

// EventSink receives the client-facing output of one logical request.
// Implementations adapt it to the concrete transport (SSE over HTTP, test
// buffers). All methods are called from a single goroutine per request.
type EventSink interface {
	// Data emits one wire frame carrying the given JSON payload.
	Data(payload []byte) error
	// Heartbeat emits one zero-information keepalive frame.
	Heartbeat() error
	// Document terminates the request with a single JSON document and an
	// HTTP-like status. Used by the non-streaming strategies and for
	// failures that precede any streaming output.
	Document(status int, payload []byte) error
}

// UpstreamClient is the retrying transport the relay drives. Exactly one
// upstream call is made per logical attempt.
type UpstreamClient interface {
	Generate(ctx context.Context, payload []byte) (*http.Response, error)
	Stream(ctx context.Context, payload []byte) (*http.Response, error)
}
