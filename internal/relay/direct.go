package relay

import (
	"context"
	"net/http"
)

// runDirect is the plain non-streaming path: one blocking upstream call,
// one terminal document either way.
func (e *Engine) runDirect(ctx context.Context, client UpstreamClient, envelope []byte, sink EventSink) error {
	payload, env := oneShot(ctx, client, envelope)
	if env != nil {
		return sink.Document(env.Code, env.ToJSON())
	}
	return sink.Document(http.StatusOK, payload)
}
