package relay

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gemini-relay/internal/config"
	apperrors "gemini-relay/internal/errors"
	mw "gemini-relay/internal/middleware"
)

// runKeepAlive serves a non-streaming request over a frame-capable
// connection: liveness heartbeats while the one-shot call runs, then
// exactly one terminal document. Intermediaries that kill idle connections
// see traffic the whole time.
func (e *Engine) runKeepAlive(ctx context.Context, cfg *config.Config, client UpstreamClient, envelope []byte, sink EventSink) error {
	results := guardedOneShot(ctx, client, envelope, "relay.keepalive")

	ticker := time.NewTicker(cfg.KeepAliveInterval())
	defer ticker.Stop()
	beats := 0
	defer func() { mw.RecordHeartbeats(StrategyKeepAlive.String(), beats) }()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				env := apperrors.New(http.StatusGatewayTimeout, apperrors.KindAPI,
					"Request timeout: upstream call exceeded the deadline")
				return sink.Document(env.Code, env.ToJSON())
			}
			mw.RecordSSEClose(StrategyKeepAlive.String(), "client_gone")
			return ctx.Err()
		case <-ticker.C:
			if err := sink.Heartbeat(); err != nil {
				mw.RecordSSEClose(StrategyKeepAlive.String(), "write_error")
				return err
			}
			beats++
		case res := <-results:
			if res.env != nil {
				return sink.Document(res.env.Code, res.env.ToJSON())
			}
			return sink.Document(http.StatusOK, res.payload)
		}
	}
}
