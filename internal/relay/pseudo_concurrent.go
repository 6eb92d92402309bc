package relay

import (
	"context"
	"time"

	"gemini-relay/internal/config"
	apperrors "gemini-relay/internal/errors"
	mw "gemini-relay/internal/middleware"
)

type oneShotResult struct {
	payload []byte
	env     *apperrors.Envelope
}

// runPseudoConcurrent fakes streaming with the one-shot call running in the
// background while heartbeats go out on a timer. The heartbeat count is
// capped; once the cap is hit the wait continues silently, the in-flight
// call is never cancelled by the cap. Heartbeats stop the moment the call
// resolves, so no heartbeat ever follows content.
func (e *Engine) runPseudoConcurrent(ctx context.Context, cfg *config.Config, client UpstreamClient, envelope []byte, sink EventSink) error {
	results := guardedOneShot(ctx, client, envelope, "relay.pseudo_concurrent")

	ticker := time.NewTicker(cfg.HeartbeatInterval())
	defer ticker.Stop()
	beats := 0
	defer func() { mw.RecordHeartbeats(StrategyPseudoConcurrent.String(), beats) }()

	for {
		select {
		case <-ctx.Done():
			mw.RecordSSEClose(StrategyPseudoConcurrent.String(), "client_gone")
			return ctx.Err()
		case <-ticker.C:
			if beats >= cfg.MaxHeartbeats {
				ticker.Stop()
				continue
			}
			if err := sink.Heartbeat(); err != nil {
				mw.RecordSSEClose(StrategyPseudoConcurrent.String(), "write_error")
				return err
			}
			beats++
		case res := <-results:
			if res.env != nil {
				return e.emitError(sink, res.env)
			}
			return e.emitFragments(ctx, sink, res.payload, StrategyPseudoConcurrent)
		}
	}
}
