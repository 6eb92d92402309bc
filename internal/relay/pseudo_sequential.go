package relay

import (
	"context"
	"net/http"
	"time"

	apperrors "gemini-relay/internal/errors"
	mw "gemini-relay/internal/middleware"
	"gemini-relay/internal/upstream/gemini"
)

const (
	// warmupBeats/warmupDelay pace the fixed pre-call heartbeats of the
	// sequential strategy.
	warmupBeats = 2
	warmupDelay = 500 * time.Millisecond
	// fragmentGap spaces synthetic content chunks so clients render them
	// progressively instead of as one burst.
	fragmentGap = 10 * time.Millisecond
)

// runPseudoSequential fakes streaming over the blocking endpoint: the
// one-shot call completes first, then a fixed number of pacing heartbeats
// go out, then the response is cut into per-part fragments. An upstream
// failure short-circuits to a single error frame with no heartbeats.
func (e *Engine) runPseudoSequential(ctx context.Context, client UpstreamClient, envelope []byte, sink EventSink) error {
	resp, err := client.Generate(ctx, envelope)
	if err != nil {
		return e.emitError(sink, apperrors.FromRetryFailure(err))
	}
	body, readErr := gemini.ReadAll(resp)
	if readErr != nil {
		return e.emitError(sink, apperrors.FromRetryFailure(readErr))
	}
	if resp.StatusCode != http.StatusOK {
		return e.emitError(sink, apperrors.FromStatus(resp.StatusCode, body))
	}

	for i := 0; i < warmupBeats; i++ {
		if err := sink.Heartbeat(); err != nil {
			return err
		}
		if err := sleepCtx(ctx, warmupDelay); err != nil {
			return err
		}
	}
	mw.RecordHeartbeats(StrategyPseudoSequential.String(), warmupBeats)

	payload, env := Normalize(body)
	if env != nil {
		return e.emitError(sink, env)
	}
	return e.emitFragments(ctx, sink, payload, StrategyPseudoSequential)
}

// emitError delivers a failure on a stream-shaped response as a single
// data frame carrying the error envelope.
func (e *Engine) emitError(sink EventSink, env *apperrors.Envelope) error {
	e.log.WithField("kind", string(env.Kind)).Warn(env.Message)
	return sink.Data(env.ToJSON())
}

// emitFragments streams the normalized payload as per-part chunks with a
// short gap between them. Metadata rides on the final chunk only.
func (e *Engine) emitFragments(ctx context.Context, sink EventSink, payload []byte, strategy Strategy) error {
	chunks := Fragment(payload)
	for i, chunk := range chunks {
		if err := sink.Data(chunk); err != nil {
			mw.RecordSSEClose(strategy.String(), "write_error")
			return err
		}
		if i < len(chunks)-1 {
			if err := sleepCtx(ctx, fragmentGap); err != nil {
				return err
			}
		}
	}
	mw.RecordSSEEvents(strategy.String(), len(chunks))
	return nil
}
