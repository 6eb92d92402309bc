package relay

import (
	"bufio"
	"bytes"
	"context"
	"net/http"

	"github.com/tidwall/gjson"

	apperrors "gemini-relay/internal/errors"
	mw "gemini-relay/internal/middleware"
	"gemini-relay/internal/upstream/gemini"
)

// scanBufSize bounds a single upstream SSE line. Code Assist chunks stay
// far below this; oversized lines fail the scan instead of blocking it.
const scanBufSize = 1 << 20

// runStreamRelay forwards genuine upstream SSE events one-to-one. Each
// upstream frame is unwrapped from its envelope and re-emitted; malformed
// frames are skipped. A failure before the first frame yields a single
// error document, a failure mid-stream yields a trailing error frame since
// delivered content cannot be retracted.
func (e *Engine) runStreamRelay(ctx context.Context, client UpstreamClient, envelope []byte, sink EventSink) error {
	resp, err := client.Stream(ctx, envelope)
	if err != nil {
		env := apperrors.FromRetryFailure(err)
		return sink.Document(env.Code, env.ToJSON())
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := gemini.ReadAll(resp)
		env := apperrors.FromStatus(resp.StatusCode, body)
		return sink.Document(env.Code, env.ToJSON())
	}
	defer resp.Body.Close()

	events := 0
	defer func() { mw.RecordSSEEvents(StrategyStreamRelay.String(), events) }()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), scanBufSize)
	for scanner.Scan() {
		if ctx.Err() != nil {
			mw.RecordSSEClose(StrategyStreamRelay.String(), "client_gone")
			return ctx.Err()
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if !bytes.HasPrefix(line, []byte(sseMarker)) {
			continue
		}
		chunk := bytes.TrimSpace(line[len(sseMarker):])
		if !gjson.ValidBytes(chunk) {
			e.log.WithField("bytes", len(chunk)).Debug("skipping malformed stream frame")
			continue
		}
		payload := chunk
		if inner := gjson.GetBytes(chunk, "response"); inner.Exists() {
			payload = []byte(inner.Raw)
		}
		if err := sink.Data(payload); err != nil {
			mw.RecordSSEClose(StrategyStreamRelay.String(), "write_error")
			return err
		}
		events++
	}
	if err := scanner.Err(); err != nil {
		env := apperrors.FromStreamFailure(err)
		e.log.WithError(err).Warn("upstream stream broke mid-flight")
		return sink.Data(env.ToJSON())
	}
	return nil
}
