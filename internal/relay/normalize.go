package relay

import (
	"bytes"
	"strings"

	apperrors "gemini-relay/internal/errors"
	mw "gemini-relay/internal/middleware"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const sseMarker = "data: "

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normalize unwraps an upstream one-shot body into the client-facing
// payload shape. The declared charset is ignored: upstream bodies are UTF-8
// regardless of what the header claims, and decoding the raw bytes directly
// keeps non-Latin text intact when the header is wrong.
//
// A single well-formed JSON object has its "response" field unwrapped (the
// whole body is the payload when the field is absent). Anything else goes
// through the salvage decoder; if that finds nothing recoverable the result
// is a content_error envelope.
func Normalize(raw []byte) ([]byte, *apperrors.Envelope) {
	body := bytes.TrimSpace(bytes.TrimPrefix(raw, utf8BOM))

	// One-shot responses can still carry the SSE marker.
	if bytes.HasPrefix(body, []byte(sseMarker)) && gjson.ValidBytes(bytes.TrimSpace(body[len(sseMarker):])) {
		body = bytes.TrimSpace(body[len(sseMarker):])
	}

	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		if resp := parsed.Get("response"); resp.Exists() {
			return []byte(resp.Raw), nil
		}
		return body, nil
	}

	if merged, ok := salvage(body); ok {
		mw.RecordSalvage("recovered")
		return merged, nil
	}
	mw.RecordSalvage("empty")
	return nil, apperrors.NoContent()
}

// salvage reassembles a malformed body (concatenated JSON objects, literal
// SSE framing, trailing garbage) into one payload. Every line carrying the
// SSE marker is parsed independently; recovered normal text and thought
// text accumulate separately in order of appearance, and the last
// occurrence of each metadata field wins. Individually broken lines are
// skipped, never fatal.
func salvage(body []byte) ([]byte, bool) {
	var textBuf, thoughtBuf strings.Builder
	var finishReason, safetyRatings string
	meta := map[string]string{}

	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, sseMarker) {
			continue
		}
		chunk := gjson.Parse(strings.TrimSpace(line[len(sseMarker):]))
		if chunk.Type != gjson.JSON {
			continue
		}
		payload := chunk
		if resp := chunk.Get("response"); resp.Exists() {
			payload = resp
		}

		payload.Get("candidates").ForEach(func(_, cand gjson.Result) bool {
			cand.Get("content.parts").ForEach(func(_, part gjson.Result) bool {
				text := part.Get("text")
				if !text.Exists() {
					return true
				}
				if part.Get("thought").Bool() {
					thoughtBuf.WriteString(text.String())
				} else {
					textBuf.WriteString(text.String())
				}
				return true
			})
			if fr := cand.Get("finishReason"); fr.Exists() {
				finishReason = fr.Raw
			}
			if sr := cand.Get("safetyRatings"); sr.Exists() {
				safetyRatings = sr.Raw
			}
			return true
		})

		for _, key := range []string{"usageMetadata", "modelVersion", "createTime", "responseId"} {
			if v := payload.Get(key); v.Exists() {
				meta[key] = v.Raw
			}
		}
	}

	if textBuf.Len() == 0 && thoughtBuf.Len() == 0 {
		return nil, false
	}

	// Canonical part order: normal text first, thought text appended.
	out := []byte(`{"candidates":[{"content":{"role":"model","parts":[]}}]}`)
	if textBuf.Len() > 0 {
		out, _ = sjson.SetBytes(out, "candidates.0.content.parts.-1", map[string]any{"text": textBuf.String()})
	}
	if thoughtBuf.Len() > 0 {
		out, _ = sjson.SetBytes(out, "candidates.0.content.parts.-1", map[string]any{"thought": true, "text": thoughtBuf.String()})
	}
	if finishReason != "" {
		out, _ = sjson.SetRawBytes(out, "candidates.0.finishReason", []byte(finishReason))
	}
	if safetyRatings != "" {
		out, _ = sjson.SetRawBytes(out, "candidates.0.safetyRatings", []byte(safetyRatings))
	}
	for _, key := range []string{"usageMetadata", "modelVersion", "createTime", "responseId"} {
		if raw, ok := meta[key]; ok {
			out, _ = sjson.SetRawBytes(out, key, []byte(raw))
		}
	}
	return out, true
}
