package relay

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// candidateMetaKeys live on the candidate, payloadMetaKeys on the payload
// root. Candidate metadata rides on that candidate's last part; payload
// metadata on the final fragment overall, so clients observe usage exactly
// once per response.
var (
	candidateMetaKeys = []string{"finishReason", "safetyRatings"}
	payloadMetaKeys   = []string{"usageMetadata", "modelVersion", "createTime", "responseId"}
)

// Fragment splits a normalized payload into one chunk per content part, in
// candidate then part order, preserving each part verbatim. A payload
// without candidates or parts yields a single fragment carrying the payload
// unchanged, so malformed-but-normalized responses still reach the client.
func Fragment(payload []byte) [][]byte {
	parsed := gjson.ParseBytes(payload)
	candidates := parsed.Get("candidates").Array()

	var out [][]byte
	for _, cand := range candidates {
		parts := cand.Get("content.parts").Array()
		if len(parts) == 0 {
			continue
		}
		role := cand.Get("content.role").Raw
		if role == "" {
			role = `"model"`
		}
		for i, part := range parts {
			chunk := []byte(`{"candidates":[{"content":{"parts":[]}}]}`)
			chunk, _ = sjson.SetRawBytes(chunk, "candidates.0.content.role", []byte(role))
			chunk, _ = sjson.SetRawBytes(chunk, "candidates.0.content.parts.0", []byte(part.Raw))

			if i == len(parts)-1 {
				for _, key := range candidateMetaKeys {
					if v := cand.Get(key); v.Exists() {
						chunk, _ = sjson.SetRawBytes(chunk, "candidates.0."+key, []byte(v.Raw))
					}
				}
			}
			out = append(out, chunk)
		}
	}
	if len(out) == 0 {
		return [][]byte{payload}
	}

	last := out[len(out)-1]
	for _, key := range payloadMetaKeys {
		if v := parsed.Get(key); v.Exists() {
			last, _ = sjson.SetRawBytes(last, key, []byte(v.Raw))
		}
	}
	out[len(out)-1] = last
	return out
}
