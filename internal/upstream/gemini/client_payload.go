package gemini

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// BuildEnvelope assembles the Code Assist wire payload
// {"model": ..., "project": ..., "request": ...} around an upstream-shaped
// request body. The inner request passes through untouched; field rewriting
// happens outside this package.
func BuildEnvelope(model, project string, request []byte) []byte {
	out := []byte(`{}`)
	out, _ = sjson.SetBytes(out, "model", model)
	out, _ = sjson.SetBytes(out, "project", project)
	if len(request) > 0 && gjson.ValidBytes(request) {
		out, _ = sjson.SetRawBytes(out, "request", request)
	} else {
		out, _ = sjson.SetRawBytes(out, "request", []byte(`{}`))
	}
	return out
}
