package errors

import (
	"encoding/json"
	"fmt"
)

// Kind classifies client-facing failures.
type Kind string

const (
	// KindAuth marks caller-supplied credential/project problems. Never retried.
	KindAuth Kind = "auth_error"
	// KindInvalidRequest marks requests the upstream rejected as malformed.
	KindInvalidRequest Kind = "invalid_request_error"
	// KindAPI marks upstream unavailability, non-2xx statuses and network
	// failures that survived the retry bound.
	KindAPI Kind = "api_error"
	// KindContent marks upstream responses that could not be interpreted at all.
	KindContent Kind = "content_error"
)

// Envelope is the uniform client-facing error shape. It is terminal for the
// request it belongs to: a logical request produces either content or exactly
// one Envelope, never both.
type Envelope struct {
	Message string
	Kind    Kind
	Code    int
}

func New(code int, kind Kind, message string) *Envelope {
	return &Envelope{Message: message, Kind: kind, Code: code}
}

func (e *Envelope) Error() string {
	return fmt.Sprintf("%s (%s, code %d)", e.Message, e.Kind, e.Code)
}

// wireError mirrors the OpenAI-style envelope the original clients expect.
type wireError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// ToJSON serializes the envelope as {"error": {"message", "type", "code"}}.
func (e *Envelope) ToJSON() []byte {
	var w wireError
	w.Error.Message = e.Message
	w.Error.Type = string(e.Kind)
	w.Error.Code = e.Code
	b, err := json.Marshal(w)
	if err != nil {
		// Envelope contains only scalars; Marshal cannot fail in practice.
		return []byte(`{"error":{"message":"internal error","type":"api_error","code":500}}`)
	}
	return b
}
