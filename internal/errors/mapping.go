package errors

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// FromStatus maps a non-200 upstream HTTP status plus its body to an
// Envelope. 404 is surfaced as an invalid request (unknown model/endpoint);
// everything else is an upstream API failure. The upstream's own error
// message is preferred when its body carries one.
func FromStatus(status int, upstreamBody []byte) *Envelope {
	kind := KindAPI
	if status == http.StatusNotFound {
		kind = KindInvalidRequest
	}
	msg := gjson.GetBytes(upstreamBody, "error.message").String()
	if msg == "" {
		msg = fmt.Sprintf("API error: %d", status)
	}
	return New(status, kind, msg)
}

// FromRetryFailure maps a network failure that exhausted the transport's
// retry bound. The cause survives in the message for operator forensics.
func FromRetryFailure(err error) *Envelope {
	return New(http.StatusInternalServerError, KindAPI, "Request failed after retries: "+err.Error())
}

// FromStreamFailure maps a mid-stream network failure. Partial content may
// already have reached the client and is not retracted.
func FromStreamFailure(err error) *Envelope {
	return New(http.StatusBadGateway, KindAPI, "Upstream request failed: "+err.Error())
}

// MissingAuth is produced before any upstream call when the caller supplied
// no usable credential or project.
func MissingAuth() *Envelope {
	return New(http.StatusInternalServerError, KindAuth, "Invalid session provided to dispatch.")
}

// NoContent is produced when salvage parsing finds nothing recoverable.
func NoContent() *Envelope {
	return New(http.StatusInternalServerError, KindContent, "No valid content found in response")
}
