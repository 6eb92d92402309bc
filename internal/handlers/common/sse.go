package common

import (
	"net/http"
)

// SSEWriteRaw writes one SSE data frame carrying pre-serialized JSON.
func SSEWriteRaw(w http.ResponseWriter, flusher http.Flusher, payload []byte) error {
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return err
	}
	if flusher != nil {
		flusher.Flush()
	}
	return nil
}

// SSEWriteHeartbeat writes the zero-information keepalive frame.
func SSEWriteHeartbeat(w http.ResponseWriter, flusher http.Flusher) error {
	if _, err := w.Write([]byte("data: {}\n\n")); err != nil {
		return err
	}
	if flusher != nil {
		flusher.Flush()
	}
	return nil
}
