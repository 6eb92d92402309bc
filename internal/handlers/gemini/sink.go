package gemini

import (
	"net/http"

	"github.com/gin-gonic/gin"

	common "gemini-relay/internal/handlers/common"
)

// sseSink adapts a gin response writer to the relay's event sink. SSE
// headers go out lazily with the first frame; a document delivered before
// any frame becomes a plain status-coded JSON response instead, so
// pre-stream failures keep their HTTP status.
type sseSink struct {
	c       *gin.Context
	flusher http.Flusher
	started bool
}

func newSSESink(c *gin.Context) *sseSink {
	flusher, _ := c.Writer.(http.Flusher)
	return &sseSink{c: c, flusher: flusher}
}

func (s *sseSink) ensureStream() {
	if s.started {
		return
	}
	s.c.Status(http.StatusOK)
	s.c.Header("Content-Type", "text/event-stream")
	s.c.Header("Cache-Control", "no-cache")
	s.c.Header("Connection", "keep-alive")
	s.started = true
}

func (s *sseSink) Data(payload []byte) error {
	s.ensureStream()
	return common.SSEWriteRaw(s.c.Writer, s.flusher, payload)
}

func (s *sseSink) Heartbeat() error {
	s.ensureStream()
	return common.SSEWriteHeartbeat(s.c.Writer, s.flusher)
}

func (s *sseSink) Document(status int, payload []byte) error {
	if s.started {
		return common.SSEWriteRaw(s.c.Writer, s.flusher, payload)
	}
	s.c.Data(status, "application/json; charset=utf-8", payload)
	return nil
}
