package gemini

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	apperrors "gemini-relay/internal/errors"
	common "gemini-relay/internal/handlers/common"
	"gemini-relay/internal/logging"
	"gemini-relay/internal/relay"
)

// maxRequestBody bounds inbound request bodies.
const maxRequestBody = 32 << 20

// GenerateContent serves the blocking generate endpoint.
func (h *Handler) GenerateContent(c *gin.Context) {
	h.dispatch(c, false)
}

// StreamGenerateContent serves the streaming generate endpoint.
func (h *Handler) StreamGenerateContent(c *gin.Context) {
	h.dispatch(c, true)
}

func (h *Handler) dispatch(c *gin.Context, stream bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBody))
	if err != nil {
		env := apperrors.New(http.StatusBadRequest, apperrors.KindInvalidRequest, "failed to read request body")
		c.Data(env.Code, "application/json; charset=utf-8", env.ToJSON())
		return
	}
	if len(body) > 0 && !gjson.ValidBytes(body) {
		env := apperrors.New(http.StatusBadRequest, apperrors.KindInvalidRequest, "request body is not valid JSON")
		c.Data(env.Code, "application/json; charset=utf-8", env.ToJSON())
		return
	}

	model := c.Param("model")
	if i := strings.IndexByte(model, ':'); i >= 0 {
		model = model[:i]
	}

	req := &relay.Request{
		Model:       model,
		Body:        body,
		Credentials: common.CallerCredential(c),
		ProjectID:   common.ProjectOverride(c),
		Stream:      stream,
	}

	if err := h.engine.Dispatch(c.Request.Context(), req, newSSESink(c)); err != nil {
		logging.WithReq(c, nil).WithError(err).Debug("relay dispatch ended early")
	}
}
