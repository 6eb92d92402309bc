package gemini

import (
	"github.com/sirupsen/logrus"

	"gemini-relay/internal/config"
	"gemini-relay/internal/relay"
)

// Handler serves the Gemini-native generate endpoints by driving the relay
// engine. It holds no per-request state.
type Handler struct {
	engine *relay.Engine
	log    *logrus.Entry
}

// New wires the engine to the loaded configuration, so a hot reload
// changes strategy selection and upstream settings for subsequent requests.
func New() *Handler {
	return NewWithEngine(relay.NewEngine(config.Current))
}

// NewWithEngine constructs a handler around an existing engine. Tests use
// it to substitute a fake upstream.
func NewWithEngine(engine *relay.Engine) *Handler {
	return &Handler{
		engine: engine,
		log:    logrus.WithField("component", "handlers.gemini"),
	}
}
