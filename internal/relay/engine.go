package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"gemini-relay/internal/config"
	apperrors "gemini-relay/internal/errors"
	mw "gemini-relay/internal/middleware"
	"gemini-relay/internal/oauth"
	"gemini-relay/internal/upstream/gemini"
)

// ClientFactory builds the upstream client for one logical request. The
// default binds the request's credential; tests substitute fakes.
type ClientFactory func(cfg *config.Config, creds *oauth.Credentials) UpstreamClient

// Engine owns strategy selection and execution. One Engine serves all
// requests; per-request state lives on the stack. The config source is
// read once per dispatch, so a reloaded configuration takes effect on the
// next request while in-flight requests keep a consistent snapshot.
type Engine struct {
	conf    func() *config.Config
	factory ClientFactory
	log     *logrus.Entry
}

func NewEngine(conf func() *config.Config) *Engine {
	return NewEngineWithFactory(conf, func(cfg *config.Config, creds *oauth.Credentials) UpstreamClient {
		if creds != nil {
			return gemini.NewWithCredential(cfg, creds)
		}
		return gemini.New(cfg)
	})
}

func NewEngineWithFactory(conf func() *config.Config, factory ClientFactory) *Engine {
	return &Engine{conf: conf, factory: factory, log: logrus.WithField("component", "relay")}
}

// Dispatch validates the request, selects an execution strategy and runs it
// to completion. Client-facing failures are delivered through the sink; the
// returned error covers sink write failures only (client gone).
func (e *Engine) Dispatch(ctx context.Context, req *Request, sink EventSink) error {
	cfg := e.conf()

	project := req.EffectiveProject()
	if project == "" {
		project = cfg.GoogleProjectID
	}
	// Missing credential or project rejects before any upstream call.
	if !hasUsableAuth(cfg, req) || project == "" {
		env := apperrors.MissingAuth()
		e.log.WithField("model", req.Model).Warn("dispatch rejected: no usable credential or project")
		return sink.Document(env.Code, env.ToJSON())
	}

	envelope := gemini.BuildEnvelope(req.Model, project, req.Body)
	client := e.factory(cfg, req.Credentials)

	strategy := SelectStrategy(req.Stream,
		cfg.PseudoStreamEnabled, cfg.PseudoStreamConcurrent, cfg.NonStreamKeepAlive)
	mw.RecordDispatch(strategy.String())
	e.log.WithFields(logrus.Fields{
		"model":    req.Model,
		"strategy": strategy.String(),
	}).Debug("dispatching request")

	switch strategy {
	case StrategyStreamRelay:
		return e.runStreamRelay(ctx, client, envelope, sink)
	case StrategyPseudoSequential:
		return e.runPseudoSequential(ctx, client, envelope, sink)
	case StrategyPseudoConcurrent:
		return e.runPseudoConcurrent(ctx, cfg, client, envelope, sink)
	case StrategyKeepAlive:
		return e.runKeepAlive(ctx, cfg, client, envelope, sink)
	default:
		return e.runDirect(ctx, client, envelope, sink)
	}
}

func hasUsableAuth(cfg *config.Config, req *Request) bool {
	if req.Credentials != nil && req.Credentials.AccessToken != "" {
		return true
	}
	return cfg.GoogleBearerToken != ""
}

// oneShot performs the blocking generate call and normalizes its body.
// Exactly one of (payload, env) is non-nil.
func oneShot(ctx context.Context, client UpstreamClient, envelope []byte) ([]byte, *apperrors.Envelope) {
	resp, err := client.Generate(ctx, envelope)
	if err != nil {
		return nil, apperrors.FromRetryFailure(err)
	}
	body, readErr := gemini.ReadAll(resp)
	if readErr != nil {
		return nil, apperrors.FromRetryFailure(readErr)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.FromStatus(resp.StatusCode, body)
	}
	return Normalize(body)
}

// guardedOneShot runs oneShot in a background goroutine and always delivers
// exactly one result, even if the call panics: the deferred send turns a
// recovered panic into an api_error so the waiting select never starves.
// The channel is buffered so an abandoned call can still deliver and exit.
func guardedOneShot(ctx context.Context, client UpstreamClient, envelope []byte, name string) <-chan oneShotResult {
	results := make(chan oneShotResult, 1)
	mw.SafeGo(name, func() {
		var res oneShotResult
		defer func() {
			if res.payload == nil && res.env == nil {
				res.env = apperrors.New(http.StatusInternalServerError, apperrors.KindAPI,
					"An unexpected error occurred during generation")
			}
			results <- res
		}()
		res.payload, res.env = oneShot(ctx, client, envelope)
	})
	return results
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
