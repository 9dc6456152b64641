package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/goliatone/go-editorial/internal/auth"
	"github.com/goliatone/go-editorial/internal/identity"
	"github.com/goliatone/go-editorial/internal/logging"
	"github.com/goliatone/go-editorial/internal/workflow"
	"github.com/goliatone/go-editorial/pkg/interfaces"
	"github.com/julienschmidt/httprouter"
)

// TokenVerifier resolves a bearer token into the caller identity.
type TokenVerifier interface {
	Verify(raw string) (identity.Context, error)
}

// API registers the editorial endpoints.
type API struct {
	basePath string
	service  workflow.Service
	verifier TokenVerifier
	logger   interfaces.Logger
	now      func() time.Time
}

// Option mutates the API configuration.
type Option func(*API)

// WithBasePath mounts every route below path.
func WithBasePath(path string) Option {
	return func(api *API) {
		api.basePath = path
	}
}

// WithLogger sets the request logger. Defaults to a no-op logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// NewAPI constructs the HTTP adapter over the workflow service.
func NewAPI(service workflow.Service, verifier TokenVerifier, opts ...Option) (*API, error) {
	if service == nil {
		return nil, errors.New("http: workflow service is required")
	}
	if verifier == nil {
		return nil, errors.New("http: token verifier is required")
	}
	api := &API{
		service:  service,
		verifier: verifier,
		logger:   logging.NoOp(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api, nil
}

// Handler returns a router with every route registered.
func (api *API) Handler() http.Handler {
	router := httprouter.New()
	api.Register(router)
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: errorDetail{
			Kind: "ROUTE_NOT_FOUND", Category: "routing", Message: "route not found",
		}})
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: errorDetail{
			Kind: "METHOD_NOT_ALLOWED", Category: "method_not_allowed", Message: "method not allowed",
		}})
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, recovered any) {
		api.logger.Error("http.request.panic", "method", r.Method, "path", r.URL.Path, "panic", recovered)
		writeError(w, nil)
	}
	return router
}

// Register attaches the editorial routes to router.
func (api *API) Register(router *httprouter.Router) {
	content := joinPath(api.basePath, "content")
	item := content + "/:id"

	router.GET(joinPath(api.basePath, "healthz"), api.handleHealth)
	router.POST(content, api.authenticated(api.handleCreate))
	router.GET(content, api.authenticated(api.handleList))
	router.GET(item, api.authenticated(api.handleGet))
	router.POST(item+"/transition", api.authenticated(api.handleTransition))
	router.GET(item+"/history", api.authenticated(api.handleHistory))
	router.GET(item+"/actions", api.authenticated(api.handleActions))
	router.GET(joinPath(api.basePath, "dashboard"), api.authenticated(api.handleDashboard))
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, params httprouter.Params, actor identity.Context) error

// authenticated verifies the bearer token, stores the identity on the
// request context and renders any error the handler returns.
func (api *API) authenticated(h handlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		started := api.now()
		logger := logging.WithFields(api.logger, map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
		})

		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			api.fail(w, logger, auth.MissingTokenError())
			return
		}
		actor, err := api.verifier.Verify(token)
		if err != nil {
			api.fail(w, logger, err)
			return
		}

		ctx := identity.WithIdentity(r.Context(), actor)
		ctx = logging.ContextWithFields(ctx, map[string]any{
			"actor_id":   actor.SubjectID.String(),
			"actor_role": actor.Role.String(),
		})
		logger = logging.FromContext(ctx, logger)

		if err := h(w, r.WithContext(ctx), params, actor); err != nil {
			api.fail(w, logger, err)
			return
		}
		logger.Debug("http.request.completed", "duration_ms", api.now().Sub(started).Milliseconds())
	}
}

func (api *API) fail(w http.ResponseWriter, logger interfaces.Logger, err error) {
	status := writeError(w, err)
	if status >= http.StatusInternalServerError {
		logger.Error("http.request.failed", "status", status, "error", err)
		return
	}
	logger.Info("http.request.rejected", "status", status, "kind", workflow.Kind(err), "error", err)
}

func (api *API) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
