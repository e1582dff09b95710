package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"graph-engine/interfaces/http/rest/handlers"
	"graph-engine/interfaces/http/rest/middleware"
	"graph-engine/pkg/common"
	pkgerrors "graph-engine/pkg/errors"
	"graph-engine/pkg/observability"
)

const readinessTimeout = 3 * time.Second

// ReadinessCheck reports whether the service can currently answer traversal requests.
type ReadinessCheck func(ctx context.Context) error

// RouterOptions carries the optional parts of the router.
type RouterOptions struct {
	EnableCORS  bool
	CORSOrigins []string
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
	Readiness      ReadinessCheck
}

// Router creates and configures the HTTP router
type Router struct {
	traversal    *handlers.TraversalHandler
	resolver     middleware.UserResolver
	errorHandler *pkgerrors.ErrorHandler
	recorder     observability.Recorder
	options      RouterOptions
	logger       *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	traversal *handlers.TraversalHandler,
	resolver middleware.UserResolver,
	errorHandler *pkgerrors.ErrorHandler,
	recorder observability.Recorder,
	options RouterOptions,
	logger *zap.Logger,
) *Router {
	return &Router{
		traversal:    traversal,
		resolver:     resolver,
		errorHandler: errorHandler,
		recorder:     recorder,
		options:      options,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.recorder))
	router.Use(rt.errorHandler.Middleware)

	if rt.options.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.options.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.options.MetricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", rt.options.MetricsHandler)
	}

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.resolver, rt.errorHandler, rt.logger))

		r.Post("/api/v2/graph/traversal", rt.traversal.Traverse)
		r.Post("/functions/graphTraversal", rt.traversal.Traverse)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	_ = common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	if rt.options.Readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if err := rt.options.Readiness(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			_ = common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
	}
	_ = common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
