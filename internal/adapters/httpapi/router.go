package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"

	"github.com/BennettSmith/insurance-intake-api/internal/platform/logging"
	"github.com/BennettSmith/insurance-intake-api/internal/platform/metrics"
)

// RouterOptions configures optional router behavior.
//
// Zero values disable the corresponding middleware.
type RouterOptions struct {
	Logger             *slog.Logger
	Metrics            *metrics.Metrics
	CORSAllowedOrigins []string
}

// NewRouter constructs the API HTTP router with no optional middleware.
func NewRouter(api *Server) http.Handler {
	return NewRouterWithOptions(api, RouterOptions{})
}

func NewRouterWithOptions(api *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.Logger != nil {
		r.Use(func(next http.Handler) http.Handler {
			return handlers.CustomLoggingHandler(nil, next, logging.AccessLogFormatter(opts.Logger))
		})
	}
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}

	// Health endpoint for infra checks.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/applications", func(r chi.Router) {
		r.Post("/", api.CreateApplication)
		r.Get("/{id}", api.GetApplication)
		r.Put("/{id}", api.UpdateApplication)
		r.Delete("/{id}", api.DeleteApplication)
		r.Post("/{id}/submit", api.SubmitApplication)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found", nil, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil, nil)
	})

	if len(opts.CORSAllowedOrigins) == 0 {
		return r
	}
	return handlers.CORS(
		handlers.AllowedOrigins(opts.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Idempotency-Key", "X-Request-Id"}),
		handlers.ExposedHeaders([]string{"Idempotent-Replayed"}),
	)(r)
}
