package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"merenda/pkg/platform/httputil"
	"merenda/pkg/platform/middleware/auth"
	"merenda/pkg/platform/middleware/metadata"
	"merenda/pkg/platform/middleware/requesttime"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Requests      *RequestHandler
	Workflows     *WorkflowHandler
	Notifications *NotificationHandler
	Validator     auth.ActorValidator
	Metrics       http.Handler
	Health        map[string]HealthCheck
	Logger        *slog.Logger
}

// NewRouter wires all endpoints. The handlers stay thin and delegate to the
// domain services.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(metadata.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler(cfg.Health))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireActor(cfg.Validator, cfg.Logger))
		cfg.Requests.Register(r)
		cfg.Workflows.Register(r)
		cfg.Notifications.Register(r)
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		out := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				out[name] = err.Error()
				continue
			}
			out[name] = "ok"
		}
		httputil.WriteJSON(w, status, out)
	}
}
