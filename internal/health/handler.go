package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"college-service/internal/httputil"
	"college-service/internal/metrics"

	"github.com/go-chi/chi/v5"
)

const checkTimeout = 2 * time.Second

// Dependency is probed by GET /ready. A failing Required dependency makes the service unready.
type Dependency struct {
	Name     string
	Required bool
	Check    func(ctx context.Context) error
}

type Handler struct {
	dependencies []Dependency
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewHandler(m *metrics.Metrics, logger *slog.Logger, dependencies ...Dependency) *Handler {
	return &Handler{
		dependencies: dependencies,
		metrics:      m,
		logger:       logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ready", Checks: make(map[string]string, len(h.dependencies))}
	code := http.StatusOK

	for _, dep := range h.dependencies {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		start := time.Now()
		err := dep.Check(ctx)
		cancel()

		h.metrics.Health.RecordDependencyCheck(r.Context(), dep.Name, time.Since(start), err)

		if err == nil {
			resp.Checks[dep.Name] = "up"
			continue
		}

		resp.Checks[dep.Name] = "down"
		h.logger.WarnContext(r.Context(), "dependency check failed", "dependency", dep.Name, "error", err)
		if dep.Required {
			resp.Status = "unavailable"
			code = http.StatusServiceUnavailable
		}
	}

	httputil.RespondWithJSON(w, code, resp)
}
