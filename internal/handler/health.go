package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Pinger is satisfied by *pgxpool.Pool and *cache.Cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports database and cache reachability.
type HealthHandler struct {
	db           Pinger
	cache        Pinger
	cacheEnabled bool
	logger       *slog.Logger
}

// NewHealthHandler creates a new HealthHandler. A nil cache is reported as
// disabled.
func NewHealthHandler(db Pinger, cache Pinger, cacheEnabled bool, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, cacheEnabled: cacheEnabled && cache != nil, logger: logger}
}

// RegisterRoutes registers GET /health.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Check)
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// Check handles GET /health. A cache outage degrades the response but only
// an unreachable database fails it.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "ok", Cache: "disabled"}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("health: database ping", "err", err)
		resp.Status = "unavailable"
		resp.Database = "error"
		status = http.StatusServiceUnavailable
	}

	if h.cacheEnabled {
		resp.Cache = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.Warn("health: cache ping", "err", err)
			resp.Cache = "error"
			if status == http.StatusOK {
				resp.Status = "degraded"
			}
		}
	}

	writeJSON(w, status, resp)
}
