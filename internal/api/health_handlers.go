package api

import (
	"database/sql"
	"net/http"

	"log/slog"

	"github.com/tempocal/tempocal/internal/btc"
	"github.com/tempocal/tempocal/internal/database"
)

// HealthHandler reports service health: the database and the external
// calendar. Either dependency may be nil, in which case its check is skipped.
type HealthHandler struct {
	db     *sql.DB
	source btc.Source
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB, source btc.Source, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, source: source, logger: logger}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checks := make(map[string]string)
	healthy := true
	var pool map[string]interface{}

	if h.db != nil {
		if err := database.HealthCheck(r.Context(), h.db); err != nil {
			h.logger.Warn("database health check failed", "error", err)
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
		pool = database.Stats(h.db)
	}

	if h.source != nil {
		if err := h.source.HealthCheck(r.Context()); err != nil {
			h.logger.Warn("calendar health check failed", "source", h.source.Name(), "error", err)
			checks["calendar"] = err.Error()
			healthy = false
		} else {
			checks["calendar"] = "ok"
		}
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	payload := map[string]interface{}{
		"status": overall,
		"checks": checks,
	}
	if pool != nil {
		payload["pool"] = pool
	}
	writeJSON(w, h.logger, status, payload)
}
