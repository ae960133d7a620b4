package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/tempocal/tempocal/internal/config"
	"github.com/tempocal/tempocal/internal/entity"
	"github.com/tempocal/tempocal/internal/importer"
	"github.com/tempocal/tempocal/internal/models"
)

// ImportRunner runs an import over a date range. The server wires this to the
// importer; tests substitute a function.
type ImportRunner func(ctx context.Context, start, end time.Time, dryRun bool) (models.RunResult, error)

// ImportHandler handles import administration requests.
type ImportHandler struct {
	run        ImportRunner
	cache      *entity.Cache
	suggester  *entity.Suggester // nil when AI suggestions are not configured
	thresholds config.AssessmentThresholds
	logger     *slog.Logger
}

// NewImportHandler creates a new import handler.
func NewImportHandler(run ImportRunner, cache *entity.Cache, suggester *entity.Suggester, thresholds config.AssessmentThresholds, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		run:        run,
		cache:      cache,
		suggester:  suggester,
		thresholds: thresholds,
		logger:     logger,
	}
}

// RunImportRequest represents a request to run an import.
type RunImportRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate,omitempty"` // defaults to StartDate
	DryRun    bool   `json:"dryRun"`
	Assess    bool   `json:"assess"`
}

// RunImport handles POST /api/import/run.
func (h *ImportHandler) RunImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("import requested",
		"start", models.DayKey(start),
		"end", models.DayKey(end),
		"dry_run", req.DryRun,
	)

	result, err := h.run(r.Context(), start, end, req.DryRun)
	if err != nil {
		h.logger.Error("import run failed", "error", err)
		http.Error(w, "Import failed", http.StatusInternalServerError)
		return
	}

	if req.Assess {
		assessment := importer.PerformGoNoGoAssessment(result.Totals, h.thresholds)
		result.Assessment = &assessment
	}

	writeJSON(w, h.logger, http.StatusOK, result)
}

// Unmatched handles GET /api/import/unmatched. With ?suggest=true and AI
// configured, the report includes match suggestions.
func (h *ImportHandler) Unmatched(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report := h.cache.UnmatchedReport()
	if r.URL.Query().Get("suggest") == "true" && h.suggester != nil {
		report.Suggestions = h.suggester.Suggest(r.Context(), report)
	}

	writeJSON(w, h.logger, http.StatusOK, report)
}

// Assess handles POST /api/import/assess: judge a statistics snapshot against
// the configured thresholds without running an import.
func (h *ImportHandler) Assess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var stats models.ImportStats
	if err := json.NewDecoder(r.Body).Decode(&stats); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	assessment := importer.PerformGoNoGoAssessment(stats, h.thresholds)
	writeJSON(w, h.logger, http.StatusOK, assessment)
}

func parseDateRange(startDate, endDate string) (time.Time, time.Time, error) {
	if startDate == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("startDate is required")
	}
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid startDate: %v", err)
	}

	end := start
	if endDate != "" {
		end, err = time.Parse("2006-01-02", endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid endDate: %v", err)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("endDate is before startDate")
	}
	return start, end, nil
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
