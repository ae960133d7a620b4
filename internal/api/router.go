package api

import (
	"net/http"

	"github.com/tempocal/tempocal/internal/auth"
	"github.com/tempocal/tempocal/internal/metrics"
)

// SetupRoutes configures all API routes. Import administration requires a
// valid admin token; health and metrics are public.
func SetupRoutes(mux *http.ServeMux, importHandler *ImportHandler, authHandler *AuthHandler, healthHandler *HealthHandler, collector *metrics.Collector, authConfig auth.Config) {
	authMiddleware := auth.Middleware(authConfig)

	// Authentication routes
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.Handle("/api/auth/validate", authMiddleware(http.HandlerFunc(authHandler.ValidateToken)))

	// Import administration routes (protected)
	mux.Handle("/api/import/run", authMiddleware(http.HandlerFunc(importHandler.RunImport)))
	mux.Handle("/api/import/unmatched", authMiddleware(http.HandlerFunc(importHandler.Unmatched)))
	mux.Handle("/api/import/assess", authMiddleware(http.HandlerFunc(importHandler.Assess)))

	// Operational routes
	mux.HandleFunc("/api/health", healthHandler.Health)
	if collector != nil {
		mux.Handle("/metrics", collector.Handler())
	}
}
