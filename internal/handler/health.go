package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/wayfind/internal/version"
)

// HealthHandler serves the container health check and the build status
// endpoint.
type HealthHandler struct {
	preset string
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(preset string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		preset: preset,
		logger: logger,
	}
}

// RegisterRoutes registers health routes on the provided ServeMux.
//
// Routes registered:
// - GET /health     -> Health (container health check)
// - GET /api/status -> Status (build and runtime info)
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/status", h.Status)
}

// Health responds with a plain 200 OK. The container healthcheck polls this.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Status reports the running build. The commit values are injected at build
// time via ldflags.
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":         "ok",
		"commit_sha":     version.CommitSHA,
		"commit_message": version.CommitMessage,
		"preset":         h.preset,
	})
}
