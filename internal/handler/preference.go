package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/wayfind/internal/domain"
	"github.com/DukeRupert/wayfind/internal/prefs"
)

// PreferenceHandler exposes the preference service as a small JSON API. The
// pages use it to persist settings like the display language.
type PreferenceHandler struct {
	prefs  *prefs.Service
	logger *slog.Logger
}

// NewPreferenceHandler creates a PreferenceHandler.
func NewPreferenceHandler(prefsService *prefs.Service, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		prefs:  prefsService,
		logger: logger,
	}
}

// RegisterRoutes registers preference routes on the provided ServeMux.
//
// Routes registered:
// - POST   /api/preferences        -> Set
// - GET    /api/preferences/{name} -> Get
// - DELETE /api/preferences/{name} -> Delete
func (h *PreferenceHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/preferences", h.Set)
	mux.HandleFunc("GET /api/preferences/{name}", h.Get)
	mux.HandleFunc("DELETE /api/preferences/{name}", h.Delete)
}

// Set stores a preference in both the cookie and the server-side store.
func (h *PreferenceHandler) Set(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("prefs.set", "request body must be JSON with name and value"))
		return
	}

	if err := h.prefs.Set(r.Context(), w, r, body.Name, body.Value); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"name":  body.Name,
		"value": body.Value,
	})
}

// Get returns a single preference value.
func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	value, err := h.prefs.Get(r.Context(), r, name)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"name":  name,
		"value": value,
	})
}

// Delete removes a preference from both stores.
func (h *PreferenceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.prefs.Delete(r.Context(), w, r, r.PathValue("name")); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
