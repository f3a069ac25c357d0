package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/DukeRupert/wayfind/internal/domain"
	"github.com/DukeRupert/wayfind/internal/i18n"
	"github.com/DukeRupert/wayfind/internal/prefs"
	"github.com/DukeRupert/wayfind/internal/service"
)

// LocationHandler serves the location directory: JSON lookups and searches
// under /api/ and the server-rendered detail pages under /view/.
type LocationHandler struct {
	locations *service.LocationService
	prefs     *prefs.Service
	renderer  *Renderer
	logger    *slog.Logger
}

// NewLocationHandler creates a LocationHandler.
func NewLocationHandler(locations *service.LocationService, prefsService *prefs.Service, renderer *Renderer, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{
		locations: locations,
		prefs:     prefsService,
		renderer:  renderer,
		logger:    logger,
	}
}

// RegisterRoutes registers location routes on the provided ServeMux.
//
// Routes registered:
// - GET /api/get/{key} -> Get (JSON location record)
// - GET /api/search    -> Search (JSON search results)
// - GET /view/{key}    -> View (HTML detail page)
func (h *LocationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/get/{key}", h.Get)
	mux.HandleFunc("GET /api/search", h.Search)
	mux.HandleFunc("GET /view/{key}", h.View)
}

// locationJSON is the wire form of a location record.
type locationJSON struct {
	Key            string  `json:"key"`
	Kind           string  `json:"kind"`
	Name           string  `json:"name"`
	TypeCommonName string  `json:"type_common_name,omitempty"`
	Lat            float64 `json:"lat,omitempty"`
	Lon            float64 `json:"lon,omitempty"`
}

func toLocationJSON(loc domain.Location) locationJSON {
	return locationJSON{
		Key:            loc.Key,
		Kind:           string(loc.Kind),
		Name:           loc.Name,
		TypeCommonName: loc.TypeCommonName,
		Lat:            loc.Lat,
		Lon:            loc.Lon,
	}
}

// Get returns a location as JSON. Legacy aliases resolve transparently; the
// response always carries the canonical key.
func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	lang := h.resolveLang(w, r)

	loc, _, err := h.locations.Resolve(r.Context(), r.PathValue("key"), lang)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toLocationJSON(loc))
}

// Search returns locations matching the q query parameter as JSON.
func (h *LocationHandler) Search(w http.ResponseWriter, r *http.Request) {
	lang := h.resolveLang(w, r)

	results, err := h.locations.Search(r.Context(), r.URL.Query().Get("q"), lang)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]locationJSON, 0, len(results))
	for _, loc := range results {
		out = append(out, toLocationJSON(loc))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"results": out,
	})
}

// View renders the HTML detail page for a location. Requests using a legacy
// alias are redirected to the canonical key so shared links stay canonical.
func (h *LocationHandler) View(w http.ResponseWriter, r *http.Request) {
	lang := h.resolveLang(w, r)

	key := r.PathValue("key")
	loc, canonical, err := h.locations.Resolve(r.Context(), key, lang)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if canonical != key {
		http.Redirect(w, r, "/view/"+url.PathEscape(canonical), http.StatusMovedPermanently)
		return
	}

	h.renderer.RenderHTTP(w, "location", map[string]interface{}{
		"CurrentPath": r.URL.Path,
		"Lang":        string(lang),
		"Location":    loc,
		"PreviewURL":  "/maps/" + url.PathEscape(loc.Key),
	})
}

// resolveLang determines the request language and persists an explicit
// ?lang= choice as a preference so it sticks across visits.
func (h *LocationHandler) resolveLang(w http.ResponseWriter, r *http.Request) i18n.Lang {
	lang, persist := i18n.Resolve(r)
	if persist {
		if err := h.prefs.Set(r.Context(), w, r, i18n.LangCookieName, string(lang)); err != nil {
			// The page still renders in the requested language.
			h.logger.Warn("persisting language preference failed", "lang", lang, "error", err)
		}
	}
	return lang
}
