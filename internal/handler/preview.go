package handler

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DukeRupert/wayfind/internal/i18n"
	"github.com/DukeRupert/wayfind/internal/maps"
	"github.com/DukeRupert/wayfind/internal/metrics"
	"github.com/DukeRupert/wayfind/internal/service"
	"github.com/DukeRupert/wayfind/internal/storage"
)

// PreviewHandler serves composed map preview images with a write-through
// storage cache. Composing a preview costs several tile fetches, so cached
// copies are served until they age out.
type PreviewHandler struct {
	locations   *service.LocationService
	composer    *maps.Composer
	store       storage.Storage
	cacheMaxAge time.Duration
	logger      *slog.Logger
}

// NewPreviewHandler creates a PreviewHandler.
func NewPreviewHandler(locations *service.LocationService, composer *maps.Composer, store storage.Storage, cacheMaxAge time.Duration, logger *slog.Logger) *PreviewHandler {
	return &PreviewHandler{
		locations:   locations,
		composer:    composer,
		store:       store,
		cacheMaxAge: cacheMaxAge,
		logger:      logger,
	}
}

// RegisterRoutes registers preview routes on the provided ServeMux.
//
// Routes registered:
// - GET /maps/{key} -> Serve (PNG preview, ?format=og|square)
func (h *PreviewHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /maps/{key}", h.Serve)
}

// Serve returns the preview PNG for a location, composing and caching it on
// a miss.
func (h *PreviewHandler) Serve(w http.ResponseWriter, r *http.Request) {
	format, err := maps.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	lang, _ := i18n.Resolve(r)

	key := r.PathValue("key")
	loc, canonical, err := h.locations.Resolve(r.Context(), key, lang)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Alias requests redirect so previews are only ever cached and shared
	// under the canonical key.
	if canonical != key {
		target := "/maps/" + url.PathEscape(canonical)
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}

	cacheKey := storage.PreviewKey(canonical, format, lang)

	if data, ok := h.fromCache(r, cacheKey); ok {
		metrics.PreviewCacheLookups.WithLabelValues("hit").Inc()
		h.writePNG(w, data)
		return
	}
	metrics.PreviewCacheLookups.WithLabelValues("miss").Inc()

	data, err := h.composer.Render(r.Context(), loc, format)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Cache best-effort; a failed write only costs the next request a render.
	if err := h.store.Put(r.Context(), cacheKey, bytes.NewReader(data), storage.PutOptions{
		ContentType: "image/png",
		Overwrite:   true,
	}); err != nil {
		h.logger.Warn("preview cache write failed", "key", cacheKey, "error", err)
	}

	h.writePNG(w, data)
}

// fromCache returns a cached preview when one exists and is still fresh.
func (h *PreviewHandler) fromCache(r *http.Request, cacheKey string) ([]byte, bool) {
	reader, info, err := h.store.Get(r.Context(), cacheKey)
	if err != nil {
		if !storage.IsNotFound(err) {
			h.logger.Warn("preview cache read failed", "key", cacheKey, "error", err)
		}
		return nil, false
	}
	defer reader.Close()

	if h.cacheMaxAge > 0 && time.Since(info.LastModified) > h.cacheMaxAge {
		return nil, false
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		h.logger.Warn("preview cache read failed", "key", cacheKey, "error", err)
		return nil, false
	}
	return data, true
}

func (h *PreviewHandler) writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if h.cacheMaxAge > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cacheMaxAge.Seconds())))
	}
	_, _ = w.Write(data)
}
