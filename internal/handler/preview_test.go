package handler

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DukeRupert/wayfind/internal/maps"
	"github.com/DukeRupert/wayfind/internal/service"
	"github.com/DukeRupert/wayfind/internal/storage"
)

// solidTileFetcher returns a flat tile for every coordinate.
type solidTileFetcher struct{}

func (f *solidTileFetcher) FetchTile(ctx context.Context, zoom, x, y int) (image.Image, error) {
	tile := image.NewNRGBA(image.Rect(0, 0, maps.TileSize, maps.TileSize))
	for i := range tile.Pix {
		tile.Pix[i] = 0xcc
	}
	return tile, nil
}

func newPreviewMux(t *testing.T) (*http.ServeMux, storage.Storage) {
	t.Helper()

	store, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:3000/files",
	}, discardLogger())
	if err != nil {
		t.Fatalf("creating storage: %v", err)
	}

	locations := service.NewLocationService(&fakeLocationRepo{}, discardLogger())
	composer := maps.NewComposer(&solidTileFetcher{}, discardLogger())

	h := NewPreviewHandler(locations, composer, store, 0, discardLogger())

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux, store
}

func TestPreviewServe_ReturnsPNG(t *testing.T) {
	mux, _ := newPreviewMux(t)

	req := httptest.NewRequest("GET", "/maps/mi", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 1200 || bounds.Dy() != 630 {
		t.Errorf("default format should be 1200x630, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestPreviewServe_SquareFormat(t *testing.T) {
	mux, _ := newPreviewMux(t)

	req := httptest.NewRequest("GET", "/maps/mi?format=square", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 1200 || bounds.Dy() != 1200 {
		t.Errorf("square format should be 1200x1200, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestPreviewServe_UnknownFormatReturns400(t *testing.T) {
	mux, _ := newPreviewMux(t)

	req := httptest.NewRequest("GET", "/maps/mi?format=banner", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestPreviewServe_UnknownLocationReturns404(t *testing.T) {
	mux, _ := newPreviewMux(t)

	req := httptest.NewRequest("GET", "/maps/nope", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestPreviewServe_RedirectsAliasToCanonicalKey(t *testing.T) {
	mux, _ := newPreviewMux(t)

	req := httptest.NewRequest("GET", "/maps/5601?format=square", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("expected 301, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/maps/mi?format=square" {
		t.Errorf("redirect target = %q, want /maps/mi?format=square", loc)
	}
}

func TestPreviewServe_CachesRenderedPreview(t *testing.T) {
	mux, store := newPreviewMux(t)

	req := httptest.NewRequest("GET", "/maps/mi", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	exists, err := store.Exists(context.Background(), "previews/mi/og_en.png")
	if err != nil {
		t.Fatalf("checking cache: %v", err)
	}
	if !exists {
		t.Error("preview should be cached after rendering")
	}
}

func TestPreviewServe_SecondRequestHitsCache(t *testing.T) {
	mux, store := newPreviewMux(t)

	first := httptest.NewRecorder()
	mux.ServeHTTP(first, httptest.NewRequest("GET", "/maps/mi", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request failed: %d", first.Code)
	}

	// Replace the cached object so a cache hit is distinguishable from a
	// fresh render.
	marker := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	marker.Set(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	var buf bytes.Buffer
	if err := png.Encode(&buf, marker); err != nil {
		t.Fatalf("encoding marker: %v", err)
	}
	err := store.Put(context.Background(), "previews/mi/og_en.png", bytes.NewReader(buf.Bytes()), storage.PutOptions{
		ContentType: "image/png",
		Overwrite:   true,
	})
	if err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	second := httptest.NewRecorder()
	mux.ServeHTTP(second, httptest.NewRequest("GET", "/maps/mi", nil))
	if second.Code != http.StatusOK {
		t.Fatalf("second request failed: %d", second.Code)
	}

	img, err := png.Decode(bytes.NewReader(second.Body.Bytes()))
	if err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if img.Bounds().Dx() != 1 {
		t.Error("second request should be served from the cache")
	}
}
