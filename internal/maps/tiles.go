// Package maps composes PNG map previews for locations.
//
// A preview is a base map assembled from slippy-map tiles with a pin at the
// location's coordinates and an info bar carrying the localized name.
package maps

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/disintegration/imaging"

	"github.com/DukeRupert/wayfind/internal/metrics"
)

// TileSize is the edge length of a standard slippy-map tile in pixels.
const TileSize = 256

// TileFetcher retrieves a single map tile. *TileClient is the production
// implementation; tests supply fakes.
type TileFetcher interface {
	FetchTile(ctx context.Context, zoom, x, y int) (image.Image, error)
}

// TileClient fetches tiles from an OSM-compatible tile server.
type TileClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewTileClient creates a tile client for the given server base URL
// (e.g. "https://tile.openstreetmap.org").
func NewTileClient(baseURL string, logger *slog.Logger) *TileClient {
	return &TileClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// FetchTile downloads and decodes the tile at zoom/x/y.
func (c *TileClient) FetchTile(ctx context.Context, zoom, x, y int) (image.Image, error) {
	url := fmt.Sprintf("%s/%d/%d/%d.png", c.baseURL, zoom, x, y)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build tile request: %w", err)
	}
	// Tile usage policies require an identifying user agent.
	req.Header.Set("User-Agent", "wayfind-preview/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.TileFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch tile %d/%d/%d: %w", zoom, x, y, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.TileFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch tile %d/%d/%d: unexpected status %d", zoom, x, y, resp.StatusCode)
	}

	tile, err := imaging.Decode(resp.Body)
	if err != nil {
		metrics.TileFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode tile %d/%d/%d: %w", zoom, x, y, err)
	}

	metrics.TileFetches.WithLabelValues("ok").Inc()
	return tile, nil
}

// tileCoords converts WGS84 coordinates to fractional slippy-map tile
// coordinates at the given zoom level.
func tileCoords(lat, lon float64, zoom int) (float64, float64) {
	n := math.Exp2(float64(zoom))
	x := (lon + 180.0) / 360.0 * n
	latRad := lat * math.Pi / 180.0
	y := (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n
	return x, y
}
