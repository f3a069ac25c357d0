package maps

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/DukeRupert/wayfind/internal/domain"
	"github.com/DukeRupert/wayfind/internal/metrics"
)

// Format selects the preview image dimensions.
type Format string

const (
	// FormatOpenGraph matches the og:image aspect ratio used in link previews.
	FormatOpenGraph Format = "og"

	// FormatSquare is used by messengers that crop to a square.
	FormatSquare Format = "square"
)

// ParseFormat maps a query parameter value to a Format. Empty input selects
// the OpenGraph format.
func ParseFormat(value string) (Format, error) {
	switch value {
	case "", "og", "open_graph":
		return FormatOpenGraph, nil
	case "square":
		return FormatSquare, nil
	default:
		return "", domain.Invalid("maps.format", fmt.Sprintf("unknown preview format %q", value))
	}
}

// Dimensions returns the pixel size for the format.
func (f Format) Dimensions() (width, height int) {
	if f == FormatSquare {
		return 1200, 1200
	}
	return 1200, 630
}

// infoBarHeight is the bottom bar carrying the location name.
const infoBarHeight = 120

// zoomForKind picks a zoom level so the preview shows a sensible amount of
// surroundings for the location's granularity.
func zoomForKind(kind domain.LocationKind) int {
	switch kind {
	case domain.KindCampus, domain.KindArea:
		return 14
	case domain.KindRoom, domain.KindPOI:
		return 17
	default:
		return 16
	}
}

// Composer renders location previews from map tiles.
type Composer struct {
	tiles  TileFetcher
	logger *slog.Logger
}

// NewComposer creates a Composer using the given tile source.
func NewComposer(tiles TileFetcher, logger *slog.Logger) *Composer {
	return &Composer{
		tiles:  tiles,
		logger: logger,
	}
}

// Render composes the PNG preview for a location.
//
// Tile fetch failures degrade to a flat background instead of failing the
// render; a preview with a pin but no map is still more useful to a link
// unfurler than an error.
func (c *Composer) Render(ctx context.Context, loc domain.Location, format Format) ([]byte, error) {
	start := time.Now()

	if !loc.HasCoordinates() {
		return nil, domain.Invalid("maps.render", fmt.Sprintf("location %q has no coordinates", loc.Key))
	}

	width, height := format.Dimensions()
	mapHeight := height - infoBarHeight

	canvas := imaging.New(width, height, color.NRGBA{R: 0xe8, G: 0xe8, B: 0xe3, A: 0xff})

	canvas = c.drawMap(ctx, canvas, loc, width, mapHeight)
	canvas = drawPin(canvas, width/2, mapHeight/2)
	canvas = drawInfoBar(canvas, loc, width, height)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		metrics.PreviewsGenerated.WithLabelValues(string(format), "error").Inc()
		return nil, domain.Internal(err, "maps.render", "preview encoding failed")
	}

	metrics.PreviewsGenerated.WithLabelValues(string(format), "ok").Inc()
	metrics.PreviewDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())

	c.logger.Debug("composed preview",
		"key", loc.Key,
		"format", format,
		"bytes", buf.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// drawMap pastes the tile mosaic covering width x mapHeight pixels centered
// on the location.
func (c *Composer) drawMap(ctx context.Context, canvas *image.NRGBA, loc domain.Location, width, mapHeight int) *image.NRGBA {
	zoom := zoomForKind(loc.Kind)
	centerX, centerY := tileCoords(loc.Lat, loc.Lon, zoom)

	// Pixel position of the map center within the tile grid.
	centerPxX := centerX * TileSize
	centerPxY := centerY * TileSize

	// Top-left corner of the viewport in tile-grid pixels.
	originX := centerPxX - float64(width)/2
	originY := centerPxY - float64(mapHeight)/2

	firstTileX := int(math.Floor(originX / TileSize))
	firstTileY := int(math.Floor(originY / TileSize))
	lastTileX := int(math.Floor((originX + float64(width)) / TileSize))
	lastTileY := int(math.Floor((originY + float64(mapHeight)) / TileSize))

	maxTile := int(math.Exp2(float64(zoom)))

	for ty := firstTileY; ty <= lastTileY; ty++ {
		for tx := firstTileX; tx <= lastTileX; tx++ {
			if ty < 0 || ty >= maxTile {
				continue
			}
			// Wrap horizontally across the antimeridian.
			wrappedX := ((tx % maxTile) + maxTile) % maxTile

			tile, err := c.tiles.FetchTile(ctx, zoom, wrappedX, ty)
			if err != nil {
				c.logger.Warn("tile fetch failed, leaving background",
					"key", loc.Key,
					"zoom", zoom,
					"error", err,
				)
				continue
			}

			destX := tx*TileSize - int(originX)
			destY := ty*TileSize - int(originY)
			canvas = imaging.Paste(canvas, tile, image.Pt(destX, destY))
		}
	}
	return canvas
}

// pin appearance
var (
	pinFill   = color.NRGBA{R: 0xd6, G: 0x2d, B: 0x2d, A: 0xff}
	pinBorder = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// drawPin overlays a filled circle marker with a white border at (cx, cy).
func drawPin(canvas *image.NRGBA, cx, cy int) *image.NRGBA {
	const radius = 18
	const border = 4

	pin := imaging.New(2*(radius+border), 2*(radius+border), color.NRGBA{})
	center := radius + border
	for y := 0; y < pin.Bounds().Dy(); y++ {
		for x := 0; x < pin.Bounds().Dx(); x++ {
			dx := float64(x - center)
			dy := float64(y - center)
			dist := math.Sqrt(dx*dx + dy*dy)
			switch {
			case dist <= radius:
				pin.SetNRGBA(x, y, pinFill)
			case dist <= radius+border:
				pin.SetNRGBA(x, y, pinBorder)
			}
		}
	}

	return imaging.Overlay(canvas, pin, image.Pt(cx-center, cy-center), 1.0)
}

// info bar appearance
var (
	barBackground = color.NRGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}
	barTitle      = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	barSubtitle   = color.NRGBA{R: 0x9c, G: 0xa8, B: 0xb8, A: 0xff}
)

var (
	fontOnce     sync.Once
	titleFace    font.Face
	subtitleFace font.Face
	fontErr      error
)

func loadFaces() {
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		fontErr = err
		return
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		fontErr = err
		return
	}

	titleFace, err = opentype.NewFace(bold, &opentype.FaceOptions{Size: 44, DPI: 72})
	if err != nil {
		fontErr = err
		return
	}
	subtitleFace, err = opentype.NewFace(regular, &opentype.FaceOptions{Size: 28, DPI: 72})
	if err != nil {
		fontErr = err
	}
}

// drawInfoBar fills the bottom bar and writes the localized name and type.
func drawInfoBar(canvas *image.NRGBA, loc domain.Location, width, height int) *image.NRGBA {
	bar := imaging.New(width, infoBarHeight, barBackground)
	canvas = imaging.Paste(canvas, bar, image.Pt(0, height-infoBarHeight))

	fontOnce.Do(loadFaces)
	if fontErr != nil {
		// Text is decoration on top of a working preview; skip it rather
		// than fail the render.
		return canvas
	}

	const margin = 32
	barTop := height - infoBarHeight

	drawText(canvas, truncateToWidth(loc.Name, titleFace, width-2*margin), titleFace, barTitle, margin, barTop+52)
	if loc.TypeCommonName != "" {
		drawText(canvas, truncateToWidth(loc.TypeCommonName, subtitleFace, width-2*margin), subtitleFace, barSubtitle, margin, barTop+94)
	}
	return canvas
}

func drawText(dst *image.NRGBA, text string, face font.Face, col color.NRGBA, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// truncateToWidth shortens text with an ellipsis so it fits maxWidth pixels.
func truncateToWidth(text string, face font.Face, maxWidth int) string {
	if font.MeasureString(face, text).Ceil() <= maxWidth {
		return text
	}

	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			return candidate
		}
	}
	return "…"
}
