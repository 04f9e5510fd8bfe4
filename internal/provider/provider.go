// Package provider fetches the imagery and locations the compositor consumes.
package provider

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // decoders for provider responses
	_ "image/png"
	"io"
	"time"

	"github.com/starmap-generator/backend/internal/logging"
	"github.com/starmap-generator/backend/internal/models"
	_ "golang.org/x/image/webp"
)

var providerLog = logging.Module("provider")

// ErrNotFound is returned by a geocoder that found no match.
var ErrNotFound = errors.New("location not found")

// StarMapQuery describes the sky to render.
type StarMapQuery struct {
	Lat    float64
	Lng    float64
	Date   time.Time
	Style  string
	Width  int
	Height int
}

// StreetMapQuery describes the street map to render.
type StreetMapQuery struct {
	Lat  float64
	Lng  float64
	Zoom int
	Size int
}

// StarMapProvider renders or fetches a star map image.
type StarMapProvider interface {
	FetchStarMap(ctx context.Context, q StarMapQuery) (image.Image, error)
}

// StreetMapProvider renders or fetches a street map image.
type StreetMapProvider interface {
	FetchStreetMap(ctx context.Context, q StreetMapQuery) (image.Image, error)
}

// Geocoder resolves an address or ZIP code to a position.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*models.GeoResult, error)
}

// maxImageBytes bounds a provider response body.
const maxImageBytes = 64 << 20

func decodeImage(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(io.LimitReader(r, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	providerLog.Debug().Str("format", format).Int("width", img.Bounds().Dx()).Int("height", img.Bounds().Dy()).Msg("decoded image")
	return img, nil
}
