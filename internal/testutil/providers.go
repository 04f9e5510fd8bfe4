package testutil

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"

	"github.com/starmap-generator/backend/internal/models"
	"github.com/starmap-generator/backend/internal/provider"
)

// ErrProviderDown is returned by a failing mock provider.
var ErrProviderDown = errors.New("mock provider unavailable")

// SolidImage returns a w×h image filled with c.
func SolidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// MockStarMap returns a solid image or an error, and records its queries.
// Gate, when set, blocks each fetch until it is closed or the context ends.
type MockStarMap struct {
	Color color.Color
	Err   error
	Gate  chan struct{}

	calls   atomic.Int32
	mu      sync.Mutex
	queries []provider.StarMapQuery
}

// FetchStarMap implements provider.StarMapProvider.
func (m *MockStarMap) FetchStarMap(ctx context.Context, q provider.StarMapQuery) (image.Image, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()

	if err := wait(ctx, m.Gate); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	c := m.Color
	if c == nil {
		c = color.White
	}
	return SolidImage(max(q.Width, 1), max(q.Height, 1), c), nil
}

// Calls returns how many fetches were made.
func (m *MockStarMap) Calls() int { return int(m.calls.Load()) }

// Queries returns a copy of the recorded queries.
func (m *MockStarMap) Queries() []provider.StarMapQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]provider.StarMapQuery(nil), m.queries...)
}

// MockStreetMap is the street map counterpart of MockStarMap.
type MockStreetMap struct {
	Color color.Color
	Err   error
	Gate  chan struct{}

	calls atomic.Int32
}

// FetchStreetMap implements provider.StreetMapProvider.
func (m *MockStreetMap) FetchStreetMap(ctx context.Context, q provider.StreetMapQuery) (image.Image, error) {
	m.calls.Add(1)
	if err := wait(ctx, m.Gate); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	c := m.Color
	if c == nil {
		c = color.Gray{Y: 200}
	}
	return SolidImage(max(q.Size, 1), max(q.Size, 1), c), nil
}

// Calls returns how many fetches were made.
func (m *MockStreetMap) Calls() int { return int(m.calls.Load()) }

// MockGeocoder resolves queries from a fixed table.
type MockGeocoder struct {
	Results map[string]*models.GeoResult
	Err     error
}

// Geocode implements provider.Geocoder.
func (m *MockGeocoder) Geocode(_ context.Context, query string) (*models.GeoResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if r, ok := m.Results[query]; ok {
		return r, nil
	}
	return nil, provider.ErrNotFound
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
