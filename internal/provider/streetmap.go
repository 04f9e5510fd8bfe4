package provider

import (
	"context"
	"fmt"
	"image"

	sm "github.com/flopp/go-staticmaps"
	"github.com/golang/geo/s2"
)

// TileProviders maps configuration names to go-staticmaps tile sources.
var TileProviders = map[string]func() *sm.TileProvider{
	"osm":         sm.NewTileProviderOpenStreetMaps,
	"carto-light": sm.NewTileProviderCartoLight,
	"carto-dark":  sm.NewTileProviderCartoDark,
	"opentopomap": sm.NewTileProviderOpenTopoMap,
	"wikimedia":   sm.NewTileProviderWikimedia,
}

// DefaultStreetZoom is used when a query has no zoom.
const DefaultStreetZoom = 14

// StaticStreetMap renders street maps from map tiles with go-staticmaps.
type StaticStreetMap struct {
	tiles     string
	userAgent string
}

// NewStaticStreetMap returns a renderer for a named tile provider.
func NewStaticStreetMap(tiles, userAgent string) (*StaticStreetMap, error) {
	if _, ok := TileProviders[tiles]; !ok {
		return nil, fmt.Errorf("unknown tile provider %q", tiles)
	}
	return &StaticStreetMap{tiles: tiles, userAgent: userAgent}, nil
}

// FetchStreetMap implements StreetMapProvider. go-staticmaps has no context
// support, so cancellation only stops the wait, not the tile downloads.
func (p *StaticStreetMap) FetchStreetMap(ctx context.Context, q StreetMapQuery) (image.Image, error) {
	zoom := q.Zoom
	if zoom <= 0 {
		zoom = DefaultStreetZoom
	}
	size := q.Size
	if size <= 0 {
		size = 1024
	}

	mapCtx := sm.NewContext()
	mapCtx.SetTileProvider(TileProviders[p.tiles]())
	if p.userAgent != "" {
		mapCtx.SetUserAgent(p.userAgent)
	}
	mapCtx.SetSize(size, size)
	mapCtx.SetZoom(zoom)
	mapCtx.SetCenter(s2.LatLngFromDegrees(q.Lat, q.Lng))

	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := mapCtx.Render()
		done <- result{img, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("rendering street map: %w", r.err)
		}
		return r.img, nil
	}
}
