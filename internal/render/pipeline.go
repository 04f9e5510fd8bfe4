// Package render composes the star map, street map and text overlay into a
// single bitmap for one view.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/starmap-generator/backend/internal/compositor"
	"github.com/starmap-generator/backend/internal/format"
	"github.com/starmap-generator/backend/internal/geometry"
	"github.com/starmap-generator/backend/internal/logging"
	"github.com/starmap-generator/backend/internal/models"
	"github.com/starmap-generator/backend/internal/overlay"
	"github.com/starmap-generator/backend/internal/provider"
)

var renderLog = logging.Module("render")

// ErrStaleRender is returned when a newer pass started while this one was
// fetching imagery. The stale bitmap is discarded.
var ErrStaleRender = errors.New("render superseded by a newer request")

// ErrCanvasTooLarge is returned when the canvas exceeds the pixel limit.
var ErrCanvasTooLarge = errors.New("canvas exceeds maximum pixel count")

// DefaultFetchTimeout bounds how long a pass waits for imagery.
const DefaultFetchTimeout = 10 * time.Second

// Options configures a Pipeline.
type Options struct {
	FetchTimeout time.Duration
	MaxPixels    int64
	Palette      compositor.Palette
	PaperSizes   []geometry.PaperSize
	DefaultStyle models.TextStyle
	StarStyle    string
	StreetZoom   int
	Now          func() time.Time
}

// Pipeline runs render passes against the configured providers.
type Pipeline struct {
	stars   provider.StarMapProvider
	streets provider.StreetMapProvider
	fonts   *overlay.FontBook
	opts    Options
}

// NewPipeline creates a pipeline. Zero options take their defaults.
func NewPipeline(stars provider.StarMapProvider, streets provider.StreetMapProvider, fonts *overlay.FontBook, opts Options) *Pipeline {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Palette == (compositor.Palette{}) {
		opts.Palette = compositor.DefaultPalette
	}
	if len(opts.PaperSizes) == 0 {
		opts.PaperSizes = geometry.DefaultPaperSizes
	}
	if opts.StreetZoom <= 0 {
		opts.StreetZoom = provider.DefaultStreetZoom
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{stars: stars, streets: streets, fonts: fonts, opts: opts}
}

// plan is the validated, laid-out form of a request.
type plan struct {
	view     models.View
	canvas   models.CanvasSpec
	settings models.CompositionSettings
	lat, lng float64
	when     time.Time
	circles  []models.CircleLayout
	sources  []compositor.Source
	texts    []models.TextPlacement
}

// Compose runs one pass for view on canvas. Imagery failures never fail the
// pass: the affected circle gets its fallback fill and the result carries a
// warning. ErrStaleRender means a newer pass took over.
func (p *Pipeline) Compose(ctx context.Context, canvas *Canvas, view models.View, req models.RenderRequest) (*models.RenderResult, error) {
	start := time.Now()
	gen := canvas.Begin()

	pl, err := p.plan(view, req)
	if err != nil {
		return nil, err
	}

	images, warnings := p.fetch(ctx, pl, req)

	if canvas.Current() != gen {
		renderLog.Debug().Uint64("generation", gen).Str("view", string(view)).Msg("discarding stale render")
		return nil, ErrStaleRender
	}

	img, err := p.draw(pl, images)
	if err != nil {
		return nil, err
	}

	result := &models.RenderResult{
		Generation: gen,
		View:       view,
		Canvas:     pl.canvas,
		Circles:    pl.circles,
		Texts:      pl.texts,
		Warnings:   warnings,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if !canvas.Commit(gen, img, result) {
		renderLog.Debug().Uint64("generation", gen).Str("view", string(view)).Msg("discarding stale render")
		return nil, ErrStaleRender
	}
	return result, nil
}

// ResolveCanvas returns the canvas size for req: a paper size at a DPI when
// Paper is set, the explicit Canvas otherwise.
func (p *Pipeline) ResolveCanvas(req models.RenderRequest) (models.CanvasSpec, error) {
	c := req.Canvas
	if req.Paper != "" {
		paper, ok := geometry.FindPaper(p.opts.PaperSizes, req.Paper)
		if !ok {
			return models.CanvasSpec{}, fmt.Errorf("%w: unknown paper size %q", models.ErrInvalidCanvasSpec, req.Paper)
		}
		orientation := req.Orientation
		if orientation == "" {
			orientation = models.OrientationPortrait
		}
		var err error
		if c, err = geometry.PaperCanvas(paper, req.DPI, orientation); err != nil {
			return models.CanvasSpec{}, err
		}
	}
	if err := c.Validate(); err != nil {
		return models.CanvasSpec{}, err
	}
	if p.opts.MaxPixels > 0 && int64(c.Width)*int64(c.Height) > p.opts.MaxPixels {
		return models.CanvasSpec{}, fmt.Errorf("%w: %dx%d", ErrCanvasTooLarge, c.Width, c.Height)
	}
	return c, nil
}

func (p *Pipeline) plan(view models.View, req models.RenderRequest) (*plan, error) {
	c, err := p.ResolveCanvas(req)
	if err != nil {
		return nil, err
	}
	lat, lng, err := format.ParseLatLng(req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}

	when := p.opts.Now()
	if strings.TrimSpace(req.Date) != "" {
		if when, err = format.ParseDateTime(req.Date, req.Time); err != nil {
			return nil, err
		}
	}

	settings := req.Settings.WithDefaults()
	pl := &plan{
		view:     view,
		canvas:   c,
		settings: settings,
		lat:      lat,
		lng:      lng,
		when:     when,
		sources:  compositor.SourcesFor(view, settings.MapOrder),
	}

	if view.Combined() {
		axis, err := geometry.AxisFor(view)
		if err != nil {
			return nil, err
		}
		pair, err := geometry.Combined(c, settings.RadiusPercent, settings.OverlapPercent, axis)
		if err != nil {
			return nil, err
		}
		pl.circles = []models.CircleLayout{pair.First, pair.Second}
	} else {
		single, err := geometry.Single(c, settings.RadiusPercent)
		if err != nil {
			return nil, err
		}
		pl.circles = []models.CircleLayout{single}
	}

	entries, err := p.textEntries(req, lat, lng, when)
	if err != nil {
		return nil, err
	}
	if view.HasText() {
		top, bottom := geometry.Bounds(pl.circles...)
		pl.texts = overlay.Layout(entries, top, bottom, c.Width, overlay.Options{
			LineHeight: settings.LineHeight,
			Margin:     *settings.TextMargin,
		})
	}
	return pl, nil
}

// textEntries merges custom captions with the generated date and
// coordinate lines. An empty position means below.
func (p *Pipeline) textEntries(req models.RenderRequest, lat, lng float64, when time.Time) ([]models.TextEntry, error) {
	entries := make([]models.TextEntry, 0, len(req.Texts)+2)
	for i, t := range req.Texts {
		pos, err := textPosition(t.Position)
		if err != nil {
			return nil, fmt.Errorf("texts[%d]: %w", i, err)
		}
		entries = append(entries, models.TextEntry{
			Content:  t.Content,
			Order:    t.Order,
			Position: pos,
			Kind:     models.KindCustom,
			Style:    p.style(t.Style),
		})
	}
	if req.DateText.Show {
		pos, err := textPosition(req.DateText.Position)
		if err != nil {
			return nil, fmt.Errorf("dateText: %w", err)
		}
		entries = append(entries, models.TextEntry{
			Content:  format.FormatDate(when, req.DateText.ShowTime),
			Order:    req.DateText.Order,
			Position: pos,
			Kind:     models.KindDate,
			Style:    p.style(req.DateText.Style),
		})
	}
	if req.CoordText.Show {
		pos, err := textPosition(req.CoordText.Position)
		if err != nil {
			return nil, fmt.Errorf("coordinatesText: %w", err)
		}
		entries = append(entries, models.TextEntry{
			Content:  format.FormatCoordinates(lat, lng),
			Order:    req.CoordText.Order,
			Position: pos,
			Kind:     models.KindCoordinates,
			Style:    p.style(req.CoordText.Style),
		})
	}
	return entries, nil
}

func textPosition(pos models.TextPosition) (models.TextPosition, error) {
	if pos == "" {
		return models.PositionBelow, nil
	}
	if !pos.Valid() {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidTextPosition, pos)
	}
	return pos, nil
}

func (p *Pipeline) style(s models.TextStyle) models.TextStyle {
	d := p.opts.DefaultStyle
	if s.FontFamily == "" {
		s.FontFamily = d.FontFamily
	}
	if s.FontSize <= 0 {
		s.FontSize = d.FontSize
	}
	if s.Color == "" {
		s.Color = d.Color
	}
	return s
}

// fetch loads every source the view needs in parallel, bounded by the
// fetch timeout. Missing imagery is reported as warnings.
func (p *Pipeline) fetch(ctx context.Context, pl *plan, req models.RenderRequest) (map[compositor.Source]image.Image, []models.ImageWarning) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
	defer cancel()

	side := int(pl.circles[0].Diameter() + 0.5)
	starStyle := req.StarStyle
	if starStyle == "" {
		starStyle = p.opts.StarStyle
	}
	zoom := req.StreetZoom
	if zoom <= 0 {
		zoom = p.opts.StreetZoom
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		images   = make(map[compositor.Source]image.Image)
		warnings []models.ImageWarning
	)
	load := func(src compositor.Source, fn func() (image.Image, error)) {
		defer wg.Done()
		img, err := fn()
		if err == nil && img == nil {
			err = errors.New("provider returned no image")
		}
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			renderLog.Warn().Err(err).Str("source", string(src)).Msg("image load failed, using fallback fill")
			warnings = append(warnings, models.ImageWarning{Source: string(src), Message: err.Error()})
			return
		}
		images[src] = img
	}
	missing := func(src compositor.Source) {
		mu.Lock()
		warnings = append(warnings, models.ImageWarning{Source: string(src), Message: "no " + string(src) + " provider configured"})
		mu.Unlock()
	}

	for _, src := range uniqueSources(pl.sources) {
		switch src {
		case compositor.SourceStar:
			if p.stars == nil {
				missing(src)
				continue
			}
			wg.Add(1)
			go load(src, func() (image.Image, error) {
				return p.stars.FetchStarMap(ctx, provider.StarMapQuery{
					Lat: pl.lat, Lng: pl.lng, Date: pl.when, Style: starStyle, Width: side, Height: side,
				})
			})
		case compositor.SourceStreet:
			if p.streets == nil {
				missing(src)
				continue
			}
			wg.Add(1)
			go load(src, func() (image.Image, error) {
				return p.streets.FetchStreetMap(ctx, provider.StreetMapQuery{
					Lat: pl.lat, Lng: pl.lng, Zoom: zoom, Size: side,
				})
			})
		}
	}
	wg.Wait()

	// Keep warnings in source order so results are reproducible.
	ordered := warnings[:0:0]
	for _, src := range uniqueSources(pl.sources) {
		for _, w := range warnings {
			if w.Source == string(src) {
				ordered = append(ordered, w)
			}
		}
	}
	return images, ordered
}

func uniqueSources(sources []compositor.Source) []compositor.Source {
	out := make([]compositor.Source, 0, len(sources))
	seen := make(map[compositor.Source]bool, len(sources))
	for _, s := range sources {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// draw paints the plan onto a fresh context so no clip or transform from
// an earlier pass can leak in.
func (p *Pipeline) draw(pl *plan, images map[compositor.Source]image.Image) (image.Image, error) {
	dc := gg.NewContext(pl.canvas.Width, pl.canvas.Height)
	s := pl.settings

	compositor.RenderBackground(dc, compositor.ColorOr(s.BackgroundColor, compositor.White))

	for i, layout := range pl.circles {
		src := pl.sources[i]
		err := compositor.RenderImageInCircle(dc, layout, images[src], p.opts.Palette.Fallback(src))
		if err != nil && !errors.Is(err, compositor.ErrImageMissing) {
			return nil, err
		}
	}
	border := compositor.ColorOr(s.BorderColor, compositor.Black)
	for _, layout := range pl.circles {
		compositor.RenderBorder(dc, layout, s.BorderWidth, border)
	}

	if len(pl.texts) > 0 {
		if p.fonts == nil {
			return nil, errors.New("text overlay requires a font book")
		}
		if err := overlay.Draw(dc, pl.texts, p.fonts); err != nil {
			return nil, err
		}
	}
	return dc.Image(), nil
}
