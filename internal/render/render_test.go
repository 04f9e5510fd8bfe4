package render

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/starmap-generator/backend/internal/format"
	"github.com/starmap-generator/backend/internal/models"
	"github.com/starmap-generator/backend/internal/overlay"
	"github.com/starmap-generator/backend/internal/provider"
	"github.com/starmap-generator/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 14, 20, 30, 0, 0, time.UTC) }

func baseRequest() models.RenderRequest {
	return models.RenderRequest{
		Canvas:    models.CanvasSpec{Width: 200, Height: 200},
		Latitude:  "32.948",
		Longitude: "-96.818",
		Date:      "2024-03-14",
		Settings:  models.DefaultCompositionSettings(),
	}
}

func newTestPipeline(t *testing.T, stars *testutil.MockStarMap, streets *testutil.MockStreetMap, opts Options) *Pipeline {
	t.Helper()
	fonts, err := overlay.NewFontBook()
	require.NoError(t, err)
	if opts.Now == nil {
		opts.Now = fixedNow
	}
	var (
		starProvider   provider.StarMapProvider
		streetProvider provider.StreetMapProvider
	)
	if stars != nil {
		starProvider = stars
	}
	if streets != nil {
		streetProvider = streets
	}
	return NewPipeline(starProvider, streetProvider, fonts, opts)
}

func rgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestCompose_StarFetchFailureDrawsFallback(t *testing.T) {
	stars := &testutil.MockStarMap{Err: testutil.ErrProviderDown}
	p := newTestPipeline(t, stars, &testutil.MockStreetMap{}, Options{})
	canvas := NewCanvas()

	result, err := p.Compose(context.Background(), canvas, models.ViewStarMap, baseRequest())
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "star", result.Warnings[0].Source)

	img, _, ok := canvas.Snapshot()
	require.True(t, ok)

	fallback := color.NRGBA{0x00, 0x00, 0x33, 0xff}
	// Center and a point just inside the circle edge both carry the fallback.
	assert.Equal(t, fallback, rgbaAt(img, 100, 100))
	assert.Equal(t, fallback, rgbaAt(img, 100, 100-55))
	// Outside the circle is background.
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, rgbaAt(img, 2, 2))
}

func TestCompose_DrawsFetchedImagery(t *testing.T) {
	red := color.NRGBA{255, 0, 0, 255}
	stars := &testutil.MockStarMap{Color: red}
	p := newTestPipeline(t, stars, nil, Options{})
	canvas := NewCanvas()

	result, err := p.Compose(context.Background(), canvas, models.ViewStarMap, baseRequest())
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	require.Len(t, result.Circles, 1)
	assert.InDelta(t, 60, result.Circles[0].Radius, 1e-9)
	assert.Empty(t, result.Texts)

	img, _, _ := canvas.Snapshot()
	assert.Equal(t, red, rgbaAt(img, 100, 100))

	q := stars.Queries()
	require.Len(t, q, 1)
	assert.Equal(t, 120, q[0].Width)
	assert.InDelta(t, 32.948, q[0].Lat, 1e-9)
	assert.Equal(t, 2024, q[0].Date.Year())
}

func TestCompose_Idempotent(t *testing.T) {
	p := newTestPipeline(t, &testutil.MockStarMap{Color: color.NRGBA{10, 20, 30, 255}}, &testutil.MockStreetMap{}, Options{})

	req := baseRequest()
	req.Canvas = models.CanvasSpec{Width: 300, Height: 200}
	req.Texts = []models.CustomText{{Content: "Our night", Order: 1, Position: models.PositionAbove}}
	req.DateText = models.DateText{Show: true, Order: 1, Position: models.PositionBelow}

	canvas := NewCanvas()
	_, err := p.Compose(context.Background(), canvas, models.ViewCombinedLandscape, req)
	require.NoError(t, err)
	first, _, ok := canvas.Snapshot()
	require.True(t, ok)

	// A different pass in between must not leave anything behind.
	other := req
	other.Texts = []models.CustomText{{Content: "Something else", Position: models.PositionBelow}}
	_, err = p.Compose(context.Background(), canvas, models.ViewStarMap, other)
	require.NoError(t, err)

	_, err = p.Compose(context.Background(), canvas, models.ViewCombinedLandscape, req)
	require.NoError(t, err)
	second, result, ok := canvas.Snapshot()
	require.True(t, ok)
	assert.Equal(t, uint64(3), result.Generation)
	assert.Equal(t, first.(*image.RGBA).Pix, second.(*image.RGBA).Pix)
}

func TestCompose_StaleRenderDiscarded(t *testing.T) {
	gate := make(chan struct{})
	stars := &testutil.MockStarMap{Gate: gate}
	p := newTestPipeline(t, stars, nil, Options{})
	canvas := NewCanvas()

	var (
		wg  sync.WaitGroup
		err error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err = p.Compose(context.Background(), canvas, models.ViewStarMap, baseRequest())
	}()

	require.Eventually(t, func() bool { return stars.Calls() == 1 }, time.Second, 5*time.Millisecond)
	newer := canvas.Begin()
	close(gate)
	wg.Wait()

	assert.ErrorIs(t, err, ErrStaleRender)
	_, _, ok := canvas.Snapshot()
	assert.False(t, ok)
	assert.Equal(t, newer, canvas.Current())
	assert.Zero(t, canvas.Committed())
}

func TestCompose_FetchTimeoutFallsBack(t *testing.T) {
	stars := &testutil.MockStarMap{Gate: make(chan struct{})}
	p := newTestPipeline(t, stars, nil, Options{FetchTimeout: 20 * time.Millisecond})
	canvas := NewCanvas()

	result, err := p.Compose(context.Background(), canvas, models.ViewStarMap, baseRequest())
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "deadline")
}

func TestCompose_CombinedUsesMapOrder(t *testing.T) {
	red := color.NRGBA{255, 0, 0, 255}
	blue := color.NRGBA{0, 0, 255, 255}
	p := newTestPipeline(t, &testutil.MockStarMap{Color: red}, &testutil.MockStreetMap{Color: blue}, Options{})

	req := baseRequest()
	req.Canvas = models.CanvasSpec{Width: 400, Height: 200}
	req.Settings.OverlapPercent = 0

	canvas := NewCanvas()
	result, err := p.Compose(context.Background(), canvas, models.ViewCombinedLandscape, req)
	require.NoError(t, err)
	require.Len(t, result.Circles, 2)
	img, _, _ := canvas.Snapshot()
	left, right := result.Circles[0], result.Circles[1]
	assert.Equal(t, red, rgbaAt(img, int(left.CenterX), int(left.CenterY)))
	assert.Equal(t, blue, rgbaAt(img, int(right.CenterX), int(right.CenterY)))

	req.Settings.MapOrder = models.StreetFirst
	_, err = p.Compose(context.Background(), canvas, models.ViewCombinedLandscape, req)
	require.NoError(t, err)
	img, _, _ = canvas.Snapshot()
	assert.Equal(t, blue, rgbaAt(img, int(left.CenterX), int(left.CenterY)))
	assert.Equal(t, red, rgbaAt(img, int(right.CenterX), int(right.CenterY)))
}

func TestCompose_TextEntries(t *testing.T) {
	p := newTestPipeline(t, &testutil.MockStarMap{}, nil, Options{})

	req := baseRequest()
	req.Canvas = models.CanvasSpec{Width: 600, Height: 800}
	req.Time = "21:05"
	req.Texts = []models.CustomText{
		{Content: "Happy Anniversary", Order: 1, Position: models.PositionAbove},
		{Content: "   ", Order: 2, Position: models.PositionAbove},
	}
	req.DateText = models.DateText{Show: true, ShowTime: true, Order: 2, Position: models.PositionAbove}
	req.CoordText = models.CoordinatesText{Show: true, Order: 1, Position: models.PositionBelow}

	result, err := p.Compose(context.Background(), NewCanvas(), models.ViewCanvasLayout, req)
	require.NoError(t, err)
	require.Len(t, result.Texts, 3)

	circle := result.Circles[0]
	byKind := map[models.TextKind]models.TextPlacement{}
	for _, tp := range result.Texts {
		byKind[tp.Entry.Kind] = tp
	}
	assert.InDelta(t, circle.Top()-20, byKind[models.KindCustom].Y, 1e-9)
	assert.InDelta(t, circle.Top()-60, byKind[models.KindDate].Y, 1e-9)
	assert.Equal(t, "March 14, 2024 9:05 PM", byKind[models.KindDate].Entry.Content)
	assert.InDelta(t, circle.Bottom()+20, byKind[models.KindCoordinates].Y, 1e-9)
	assert.Equal(t, format.FormatCoordinates(32.948, -96.818), byKind[models.KindCoordinates].Entry.Content)
	assert.InDelta(t, 300, byKind[models.KindCustom].X, 1e-9)
}

func TestCompose_TextPositionAndMargin(t *testing.T) {
	p := newTestPipeline(t, &testutil.MockStarMap{}, nil, Options{})

	req := baseRequest()
	req.Canvas = models.CanvasSpec{Width: 600, Height: 800}
	req.Settings.TextMargin = models.Float(0)
	req.Texts = []models.CustomText{{Content: "No position", Order: 1}}
	req.DateText = models.DateText{Show: true, Order: 2, Position: models.PositionAbove}

	result, err := p.Compose(context.Background(), NewCanvas(), models.ViewCanvasLayout, req)
	require.NoError(t, err)
	require.Len(t, result.Texts, 2)

	circle := result.Circles[0]
	byKind := map[models.TextKind]models.TextPlacement{}
	for _, tp := range result.Texts {
		byKind[tp.Entry.Kind] = tp
	}
	assert.Equal(t, models.PositionBelow, byKind[models.KindCustom].Entry.Position)
	assert.InDelta(t, circle.Bottom(), byKind[models.KindCustom].Y, 1e-9)
	assert.InDelta(t, circle.Top(), byKind[models.KindDate].Y, 1e-9)

	// Unset margin falls back to the default.
	req.Settings.TextMargin = nil
	result, err = p.Compose(context.Background(), NewCanvas(), models.ViewCanvasLayout, req)
	require.NoError(t, err)
	for _, tp := range result.Texts {
		if tp.Entry.Kind == models.KindDate {
			assert.InDelta(t, result.Circles[0].Top()-20, tp.Y, 1e-9)
		}
	}
}

func TestCompose_EmptyDateUsesNow(t *testing.T) {
	stars := &testutil.MockStarMap{}
	p := newTestPipeline(t, stars, nil, Options{})

	req := baseRequest()
	req.Date = ""
	req.DateText = models.DateText{Show: true, Position: models.PositionBelow}
	result, err := p.Compose(context.Background(), NewCanvas(), models.ViewCanvasLayout, req)
	require.NoError(t, err)
	require.Len(t, result.Texts, 1)
	assert.Equal(t, "March 14, 2024", result.Texts[0].Entry.Content)
	assert.Equal(t, fixedNow(), stars.Queries()[0].Date)
}

func TestCompose_ValidationErrors(t *testing.T) {
	p := newTestPipeline(t, &testutil.MockStarMap{}, nil, Options{MaxPixels: 1_000_000})

	tests := []struct {
		name   string
		mutate func(*models.RenderRequest)
		want   error
	}{
		{"zero width", func(r *models.RenderRequest) { r.Canvas.Width = 0 }, models.ErrInvalidCanvasSpec},
		{"negative height", func(r *models.RenderRequest) { r.Canvas.Height = -5 }, models.ErrInvalidCanvasSpec},
		{"unknown paper", func(r *models.RenderRequest) { r.Paper = "postcard"; r.DPI = 300 }, models.ErrInvalidCanvasSpec},
		{"too large", func(r *models.RenderRequest) { r.Canvas = models.CanvasSpec{Width: 2000, Height: 2000} }, ErrCanvasTooLarge},
		{"bad latitude", func(r *models.RenderRequest) { r.Latitude = "91" }, format.ErrInvalidCoordinates},
		{"bad longitude", func(r *models.RenderRequest) { r.Longitude = "east" }, format.ErrInvalidCoordinates},
		{"bad date", func(r *models.RenderRequest) { r.Date = "14/03/2024" }, format.ErrInvalidDate},
		{"bad time", func(r *models.RenderRequest) { r.Time = "late" }, format.ErrInvalidDate},
		{"misspelled text position", func(r *models.RenderRequest) {
			r.Texts = []models.CustomText{{Content: "typo", Position: "abvoe"}}
		}, models.ErrInvalidTextPosition},
		{"unknown date position", func(r *models.RenderRequest) {
			r.DateText = models.DateText{Show: true, Position: "left"}
		}, models.ErrInvalidTextPosition},
		{"unknown coordinates position", func(r *models.RenderRequest) {
			r.CoordText = models.CoordinatesText{Show: true, Position: "middle"}
		}, models.ErrInvalidTextPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(&req)
			canvas := NewCanvas()
			_, err := p.Compose(context.Background(), canvas, models.ViewStarMap, req)
			assert.ErrorIs(t, err, tt.want)
			_, _, ok := canvas.Snapshot()
			assert.False(t, ok)
		})
	}
}

func TestResolveCanvas_Paper(t *testing.T) {
	p := newTestPipeline(t, nil, nil, Options{})

	c, err := p.ResolveCanvas(models.RenderRequest{Paper: "letter", DPI: 100})
	require.NoError(t, err)
	assert.Equal(t, models.CanvasSpec{Width: 850, Height: 1100}, c)

	c, err = p.ResolveCanvas(models.RenderRequest{Paper: "Letter", DPI: 100, Orientation: models.OrientationLandscape})
	require.NoError(t, err)
	assert.Equal(t, models.CanvasSpec{Width: 1100, Height: 850}, c)
}

func TestCompose_MissingProviderWarns(t *testing.T) {
	p := newTestPipeline(t, &testutil.MockStarMap{}, nil, Options{})

	result, err := p.Compose(context.Background(), NewCanvas(), models.ViewStreetMap, baseRequest())
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "street", result.Warnings[0].Source)
}

func TestCanvas_CommitOnlyCurrent(t *testing.T) {
	c := NewCanvas()
	first := c.Begin()
	second := c.Begin()

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	assert.False(t, c.Commit(first, img, &models.RenderResult{Generation: first}))
	assert.True(t, c.Commit(second, img, &models.RenderResult{Generation: second}))
	assert.False(t, c.Commit(second, img, nil))

	_, res, ok := c.Snapshot()
	require.True(t, ok)
	assert.Equal(t, second, res.Generation)
}
