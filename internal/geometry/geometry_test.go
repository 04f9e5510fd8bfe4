package geometry

import (
	"math"
	"testing"

	"github.com/starmap-generator/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingle_PortraitCanvas(t *testing.T) {
	l, err := Single(models.CanvasSpec{Width: 800, Height: 1000}, 60)
	require.NoError(t, err)

	assert.InDelta(t, 480, l.Diameter(), 1e-9)
	assert.InDelta(t, 400, l.CenterX, 1e-9)
	assert.InDelta(t, 500, l.CenterY, 1e-9)
}

func TestSingle_AlwaysRound(t *testing.T) {
	sizes := []models.CanvasSpec{
		{Width: 1, Height: 1},
		{Width: 800, Height: 1000},
		{Width: 1000, Height: 800},
		{Width: 3300, Height: 2550},
		{Width: 37, Height: 4096},
	}
	percents := []float64{0.5, 25, 60, 99.9, 100}

	for _, c := range sizes {
		for _, p := range percents {
			l, err := Single(c, p)
			require.NoError(t, err)

			minSide := math.Min(float64(c.Width), float64(c.Height))
			assert.InDelta(t, minSide*p/100, l.Diameter(), 1e-9, "%v @ %v", c, p)
			assert.InDelta(t, float64(c.Width)/2, l.CenterX, 1e-9)
			assert.InDelta(t, float64(c.Height)/2, l.CenterY, 1e-9)
			assert.LessOrEqual(t, l.Radius, minSide/2)
		}
	}
}

func TestSingle_Errors(t *testing.T) {
	tests := []struct {
		name    string
		canvas  models.CanvasSpec
		percent float64
		wantErr error
	}{
		{"zero width", models.CanvasSpec{Width: 0, Height: 100}, 60, models.ErrInvalidCanvasSpec},
		{"negative height", models.CanvasSpec{Width: 100, Height: -5}, 60, models.ErrInvalidCanvasSpec},
		{"zero radius", models.CanvasSpec{Width: 100, Height: 100}, 0, ErrInvalidRadius},
		{"nan radius", models.CanvasSpec{Width: 100, Height: 100}, math.NaN(), ErrInvalidRadius},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Single(tt.canvas, tt.percent)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSingle_ClampsRadiusAbove100(t *testing.T) {
	l, err := Single(models.CanvasSpec{Width: 400, Height: 200}, 150)
	require.NoError(t, err)
	assert.InDelta(t, 100, l.Radius, 1e-9)
}

func TestCombined_LandscapeLetter(t *testing.T) {
	pair, err := Combined(models.CanvasSpec{Width: 3300, Height: 2550}, 60, 30, Horizontal)
	require.NoError(t, err)

	assert.InDelta(t, 1530, pair.First.Diameter(), 1e-9)
	assert.InDelta(t, 1530, pair.Second.Diameter(), 1e-9)
	assert.InDelta(t, 1114.5, pair.First.CenterX, 1e-9)
	assert.InDelta(t, 1885.5, pair.Second.CenterX, 1e-9)
	assert.InDelta(t, 1275, pair.First.CenterY, 1e-9)
	assert.InDelta(t, 1275, pair.Second.CenterY, 1e-9)
	assert.InDelta(t, 1071, pair.Spacing(), 1e-9)
}

func TestCombined_SymmetricAboutCenter(t *testing.T) {
	canvas := models.CanvasSpec{Width: 2000, Height: 900}
	for _, overlap := range []float64{0, 10, 30, 50, 99, 100} {
		pair, err := Combined(canvas, 80, overlap, Horizontal)
		require.NoError(t, err)

		mid := float64(canvas.Width) / 2
		assert.InDelta(t, mid-pair.First.CenterX, pair.Second.CenterX-mid, 1e-9)
		assert.Equal(t, pair.First.Radius, pair.Second.Radius)
		assert.InDelta(t, pair.First.Diameter()*(1-overlap/100), pair.Second.CenterX-pair.First.CenterX, 1e-9)
	}
}

func TestCombined_OverlapEdges(t *testing.T) {
	canvas := models.CanvasSpec{Width: 1600, Height: 800}

	touching, err := Combined(canvas, 50, 0, Horizontal)
	require.NoError(t, err)
	assert.InDelta(t, touching.First.Diameter(), touching.Spacing(), 1e-9)

	full, err := Combined(canvas, 50, 100, Horizontal)
	require.NoError(t, err)
	assert.Equal(t, full.First, full.Second)

	clampedLow, err := Combined(canvas, 50, -20, Horizontal)
	require.NoError(t, err)
	assert.Equal(t, touching, clampedLow)

	clampedHigh, err := Combined(canvas, 50, 250, Horizontal)
	require.NoError(t, err)
	assert.Equal(t, full, clampedHigh)
}

func TestCombined_Portrait(t *testing.T) {
	pair, err := Combined(models.CanvasSpec{Width: 2550, Height: 3300}, 60, 30, Vertical)
	require.NoError(t, err)

	assert.InDelta(t, 1530, pair.First.Diameter(), 1e-9)
	assert.InDelta(t, 1275, pair.First.CenterX, 1e-9)
	assert.InDelta(t, 1275, pair.Second.CenterX, 1e-9)
	assert.InDelta(t, 1650-535.5, pair.First.CenterY, 1e-9)
	assert.InDelta(t, 1650+535.5, pair.Second.CenterY, 1e-9)
}

func TestCombined_DiameterCappedByShorterSide(t *testing.T) {
	// Landscape pairing on a portrait canvas: height is not the short side.
	pair, err := Combined(models.CanvasSpec{Width: 500, Height: 1000}, 100, 0, Horizontal)
	require.NoError(t, err)
	assert.InDelta(t, 250, pair.First.Radius, 1e-9)
}

func TestCombined_InvalidCanvas(t *testing.T) {
	_, err := Combined(models.CanvasSpec{Width: 0, Height: 0}, 60, 30, Horizontal)
	assert.ErrorIs(t, err, models.ErrInvalidCanvasSpec)
}

func TestBounds(t *testing.T) {
	pair, err := Combined(models.CanvasSpec{Width: 1000, Height: 1000}, 40, 0, Vertical)
	require.NoError(t, err)

	top, bottom := Bounds(pair.First, pair.Second)
	assert.InDelta(t, pair.First.Top(), top, 1e-9)
	assert.InDelta(t, pair.Second.Bottom(), bottom, 1e-9)

	top, bottom = Bounds()
	assert.Zero(t, top)
	assert.Zero(t, bottom)
}

func TestAxisFor(t *testing.T) {
	a, err := AxisFor(models.ViewCombinedLandscape)
	require.NoError(t, err)
	assert.Equal(t, Horizontal, a)

	a, err = AxisFor(models.ViewCombinedPortrait)
	require.NoError(t, err)
	assert.Equal(t, Vertical, a)

	_, err = AxisFor(models.ViewStarMap)
	assert.Error(t, err)
}

func TestPaperCanvas(t *testing.T) {
	letter, ok := FindPaper(DefaultPaperSizes, "Letter")
	require.True(t, ok)

	c, err := PaperCanvas(letter, 300, models.OrientationLandscape)
	require.NoError(t, err)
	assert.Equal(t, models.CanvasSpec{Width: 3300, Height: 2550}, c)
	assert.Equal(t, models.OrientationLandscape, c.Orientation())

	c, err = PaperCanvas(letter, 300, models.OrientationPortrait)
	require.NoError(t, err)
	assert.Equal(t, models.CanvasSpec{Width: 2550, Height: 3300}, c)

	_, err = PaperCanvas(letter, 0, models.OrientationPortrait)
	assert.ErrorIs(t, err, models.ErrInvalidCanvasSpec)

	_, ok = FindPaper(DefaultPaperSizes, "b5")
	assert.False(t, ok)
}
