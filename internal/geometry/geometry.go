// Package geometry places the circular map images on a canvas.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/starmap-generator/backend/internal/models"
)

// ErrInvalidRadius is returned for a radius percentage that is not positive.
var ErrInvalidRadius = errors.New("invalid radius percent")

// Axis is the direction along which a combined pair is laid out.
type Axis int

const (
	Horizontal Axis = iota // side by side, combined landscape
	Vertical               // stacked, combined portrait
)

// Pair holds the two circles of a combined view. First is left or top.
type Pair struct {
	First  models.CircleLayout `json:"first"`
	Second models.CircleLayout `json:"second"`
}

// Spacing returns the distance between the two centers.
func (p Pair) Spacing() float64 {
	return math.Hypot(p.Second.CenterX-p.First.CenterX, p.Second.CenterY-p.First.CenterY)
}

// Single centers one circle whose diameter is radiusPercent of the shorter
// canvas side, so it stays round for any aspect ratio.
func Single(canvas models.CanvasSpec, radiusPercent float64) (models.CircleLayout, error) {
	if err := canvas.Validate(); err != nil {
		return models.CircleLayout{}, err
	}
	pct, err := normalizeRadius(radiusPercent)
	if err != nil {
		return models.CircleLayout{}, err
	}

	diameter := canvas.MinSide() * pct / 100
	return models.CircleLayout{
		CenterX: float64(canvas.Width) / 2,
		CenterY: float64(canvas.Height) / 2,
		Radius:  diameter / 2,
	}, nil
}

// Combined lays out two equal circles symmetrically about the canvas center.
// The diameter comes from the dimension perpendicular to the axis, capped by
// the shorter side so neither circle can exceed the canvas.
func Combined(canvas models.CanvasSpec, radiusPercent, overlapPercent float64, axis Axis) (Pair, error) {
	if err := canvas.Validate(); err != nil {
		return Pair{}, err
	}
	pct, err := normalizeRadius(radiusPercent)
	if err != nil {
		return Pair{}, err
	}
	overlap := ClampOverlap(overlapPercent)

	w, h := float64(canvas.Width), float64(canvas.Height)
	base := h
	if axis == Vertical {
		base = w
	}
	base = math.Min(base, canvas.MinSide())

	diameter := base * pct / 100
	radius := diameter / 2
	half := diameter * (1 - overlap/100) / 2
	cx, cy := w/2, h/2

	if axis == Vertical {
		return Pair{
			First:  models.CircleLayout{CenterX: cx, CenterY: cy - half, Radius: radius},
			Second: models.CircleLayout{CenterX: cx, CenterY: cy + half, Radius: radius},
		}, nil
	}
	return Pair{
		First:  models.CircleLayout{CenterX: cx - half, CenterY: cy, Radius: radius},
		Second: models.CircleLayout{CenterX: cx + half, CenterY: cy, Radius: radius},
	}, nil
}

// AxisFor returns the pairing axis of a combined view.
func AxisFor(view models.View) (Axis, error) {
	switch view {
	case models.ViewCombinedLandscape:
		return Horizontal, nil
	case models.ViewCombinedPortrait:
		return Vertical, nil
	}
	return 0, fmt.Errorf("view %q is not a combined view", view)
}

// Bounds returns the vertical extent covered by the given circles.
func Bounds(layouts ...models.CircleLayout) (top, bottom float64) {
	if len(layouts) == 0 {
		return 0, 0
	}
	top, bottom = layouts[0].Top(), layouts[0].Bottom()
	for _, l := range layouts[1:] {
		top = math.Min(top, l.Top())
		bottom = math.Max(bottom, l.Bottom())
	}
	return top, bottom
}

// ClampOverlap limits an overlap percentage to [0, 100].
func ClampOverlap(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func normalizeRadius(p float64) (float64, error) {
	if math.IsNaN(p) || p <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRadius, p)
	}
	if p > 100 {
		return 100, nil
	}
	return p, nil
}
