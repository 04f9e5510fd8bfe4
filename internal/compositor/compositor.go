// Package compositor draws backgrounds, circle-clipped imagery and borders.
package compositor

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/starmap-generator/backend/internal/models"
	"golang.org/x/image/draw"
)

// ErrImageMissing is returned when a circle was filled with its fallback color.
var ErrImageMissing = errors.New("image missing, drew fallback fill")

// Source names the imagery drawn into a circle.
type Source string

const (
	SourceStar   Source = "star"
	SourceStreet Source = "street"
)

// Palette holds the fallback fills used when imagery is unavailable.
type Palette struct {
	StarFallback   color.NRGBA
	StreetFallback color.NRGBA
}

// DefaultPalette is the documented fallback palette.
var DefaultPalette = Palette{
	StarFallback:   color.NRGBA{R: 0x00, G: 0x00, B: 0x33, A: 0xff}, // #000033
	StreetFallback: color.NRGBA{R: 0xe5, G: 0xe3, B: 0xdf, A: 0xff}, // #E5E3DF
}

// Fallback returns the fill for a source.
func (p Palette) Fallback(s Source) color.NRGBA {
	if s == SourceStreet {
		return p.StreetFallback
	}
	return p.StarFallback
}

// SourcesFor lists which imagery goes into each circle of a view, in layout order.
func SourcesFor(view models.View, order models.MapOrder) []Source {
	switch {
	case view == models.ViewStreetMap:
		return []Source{SourceStreet}
	case view.Combined() && order == models.StreetFirst:
		return []Source{SourceStreet, SourceStar}
	case view.Combined():
		return []Source{SourceStar, SourceStreet}
	}
	return []Source{SourceStar}
}

// RenderBackground fills the whole canvas regardless of any active clip.
func RenderBackground(dc *gg.Context, c color.Color) {
	dc.Push()
	dc.ResetClip()
	dc.SetColor(c)
	dc.Clear()
	dc.Pop()
}

// RenderImageInCircle draws img cover-scaled and center-cropped inside the
// circle. A nil img gets the fallback fill and ErrImageMissing.
func RenderImageInCircle(dc *gg.Context, layout models.CircleLayout, img image.Image, fallback color.Color) error {
	if layout.Radius <= 0 {
		return nil
	}

	dc.Push()
	defer dc.Pop()

	dc.DrawCircle(layout.CenterX, layout.CenterY, layout.Radius)
	dc.Clip()

	if img == nil || img.Bounds().Empty() {
		dc.SetColor(fallback)
		dc.DrawRectangle(layout.CenterX-layout.Radius, layout.CenterY-layout.Radius, layout.Diameter(), layout.Diameter())
		dc.Fill()
		return ErrImageMissing
	}

	// One extra pixel on each side so rounding never leaves an edge uncovered.
	side := int(math.Ceil(layout.Diameter())) + 2
	tile := CoverSquare(img, side)
	x := int(math.Floor(layout.CenterX - float64(side)/2))
	y := int(math.Floor(layout.CenterY - float64(side)/2))
	dc.DrawImage(tile, x, y)
	return nil
}

// RenderBorder strokes the circle outline. It runs unclipped so the stroke is
// not cut in half.
func RenderBorder(dc *gg.Context, layout models.CircleLayout, width float64, c color.Color) {
	if width <= 0 || layout.Radius <= 0 {
		return
	}
	dc.Push()
	defer dc.Pop()

	dc.ResetClip()
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.DrawCircle(layout.CenterX, layout.CenterY, layout.Radius)
	dc.Stroke()
}

// CoverSquare scales img to fill a side×side square, cropping the longer
// dimension around the center.
func CoverSquare(img image.Image, side int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	b := img.Bounds()

	crop := b
	if b.Dx() > b.Dy() {
		off := (b.Dx() - b.Dy()) / 2
		crop = image.Rect(b.Min.X+off, b.Min.Y, b.Min.X+off+b.Dy(), b.Max.Y)
	} else if b.Dy() > b.Dx() {
		off := (b.Dy() - b.Dx()) / 2
		crop = image.Rect(b.Min.X, b.Min.Y+off, b.Max.X, b.Min.Y+off+b.Dx())
	}

	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)
	return dst
}
