package geometry

import (
	"fmt"
	"math"
	"strings"

	"github.com/starmap-generator/backend/internal/models"
)

// PaperSize is a print size in inches, portrait.
type PaperSize struct {
	Name   string  `json:"name" yaml:"name"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// DefaultPaperSizes is used when no presets file overrides it.
var DefaultPaperSizes = []PaperSize{
	{Name: "letter", Width: 8.5, Height: 11},
	{Name: "legal", Width: 8.5, Height: 14},
	{Name: "tabloid", Width: 11, Height: 17},
	{Name: "a4", Width: 8.27, Height: 11.69},
	{Name: "a3", Width: 11.69, Height: 16.54},
	{Name: "8x10", Width: 8, Height: 10},
	{Name: "11x14", Width: 11, Height: 14},
	{Name: "12x16", Width: 12, Height: 16},
	{Name: "16x20", Width: 16, Height: 20},
	{Name: "18x24", Width: 18, Height: 24},
	{Name: "24x36", Width: 24, Height: 36},
}

// FindPaper looks a size up by case-insensitive name.
func FindPaper(sizes []PaperSize, name string) (PaperSize, bool) {
	for _, p := range sizes {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return PaperSize{}, false
}

// PaperCanvas converts a paper size at the given DPI into pixels. Landscape
// swaps the sides.
func PaperCanvas(paper PaperSize, dpi int, orientation models.Orientation) (models.CanvasSpec, error) {
	if dpi <= 0 {
		return models.CanvasSpec{}, fmt.Errorf("%w: dpi %d", models.ErrInvalidCanvasSpec, dpi)
	}
	w := int(math.Round(paper.Width * float64(dpi)))
	h := int(math.Round(paper.Height * float64(dpi)))
	if orientation == models.OrientationLandscape {
		w, h = h, w
	}
	spec := models.CanvasSpec{Width: w, Height: h}
	return spec, spec.Validate()
}
