package overlay

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/starmap-generator/backend/internal/compositor"
	"github.com/starmap-generator/backend/internal/models"
)

var defaultTextColor = color.NRGBA{A: 0xff}

// Draw renders each placement centered horizontally on its x with its baseline
// at y. Text outside the canvas is clipped by the bitmap bounds.
func Draw(dc *gg.Context, placements []models.TextPlacement, fonts *FontBook) error {
	for _, p := range placements {
		st := p.Entry.Style
		face, err := fonts.Face(st.FontFamily, st.FontSize, st.Bold, st.Italic)
		if err != nil {
			return fmt.Errorf("text %q: %w", p.Entry.Content, err)
		}
		dc.SetFontFace(face)
		dc.SetColor(compositor.ColorOr(st.Color, defaultTextColor))
		dc.DrawStringAnchored(p.Entry.Content, p.X, p.Y, 0.5, 0)
	}
	return nil
}
