// Package overlay stacks text lines above and below the circle region.
package overlay

import (
	"sort"
	"strings"

	"github.com/starmap-generator/backend/internal/models"
)

// DefaultFontSize applies to entries without a size.
const DefaultFontSize = 32

// Options controls stacking distances.
type Options struct {
	LineHeight float64
	Margin     float64
}

// Layout places entries relative to the region [top, bottom] of the circle(s).
// Within each position group entries are sorted by order ascending, the lowest
// order closest to the circle. Above baselines start at top-margin and move up
// one line height per entry; below baselines start at bottom+margin and move
// down. Entries with empty content or an unknown position take no slot.
func Layout(entries []models.TextEntry, top, bottom float64, canvasWidth int, opts Options) []models.TextPlacement {
	var above, below []models.TextEntry
	for _, e := range entries {
		if strings.TrimSpace(e.Content) == "" {
			continue
		}
		switch e.Position {
		case models.PositionAbove:
			above = append(above, e)
		case models.PositionBelow:
			below = append(below, e)
		}
	}
	byOrder := func(group []models.TextEntry) {
		sort.SliceStable(group, func(i, j int) bool { return group[i].Order < group[j].Order })
	}
	byOrder(above)
	byOrder(below)

	midX := float64(canvasWidth) / 2
	placements := make([]models.TextPlacement, 0, len(above)+len(below))

	y := top - opts.Margin
	for _, e := range above {
		placements = append(placements, models.TextPlacement{Entry: e, X: midX, Y: y})
		y -= opts.LineHeight
	}

	y = bottom + opts.Margin
	for _, e := range below {
		placements = append(placements, models.TextPlacement{Entry: e, X: midX, Y: y})
		y += opts.LineHeight
	}

	return placements
}
