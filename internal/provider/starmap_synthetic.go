package provider

import (
	"context"
	"hash/fnv"
	"image"
	"image/color"
	"math"
	"math/rand"
	"strconv"

	"github.com/fogleman/gg"
)

type skyStyle struct {
	inner, outer color.NRGBA
	star         color.NRGBA
	lines        color.NRGBA
}

var skyStyles = map[string]skyStyle{
	"default": {
		inner: color.NRGBA{0x1b, 0x24, 0x4a, 0xff},
		outer: color.NRGBA{0x05, 0x08, 0x1c, 0xff},
		star:  color.NRGBA{0xff, 0xff, 0xff, 0xff},
		lines: color.NRGBA{0x9f, 0xb4, 0xff, 0x70},
	},
	"midnight": {
		inner: color.NRGBA{0x10, 0x10, 0x10, 0xff},
		outer: color.NRGBA{0x00, 0x00, 0x00, 0xff},
		star:  color.NRGBA{0xf5, 0xf0, 0xdc, 0xff},
		lines: color.NRGBA{0xd4, 0xaf, 0x37, 0x80},
	},
	"light": {
		inner: color.NRGBA{0xff, 0xff, 0xff, 0xff},
		outer: color.NRGBA{0xec, 0xee, 0xf4, 0xff},
		star:  color.NRGBA{0x1a, 0x1a, 0x2e, 0xff},
		lines: color.NRGBA{0x55, 0x5a, 0x78, 0x80},
	},
}

// SyntheticStarMap draws a deterministic star field locally. The same position
// and date always produce the same sky, so it doubles as an offline fallback.
type SyntheticStarMap struct {
	Stars         int
	Constellation int
}

// NewSyntheticStarMap returns a generator with default density.
func NewSyntheticStarMap() *SyntheticStarMap {
	return &SyntheticStarMap{Stars: 900, Constellation: 6}
}

// FetchStarMap implements StarMapProvider.
func (p *SyntheticStarMap) FetchStarMap(ctx context.Context, q StarMapQuery) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h := q.Width, q.Height
	if w <= 0 || h <= 0 {
		w, h = 1024, 1024
	}
	style, ok := skyStyles[q.Style]
	if !ok {
		style = skyStyles["default"]
	}

	rng := rand.New(rand.NewSource(skySeed(q)))
	dc := gg.NewContext(w, h)

	cx, cy := float64(w)/2, float64(h)/2
	grad := gg.NewRadialGradient(cx, cy, 0, cx, cy, math.Hypot(cx, cy))
	grad.AddColorStop(0, style.inner)
	grad.AddColorStop(1, style.outer)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()

	scale := math.Min(float64(w), float64(h)) / 1024
	dc.SetColor(style.star)
	for i := 0; i < p.Stars; i++ {
		x, y := rng.Float64()*float64(w), rng.Float64()*float64(h)
		// Magnitudes skew faint: most stars are tiny.
		r := (0.4 + math.Pow(rng.Float64(), 6)*2.6) * scale
		dc.DrawCircle(x, y, math.Max(r, 0.5))
		dc.Fill()
	}

	dc.SetColor(style.lines)
	dc.SetLineWidth(math.Max(1, 1.2*scale))
	for i := 0; i < p.Constellation; i++ {
		x, y := rng.Float64()*float64(w), rng.Float64()*float64(h)
		points := 3 + rng.Intn(4)
		for j := 0; j < points; j++ {
			nx := x + (rng.Float64()-0.5)*160*scale
			ny := y + (rng.Float64()-0.5)*160*scale
			dc.DrawLine(x, y, nx, ny)
			dc.Stroke()
			dc.DrawCircle(nx, ny, 2.2*scale)
			dc.Fill()
			x, y = nx, ny
		}
	}

	return dc.Image(), nil
}

func skySeed(q StarMapQuery) int64 {
	h := fnv.New64a()
	h.Write([]byte(strconv.FormatFloat(q.Lat, 'f', 4, 64)))
	h.Write([]byte(strconv.FormatFloat(q.Lng, 'f', 4, 64)))
	h.Write([]byte(q.Date.UTC().Format("2006-01-02T15:04")))
	return int64(h.Sum64())
}
