// Package preset loads the choices offered by the form: paper sizes, DPIs,
// star map styles, default text style and the fallback palette.
package preset

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/starmap-generator/backend/internal/compositor"
	"github.com/starmap-generator/backend/internal/geometry"
	"github.com/starmap-generator/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// PaletteColors names the fallback fill of each circle source.
type PaletteColors struct {
	StarFallback   string `json:"starFallback" yaml:"star_fallback"`
	StreetFallback string `json:"streetFallback" yaml:"street_fallback"`
}

// Presets is the content of the presets file.
type Presets struct {
	PaperSizes  []geometry.PaperSize       `json:"paperSizes" yaml:"paper_sizes"`
	DPIs        []int                      `json:"dpis" yaml:"dpis"`
	StarStyles  []string                   `json:"starStyles" yaml:"star_styles"`
	TextStyle   models.TextStyle           `json:"textStyle" yaml:"text_style"`
	Composition models.CompositionSettings `json:"composition" yaml:"composition"`
	Palette     PaletteColors              `json:"palette" yaml:"palette"`
}

// Default returns the built-in presets.
func Default() *Presets {
	return &Presets{
		PaperSizes: append([]geometry.PaperSize(nil), geometry.DefaultPaperSizes...),
		DPIs:       []int{72, 150, 300},
		StarStyles: []string{"default", "midnight", "light"},
		TextStyle: models.TextStyle{
			FontFamily: "Go",
			FontSize:   32,
			Color:      "#000000",
		},
		Composition: models.DefaultCompositionSettings(),
		Palette: PaletteColors{
			StarFallback:   "#000033",
			StreetFallback: "#E5E3DF",
		},
	}
}

// Load reads presets from a YAML file. A missing file yields the defaults.
func Load(path string) (*Presets, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader parses presets, keeping defaults for omitted sections.
func LoadFromReader(r io.Reader) (*Presets, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing presets: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that the presets can drive a render.
func (p *Presets) Validate() error {
	if len(p.PaperSizes) == 0 {
		return errors.New("presets: at least one paper size is required")
	}
	for _, ps := range p.PaperSizes {
		if ps.Name == "" || ps.Width <= 0 || ps.Height <= 0 {
			return fmt.Errorf("presets: invalid paper size %+v", ps)
		}
	}
	for _, dpi := range p.DPIs {
		if dpi <= 0 {
			return fmt.Errorf("presets: invalid dpi %d", dpi)
		}
	}
	for name, c := range map[string]string{
		"star_fallback":   p.Palette.StarFallback,
		"street_fallback": p.Palette.StreetFallback,
	} {
		if _, err := compositor.ParseColor(c); err != nil {
			return fmt.Errorf("presets: palette %s: %w", name, err)
		}
	}
	return nil
}

// CompositorPalette converts the palette colors for drawing.
func (p *Presets) CompositorPalette() compositor.Palette {
	return compositor.Palette{
		StarFallback:   compositor.ColorOr(p.Palette.StarFallback, compositor.DefaultPalette.StarFallback),
		StreetFallback: compositor.ColorOr(p.Palette.StreetFallback, compositor.DefaultPalette.StreetFallback),
	}
}

// Save writes presets as YAML, for seeding an editable presets file.
func (p *Presets) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
