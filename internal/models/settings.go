package models

// MapOrder decides which imagery goes into the first (left/top) circle of a
// combined view.
type MapOrder string

const (
	StarFirst   MapOrder = "star-first"
	StreetFirst MapOrder = "street-first"
)

// CompositionSettings are read once per render.
type CompositionSettings struct {
	RadiusPercent   float64  `json:"radiusPercent" yaml:"radius_percent"`
	OverlapPercent  float64  `json:"overlapPercent" yaml:"overlap_percent"`
	MapOrder        MapOrder `json:"mapOrder" yaml:"map_order"`
	BorderWidth     float64  `json:"borderWidth" yaml:"border_width"`
	BorderColor     string   `json:"borderColor" yaml:"border_color"`
	BackgroundColor string   `json:"backgroundColor" yaml:"background_color"`
	LineHeight      float64  `json:"lineHeight" yaml:"line_height"`
	// A nil TextMargin means the default; 0 puts text flush against the circle.
	TextMargin *float64 `json:"textMargin,omitempty" yaml:"text_margin,omitempty"`
}

// DefaultCompositionSettings returns the settings used for omitted fields.
func DefaultCompositionSettings() CompositionSettings {
	return CompositionSettings{
		RadiusPercent:   60,
		OverlapPercent:  30,
		MapOrder:        StarFirst,
		BorderWidth:     3,
		BorderColor:     "#000000",
		BackgroundColor: "#FFFFFF",
		LineHeight:      40,
		TextMargin:      Float(20),
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// WithDefaults fills zero-valued fields from DefaultCompositionSettings.
// OverlapPercent, BorderWidth and a set TextMargin keep an explicit zero.
func (s CompositionSettings) WithDefaults() CompositionSettings {
	d := DefaultCompositionSettings()
	if s.RadiusPercent == 0 {
		s.RadiusPercent = d.RadiusPercent
	}
	if s.MapOrder == "" {
		s.MapOrder = d.MapOrder
	}
	if s.BorderColor == "" {
		s.BorderColor = d.BorderColor
	}
	if s.BackgroundColor == "" {
		s.BackgroundColor = d.BackgroundColor
	}
	if s.LineHeight == 0 {
		s.LineHeight = d.LineHeight
	}
	if s.TextMargin == nil || *s.TextMargin < 0 {
		s.TextMargin = d.TextMargin
	}
	return s
}
