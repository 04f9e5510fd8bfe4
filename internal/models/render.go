package models

import "fmt"

// View is one of the render entry points exposed to the page.
type View string

const (
	ViewStarMap           View = "star-map"
	ViewStreetMap         View = "street-map"
	ViewCanvasLayout      View = "canvas-layout"
	ViewCombinedLandscape View = "combined-landscape"
	ViewCombinedPortrait  View = "combined-portrait"
)

// ParseView validates a view name from a URL or message.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewStarMap, ViewStreetMap, ViewCanvasLayout, ViewCombinedLandscape, ViewCombinedPortrait:
		return v, nil
	}
	return "", fmt.Errorf("unknown view: %q", s)
}

// Combined reports whether the view shows two circles.
func (v View) Combined() bool {
	return v == ViewCombinedLandscape || v == ViewCombinedPortrait
}

// HasText reports whether the view draws text overlays.
func (v View) HasText() bool {
	return v == ViewCanvasLayout || v.Combined()
}

// NeedsStarMap reports whether the view draws the star map.
func (v View) NeedsStarMap() bool {
	return v != ViewStreetMap
}

// NeedsStreetMap reports whether the view draws the street map.
func (v View) NeedsStreetMap() bool {
	return v == ViewStreetMap || v.Combined()
}

// DateText configures the generated date line.
type DateText struct {
	Show     bool         `json:"show"`
	ShowTime bool         `json:"showTime"`
	Order    int          `json:"order"`
	Position TextPosition `json:"position"`
	Style    TextStyle    `json:"style"`
}

// CoordinatesText configures the generated coordinates line.
type CoordinatesText struct {
	Show     bool         `json:"show"`
	Order    int          `json:"order"`
	Position TextPosition `json:"position"`
	Style    TextStyle    `json:"style"`
}

// CustomText is a caption typed into the form.
type CustomText struct {
	Content  string       `json:"content"`
	Order    int          `json:"order"`
	Position TextPosition `json:"position"`
	Style    TextStyle    `json:"style"`
}

// RenderRequest carries the form state for one render pass.
type RenderRequest struct {
	Occasion    string              `json:"occasion,omitempty"`
	Canvas      CanvasSpec          `json:"canvas"`
	Paper       string              `json:"paper,omitempty"`
	DPI         int                 `json:"dpi,omitempty"`
	Orientation Orientation         `json:"orientation,omitempty"`
	Latitude    string              `json:"latitude"`
	Longitude   string              `json:"longitude"`
	Date        string              `json:"date"`
	Time        string              `json:"time,omitempty"`
	StarStyle   string              `json:"starStyle,omitempty"`
	StreetZoom  int                 `json:"streetZoom,omitempty"`
	Settings    CompositionSettings `json:"settings"`
	Texts       []CustomText        `json:"texts,omitempty"`
	DateText    DateText            `json:"dateText"`
	CoordText   CoordinatesText     `json:"coordinatesText"`
}

// ImageWarning records imagery that fell back to a flat fill.
type ImageWarning struct {
	Source  string `json:"source" msgpack:"source"`
	Message string `json:"message" msgpack:"message"`
}

// RenderResult describes a committed composition.
type RenderResult struct {
	Generation uint64          `json:"generation" msgpack:"generation"`
	View       View            `json:"view" msgpack:"view"`
	Canvas     CanvasSpec      `json:"canvas" msgpack:"canvas"`
	Circles    []CircleLayout  `json:"circles" msgpack:"circles"`
	Texts      []TextPlacement `json:"texts" msgpack:"texts"`
	Warnings   []ImageWarning  `json:"warnings,omitempty" msgpack:"warnings"`
	DurationMs int64           `json:"durationMs" msgpack:"durationMs"`
}
