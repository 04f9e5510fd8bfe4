package models

import "errors"

// ErrInvalidTextPosition is returned for a text entry that is neither above nor below.
var ErrInvalidTextPosition = errors.New("invalid text position")

// TextPosition places a text entry above or below the circle region.
type TextPosition string

const (
	PositionAbove TextPosition = "above"
	PositionBelow TextPosition = "below"
)

// Valid reports whether p is one of the known positions.
func (p TextPosition) Valid() bool {
	return p == PositionAbove || p == PositionBelow
}

// TextKind identifies where a text entry's content comes from.
type TextKind string

const (
	KindCustom      TextKind = "custom"
	KindDate        TextKind = "date"
	KindCoordinates TextKind = "coordinates"
)

// TextStyle describes how a text entry is drawn.
type TextStyle struct {
	FontFamily string  `json:"fontFamily" yaml:"font_family" msgpack:"fontFamily"`
	FontSize   float64 `json:"fontSize" yaml:"font_size" msgpack:"fontSize"`
	Color      string  `json:"color" yaml:"color" msgpack:"color"`
	Bold       bool    `json:"bold" yaml:"bold" msgpack:"bold"`
	Italic     bool    `json:"italic" yaml:"italic" msgpack:"italic"`
}

// TextEntry is one line of overlay text. Order defines stacking within its
// position group: lower orders sit closer to the circle.
type TextEntry struct {
	Content  string       `json:"content" msgpack:"content"`
	Order    int          `json:"order" msgpack:"order"`
	Position TextPosition `json:"position" msgpack:"position"`
	Kind     TextKind     `json:"kind" msgpack:"kind"`
	Style    TextStyle    `json:"style" msgpack:"style"`
}

// TextPlacement is a laid-out text entry with its baseline anchor.
type TextPlacement struct {
	Entry TextEntry `json:"entry" msgpack:"entry"`
	X     float64   `json:"x" msgpack:"x"`
	Y     float64   `json:"y" msgpack:"y"`
}
