// Package models contains domain types for the Star Map Generator.
package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCanvasSpec is returned when a canvas has a non-positive dimension.
var ErrInvalidCanvasSpec = errors.New("invalid canvas spec")

// Orientation of a canvas, derived from its dimensions.
type Orientation string

const (
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
)

// CanvasSpec is the pixel size of the output canvas.
type CanvasSpec struct {
	Width  int `json:"width" msgpack:"width"`
	Height int `json:"height" msgpack:"height"`
}

// Orientation reports landscape when the canvas is wider than it is tall.
func (c CanvasSpec) Orientation() Orientation {
	if c.Width > c.Height {
		return OrientationLandscape
	}
	return OrientationPortrait
}

// Validate fails with ErrInvalidCanvasSpec when either dimension is not positive.
func (c CanvasSpec) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidCanvasSpec, c.Width, c.Height)
	}
	return nil
}

// MinSide returns the shorter canvas dimension.
func (c CanvasSpec) MinSide() float64 {
	return math.Min(float64(c.Width), float64(c.Height))
}

// CircleLayout places one circular image on the canvas.
type CircleLayout struct {
	CenterX float64 `json:"centerX" msgpack:"centerX"`
	CenterY float64 `json:"centerY" msgpack:"centerY"`
	Radius  float64 `json:"radius" msgpack:"radius"`
}

// Diameter returns twice the radius.
func (l CircleLayout) Diameter() float64 { return l.Radius * 2 }

// Top returns the y coordinate of the circle's highest point.
func (l CircleLayout) Top() float64 { return l.CenterY - l.Radius }

// Bottom returns the y coordinate of the circle's lowest point.
func (l CircleLayout) Bottom() float64 { return l.CenterY + l.Radius }
