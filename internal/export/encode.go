// Package export encodes composed canvases for download and stores them as
// files through async jobs.
package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// ErrUnsupportedFormat is returned for a download format we cannot write.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is a download encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatSVG  Format = "svg"
)

// DefaultJPEGQuality matches what the page offers for JPEG downloads.
const DefaultJPEGQuality = 90

// ParseFormat accepts png, jpg, jpeg and svg, case-insensitively. Empty
// means png.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "svg":
		return FormatSVG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatSVG:
		return "image/svg+xml"
	}
	return "image/png"
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// FileName builds a download name such as "starmap-canvas-layout.png".
func FileName(base string, f Format) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "starmap"
	}
	return base + "." + f.Extension()
}

// Encode writes img to w in format f. quality applies to JPEG only; values
// outside 1..100 use DefaultJPEGQuality.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		if quality < 1 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatSVG:
		return encodeSVG(w, img)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// encodeSVG wraps the bitmap in a minimal SVG document as a PNG data URI.
func encodeSVG(w io.Writer, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encoding embedded png: %w", err)
	}
	b := img.Bounds()

	// svgo drops write errors, so the document is built in memory first.
	var doc bytes.Buffer
	canvas := svg.New(&doc)
	canvas.Start(b.Dx(), b.Dy())
	canvas.Image(0, 0, b.Dx(), b.Dy(), "data:image/png;base64,"+base64.StdEncoding.EncodeToString(buf.Bytes()))
	canvas.End()
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("writing svg: %w", err)
	}
	return nil
}
