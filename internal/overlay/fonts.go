package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/opentype"
)

// DefaultFamily is used for unknown or empty family names.
const DefaultFamily = "Go"

// family holds up to four variants; missing ones fall back to regular.
type family struct {
	regular    *opentype.Font
	bold       *opentype.Font
	italic     *opentype.Font
	boldItalic *opentype.Font
}

func (f *family) variant(bold, italic bool) *opentype.Font {
	switch {
	case bold && italic && f.boldItalic != nil:
		return f.boldItalic
	case bold && f.bold != nil:
		return f.bold
	case italic && f.italic != nil:
		return f.italic
	}
	return f.regular
}

// FontBook resolves family names to parsed fonts. Faces are created per call
// because a font.Face is not safe for concurrent use.
type FontBook struct {
	mu       sync.RWMutex
	families map[string]*family
}

// NewFontBook loads the built-in Go font families.
func NewFontBook() (*FontBook, error) {
	fb := &FontBook{
		families: make(map[string]*family),
	}

	builtin := []struct {
		name                            string
		regular, bold, italic, boldItal []byte
	}{
		{"Go", goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF},
		{"Go Mono", gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF},
		{"Go Medium", gomedium.TTF, nil, gomediumitalic.TTF, nil},
		{"Go Smallcaps", gosmallcaps.TTF, nil, nil, nil},
	}
	for _, b := range builtin {
		fam := &family{}
		var err error
		if fam.regular, err = parseOptional(b.regular); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", b.name, err)
		}
		if fam.bold, err = parseOptional(b.bold); err != nil {
			return nil, fmt.Errorf("parsing %s bold: %w", b.name, err)
		}
		if fam.italic, err = parseOptional(b.italic); err != nil {
			return nil, fmt.Errorf("parsing %s italic: %w", b.name, err)
		}
		if fam.boldItalic, err = parseOptional(b.boldItal); err != nil {
			return nil, fmt.Errorf("parsing %s bold italic: %w", b.name, err)
		}
		fb.families[strings.ToLower(b.name)] = fam
	}

	return fb, nil
}

func parseOptional(ttf []byte) (*opentype.Font, error) {
	if ttf == nil {
		return nil, nil
	}
	return opentype.Parse(ttf)
}

// LoadDir registers every .ttf/.otf file in dir as a family named after the
// file. Files named "<family>-Bold", "-Italic" or "-BoldItalic" become variants.
func (fb *FontBook) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading fonts directory: %w", err)
	}

	loaded := 0
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".ttf" && ext != ".otf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return loaded, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return loaded, fmt.Errorf("parsing %s: %w", e.Name(), err)
		}

		name, bold, italic := splitVariant(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		fb.mu.Lock()
		fam, ok := fb.families[name]
		if !ok {
			fam = &family{}
			fb.families[name] = fam
		}
		switch {
		case bold && italic:
			fam.boldItalic = f
		case bold:
			fam.bold = f
		case italic:
			fam.italic = f
		default:
			fam.regular = f
		}
		if fam.regular == nil {
			fam.regular = f
		}
		fb.mu.Unlock()
		loaded++
	}
	return loaded, nil
}

func splitVariant(base string) (name string, bold, italic bool) {
	lower := strings.ToLower(base)
	for _, v := range []struct {
		suffix       string
		bold, italic bool
	}{
		{"-bolditalic", true, true},
		{"-bold", true, false},
		{"-italic", false, true},
		{"-regular", false, false},
	} {
		if strings.HasSuffix(lower, v.suffix) {
			return strings.TrimSuffix(lower, v.suffix), v.bold, v.italic
		}
	}
	return lower, false, false
}

// Families lists the registered family names.
func (fb *FontBook) Families() []string {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	names := make([]string, 0, len(fb.families))
	for n := range fb.families {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Face returns a new face for the style. Unknown families use DefaultFamily.
func (fb *FontBook) Face(familyName string, size float64, bold, italic bool) (font.Face, error) {
	if size <= 0 {
		size = DefaultFontSize
	}
	name := strings.ToLower(strings.TrimSpace(familyName))

	fb.mu.RLock()
	fam, ok := fb.families[name]
	if !ok {
		name = strings.ToLower(DefaultFamily)
		fam = fb.families[name]
	}
	f := fam.variant(bold, italic)
	fb.mu.RUnlock()

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating face %s %.1f: %w", name, size, err)
	}
	return face, nil
}
