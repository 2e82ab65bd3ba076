// Package fonts provides embedded font faces for measuring label text.
//
// Labels are laid out before any browser sees the SVG, so the renderer needs
// real glyph metrics. The Go fonts ship inside golang.org/x/image, which keeps
// the binary self-contained.
package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FontFamily is the CSS font-family emitted for labels.
const FontFamily = `"trebuchet ms", verdana, arial, sans-serif`

// DefaultSize is the label font size in pixels.
const DefaultSize = 16.0

var (
	regular     *opentype.Font
	regularErr  error
	regularOnce sync.Once
)

func parsed() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = opentype.Parse(goregular.TTF)
	})
	return regular, regularErr
}

// Face is a sized font face safe for concurrent use.
type Face struct {
	mu   sync.Mutex
	face font.Face
	size float64
}

// NewFace returns the embedded regular face at size pixels.
func NewFace(size float64) (*Face, error) {
	if size <= 0 {
		size = DefaultSize
	}
	f, err := parsed()
	if err != nil {
		return nil, fmt.Errorf("parse embedded font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	return &Face{face: face, size: size}, nil
}

// Size returns the face size in pixels.
func (f *Face) Size() float64 { return f.size }

// Advance returns the horizontal advance of s in pixels.
func (f *Face) Advance(s string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return toFloat(font.MeasureString(f.face, s))
}

// LineHeight returns ascent plus descent in pixels.
func (f *Face) LineHeight() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.face.Metrics()
	return toFloat(m.Ascent + m.Descent)
}

// Close releases the underlying face.
func (f *Face) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.face.Close()
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
