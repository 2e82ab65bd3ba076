// Package label measures and places node label text.
package label

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/matzehuels/diagramkit/pkg/fonts"
	"github.com/matzehuels/diagramkit/pkg/geom"
	"github.com/matzehuels/diagramkit/pkg/render/surface"
)

var lineBreak = regexp.MustCompile(`(?i)<br\s*/?>|\n`)

var (
	facesMu sync.Mutex
	faces   = map[float64]*fonts.Face{}
)

func face(size float64) (*fonts.Face, error) {
	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[size]; ok {
		return f, nil
	}
	f, err := fonts.NewFace(size)
	if err != nil {
		return nil, err
	}
	faces[size] = f
	return f, nil
}

// Lines splits text on newlines and <br> tags.
func Lines(text string) []string {
	return lineBreak.Split(text, -1)
}

// Measure returns the size of text set at fontSize pixels. The returned
// rectangle has its top-left corner at the origin.
func Measure(text string, fontSize float64) (geom.Rect, error) {
	if fontSize <= 0 {
		fontSize = fonts.DefaultSize
	}
	f, err := face(fontSize)
	if err != nil {
		return geom.Rect{}, fmt.Errorf("measure label: %w", err)
	}
	if text == "" {
		return geom.Rect{}, nil
	}

	lines := Lines(text)
	var w float64
	for _, l := range lines {
		w = math.Max(w, f.Advance(l))
	}
	h := float64(len(lines)) * f.LineHeight()
	return geom.Rect{X: w / 2, Y: h / 2, Width: w, Height: h}, nil
}

// Input describes the label of one node.
type Input struct {
	ID       string  // Group id attribute
	Text     string  // Label text; newlines and <br> split lines
	Classes  string  // Class attribute of the node group
	Style    string  // Inline style for the label group
	FontSize float64 // Zero uses fonts.DefaultSize
}

// Result is returned by [Helper].
type Result struct {
	Group *surface.Element // Node group appended to the parent
	BBox  geom.Rect        // Measured label size
	Label *surface.Element // Label group, positioned by the caller
}

// Helper creates the node group under parent, measures the label and adds
// the label group to the node group.
func Helper(parent *surface.Element, in Input) (Result, error) {
	bbox, err := Measure(in.Text, in.FontSize)
	if err != nil {
		return Result{}, err
	}

	group := parent.Append(surface.Group()).Attr("class", in.Classes)
	if in.ID != "" {
		group.Attr("id", in.ID)
	}

	lbl := group.Append(surface.Group()).Attr("class", "label")
	if in.Style != "" {
		lbl.Attr("style", in.Style)
	}

	size := in.FontSize
	if size <= 0 {
		size = fonts.DefaultSize
	}
	lines := Lines(in.Text)
	lineHeight := bbox.Height / float64(len(lines))
	for i, l := range lines {
		lbl.Append(surface.Text(l)).
			Attr("transform", fmt.Sprintf("translate(0, %s)", num(float64(i)*lineHeight))).
			Attr("dominant-baseline", "text-before-edge").
			Attr("font-family", fonts.FontFamily).
			Attr("font-size", num(size))
	}

	return Result{Group: group, BBox: bbox, Label: lbl}, nil
}

func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
