package shapes

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/diagramkit/pkg/geom"
)

// Look selects the drawing style of a node.
type Look string

const (
	LookClassic   Look = "classic"   // Clean strokes and solid fill
	LookHandDrawn Look = "handDrawn" // Sketchy strokes and hachure fill
)

// Node is a diagram element as seen by the shape renderers. Renderers read the
// label and style fields and write back Width, Height and Geometry.
type Node struct {
	ID    string `json:"id"`
	DomID string `json:"domId,omitempty"`
	Label string `json:"label"`

	X       float64 `json:"x"` // Center, assigned by layout
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding float64 `json:"padding"`

	CSSCompiledStyles []string `json:"cssCompiledStyles,omitempty"` // From classDef
	CSSStyles         []string `json:"cssStyles,omitempty"`         // From the node itself
	CSSClasses        string   `json:"cssClasses,omitempty"`
	LabelStyle        string   `json:"labelStyle,omitempty"`

	Look          Look  `json:"look,omitempty"`
	HandDrawnSeed int64 `json:"handDrawnSeed,omitempty"`

	Geometry Geometry `json:"-"`
}

// Bounds returns the node's center-anchored box.
func (n *Node) Bounds() geom.Rect {
	return geom.Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

// Intersect returns where a line from the node center towards p leaves the
// node outline.
func (n *Node) Intersect(p geom.Point) geom.Point {
	return n.Geometry.Intersect(n.Bounds(), p)
}

// Kind identifies a node outline.
type Kind int

const (
	KindRect Kind = iota
	KindHalfRoundedRect
)

var kindNames = map[Kind]string{
	KindRect:            "rect",
	KindHalfRoundedRect: "half-rounded-rect",
}

// Aliases accepted by ParseKind.
var kindAliases = map[string]Kind{
	"rect":                   KindRect,
	"rectangle":              KindRect,
	"half-rounded-rect":      KindHalfRoundedRect,
	"half-rounded-rectangle": KindHalfRoundedRect,
	"delay":                  KindHalfRoundedRect,
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kinds returns the canonical names of all shape kinds.
func Kinds() []string {
	return []string{KindRect.String(), KindHalfRoundedRect.String()}
}

// ParseKind resolves a shape name or alias.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown shape %q", s)
}

// Geometry is the intersection capability installed on a node by its
// renderer. The zero value behaves as a plain rectangle.
type Geometry struct {
	Kind   Kind
	Radius float64 // Cap radius for KindHalfRoundedRect
}

// Intersect returns where a line from the center of box towards p crosses
// the outline described by g.
func (g Geometry) Intersect(box geom.Rect, p geom.Point) geom.Point {
	pos := geom.IntersectRect(box, p)
	if g.Kind != KindHalfRoundedRect {
		return pos
	}

	rx, ry := g.Radius, g.Radius
	y := pos.Y - box.Y
	inCap := math.Abs(y) < box.Height/2 ||
		(math.Abs(y) == box.Height/2 && math.Abs(pos.X-box.X) > box.Width/2-rx)
	if ry == 0 || !inCap {
		return pos
	}

	x := rx * rx * (1 - (y*y)/(ry*ry))
	if x != 0 {
		x = math.Sqrt(math.Abs(x))
	}
	x = rx - x
	if p.X-box.X > 0 {
		x = -x
	}
	pos.X += x
	return pos
}
