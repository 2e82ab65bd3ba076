package shapes

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/diagramkit/pkg/render/surface"
)

const (
	// WidthExpansion widens the padded label box so the text clears the
	// rounded cap.
	WidthExpansion = 1.2

	// labelBaselineOffset places the label's bottom edge this fraction of the
	// shape height below center, so the text rests on the bottom edge rather
	// than being centered.
	labelBaselineOffset = 0.5
)

// HalfRoundedRectPath returns path data for a rectangle whose right end is a
// semicircle. The outline runs from the start of the cap along the top edge,
// down the flat left side and back along the bottom; a second subpath draws
// the cap as an arc of the given radius. The path is left open: it never
// contains a closing Z.
func HalfRoundedRectPath(x, y, totalWidth, totalHeight, radius float64) string {
	rw := totalWidth - radius
	rh := totalHeight

	pts := [][2]float64{
		{x + rw, y},
		{x, y},
		{x, y + rh},
		{x + rw, y + rh},
	}
	var b strings.Builder
	for i, p := range pts {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		fmt.Fprintf(&b, "%s,%s", num(p[0]), num(p[1]))
	}
	r := num(rh / 2)
	fmt.Fprintf(&b, " M %s,%s A %s %s 0 0 1 %s %s",
		num(x+rw), num(y), r, r, num(x+rw), num(y+rh))
	return b.String()
}

// HalfRoundedRect draws node as a half-rounded rectangle under parent and
// returns the node group. It updates the node's size and installs the
// matching intersection geometry. The size is measured from the drawn
// outline: w by h for the classic look, the extent of the jittered strokes
// for the hand-drawn one.
func HalfRoundedRect(ctx context.Context, parent *surface.Element, node *Node) (*surface.Element, error) {
	res, err := labelFor(parent, node)
	if err != nil {
		return nil, err
	}
	bbox := res.BBox

	w := (bbox.Width + node.Padding) * WidthExpansion
	h := bbox.Height + node.Padding
	radius := h / 2

	d := HalfRoundedRectPath(0, 0, w, h, radius)
	shape, err := drawOutline(res.Group, node, d)
	if err != nil {
		return nil, err
	}
	shape.Attr("transform", fmt.Sprintf("translate(%s, %s)", num(-w/2), num(-h/2)))

	if err := updateNodeBounds(node, shape); err != nil {
		return nil, err
	}

	labelY := labelBaselineOffset*h - bbox.Height
	res.Label.Attr("transform", fmt.Sprintf("translate(%s, %s)", num(-bbox.Width/2), num(labelY)))

	node.Geometry = Geometry{Kind: KindHalfRoundedRect, Radius: radius}

	Logger(ctx).Debug("Drew half-rounded rect", "node", node.ID, "width", w, "height", h, "radius", radius)
	return res.Group, nil
}
