package shapes

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/diagramkit/pkg/render/label"
	"github.com/matzehuels/diagramkit/pkg/render/rough"
	"github.com/matzehuels/diagramkit/pkg/render/surface"
)

// documentMargin is the blank border around a standalone node document.
const documentMargin = 8

var generator = rough.New(rough.DefaultOptions())

// Renderer draws one node kind.
type Renderer func(ctx context.Context, parent *surface.Element, node *Node) (*surface.Element, error)

var renderers = map[Kind]Renderer{
	KindRect:            Rect,
	KindHalfRoundedRect: HalfRoundedRect,
}

// Draw renders node as kind under parent.
func Draw(ctx context.Context, parent *surface.Element, node *Node, kind Kind) (*surface.Element, error) {
	r, ok := renderers[kind]
	if !ok {
		return nil, fmt.Errorf("no renderer for %s", kind)
	}
	return r(ctx, parent, node)
}

// Rect draws node as a plain rectangle.
func Rect(ctx context.Context, parent *surface.Element, node *Node) (*surface.Element, error) {
	res, err := labelFor(parent, node)
	if err != nil {
		return nil, err
	}
	w := res.BBox.Width + node.Padding
	h := res.BBox.Height + node.Padding

	d := fmt.Sprintf("M0,0 L%s,0 L%s,%s L0,%s Z", num(w), num(w), num(h), num(h))
	shape, err := drawOutline(res.Group, node, d)
	if err != nil {
		return nil, err
	}
	shape.Attr("transform", fmt.Sprintf("translate(%s, %s)", num(-w/2), num(-h/2)))
	if err := updateNodeBounds(node, shape); err != nil {
		return nil, err
	}
	res.Label.Attr("transform", fmt.Sprintf("translate(%s, %s)", num(-res.BBox.Width/2), num(-res.BBox.Height/2)))
	node.Geometry = Geometry{Kind: KindRect}

	Logger(ctx).Debug("Drew rect", "node", node.ID, "width", w, "height", h)
	return res.Group, nil
}

// Document wraps a rendered node group into a standalone SVG document sized
// to the node.
func Document(node *Node, group *surface.Element) surface.Document {
	root := surface.Group()
	root.Append(group)
	return surface.Document{
		Width:  node.Width + 2*documentMargin,
		Height: node.Height + 2*documentMargin,
		MinX:   -node.Width/2 - documentMargin,
		MinY:   -node.Height/2 - documentMargin,
		Title:  node.Label,
		Root:   root,
	}
}

// RenderNode draws node as kind and returns a standalone SVG document.
func RenderNode(ctx context.Context, node *Node, kind Kind) ([]byte, error) {
	parent := surface.Group()
	group, err := Draw(ctx, parent, node, kind)
	if err != nil {
		return nil, err
	}
	return surface.Bytes(Document(node, group))
}

func labelFor(parent *surface.Element, node *Node) (label.Result, error) {
	labelStyles, _ := SplitStyles(node)
	style := joinStyles(node.LabelStyle, labelStyles)

	id := node.DomID
	if id == "" {
		id = node.ID
	}
	res, err := label.Helper(parent, label.Input{
		ID:      id,
		Text:    node.Label,
		Classes: NodeClasses(node, ""),
		Style:   style,
	})
	if err != nil {
		return label.Result{}, fmt.Errorf("label node %q: %w", node.ID, err)
	}
	return res, nil
}

// drawOutline draws d with the node's options and inserts it as the first
// child of group, below the label. Node styles are applied after the
// node's raw CSS styles, so they win.
func drawOutline(group *surface.Element, node *Node, d string) (*surface.Element, error) {
	opts := NodeOverrides(node, DefaultTheme)
	if node.Look != LookHandDrawn {
		opts.Roughness = 0
		opts.FillStyle = rough.FillSolid
	}
	shape, err := generator.Path(d, opts)
	if err != nil {
		return nil, fmt.Errorf("draw node %q: %w", node.ID, err)
	}
	group.Insert(shape)
	shape.Attr("class", "basic label-container")

	if len(node.CSSStyles) > 0 {
		shape.Attr("style", strings.Join(node.CSSStyles, ";"))
	}
	if _, nodeStyles := SplitStyles(node); nodeStyles != "" {
		shape.Attr("style", nodeStyles)
	}
	return shape, nil
}

// updateNodeBounds sizes node from the paths drawn into shape, so a
// hand-drawn outline reports the extent of its jittered strokes.
func updateNodeBounds(node *Node, shape *surface.Element) error {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	var walk func(e *surface.Element) error
	walk = func(e *surface.Element) error {
		if d, ok := e.Get("d"); ok && e.Name == "path" {
			segs, err := rough.ParsePath(d)
			if err != nil {
				return err
			}
			if len(segs) > 0 {
				b := rough.Bounds(segs)
				lo, hi := b.Min(), b.Max()
				minX, minY = math.Min(minX, lo.X), math.Min(minY, lo.Y)
				maxX, maxY = math.Max(maxX, hi.X), math.Max(maxY, hi.Y)
			}
		}
		for _, c := range e.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(shape); err != nil {
		return fmt.Errorf("measure node %q: %w", node.ID, err)
	}
	if math.IsInf(minX, 1) {
		node.Width, node.Height = 0, 0
		return nil
	}
	node.Width, node.Height = maxX-minX, maxY-minY
	return nil
}

func joinStyles(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ";")
}

func num(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
