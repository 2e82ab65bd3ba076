package shapes

import (
	"strconv"
	"strings"

	"github.com/matzehuels/diagramkit/pkg/render/rough"
)

// Theme holds the colors used when a node does not style itself.
type Theme struct {
	MainBkg    string // Node fill
	NodeBorder string // Node stroke
}

// DefaultTheme matches the classic light diagram palette.
var DefaultTheme = Theme{
	MainBkg:    "#ECECFF",
	NodeBorder: "#9370DB",
}

const (
	handDrawnRoughness   = 0.7
	handDrawnStrokeWidth = 1.3
)

var labelStyleKeys = map[string]bool{
	"color":          true,
	"line-height":    true,
	"letter-spacing": true,
	"word-spacing":   true,
	"white-space":    true,
	"word-wrap":      true,
	"word-break":     true,
	"overflow-wrap":  true,
	"hyphens":        true,
}

func isLabelStyle(key string) bool {
	return labelStyleKeys[key] || strings.HasPrefix(key, "font-") || strings.HasPrefix(key, "text-")
}

type declaration struct {
	key, value string
}

// compileStyles merges class-derived styles with the node's own styles. Later
// declarations of the same property replace earlier ones but keep the
// position of the first.
func compileStyles(n *Node) []declaration {
	var out []declaration
	index := map[string]int{}
	add := func(raw string) {
		for _, part := range strings.Split(raw, ";") {
			key, value, ok := strings.Cut(part, ":")
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				continue
			}
			value = strings.TrimSpace(value)
			if i, seen := index[key]; seen {
				out[i].value = value
				continue
			}
			index[key] = len(out)
			out = append(out, declaration{key, value})
		}
	}
	for _, s := range n.CSSCompiledStyles {
		add(s)
	}
	for _, s := range n.CSSStyles {
		add(s)
	}
	return out
}

func stylesMap(n *Node) map[string]string {
	m := map[string]string{}
	for _, d := range compileStyles(n) {
		m[d.key] = d.value
	}
	return m
}

// SplitStyles partitions the node's compiled styles into declarations for
// the label (text properties) and for the outline. Every declaration is
// marked !important so it beats the stylesheet.
func SplitStyles(n *Node) (labelStyles, nodeStyles string) {
	var label, node []string
	for _, d := range compileStyles(n) {
		decl := d.key + ":" + d.value + " !important"
		if isLabelStyle(d.key) {
			label = append(label, decl)
		} else {
			node = append(node, decl)
		}
	}
	return strings.Join(label, ";"), strings.Join(node, ";")
}

// NodeOverrides returns the drawing options for n: fill, stroke and stroke
// width from the node's styles, theme colors otherwise.
func NodeOverrides(n *Node, theme Theme) rough.Options {
	m := stylesMap(n)
	opts := rough.Options{
		Roughness:   handDrawnRoughness,
		Bowing:      1,
		FillStyle:   rough.FillHachure,
		Fill:        theme.MainBkg,
		Stroke:      theme.NodeBorder,
		StrokeWidth: handDrawnStrokeWidth,
		Seed:        n.HandDrawnSeed,
	}
	if v := m["fill"]; v != "" {
		opts.Fill = v
	}
	if v := m["stroke"]; v != "" {
		opts.Stroke = v
	}
	if v := m["stroke-width"]; v != "" {
		if w, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil {
			opts.StrokeWidth = w
		}
	}
	return opts
}

// NodeClasses returns the class attribute for the node group.
func NodeClasses(n *Node, extra string) string {
	base := "node"
	if n.Look == LookHandDrawn {
		base = "rough-node"
	}
	return strings.Join(strings.Fields(base+" "+n.CSSClasses+" "+extra), " ")
}
