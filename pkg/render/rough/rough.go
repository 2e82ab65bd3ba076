package rough

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/diagramkit/pkg/geom"
	"github.com/matzehuels/diagramkit/pkg/render/surface"
)

// FillStyle controls how closed shapes are filled.
type FillStyle string

const (
	FillHachure FillStyle = "hachure" // Sketchy parallel strokes
	FillSolid   FillStyle = "solid"   // Plain fill
)

const (
	hachureAngle = -41.0 // degrees, the classic sketch hatch direction
	hachureGap   = 4.0   // multiples of the stroke width
	minGap       = 1.0   // pixels between hatch lines, whatever the stroke width
	maxHatches   = 512   // scanlines per shape; wider gaps beyond that
	maxWobble    = 1.5   // pixel offset per unit of roughness
)

// Options configures a drawing call.
type Options struct {
	Roughness   float64   // 0 draws the path verbatim
	Bowing      float64   // Extra wobble applied to the second stroke pass
	FillStyle   FillStyle // Defaults to hachure
	Fill        string    // Fill color; empty means no fill
	Stroke      string    // Stroke color
	StrokeWidth float64
	Seed        int64 // Zero picks a fixed seed so output stays deterministic
}

// DefaultOptions returns the hand-drawn defaults.
func DefaultOptions() Options {
	return Options{
		Roughness:   1,
		Bowing:      1,
		FillStyle:   FillHachure,
		Stroke:      "#000",
		StrokeWidth: 1,
	}
}

// Generator turns path data into sketchy (or clean) SVG groups.
type Generator struct {
	defaults Options
}

// New creates a generator whose zero-valued option fields fall back to
// defaults.
func New(defaults Options) *Generator {
	return &Generator{defaults: defaults}
}

// Path draws d and returns a <g> holding the fill and stroke paths.
func (g *Generator) Path(d string, opts Options) (*surface.Element, error) {
	opts = g.merge(opts)
	segs, err := ParsePath(d)
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}

	group := surface.Group()
	r := newRNG(opts.Seed)

	if opts.Fill != "" && opts.Fill != "none" {
		group.Append(g.fill(d, segs, opts, r))
	}

	strokeD := d
	if opts.Roughness > 0 {
		strokeD = FormatPath(jitter(segs, opts.Roughness, r)) + " " +
			FormatPath(jitter(segs, opts.Roughness*(1+opts.Bowing/2), r))
	}
	group.Append(surface.Path(strokeD)).
		Attr("stroke", opts.Stroke).
		Attr("stroke-width", formatNum(opts.StrokeWidth)).
		Attr("fill", "none")

	return group, nil
}

func (g *Generator) merge(opts Options) Options {
	d := g.defaults
	if opts.FillStyle == "" {
		opts.FillStyle = d.FillStyle
	}
	if opts.Stroke == "" {
		opts.Stroke = d.Stroke
	}
	if opts.StrokeWidth == 0 {
		opts.StrokeWidth = d.StrokeWidth
	}
	if opts.Fill == "" {
		opts.Fill = d.Fill
	}
	if opts.Seed == 0 {
		opts.Seed = d.Seed
	}
	if opts.Roughness < 0 {
		opts.Roughness = 0
	}
	return opts
}

func (g *Generator) fill(d string, segs []Segment, opts Options, r *rng) *surface.Element {
	if opts.FillStyle != FillHachure {
		return surface.Path(d).
			Attr("stroke", "none").
			Attr("fill", opts.Fill)
	}
	lines := hachure(flatten(segs), opts.StrokeWidth*hachureGap, hachureAngle)
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte(' ')
		}
		a, z := l[0], l[1]
		if opts.Roughness > 0 {
			w := opts.Roughness * maxWobble / 2
			a.X, a.Y = a.X+r.offset(w), a.Y+r.offset(w)
			z.X, z.Y = z.X+r.offset(w), z.Y+r.offset(w)
		}
		fmt.Fprintf(&b, "M %s %s L %s %s", fmtCoord(a.X), fmtCoord(a.Y), fmtCoord(z.X), fmtCoord(z.Y))
	}
	return surface.Path(b.String()).
		Attr("stroke", opts.Fill).
		Attr("stroke-width", formatNum(opts.StrokeWidth)).
		Attr("fill", "none")
}

// jitter returns a copy of segs with every coordinate nudged by up to
// roughness*maxWobble pixels. Arc radii and flags are left untouched.
func jitter(segs []Segment, roughness float64, r *rng) []Segment {
	span := roughness * maxWobble
	out := make([]Segment, len(segs))
	for i, s := range segs {
		args := append([]float64(nil), s.Args...)
		switch s.Cmd {
		case 'A':
			args[5] += r.offset(span)
			args[6] += r.offset(span)
		case 'H', 'V':
			args[0] += r.offset(span)
		default:
			for j := range args {
				args[j] += r.offset(span)
			}
		}
		out[i] = Segment{Cmd: s.Cmd, Args: args}
	}
	return out
}

// hachure computes parallel fill strokes for the polygon pts. Lines are
// spaced gap apart at angle degrees.
func hachure(pts []geom.Point, gap, angle float64) [][2]geom.Point {
	if len(pts) < 3 || gap <= 0 {
		return nil
	}
	rad := angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	rotate := func(p geom.Point, c, s float64) geom.Point {
		return geom.Point{X: p.X*c - p.Y*s, Y: p.X*s + p.Y*c}
	}

	// Rotate the polygon so hatch lines become horizontal scanlines.
	rot := make([]geom.Point, len(pts))
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, p := range pts {
		rot[i] = rotate(p, cos, -sin)
		minY = math.Min(minY, rot[i].Y)
		maxY = math.Max(maxY, rot[i].Y)
	}

	span := maxY - minY
	if math.IsNaN(span) || math.IsInf(span, 0) {
		return nil
	}
	gap = math.Max(gap, minGap)
	if span/gap > maxHatches {
		gap = span / maxHatches
	}

	var lines [][2]geom.Point
	for y := minY + gap/2; y < maxY; y += gap {
		var xs []float64
		for i := range rot {
			a, b := rot[i], rot[(i+1)%len(rot)]
			if (a.Y <= y && b.Y > y) || (b.Y <= y && a.Y > y) {
				xs = append(xs, a.X+(y-a.Y)*(b.X-a.X)/(b.Y-a.Y))
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			lines = append(lines, [2]geom.Point{
				rotate(geom.Point{X: xs[i], Y: y}, cos, sin),
				rotate(geom.Point{X: xs[i+1], Y: y}, cos, sin),
			})
		}
	}
	return lines
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
