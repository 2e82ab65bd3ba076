package rough

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/matzehuels/diagramkit/pkg/geom"
)

// Segment is one absolute path command with its numeric arguments.
type Segment struct {
	Cmd  byte      // Upper-case command letter: M L H V A Q C Z
	Args []float64 // Arguments in SVG order
}

var argCount = map[byte]int{
	'M': 2, 'L': 2, 'H': 1, 'V': 1, 'A': 7, 'Q': 4, 'C': 6, 'Z': 0,
}

// ParsePath splits SVG path data into segments. Relative commands are
// converted to absolute ones and implicit repeats are expanded.
func ParsePath(d string) ([]Segment, error) {
	toks := tokenize(d)
	var (
		segs       []Segment
		cmd        byte
		cur, start geom.Point
	)

	for i := 0; i < len(toks); {
		if isCommand(toks[i]) {
			cmd = toks[i][0]
			i++
		} else if cmd == 0 {
			return nil, fmt.Errorf("path data must start with a command, got %q", toks[i])
		}

		upper := byte(unicode.ToUpper(rune(cmd)))
		n, ok := argCount[upper]
		if !ok {
			return nil, fmt.Errorf("unsupported path command %q", cmd)
		}
		if upper == 'Z' {
			segs = append(segs, Segment{Cmd: 'Z'})
			cur = start
			cmd = 0
			continue
		}
		if i+n > len(toks) {
			return nil, fmt.Errorf("command %q expects %d arguments", cmd, n)
		}

		args := make([]float64, n)
		for j := 0; j < n; j++ {
			v, err := strconv.ParseFloat(toks[i+j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q: %w", toks[i+j], err)
			}
			args[j] = v
		}
		i += n

		if cmd != upper {
			toAbsolute(upper, args, cur)
		}
		segs = append(segs, Segment{Cmd: upper, Args: args})
		cur = endPoint(upper, args, cur)
		if upper == 'M' {
			start = cur
			// Extra coordinate pairs after a moveto are implicit linetos.
			if cmd == 'M' {
				cmd = 'L'
			} else {
				cmd = 'l'
			}
		}
	}
	return segs, nil
}

func toAbsolute(cmd byte, args []float64, cur geom.Point) {
	switch cmd {
	case 'H':
		args[0] += cur.X
	case 'V':
		args[0] += cur.Y
	case 'A':
		args[5] += cur.X
		args[6] += cur.Y
	default:
		for j := 0; j+1 < len(args); j += 2 {
			args[j] += cur.X
			args[j+1] += cur.Y
		}
	}
}

func endPoint(cmd byte, args []float64, cur geom.Point) geom.Point {
	switch cmd {
	case 'H':
		return geom.Point{X: args[0], Y: cur.Y}
	case 'V':
		return geom.Point{X: cur.X, Y: args[0]}
	default:
		return geom.Point{X: args[len(args)-2], Y: args[len(args)-1]}
	}
}

func isCommand(tok string) bool {
	if len(tok) != 1 {
		return false
	}
	_, ok := argCount[byte(unicode.ToUpper(rune(tok[0])))]
	return ok
}

// tokenize splits path data into command letters and numbers. Commas and
// whitespace separate numbers; a sign or a second decimal point also starts a
// new number, as in "10-5" or "0.5.5".
func tokenize(d string) []string {
	var (
		toks   []string
		cur    strings.Builder
		hasDot bool
	)
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
		hasDot = false
	}

	for i := 0; i < len(d); i++ {
		c := d[i]
		switch {
		case c == ',' || c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		case (c == '-' || c == '+') && !(i > 0 && (d[i-1] == 'e' || d[i-1] == 'E')):
			flush()
			cur.WriteByte(c)
		case c == '.':
			if hasDot {
				flush()
			}
			hasDot = true
			cur.WriteByte(c)
		case (c >= '0' && c <= '9') || c == 'e' || c == 'E':
			cur.WriteByte(c)
		default:
			flush()
			toks = append(toks, string(c))
		}
	}
	flush()
	return toks
}

// FormatPath serializes segments back into path data.
func FormatPath(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if s.Cmd == 'Z' {
			parts = append(parts, "Z")
			continue
		}
		nums := make([]string, len(s.Args))
		for i, a := range s.Args {
			nums[i] = formatNum(a)
		}
		parts = append(parts, string(s.Cmd)+" "+strings.Join(nums, " "))
	}
	return strings.Join(parts, " ")
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Bounds returns the bounding box of the path, anchored at its center.
// Arcs and curves are sampled, which is exact for the axis extremes of the
// semicircular caps used by the node shapes.
func Bounds(segs []Segment) geom.Rect {
	pts := flatten(segs)
	if len(pts) == 0 {
		return geom.Rect{}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return geom.Rect{
		X: (minX + maxX) / 2, Y: (minY + maxY) / 2,
		Width: maxX - minX, Height: maxY - minY,
	}
}

// flatten approximates the outline with straight runs between sampled points.
func flatten(segs []Segment) []geom.Point {
	var pts []geom.Point
	var cur geom.Point
	for _, s := range segs {
		switch s.Cmd {
		case 'Z':
			continue
		case 'A':
			pts = append(pts, sampleArc(cur, s.Args, 64)...)
		case 'Q':
			c, end := geom.Point{X: s.Args[0], Y: s.Args[1]}, geom.Point{X: s.Args[2], Y: s.Args[3]}
			pts = append(pts, sampleQuad(cur, c, end, 16)...)
		case 'C':
			c1 := geom.Point{X: s.Args[0], Y: s.Args[1]}
			c2 := geom.Point{X: s.Args[2], Y: s.Args[3]}
			end := geom.Point{X: s.Args[4], Y: s.Args[5]}
			pts = append(pts, sampleCubic(cur, c1, c2, end, 16)...)
		}
		cur = endPoint(s.Cmd, s.Args, cur)
		pts = append(pts, cur)
	}
	return pts
}

// sampleArc converts an endpoint-parameterized arc to center form and returns
// n points along it.
func sampleArc(from geom.Point, a []float64, n int) []geom.Point {
	rx, ry := math.Abs(a[0]), math.Abs(a[1])
	phi := a[2] * math.Pi / 180
	largeArc, sweep := a[3] != 0, a[4] != 0
	to := geom.Point{X: a[5], Y: a[6]}
	if rx == 0 || ry == 0 {
		return []geom.Point{to}
	}

	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)
	dx, dy := (from.X-to.X)/2, (from.Y-to.Y)/2
	x1 := cosPhi*dx + sinPhi*dy
	y1 := -sinPhi*dx + cosPhi*dy

	if lambda := x1*x1/(rx*rx) + y1*y1/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx, ry = rx*s, ry*s
	}

	num := rx*rx*ry*ry - rx*rx*y1*y1 - ry*ry*x1*x1
	den := rx*rx*y1*y1 + ry*ry*x1*x1
	coef := 0.0
	if den != 0 {
		coef = math.Sqrt(math.Max(0, num/den))
	}
	if largeArc == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1 / ry
	cyp := -coef * ry * x1 / rx
	cx := cosPhi*cxp - sinPhi*cyp + (from.X+to.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (from.Y+to.Y)/2

	theta1 := math.Atan2((y1-cyp)/ry, (x1-cxp)/rx)
	theta2 := math.Atan2((-y1-cyp)/ry, (-x1-cxp)/rx)
	delta := theta2 - theta1
	if sweep && delta < 0 {
		delta += 2 * math.Pi
	} else if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	}

	pts := make([]geom.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		t := theta1 + delta*float64(i)/float64(n)
		x := rx * math.Cos(t)
		y := ry * math.Sin(t)
		pts = append(pts, geom.Point{
			X: cosPhi*x - sinPhi*y + cx,
			Y: sinPhi*x + cosPhi*y + cy,
		})
	}
	return pts
}

func sampleQuad(p0, c, p1 geom.Point, n int) []geom.Point {
	pts := make([]geom.Point, 0, n)
	for i := 1; i < n; i++ {
		t := float64(i) / float64(n)
		u := 1 - t
		pts = append(pts, geom.Point{
			X: u*u*p0.X + 2*u*t*c.X + t*t*p1.X,
			Y: u*u*p0.Y + 2*u*t*c.Y + t*t*p1.Y,
		})
	}
	return pts
}

func sampleCubic(p0, c1, c2, p1 geom.Point, n int) []geom.Point {
	pts := make([]geom.Point, 0, n)
	for i := 1; i < n; i++ {
		t := float64(i) / float64(n)
		u := 1 - t
		pts = append(pts, geom.Point{
			X: u*u*u*p0.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*p1.X,
			Y: u*u*u*p0.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*p1.Y,
		})
	}
	return pts
}
