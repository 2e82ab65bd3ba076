// Package geom provides the small amount of planar geometry shared by the
// shape renderers: points, center-anchored boxes and the axis-aligned
// rectangle intersection used as the baseline for every node outline.
package geom

import "math"

// Point is a position in diagram coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a box anchored at its center (X, Y), which is how diagram nodes are
// positioned. Use [Rect.Min] for the top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Min returns the top-left corner of the box.
func (r Rect) Min() Point { return Point{X: r.X - r.Width/2, Y: r.Y - r.Height/2} }

// Max returns the bottom-right corner of the box.
func (r Rect) Max() Point { return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2} }

// Center returns the anchor point.
func (r Rect) Center() Point { return Point{X: r.X, Y: r.Y} }

// IntersectRect returns the point where a line from the center of r towards p
// crosses the border of r.
//
// A point equal to the center yields the middle of the right edge.
func IntersectRect(r Rect, p Point) Point {
	dx := p.X - r.X
	dy := p.Y - r.Y
	w := r.Width / 2
	h := r.Height / 2

	var sx, sy float64
	if math.Abs(dy)*w > math.Abs(dx)*h {
		if dy < 0 {
			h = -h
		}
		if dy != 0 {
			sx = h * dx / dy
		}
		sy = h
	} else {
		if dx < 0 {
			w = -w
		}
		sx = w
		if dx != 0 {
			sy = w * dy / dx
		}
	}
	return Point{X: r.X + sx, Y: r.Y + sy}
}
