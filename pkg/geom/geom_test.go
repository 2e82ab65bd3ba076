package geom

import (
	"math"
	"testing"
)

func TestIntersectRect(t *testing.T) {
	box := Rect{X: 0, Y: 0, Width: 100, Height: 40}

	tests := []struct {
		name  string
		point Point
		want  Point
	}{
		{"right", Point{X: 200, Y: 0}, Point{X: 50, Y: 0}},
		{"left", Point{X: -200, Y: 0}, Point{X: -50, Y: 0}},
		{"top", Point{X: 0, Y: -100}, Point{X: 0, Y: -20}},
		{"bottom", Point{X: 0, Y: 100}, Point{X: 0, Y: 20}},
		{"diagonal hits side", Point{X: 100, Y: 10}, Point{X: 50, Y: 5}},
		{"diagonal hits top", Point{X: 10, Y: -100}, Point{X: 2, Y: -20}},
		{"center", Point{X: 0, Y: 0}, Point{X: 50, Y: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IntersectRect(box, tt.point)
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
				t.Errorf("IntersectRect(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}

func TestIntersectRectOffsetCenter(t *testing.T) {
	box := Rect{X: 100, Y: 50, Width: 20, Height: 20}
	got := IntersectRect(box, Point{X: 300, Y: 50})
	if got != (Point{X: 110, Y: 50}) {
		t.Errorf("IntersectRect() = %v, want {110 50}", got)
	}
}

func TestRectCorners(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 8, Height: 4}
	if got := r.Min(); got != (Point{X: 6, Y: 18}) {
		t.Errorf("Min() = %v", got)
	}
	if got := r.Max(); got != (Point{X: 14, Y: 22}) {
		t.Errorf("Max() = %v", got)
	}
	if got := r.Center(); got != (Point{X: 10, Y: 20}) {
		t.Errorf("Center() = %v", got)
	}
}
