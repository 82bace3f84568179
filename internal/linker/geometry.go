package linker

import (
	"math"
	"strconv"
	"strings"
)

// controlOffset is the fraction of the horizontal distance used to push the
// control points away from their endpoints.
const controlOffset = 0.3

// Point is a screen position.
type Point struct {
	X, Y float64
}

// Rect is the bounding box of a rendered element in screen coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Center returns the midpoint of r, which is where curves attach.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Path is a cubic bezier curve.
type Path struct {
	Start Point
	C1    Point
	C2    Point
	End   Point
}

// BezierPath returns the curve from (x1,y1) to (x2,y2) whose control points
// sit at the height of their own endpoint, shifted horizontally towards the
// other endpoint by 30% of the horizontal distance.
func BezierPath(x1, y1, x2, y2 float64) Path {
	dx := math.Abs(x2-x1) * controlOffset
	if x2 < x1 {
		dx = -dx
	}

	return Path{
		Start: Point{X: x1, Y: y1},
		C1:    Point{X: x1 + dx, Y: y1},
		C2:    Point{X: x2 - dx, Y: y2},
		End:   Point{X: x2, Y: y2},
	}
}

// Between is [BezierPath] for two points.
func Between(from, to Point) Path {
	return BezierPath(from.X, from.Y, to.X, to.Y)
}

// String renders p as an SVG path "d" attribute.
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("M ")
	writePoint(&b, p.Start)
	b.WriteString(" C ")
	writePoint(&b, p.C1)
	b.WriteByte(' ')
	writePoint(&b, p.C2)
	b.WriteByte(' ')
	writePoint(&b, p.End)
	return b.String()
}

// At evaluates the curve at t in [0, 1].
func (p Path) At(t float64) Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*p.Start.X + b*p.C1.X + c*p.C2.X + d*p.End.X,
		Y: a*p.Start.Y + b*p.C1.Y + c*p.C2.Y + d*p.End.Y,
	}
}

func writePoint(b *strings.Builder, p Point) {
	b.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
}
