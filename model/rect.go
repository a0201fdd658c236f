package model

import "math"

// Point represents a 2D point
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle given by two corners. Constructors and
// Normalize keep X0 <= X1 and Y0 <= Y1.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// NewRect returns the rectangle spanned by two corners in any order.
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}.Normalize()
}

// Normalize orders the corners.
func (r Rect) Normalize() Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Contains checks if a point is inside the rectangle
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// Intersection returns the overlap of r and o; the zero Rect if none.
func (r Rect) Intersection(o Rect) Rect {
	x0, y0 := math.Max(r.X0, o.X0), math.Max(r.Y0, o.Y0)
	x1, y1 := math.Min(r.X1, o.X1), math.Min(r.Y1, o.Y1)
	if x1 < x0 || y1 < y0 {
		return Rect{}
	}
	return Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// HorizontalOverlap returns the fraction of o's width covered by r.
func (r Rect) HorizontalOverlap(o Rect) float64 {
	if o.Width() <= 0 {
		return 0
	}
	w := math.Min(r.X1, o.X1) - math.Max(r.X0, o.X0)
	if w <= 0 {
		return 0
	}
	return w / o.Width()
}

// VerticalOverlap returns the fraction of o's height covered by r.
func (r Rect) VerticalOverlap(o Rect) float64 {
	if o.Height() <= 0 {
		return 0
	}
	h := math.Min(r.Y1, o.Y1) - math.Max(r.Y0, o.Y0)
	if h <= 0 {
		return 0
	}
	return h / o.Height()
}

// FlipY mirrors the rectangle vertically within a page of the given height,
// converting between bottom-up and top-down space.
func (r Rect) FlipY(pageHeight float64) Rect {
	return Rect{X0: r.X0, Y0: pageHeight - r.Y1, X1: r.X1, Y1: pageHeight - r.Y0}
}

// Matrix represents a 2D affine transformation [a b c d e f].
type Matrix [6]float64

// Identity returns an identity matrix
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Transform applies the matrix transformation to a point
func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Multiply returns m × other, the transform that applies m first.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[1]*other[2],
		m[0]*other[1] + m[1]*other[3],
		m[2]*other[0] + m[3]*other[2],
		m[2]*other[1] + m[3]*other[3],
		m[4]*other[0] + m[5]*other[2] + other[4],
		m[4]*other[1] + m[5]*other[3] + other[5],
	}
}

// Translate creates a translation matrix
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// TransformRect returns the bounding box of r after transformation.
func (m Matrix) TransformRect(r Rect) Rect {
	corners := [4]Point{{r.X0, r.Y0}, {r.X1, r.Y0}, {r.X0, r.Y1}, {r.X1, r.Y1}}
	out := Rect{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
	for _, c := range corners {
		p := m.Transform(c)
		out.X0 = math.Min(out.X0, p.X)
		out.Y0 = math.Min(out.Y0, p.Y)
		out.X1 = math.Max(out.X1, p.X)
		out.Y1 = math.Max(out.Y1, p.Y)
	}
	return out
}
