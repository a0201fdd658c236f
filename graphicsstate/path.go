package graphicsstate

import (
	"math"

	"github.com/tsawler/linksheet/model"
)

// Segment is a straight stroked line in device space.
type Segment struct {
	Start model.Point
	End   model.Point
	Width float64
}

// IsHorizontal reports whether the segment is level within tolerance.
func (s Segment) IsHorizontal(tolerance float64) bool {
	return math.Abs(s.Start.Y-s.End.Y) <= tolerance
}

// Length returns the euclidean length of the segment.
func (s Segment) Length() float64 {
	return math.Hypot(s.End.X-s.Start.X, s.End.Y-s.Start.Y)
}

// Path collects the straight segments of the path under construction.
// Curves only move the current point.
type Path struct {
	current  model.Point
	start    model.Point
	segments [][2]model.Point
	open     bool
}

// MoveTo begins a new subpath (m operator).
func (p *Path) MoveTo(pt model.Point) {
	p.current = pt
	p.start = pt
	p.open = true
}

// LineTo appends a straight segment (l operator).
func (p *Path) LineTo(pt model.Point) {
	if p.open {
		p.segments = append(p.segments, [2]model.Point{p.current, pt})
	}
	p.current = pt
}

// CurveTo moves the current point to the curve's end point.
func (p *Path) CurveTo(end model.Point) {
	p.current = end
}

// Close closes the subpath back to its start (h operator).
func (p *Path) Close() {
	if p.open && p.current != p.start {
		p.segments = append(p.segments, [2]model.Point{p.current, p.start})
	}
	p.current = p.start
}

// Rectangle appends a closed rectangle given its four device space corners
// (re operator).
func (p *Path) Rectangle(corners [4]model.Point) {
	p.MoveTo(corners[0])
	p.LineTo(corners[1])
	p.LineTo(corners[2])
	p.LineTo(corners[3])
	p.Close()
}

// Segments returns the straight segments collected so far.
func (p *Path) Segments(width float64) []Segment {
	out := make([]Segment, 0, len(p.segments))
	for _, s := range p.segments {
		out = append(out, Segment{Start: s[0], End: s[1], Width: width})
	}
	return out
}

// Reset discards the path.
func (p *Path) Reset() {
	*p = Path{}
}
