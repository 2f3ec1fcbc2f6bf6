package model

import "math"

// Point represents a 2D point in page or image coordinates.
// Y grows downward, matching raster images and rendered page geometry.
type Point struct {
	X, Y float64
}

// Distance calculates the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// BBox represents an axis-aligned bounding box stored as min/max corners.
// (X0, Y0) is the top-left corner, (X1, Y1) the bottom-right.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// NewBBox creates a bounding box, normalizing corner order.
func NewBBox(x0, y0, x1, y1 float64) BBox {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return BBox{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Center returns the center point.
func (b BBox) Center() Point {
	return Point{X: (b.X0 + b.X1) / 2, Y: (b.Y0 + b.Y1) / 2}
}

// CenterX returns the horizontal center coordinate.
func (b BBox) CenterX() float64 {
	return (b.X0 + b.X1) / 2
}

// CenterY returns the vertical center coordinate.
func (b BBox) CenterY() float64 {
	return (b.Y0 + b.Y1) / 2
}

// Area returns the area of the bounding box.
func (b BBox) Area() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.Width() * b.Height()
}

// Contains checks whether a point lies inside the box (inclusive).
func (b BBox) Contains(p Point) bool {
	return p.X >= b.X0 && p.X <= b.X1 && p.Y >= b.Y0 && p.Y <= b.Y1
}

// Intersects checks whether two boxes overlap.
func (b BBox) Intersects(other BBox) bool {
	return !(b.X1 < other.X0 || b.X0 > other.X1 ||
		b.Y1 < other.Y0 || b.Y0 > other.Y1)
}

// Intersection returns the overlapping region of two boxes,
// or the zero box when they do not intersect.
func (b BBox) Intersection(other BBox) BBox {
	if !b.Intersects(other) {
		return BBox{}
	}
	return BBox{
		X0: math.Max(b.X0, other.X0),
		Y0: math.Max(b.Y0, other.Y0),
		X1: math.Min(b.X1, other.X1),
		Y1: math.Min(b.Y1, other.Y1),
	}
}

// Union returns the smallest box covering both boxes.
func (b BBox) Union(other BBox) BBox {
	return BBox{
		X0: math.Min(b.X0, other.X0),
		Y0: math.Min(b.Y0, other.Y0),
		X1: math.Max(b.X1, other.X1),
		Y1: math.Max(b.Y1, other.Y1),
	}
}

// IoU returns intersection-over-union of two boxes, in [0, 1].
func (b BBox) IoU(other BBox) float64 {
	inter := b.Intersection(other).Area()
	if inter == 0 {
		return 0
	}
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// OverlapRatio returns the intersection area divided by the smaller
// box's area, in [0, 1].
func (b BBox) OverlapRatio(other BBox) float64 {
	inter := b.Intersection(other).Area()
	if inter == 0 {
		return 0
	}
	minArea := math.Min(b.Area(), other.Area())
	if minArea == 0 {
		return 0
	}
	return inter / minArea
}

// Expand grows the box by a margin on all sides.
func (b BBox) Expand(margin float64) BBox {
	return BBox{X0: b.X0 - margin, Y0: b.Y0 - margin, X1: b.X1 + margin, Y1: b.Y1 + margin}
}

// ExpandBottom grows only the bottom edge by dy.
func (b BBox) ExpandBottom(dy float64) BBox {
	return BBox{X0: b.X0, Y0: b.Y0, X1: b.X1, Y1: b.Y1 + dy}
}

// Scale multiplies all coordinates by f.
func (b BBox) Scale(f float64) BBox {
	return BBox{X0: b.X0 * f, Y0: b.Y0 * f, X1: b.X1 * f, Y1: b.Y1 * f}
}

// Translate shifts the box by (dx, dy).
func (b BBox) Translate(dx, dy float64) BBox {
	return BBox{X0: b.X0 + dx, Y0: b.Y0 + dy, X1: b.X1 + dx, Y1: b.Y1 + dy}
}

// Clamp restricts the box to the given bounds.
func (b BBox) Clamp(bounds BBox) BBox {
	return BBox{
		X0: math.Max(b.X0, bounds.X0),
		Y0: math.Max(b.Y0, bounds.Y0),
		X1: math.Min(b.X1, bounds.X1),
		Y1: math.Min(b.Y1, bounds.Y1),
	}
}

// IsEmpty returns true when the box has no positive extent.
func (b BBox) IsEmpty() bool {
	return b.X1 <= b.X0 || b.Y1 <= b.Y0
}

// Line represents a straight segment from the page geometry layer.
type Line struct {
	P0, P1 Point
}

// Length returns the segment length.
func (l Line) Length() float64 {
	return l.P0.Distance(l.P1)
}

// IsVertical reports whether the segment is vertical within tol.
func (l Line) IsVertical(tol float64) bool {
	return math.Abs(l.P0.X-l.P1.X) <= tol && math.Abs(l.P0.Y-l.P1.Y) > tol
}

// IsHorizontal reports whether the segment is horizontal within tol.
func (l Line) IsHorizontal(tol float64) bool {
	return math.Abs(l.P0.Y-l.P1.Y) <= tol && math.Abs(l.P0.X-l.P1.X) > tol
}

// X returns the representative X coordinate of a vertical segment.
func (l Line) X() float64 {
	return (l.P0.X + l.P1.X) / 2
}

// Y returns the representative Y coordinate of a horizontal segment.
func (l Line) Y() float64 {
	return (l.P0.Y + l.P1.Y) / 2
}

// MinY returns the smaller Y endpoint.
func (l Line) MinY() float64 {
	return math.Min(l.P0.Y, l.P1.Y)
}

// MaxY returns the larger Y endpoint.
func (l Line) MaxY() float64 {
	return math.Max(l.P0.Y, l.P1.Y)
}

// MinX returns the smaller X endpoint.
func (l Line) MinX() float64 {
	return math.Min(l.P0.X, l.P1.X)
}

// MaxX returns the larger X endpoint.
func (l Line) MaxX() float64 {
	return math.Max(l.P0.X, l.P1.X)
}
