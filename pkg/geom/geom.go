// Package geom provides the small geometric value types shared by the
// profile engine: real-valued positions and integer pixel bounds.
package geom

import "fmt"

// Position is a point in the real plane. Depending on context it is either
// a real-space coordinate (in the image's physical units) or a Fourier-space
// frequency (in radians per unit length).
type Position struct {
	X, Y float64
}

// NewPosition creates a new Position.
func NewPosition(x, y float64) Position {
	return Position{X: x, Y: y}
}

// Add returns the component-wise sum of two positions.
func (p Position) Add(q Position) Position {
	return Position{p.X + q.X, p.Y + q.Y}
}

// Sub returns the component-wise difference of two positions.
func (p Position) Sub(q Position) Position {
	return Position{p.X - q.X, p.Y - q.Y}
}

// Scale returns the position scaled by a scalar.
func (p Position) Scale(s float64) Position {
	return Position{p.X * s, p.Y * s}
}

// Bounds is an axis-aligned integer rectangle delimiting valid pixel
// indices, inclusive on all four sides. The zero value is the distinguished
// undefined (empty) state; any bounds constructed with NewBounds is defined.
type Bounds struct {
	XMin, XMax, YMin, YMax int
	defined                bool
}

// NewBounds creates a defined Bounds covering [xmin, xmax] x [ymin, ymax].
// The arguments are normalized so that min <= max on each axis.
func NewBounds(xmin, xmax, ymin, ymax int) Bounds {
	if xmin > xmax {
		xmin, xmax = xmax, xmin
	}
	if ymin > ymax {
		ymin, ymax = ymax, ymin
	}
	return Bounds{XMin: xmin, XMax: xmax, YMin: ymin, YMax: ymax, defined: true}
}

// IsDefined reports whether the bounds delimit at least one pixel.
func (b Bounds) IsDefined() bool { return b.defined }

// Width returns the number of columns covered, 0 if undefined.
func (b Bounds) Width() int {
	if !b.defined {
		return 0
	}
	return b.XMax - b.XMin + 1
}

// Height returns the number of rows covered, 0 if undefined.
func (b Bounds) Height() int {
	if !b.defined {
		return 0
	}
	return b.YMax - b.YMin + 1
}

// Area returns the number of pixels covered.
func (b Bounds) Area() int { return b.Width() * b.Height() }

// Includes reports whether the integer coordinate (x, y) lies inside.
func (b Bounds) Includes(x, y int) bool {
	return b.defined && x >= b.XMin && x <= b.XMax && y >= b.YMin && y <= b.YMax
}

// IncludesBounds reports whether other lies entirely inside b.
func (b Bounds) IncludesBounds(other Bounds) bool {
	if !b.defined || !other.defined {
		return false
	}
	return other.XMin >= b.XMin && other.XMax <= b.XMax &&
		other.YMin >= b.YMin && other.YMax <= b.YMax
}

// Intersect returns the overlap of two bounds, undefined if disjoint.
func (b Bounds) Intersect(other Bounds) Bounds {
	if !b.defined || !other.defined {
		return Bounds{}
	}
	xmin := max(b.XMin, other.XMin)
	xmax := min(b.XMax, other.XMax)
	ymin := max(b.YMin, other.YMin)
	ymax := min(b.YMax, other.YMax)
	if xmin > xmax || ymin > ymax {
		return Bounds{}
	}
	return NewBounds(xmin, xmax, ymin, ymax)
}

// Center returns the real-valued midpoint of the bounds.
func (b Bounds) Center() Position {
	return Position{
		X: float64(b.XMin+b.XMax) / 2,
		Y: float64(b.YMin+b.YMax) / 2,
	}
}

// String implements fmt.Stringer for diagnostics.
func (b Bounds) String() string {
	if !b.defined {
		return "Bounds(undefined)"
	}
	return fmt.Sprintf("Bounds(%d..%d, %d..%d)", b.XMin, b.XMax, b.YMin, b.YMax)
}
