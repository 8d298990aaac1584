package common

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Point is a position in the 2D plane.
type Point struct {
	X float64
	Y float64
}

// NewRandomPoint returns a point drawn uniformly within bounds.
// bounds must hold four elements: [minX, maxX, minY, maxY].
func NewRandomPoint(r *rand.Rand, bounds []float64) (Point, error) {
	if len(bounds) != 4 {
		return Point{}, fmt.Errorf("bounds length must be 4, got %d", len(bounds))
	}
	return Point{
		X: bounds[0] + r.Float64()*(bounds[1]-bounds[0]),
		Y: bounds[2] + r.Float64()*(bounds[3]-bounds[2]),
	}, nil
}

// Sub returns p - other.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale multiplies both coordinates by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(other.X-p.X, other.Y-p.Y)
}

// NormSq is the squared distance of p from the origin.
func (p Point) NormSq() float64 {
	return p.X*p.X + p.Y*p.Y
}

// String returns a string representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("[%.3f, %.3f]", p.X, p.Y)
}
