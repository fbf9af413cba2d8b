package geo

import (
	"fmt"
	"math"
)

// Point is a location on the flat carpool grid. Coordinates are unitless.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceTo is Distance(p, other).
func (p Point) DistanceTo(other Point) float64 { return Distance(p, other) }

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}
