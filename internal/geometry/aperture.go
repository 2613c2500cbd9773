// File: internal/geometry/aperture.go
package geometry

import (
	"fmt"
	"math"
)

// Aperture is a binary clip shape evaluated in a surface's local X-Y plane.
// Coordinates are in meters.
type Aperture interface {
	// Allows reports whether a ray hitting the surface at (x, y) is
	// transmitted. Blocked rays are discarded by the caller.
	Allows(x, y float64) bool
	// Name returns a short identifier of the aperture kind.
	Name() string
}

// OpenAperture transmits everything. It is the default for every surface.
type OpenAperture struct{}

func (OpenAperture) Allows(x, y float64) bool { return true }
func (OpenAperture) Name() string             { return "none" }

// CircleAperture transmits inside a circle.
type CircleAperture struct {
	Radius  float64
	CenterX float64
	CenterY float64
}

// NewCircleAperture returns a circular aperture with the given radius and
// center, all in meters.
func NewCircleAperture(radius, cx, cy float64) (CircleAperture, error) {
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return CircleAperture{}, fmt.Errorf("circle aperture radius must be positive and finite, got %v", radius)
	}
	return CircleAperture{Radius: radius, CenterX: cx, CenterY: cy}, nil
}

func (a CircleAperture) Allows(x, y float64) bool {
	dx := x - a.CenterX
	dy := y - a.CenterY
	return dx*dx+dy*dy <= a.Radius*a.Radius
}

func (CircleAperture) Name() string { return "circle" }

// RectAperture transmits inside an axis-aligned rectangle.
type RectAperture struct {
	Width   float64
	Height  float64
	CenterX float64
	CenterY float64
}

// NewRectAperture returns a rectangular aperture, all dimensions in meters.
func NewRectAperture(width, height, cx, cy float64) (RectAperture, error) {
	if width <= 0 || height <= 0 {
		return RectAperture{}, fmt.Errorf("rectangle aperture dimensions must be positive, got %vx%v", width, height)
	}
	return RectAperture{Width: width, Height: height, CenterX: cx, CenterY: cy}, nil
}

func (a RectAperture) Allows(x, y float64) bool {
	return math.Abs(x-a.CenterX) <= a.Width/2 && math.Abs(y-a.CenterY) <= a.Height/2
}

func (RectAperture) Name() string { return "rectangle" }

// PolygonAperture transmits inside a simple polygon (even-odd rule).
type PolygonAperture struct {
	// Points are the polygon vertices in order, in meters.
	Points [][2]float64
}

// NewPolygonAperture returns a polygonal aperture from at least three
// vertices.
func NewPolygonAperture(points [][2]float64) (PolygonAperture, error) {
	if len(points) < 3 {
		return PolygonAperture{}, fmt.Errorf("polygon aperture needs at least 3 points, got %d", len(points))
	}
	return PolygonAperture{Points: points}, nil
}

func (a PolygonAperture) Allows(x, y float64) bool {
	inside := false
	n := len(a.Points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := a.Points[i][0], a.Points[i][1]
		xj, yj := a.Points[j][0], a.Points[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

func (PolygonAperture) Name() string { return "polygon" }

// StackAperture transmits only where every stacked aperture transmits.
type StackAperture struct {
	Apertures []Aperture
}

func (a StackAperture) Allows(x, y float64) bool {
	for _, ap := range a.Apertures {
		if !ap.Allows(x, y) {
			return false
		}
	}
	return true
}

func (StackAperture) Name() string { return "stack" }
