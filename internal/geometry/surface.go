// File: internal/geometry/surface.go

// Package geometry provides the local-frame intersection primitives used by
// the ray tracer. Every surface type works purely in its own coordinate
// frame with the optical axis along +Z and the vertex at the origin; the
// caller applies the surface pose before and after intersection so the
// formulas here stay frame-independent.
package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Surface computes the intersection of a ray with a geometric primitive in
// the primitive's local frame.
type Surface interface {
	// Intersect returns the intersection point closest along the ray
	// together with the surface normal at that point. The normal points
	// against the nominal propagation direction (towards -Z for a ray
	// travelling along +Z). ok is false if the ray misses the surface or
	// the intersection lies behind the ray origin.
	Intersect(pos, dir r3.Vec) (point, normal r3.Vec, ok bool)
	// Name returns a short identifier of the primitive kind.
	Name() string
}

// Plane is the infinite plane z = 0.
type Plane struct{}

// NewPlane returns a flat surface at the local origin.
func NewPlane() Plane { return Plane{} }

func (Plane) Name() string { return "plane" }

func (Plane) Intersect(pos, dir r3.Vec) (r3.Vec, r3.Vec, bool) {
	if dir.Z == 0 {
		return r3.Vec{}, r3.Vec{}, false
	}
	t := -pos.Z / dir.Z
	if t < 0 {
		// Plane lies behind the ray.
		return r3.Vec{}, r3.Vec{}, false
	}
	p := r3.Add(pos, r3.Scale(t, dir))
	return r3.Vec{X: p.X, Y: p.Y}, r3.Vec{Z: -1}, true
}

// Sphere is a spherical cap with its vertex at the local origin and its
// center at (0, 0, R). A positive radius describes a convex surface as seen
// by a ray travelling along +Z, a negative radius a concave one.
type Sphere struct {
	Radius float64 // meters, signed
}

// NewSphere returns a spherical surface with the given signed radius of
// curvature in meters.
func NewSphere(radius float64) (Sphere, error) {
	if radius == 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return Sphere{}, fmt.Errorf("sphere radius must be non-zero and finite, got %v", radius)
	}
	return Sphere{Radius: radius}, nil
}

func (Sphere) Name() string { return "sphere" }

func (s Sphere) Intersect(pos, dir r3.Vec) (r3.Vec, r3.Vec, bool) {
	// Sphere centered at (0,0,R): |p + t*d - c|^2 = R^2.
	c := r3.Vec{Z: s.Radius}
	oc := r3.Sub(pos, c)
	a := r3.Dot(dir, dir)
	b := 2 * r3.Dot(dir, oc)
	cc := r3.Dot(oc, oc) - s.Radius*s.Radius
	t, ok := solveQuadratic(a, b, cc, s.Radius > 0)
	if !ok {
		return r3.Vec{}, r3.Vec{}, false
	}
	p := r3.Add(pos, r3.Scale(t, dir))
	n := r3.Unit(r3.Sub(p, c))
	if s.Radius < 0 {
		n = r3.Scale(-1, n)
	}
	return p, n, true
}

// Cylinder is a cylindrical surface curved in the Y-Z plane with its axis
// parallel to X, vertex line at the local origin and center line at
// (x, 0, R). The sign convention matches Sphere.
type Cylinder struct {
	Radius float64 // meters, signed
}

// NewCylinder returns a cylindrical surface with the given signed radius of
// curvature in meters.
func NewCylinder(radius float64) (Cylinder, error) {
	if radius == 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return Cylinder{}, fmt.Errorf("cylinder radius must be non-zero and finite, got %v", radius)
	}
	return Cylinder{Radius: radius}, nil
}

func (Cylinder) Name() string { return "cylinder" }

func (c Cylinder) Intersect(pos, dir r3.Vec) (r3.Vec, r3.Vec, bool) {
	// Circle in the Y-Z plane centered at (0, R): y^2 + (z-R)^2 = R^2,
	// with the X component free.
	a := dir.Y*dir.Y + dir.Z*dir.Z
	oy := pos.Y
	oz := pos.Z - c.Radius
	b := 2 * (dir.Y*oy + dir.Z*oz)
	cc := oy*oy + oz*oz - c.Radius*c.Radius
	t, ok := solveQuadratic(a, b, cc, c.Radius > 0)
	if !ok {
		return r3.Vec{}, r3.Vec{}, false
	}
	p := r3.Add(pos, r3.Scale(t, dir))
	n := r3.Unit(r3.Vec{Y: p.Y, Z: p.Z - c.Radius})
	if c.Radius < 0 {
		n = r3.Scale(-1, n)
	}
	return p, n, true
}

// Parabola is the paraboloid z = (x^2 + y^2) / (4f) with its vertex at the
// local origin and focal point at (0, 0, f). A negative focal length opens
// the paraboloid towards -Z.
type Parabola struct {
	FocalLength float64 // meters, signed
}

// NewParabola returns a parabolic surface with the given signed focal
// length in meters.
func NewParabola(focalLength float64) (Parabola, error) {
	if focalLength == 0 || math.IsNaN(focalLength) || math.IsInf(focalLength, 0) {
		return Parabola{}, fmt.Errorf("parabola focal length must be non-zero and finite, got %v", focalLength)
	}
	return Parabola{FocalLength: focalLength}, nil
}

func (Parabola) Name() string { return "parabola" }

func (pb Parabola) Intersect(pos, dir r3.Vec) (r3.Vec, r3.Vec, bool) {
	f4 := 4 * pb.FocalLength
	a := (dir.X*dir.X + dir.Y*dir.Y) / f4
	b := 2*(pos.X*dir.X+pos.Y*dir.Y)/f4 - dir.Z
	c := (pos.X*pos.X+pos.Y*pos.Y)/f4 - pos.Z
	var t float64
	if a == 0 {
		// Ray parallel to the paraboloid axis (or on-axis).
		if b == 0 {
			return r3.Vec{}, r3.Vec{}, false
		}
		t = -c / b
		if t < 0 {
			return r3.Vec{}, r3.Vec{}, false
		}
	} else {
		var ok bool
		t, ok = solveQuadratic(a, b, c, true)
		if !ok {
			return r3.Vec{}, r3.Vec{}, false
		}
	}
	p := r3.Add(pos, r3.Scale(t, dir))
	// Gradient of (x^2+y^2)/(4f) - z, oriented towards -Z.
	n := r3.Unit(r3.Vec{X: p.X / (2 * pb.FocalLength), Y: p.Y / (2 * pb.FocalLength), Z: -1})
	return p, n, true
}

// solveQuadratic returns the physically relevant non-negative root of
// a*t^2 + b*t + c = 0. For a convex surface the near root is used, for a
// concave one the far root, matching the vertex-side sheet of the surface.
func solveQuadratic(a, b, c float64, convex bool) (float64, bool) {
	if a == 0 {
		if b == 0 {
			return 0, false
		}
		t := -c / b
		return t, t >= 0
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t0 := (-b - sq) / (2 * a)
	t1 := (-b + sq) / (2 * a)
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	t := t0
	if !convex {
		t = t1
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
