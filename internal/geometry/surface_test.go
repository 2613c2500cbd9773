// File: internal/geometry/surface_test.go
package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestPlane_Intersect(t *testing.T) {
	p := NewPlane()

	t.Run("OnAxis", func(t *testing.T) {
		pt, n, ok := p.Intersect(r3.Vec{Z: -0.01}, r3.Vec{Z: 1})
		require.True(t, ok)
		assert.InDelta(t, 0.0, pt.Z, 1e-15)
		assert.InDelta(t, -1.0, n.Z, 1e-15)
	})

	t.Run("OffAxis", func(t *testing.T) {
		pt, _, ok := p.Intersect(r3.Vec{Y: 0.001, Z: -0.01}, r3.Vec{Z: 1})
		require.True(t, ok)
		assert.InDelta(t, 0.001, pt.Y, 1e-15)
	})

	t.Run("Behind", func(t *testing.T) {
		_, _, ok := p.Intersect(r3.Vec{Z: 0.01}, r3.Vec{Z: 1})
		assert.False(t, ok)
	})

	t.Run("Parallel", func(t *testing.T) {
		_, _, ok := p.Intersect(r3.Vec{Z: -0.01}, r3.Vec{X: 1})
		assert.False(t, ok)
	})
}

func TestSphere_Intersect(t *testing.T) {
	t.Run("ConvexOnAxis", func(t *testing.T) {
		s, err := NewSphere(0.1)
		require.NoError(t, err)
		pt, n, ok := s.Intersect(r3.Vec{Z: -0.05}, r3.Vec{Z: 1})
		require.True(t, ok)
		// Vertex of the sphere sits at the origin.
		assert.InDelta(t, 0.0, pt.Z, 1e-12)
		assert.InDelta(t, -1.0, n.Z, 1e-12)
	})

	t.Run("ConcaveOnAxis", func(t *testing.T) {
		s, err := NewSphere(-0.1)
		require.NoError(t, err)
		pt, n, ok := s.Intersect(r3.Vec{Z: -0.05}, r3.Vec{Z: 1})
		require.True(t, ok)
		assert.InDelta(t, 0.0, pt.Z, 1e-12)
		assert.InDelta(t, -1.0, n.Z, 1e-12)
	})

	t.Run("OffAxisHeight", func(t *testing.T) {
		s, err := NewSphere(0.1)
		require.NoError(t, err)
		pt, _, ok := s.Intersect(r3.Vec{Y: 0.01, Z: -0.05}, r3.Vec{Z: 1})
		require.True(t, ok)
		// Sagitta of a 100 mm sphere at 10 mm height, about 0.5 mm.
		assert.InDelta(t, 0.0005, pt.Z, 1e-5)
		assert.InDelta(t, 0.01, pt.Y, 1e-12)
	})

	t.Run("Miss", func(t *testing.T) {
		s, err := NewSphere(0.1)
		require.NoError(t, err)
		_, _, ok := s.Intersect(r3.Vec{Y: 0.2, Z: -0.05}, r3.Vec{Z: 1})
		assert.False(t, ok)
	})

	t.Run("InvalidRadius", func(t *testing.T) {
		_, err := NewSphere(0)
		assert.Error(t, err)
	})
}

func TestCylinder_Intersect(t *testing.T) {
	c, err := NewCylinder(0.1)
	require.NoError(t, err)

	t.Run("OnAxis", func(t *testing.T) {
		pt, n, ok := c.Intersect(r3.Vec{Z: -0.05}, r3.Vec{Z: 1})
		require.True(t, ok)
		assert.InDelta(t, 0.0, pt.Z, 1e-12)
		assert.InDelta(t, -1.0, n.Z, 1e-12)
	})

	t.Run("FlatAlongX", func(t *testing.T) {
		// The cylinder has no curvature along X, so an offset in X must
		// not change the intersection Z.
		pt, _, ok := c.Intersect(r3.Vec{X: 0.02, Z: -0.05}, r3.Vec{Z: 1})
		require.True(t, ok)
		assert.InDelta(t, 0.0, pt.Z, 1e-12)
	})

	t.Run("CurvedAlongY", func(t *testing.T) {
		pt, _, ok := c.Intersect(r3.Vec{Y: 0.01, Z: -0.05}, r3.Vec{Z: 1})
		require.True(t, ok)
		assert.InDelta(t, 0.0005, pt.Z, 1e-5)
	})
}

func TestParabola_Intersect(t *testing.T) {
	pb, err := NewParabola(0.05)
	require.NoError(t, err)

	t.Run("Vertex", func(t *testing.T) {
		pt, n, ok := pb.Intersect(r3.Vec{Z: -0.1}, r3.Vec{Z: 1})
		require.True(t, ok)
		assert.InDelta(t, 0.0, pt.Z, 1e-12)
		assert.InDelta(t, -1.0, n.Z, 1e-12)
	})

	t.Run("OffAxis", func(t *testing.T) {
		pt, _, ok := pb.Intersect(r3.Vec{Y: 0.02, Z: -0.1}, r3.Vec{Z: 1})
		require.True(t, ok)
		// z = y^2 / (4 f) = 0.0004 / 0.2
		assert.InDelta(t, 0.002, pt.Z, 1e-12)
	})

	t.Run("FocusReflection", func(t *testing.T) {
		// A ray parallel to the axis reflected at the parabola passes
		// through the focal point (0, 0, f).
		pt, n, ok := pb.Intersect(r3.Vec{Y: 0.02, Z: -0.1}, r3.Vec{Z: 1})
		require.True(t, ok)
		d := r3.Vec{Z: 1}
		refl := r3.Sub(d, r3.Scale(2*r3.Dot(d, n), n))
		// Parameter along the reflected ray where z = f.
		tf := (0.05 - pt.Z) / refl.Z
		y := pt.Y + tf*refl.Y
		assert.InDelta(t, 0.0, y, 1e-9)
	})
}

func TestApertures(t *testing.T) {
	t.Run("Open", func(t *testing.T) {
		assert.True(t, OpenAperture{}.Allows(1e6, -1e6))
	})

	t.Run("Circle", func(t *testing.T) {
		a, err := NewCircleAperture(0.01, 0, 0)
		require.NoError(t, err)
		assert.True(t, a.Allows(0.005, 0.005))
		assert.False(t, a.Allows(0.01, 0.01))
	})

	t.Run("Rect", func(t *testing.T) {
		a, err := NewRectAperture(0.02, 0.01, 0, 0)
		require.NoError(t, err)
		assert.True(t, a.Allows(0.009, 0.004))
		assert.False(t, a.Allows(0.011, 0))
	})

	t.Run("Polygon", func(t *testing.T) {
		a, err := NewPolygonAperture([][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}})
		require.NoError(t, err)
		assert.True(t, a.Allows(0, 0))
		assert.False(t, a.Allows(2, 0))
	})

	t.Run("Stack", func(t *testing.T) {
		circ, _ := NewCircleAperture(1, 0, 0)
		rect, _ := NewRectAperture(1, 4, 0, 0)
		s := StackAperture{Apertures: []Aperture{circ, rect}}
		assert.True(t, s.Allows(0.2, 0.2))
		assert.False(t, s.Allows(0.9, 0)) // inside circle, outside rect
	})

	t.Run("PolygonTooFewPoints", func(t *testing.T) {
		_, err := NewPolygonAperture([][2]float64{{0, 0}, {1, 1}})
		assert.Error(t, err)
	})
}
