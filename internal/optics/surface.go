// File: internal/optics/surface.go
package optics

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/beamline-cli/internal/geometry"
	"github.com/xkilldash9x/beamline-cli/internal/hitmap"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
)

// Surface binds a geometric primitive to a pose, an aperture, a coating, a
// damage threshold and a hit map. It is owned by exactly one node port; its
// hit map mutates during a run and is reset only explicitly.
type Surface struct {
	name            string
	geo             geometry.Surface
	pose            quantity.Pose
	aperture        geometry.Aperture
	coating         Coating
	damageThreshold quantity.Fluence
	hits            *hitmap.HitMap
}

// NewSurface creates a surface wrapper with an open aperture, an ideal
// anti-reflective coating and no damage threshold.
func NewSurface(name string, geo geometry.Surface) *Surface {
	return &Surface{
		name:     name,
		geo:      geo,
		pose:     quantity.IdentityPose(),
		aperture: geometry.OpenAperture{},
		coating:  IdealAR{},
		hits:     hitmap.New(),
	}
}

// Name returns the surface name (unique within its node).
func (s *Surface) Name() string { return s.name }

// Geometry returns the underlying geometric primitive.
func (s *Surface) Geometry() geometry.Surface { return s.geo }

// Pose returns the surface's world pose.
func (s *Surface) Pose() quantity.Pose { return s.pose }

// SetPose places the surface in world space.
func (s *Surface) SetPose(p quantity.Pose) { s.pose = p }

// Aperture returns the surface's clip shape.
func (s *Surface) Aperture() geometry.Aperture { return s.aperture }

// SetAperture assigns the surface's clip shape.
func (s *Surface) SetAperture(a geometry.Aperture) {
	if a == nil {
		a = geometry.OpenAperture{}
	}
	s.aperture = a
}

// Coating returns the surface's reflectivity model.
func (s *Surface) Coating() Coating { return s.coating }

// SetCoating assigns the surface's reflectivity model.
func (s *Surface) SetCoating(c Coating) {
	if c == nil {
		c = IdealAR{}
	}
	s.coating = c
}

// DamageThreshold returns the surface's LIDT, zero meaning unset.
func (s *Surface) DamageThreshold() quantity.Fluence { return s.damageThreshold }

// SetDamageThreshold assigns the surface's LIDT.
func (s *Surface) SetDamageThreshold(f quantity.Fluence) { s.damageThreshold = f }

// HitMap returns the strike accumulator of this surface.
func (s *Surface) HitMap() *hitmap.HitMap { return s.hits }

// Reset clears the accumulated hit map.
func (s *Surface) Reset() { s.hits.Reset() }

// Intersect intersects a world-frame ray with the surface. The incoming ray
// is transformed into the surface's local frame, intersected there, and the
// result transformed back, so the core intersection formulas stay
// frame-independent.
func (s *Surface) Intersect(pos, dir r3.Vec) (point, normal r3.Vec, ok bool) {
	lp := s.pose.InversePoint(pos)
	ld := s.pose.InverseDir(dir)
	p, n, ok := s.geo.Intersect(lp, ld)
	if !ok {
		return r3.Vec{}, r3.Vec{}, false
	}
	return s.pose.TransformPoint(p), s.pose.TransformDir(n), true
}

// AllowsLocal evaluates the aperture at a world-frame point by projecting it
// into the surface's local X-Y plane.
func (s *Surface) AllowsLocal(worldPoint r3.Vec) bool {
	lp := s.pose.InversePoint(worldPoint)
	return s.aperture.Allows(lp.X, lp.Y)
}

// RecordHit stores a strike (world point, energy) on the hit map under the
// given bounce level and bundle id. The point is stored in local surface
// coordinates for 2D footprint statistics.
func (s *Surface) RecordHit(worldPoint r3.Vec, energy quantity.Energy, bounce int, bundle uuid.UUID) {
	lp := s.pose.InversePoint(worldPoint)
	s.hits.Add(bounce, bundle, hitmap.HitPoint{X: lp.X, Y: lp.Y, Energy: energy})
}
