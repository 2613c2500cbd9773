// File: internal/ray/ray.go

// Package ray implements single rays and ray bundles, including propagation,
// vector-form Snell refraction with total internal reflection, and coating
// driven energy splitting. All positions are in meters, world frame.
package ray

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/beamline-cli/internal/optics"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
)

// SameIndex passed as n2 to RefractOnSurface keeps the ray's current
// refractive index: the transmitted path continues undeviated while the
// coating still splits off a reflected ray. This is how mirrors and
// parasitic surface reflections are modelled.
const SameIndex float64 = 0

// Polarization tags the polarization state of a ray. The current physics
// assumes unpolarized light; the tag is carried for bookkeeping.
type Polarization int

const (
	// Unpolarized is the default 50/50 polarization mix.
	Unpolarized Polarization = iota
	// PolS marks s-polarized rays.
	PolS
	// PolP marks p-polarized rays.
	PolP
)

// Ray is a single geometric ray.
type Ray struct {
	pos         r3.Vec
	dir         r3.Vec // always unit length
	wavelength  quantity.Length
	energy      quantity.Energy
	pol         Polarization
	index       float64 // refractive index of the current medium
	bounces     int
	refractions int
	pathLength  quantity.Length
	history     []r3.Vec
	helper      bool
	valid       bool
}

// New creates a valid ray in vacuum (index 1).
func New(pos, dir r3.Vec, wavelength quantity.Length, energy quantity.Energy) (Ray, error) {
	if err := quantity.ValidateWavelength(wavelength); err != nil {
		return Ray{}, err
	}
	if err := quantity.ValidateEnergy(energy); err != nil {
		return Ray{}, err
	}
	if r3.Norm(dir) == 0 {
		return Ray{}, fmt.Errorf("ray direction must be non-zero")
	}
	return Ray{
		pos:        pos,
		dir:        r3.Unit(dir),
		wavelength: wavelength,
		energy:     energy,
		index:      1.0,
		valid:      true,
	}, nil
}

// NewCollimated creates a ray at (x, y, 0) travelling along +Z.
func NewCollimated(x, y quantity.Length, wavelength quantity.Length, energy quantity.Energy) (Ray, error) {
	return New(r3.Vec{X: x.Meters(), Y: y.Meters()}, r3.Vec{Z: 1}, wavelength, energy)
}

// Position returns the current ray position in meters.
func (r *Ray) Position() r3.Vec { return r.pos }

// Direction returns the unit propagation direction.
func (r *Ray) Direction() r3.Vec { return r.dir }

// SetDirection normalizes and assigns a new propagation direction.
func (r *Ray) SetDirection(dir r3.Vec) error {
	if r3.Norm(dir) == 0 {
		return fmt.Errorf("ray direction must be non-zero")
	}
	r.dir = r3.Unit(dir)
	return nil
}

// Wavelength returns the ray's wavelength.
func (r *Ray) Wavelength() quantity.Length { return r.wavelength }

// Energy returns the ray's energy.
func (r *Ray) Energy() quantity.Energy { return r.energy }

// Polarization returns the ray's polarization tag.
func (r *Ray) Polarization() Polarization { return r.pol }

// RefractiveIndex returns the index of the medium the ray travels in.
func (r *Ray) RefractiveIndex() float64 { return r.index }

// SetRefractiveIndex assigns the index of the current medium.
func (r *Ray) SetRefractiveIndex(n float64) error {
	if n < 1 || math.IsNaN(n) || math.IsInf(n, 0) {
		return fmt.Errorf("refractive index must be >= 1 and finite, got %v", n)
	}
	r.index = n
	return nil
}

// Bounces returns the number of reflections this ray has experienced. The
// counter is monotonically non-decreasing, which bounds ghost-focus
// recursion.
func (r *Ray) Bounces() int { return r.bounces }

// Refractions returns the number of index-changing surface transitions.
func (r *Ray) Refractions() int { return r.refractions }

// PathLength returns the accumulated optical path length.
func (r *Ray) PathLength() quantity.Length { return r.pathLength }

// History returns the positions the ray has visited, excluding the current
// one.
func (r *Ray) History() []r3.Vec { return r.history }

// Valid reports whether the ray still participates in the analysis.
func (r *Ray) Valid() bool { return r.valid }

// SetInvalid marks the ray as dropped. Invalid rays are skipped by every
// bundle operation but stay in place for diagnostics.
func (r *Ray) SetInvalid() { r.valid = false }

// Helper reports whether this is an auxiliary fluence helper ray.
func (r *Ray) Helper() bool { return r.helper }

// markHelper tags the ray as a fluence helper.
func (r *Ray) markHelper() { r.helper = true }

// Propagate advances the ray by the given geometric distance, accumulating
// optical path length (geometric distance times current index).
func (r *Ray) Propagate(d quantity.Length) error {
	if !d.IsFinite() {
		return fmt.Errorf("propagation distance must be finite, got %v m", d.Meters())
	}
	r.history = append(r.history, r.pos)
	r.pos = r3.Add(r.pos, r3.Scale(d.Meters(), r.dir))
	r.pathLength += quantity.Length(r.index * d.Meters())
	return nil
}

// RefractOnSurface intersects the ray with a surface and updates it
// according to the vector form of Snell's law. n2 is the refractive index
// behind the surface, or SameIndex to keep the current one (mirror
// semantics). The coating splits the incoming energy between the refracted
// continuation of the ray and an optional reflected ray, which is returned
// with its bounce counter incremented. Total internal reflection converts
// the ray itself into the reflected ray and returns nil.
//
// A ray that misses the surface or is blocked by the aperture is marked
// invalid. The strike is recorded on the surface's hit map under bundle.
func (r *Ray) RefractOnSurface(surf *optics.Surface, n2 float64, bundle uuid.UUID) (*Ray, error) {
	n2eff := n2
	if n2 == SameIndex {
		n2eff = r.index
	}
	if n2eff < 1 || math.IsNaN(n2eff) || math.IsInf(n2eff, 0) {
		return nil, fmt.Errorf("refractive index behind surface must be >= 1 and finite, got %v", n2eff)
	}
	point, normal, ok := surf.Intersect(r.pos, r.dir)
	if !ok {
		r.SetInvalid()
		return nil, nil
	}
	if !surf.AllowsLocal(point) {
		r.SetInvalid()
		return nil, nil
	}

	// Snell's law in vector form:
	//   s2 = mu*(n x (-n x s1)) - n*sqrt(1 - mu^2 * (n x s1).(n x s1))
	mu := r.index / n2eff
	s1 := r.dir
	n := r3.Unit(normal)
	// The surface reports a fixed normal; Snell's vector form needs it to
	// oppose the incident direction. Rays arriving from the far side (an
	// inverted element, a reflected ghost travelling backwards) see the
	// flipped normal.
	if r3.Dot(s1, n) > 0 {
		n = r3.Scale(-1, n)
	}
	cross := r3.Cross(n, s1)
	dis := 1 - mu*mu*r3.Dot(cross, cross)
	reflectedDir := r3.Sub(s1, r3.Scale(2*r3.Dot(s1, n), n))

	travelled := r3.Norm(r3.Sub(point, r.pos))
	r.history = append(r.history, r.pos)
	r.pathLength += quantity.Length(r.index * travelled)
	r.pos = point

	if dis < 0 {
		// Total internal reflection.
		r.bounces++
		r.dir = reflectedDir
		return nil, nil
	}

	cosIncidence := math.Abs(r3.Dot(s1, n))
	reflectivity, err := surf.Coating().Reflectivity(cosIncidence, r.index, n2eff)
	if err != nil {
		return nil, fmt.Errorf("coating evaluation failed: %w", err)
	}
	inputEnergy := r.energy
	surf.RecordHit(point, inputEnergy, r.bounces, bundle)

	// The reflected ray is a snapshot of the ray as it arrived: it never
	// crossed the interface, so it keeps the incident medium's index and
	// refraction count.
	reflected := *r
	reflected.history = append([]r3.Vec(nil), r.history...)
	reflected.dir = reflectedDir
	reflected.energy = quantity.Energy(inputEnergy.Joules() * reflectivity)
	reflected.bounces++

	refractDir := r3.Sub(
		r3.Scale(mu, r3.Cross(n, r3.Scale(-1, cross))),
		r3.Scale(math.Sqrt(dis), n),
	)
	r.dir = r3.Unit(refractDir)
	r.energy = quantity.Energy(inputEnergy.Joules() * (1 - reflectivity))
	if n2 != SameIndex {
		r.refractions++
	}
	r.index = n2eff
	return &reflected, nil
}

// RefractParaxial applies the ideal thin-lens transformation at the ray's
// current position: a ray at transverse offset (x, y) relative to the lens
// center has its direction steered so parallel input rays meet in the focal
// plane. The pose places the lens in world space.
func (r *Ray) RefractParaxial(focalLength quantity.Length, pose quantity.Pose) error {
	if focalLength == 0 || !focalLength.IsFinite() {
		return fmt.Errorf("focal length must be non-zero and finite, got %v m", focalLength.Meters())
	}
	lp := pose.InversePoint(r.pos)
	ld := pose.InverseDir(r.dir)
	if ld.Z == 0 {
		return fmt.Errorf("paraxial refraction needs a ray with forward direction")
	}
	f := focalLength.Meters()
	out := r3.Vec{
		X: ld.X/ld.Z - lp.X/f,
		Y: ld.Y/ld.Z - lp.Y/f,
		Z: 1,
	}
	if ld.Z < 0 {
		out = r3.Scale(-1, out)
	}
	r.dir = pose.TransformDir(r3.Unit(out))
	return nil
}

// SplitEnergy keeps ratio of the ray's energy and returns a copy carrying
// the remainder.
func (r *Ray) SplitEnergy(ratio float64) (Ray, error) {
	if ratio < 0 || ratio > 1 || math.IsNaN(ratio) {
		return Ray{}, fmt.Errorf("splitting ratio must be within [0, 1], got %v", ratio)
	}
	e := r.energy.Joules()
	other := *r
	other.history = append([]r3.Vec(nil), r.history...)
	r.energy = quantity.Energy(e * ratio)
	other.energy = quantity.Energy(e - e*ratio)
	return other, nil
}

// AttenuateEnergy scales the ray energy by a transmission factor in [0, 1].
func (r *Ray) AttenuateEnergy(transmission float64) error {
	if transmission < 0 || transmission > 1 || math.IsNaN(transmission) {
		return fmt.Errorf("transmission must be within [0, 1], got %v", transmission)
	}
	r.energy = quantity.Energy(r.energy.Joules() * transmission)
	return nil
}
