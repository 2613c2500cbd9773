// File: internal/ray/bundle.go

package ray

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/beamline-cli/internal/optics"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
)

// MissedSurfacePolicy controls what happens to rays that do not intersect a
// surface during bundle refraction.
type MissedSurfacePolicy int

const (
	// MissedStop drops rays that miss the surface.
	MissedStop MissedSurfacePolicy = iota
	// MissedIgnore lets rays that miss the surface continue unchanged.
	MissedIgnore
)

// Bundle is an ordered collection of rays sharing an identity. The identity
// keys hit-map entries so fluence can be attributed per bundle and bounce
// level.
type Bundle struct {
	id   uuid.UUID
	rays []Ray
}

// NewBundle creates an empty bundle with a fresh identity.
func NewBundle() *Bundle {
	return &Bundle{id: uuid.New()}
}

// ID returns the bundle identity.
func (b *Bundle) ID() uuid.UUID { return b.id }

// Add appends a ray to the bundle.
func (b *Bundle) Add(r Ray) { b.rays = append(b.rays, r) }

// Len returns the total number of rays, valid or not.
func (b *Bundle) Len() int { return len(b.rays) }

// ValidLen returns the number of rays still participating.
func (b *Bundle) ValidLen() int {
	n := 0
	for i := range b.rays {
		if b.rays[i].Valid() {
			n++
		}
	}
	return n
}

// Rays exposes the backing slice. Mutations through the slice are visible to
// the bundle.
func (b *Bundle) Rays() []Ray { return b.rays }

// TotalEnergy sums the energy of all valid rays.
func (b *Bundle) TotalEnergy() quantity.Energy {
	var total float64
	for i := range b.rays {
		if b.rays[i].Valid() {
			total += b.rays[i].Energy().Joules()
		}
	}
	return quantity.Energy(total)
}

// CenterWavelength returns the energy-weighted mean wavelength of the valid
// rays, or zero for an empty bundle.
func (b *Bundle) CenterWavelength() quantity.Length {
	var sum, weight float64
	for i := range b.rays {
		if !b.rays[i].Valid() {
			continue
		}
		e := b.rays[i].Energy().Joules()
		sum += b.rays[i].Wavelength().Meters() * e
		weight += e
	}
	if weight == 0 {
		return 0
	}
	return quantity.Length(sum / weight)
}

// MaxBounces returns the highest bounce count among valid rays.
func (b *Bundle) MaxBounces() int {
	m := 0
	for i := range b.rays {
		if b.rays[i].Valid() && b.rays[i].Bounces() > m {
			m = b.rays[i].Bounces()
		}
	}
	return m
}

// Clone returns a deep copy sharing the same identity.
func (b *Bundle) Clone() *Bundle {
	c := &Bundle{id: b.id, rays: make([]Ray, len(b.rays))}
	copy(c.rays, b.rays)
	for i := range c.rays {
		c.rays[i].history = append([]r3.Vec(nil), b.rays[i].history...)
	}
	return c
}

// Propagate advances every valid ray by the same geometric distance.
func (b *Bundle) Propagate(d quantity.Length) error {
	for i := range b.rays {
		if !b.rays[i].Valid() {
			continue
		}
		if err := b.rays[i].Propagate(d); err != nil {
			return err
		}
	}
	return nil
}

// RefractOnSurface refracts every valid ray on the surface. Reflected rays
// with positive energy are gathered in a new bundle sharing this bundle's
// identity; nil is returned when nothing reflects. blocked counts rays
// removed by the aperture. Rays that geometrically miss the surface are
// dropped or kept depending on policy.
func (b *Bundle) RefractOnSurface(surf *optics.Surface, n2 float64, policy MissedSurfacePolicy) (reflected *Bundle, blocked int, err error) {
	return b.RefractOnSurfaceIndexed(surf, func(quantity.Length) (float64, error) { return n2, nil }, policy)
}

// RefractParaxial applies an ideal thin-lens steering to every valid ray.
func (b *Bundle) RefractParaxial(focalLength quantity.Length, pose quantity.Pose) error {
	for i := range b.rays {
		if !b.rays[i].Valid() {
			continue
		}
		if err := b.rays[i].RefractParaxial(focalLength, pose); err != nil {
			return err
		}
	}
	return nil
}

// AttenuateEnergy scales the energy of every valid ray.
func (b *Bundle) AttenuateEnergy(transmission float64) error {
	for i := range b.rays {
		if !b.rays[i].Valid() {
			continue
		}
		if err := b.rays[i].AttenuateEnergy(transmission); err != nil {
			return err
		}
	}
	return nil
}

// Merge combines bundles into one. The result keeps the identity of the
// first non-nil bundle; nil and empty bundles are skipped. Merging nothing
// returns nil.
func Merge(bundles ...*Bundle) *Bundle {
	var out *Bundle
	for _, b := range bundles {
		if b == nil || len(b.rays) == 0 {
			continue
		}
		if out == nil {
			out = &Bundle{id: b.id}
		}
		out.rays = append(out.rays, b.rays...)
	}
	return out
}

// RefractOnSurfaceIndexed behaves like RefractOnSurface with a per-ray
// refractive index behind the surface, evaluated from each ray's
// wavelength. This is how dispersive materials are traced.
func (b *Bundle) RefractOnSurfaceIndexed(surf *optics.Surface, indexAt func(quantity.Length) (float64, error), policy MissedSurfacePolicy) (reflected *Bundle, blocked int, err error) {
	var refl []Ray
	for i := range b.rays {
		if !b.rays[i].Valid() {
			continue
		}
		n2, err := indexAt(b.rays[i].Wavelength())
		if err != nil {
			return nil, blocked, err
		}
		before := b.rays[i]
		r, err := b.rays[i].RefractOnSurface(surf, n2, b.id)
		if err != nil {
			return nil, blocked, err
		}
		if !b.rays[i].Valid() {
			if _, _, hit := surf.Intersect(before.Position(), before.Direction()); hit {
				blocked++
			} else if policy == MissedIgnore {
				b.rays[i] = before
			}
			continue
		}
		if r != nil && r.Energy().Joules() > 0 {
			refl = append(refl, *r)
		}
	}
	if len(refl) == 0 {
		return nil, blocked, nil
	}
	return &Bundle{id: b.id, rays: refl}, blocked, nil
}

// Split keeps ratio of every valid ray's energy in place and returns a new
// bundle (fresh identity) carrying the remainder.
func (b *Bundle) Split(ratio float64) (*Bundle, error) {
	out := NewBundle()
	for i := range b.rays {
		if !b.rays[i].Valid() {
			continue
		}
		other, err := b.rays[i].SplitEnergy(ratio)
		if err != nil {
			return nil, err
		}
		out.Add(other)
	}
	return out, nil
}

// FilterByBounces invalidates valid rays whose bounce count exceeds max and
// returns the number of rays removed.
func (b *Bundle) FilterByBounces(max int) int {
	removed := 0
	for i := range b.rays {
		if b.rays[i].Valid() && b.rays[i].Bounces() > max {
			b.rays[i].SetInvalid()
			removed++
		}
	}
	return removed
}

// FilterByRefractions invalidates valid rays whose refraction count exceeds
// max and returns the number of rays removed.
func (b *Bundle) FilterByRefractions(max int) int {
	removed := 0
	for i := range b.rays {
		if b.rays[i].Valid() && b.rays[i].Refractions() > max {
			b.rays[i].SetInvalid()
			removed++
		}
	}
	return removed
}

// FilterByMinEnergy invalidates valid rays below the energy floor. Helper
// rays are exempt since they carry no energy by construction.
func (b *Bundle) FilterByMinEnergy(min quantity.Energy) int {
	removed := 0
	for i := range b.rays {
		if b.rays[i].Valid() && !b.rays[i].Helper() && b.rays[i].Energy() < min {
			b.rays[i].SetInvalid()
			removed++
		}
	}
	return removed
}

// Collimated creates a hexapolar bundle of rays along +Z filling a disk of
// the given radius. ringCount 0 produces a single on-axis ray. The total
// energy is divided equally among the rays.
func Collimated(radius quantity.Length, ringCount int, wavelength quantity.Length, totalEnergy quantity.Energy) (*Bundle, error) {
	if ringCount < 0 {
		return nil, fmt.Errorf("ring count must be >= 0, got %d", ringCount)
	}
	if ringCount > 0 && radius.Meters() <= 0 {
		return nil, fmt.Errorf("bundle radius must be positive, got %v m", radius.Meters())
	}
	points := hexapolar(radius.Meters(), ringCount)
	perRay := quantity.Energy(totalEnergy.Joules() / float64(len(points)))
	b := NewBundle()
	for _, p := range points {
		r, err := New(p, r3.Vec{Z: 1}, wavelength, perRay)
		if err != nil {
			return nil, err
		}
		b.Add(r)
	}
	return b, nil
}

// CollimatedGaussian creates a square-grid bundle along +Z clipped to a disk
// of the given radius, with per-ray energies following a radial Gaussian of
// the given standard deviation, normalized to the total energy.
func CollimatedGaussian(radius, sigma quantity.Length, pointsPerSide int, wavelength quantity.Length, totalEnergy quantity.Energy) (*Bundle, error) {
	if pointsPerSide < 1 {
		return nil, fmt.Errorf("points per side must be >= 1, got %d", pointsPerSide)
	}
	if radius.Meters() <= 0 || sigma.Meters() <= 0 {
		return nil, fmt.Errorf("radius and sigma must be positive")
	}
	rr := radius.Meters()
	ss := sigma.Meters()
	type sample struct {
		x, y, w float64
	}
	var samples []sample
	var weight float64
	for iy := 0; iy < pointsPerSide; iy++ {
		for ix := 0; ix < pointsPerSide; ix++ {
			x := -rr + 2*rr*float64(ix)/float64(pointsPerSide-1)
			y := -rr + 2*rr*float64(iy)/float64(pointsPerSide-1)
			if pointsPerSide == 1 {
				x, y = 0, 0
			}
			if x*x+y*y > rr*rr {
				continue
			}
			w := math.Exp(-(x*x + y*y) / (2 * ss * ss))
			samples = append(samples, sample{x, y, w})
			weight += w
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no grid points fall within the bundle radius")
	}
	b := NewBundle()
	for _, s := range samples {
		e := quantity.Energy(totalEnergy.Joules() * s.w / weight)
		r, err := New(r3.Vec{X: s.x, Y: s.y}, r3.Vec{Z: 1}, wavelength, e)
		if err != nil {
			return nil, err
		}
		b.Add(r)
	}
	return b, nil
}

// PointSource creates a bundle of rays emanating from the origin into a cone
// of the given half angle around +Z, laid out in hexapolar direction rings.
// The total energy is divided equally.
func PointSource(halfAngle quantity.Angle, ringCount int, wavelength quantity.Length, totalEnergy quantity.Energy) (*Bundle, error) {
	if ringCount < 0 {
		return nil, fmt.Errorf("ring count must be >= 0, got %d", ringCount)
	}
	theta := halfAngle.Radians()
	if theta < 0 || theta >= math.Pi/2 {
		return nil, fmt.Errorf("cone half angle must be within [0, pi/2), got %v rad", theta)
	}
	// Reuse the hexapolar layout in tangent space.
	points := hexapolar(math.Tan(theta), ringCount)
	perRay := quantity.Energy(totalEnergy.Joules() / float64(len(points)))
	b := NewBundle()
	for _, p := range points {
		r, err := New(r3.Vec{}, r3.Vec{X: p.X, Y: p.Y, Z: 1}, wavelength, perRay)
		if err != nil {
			return nil, err
		}
		b.Add(r)
	}
	return b, nil
}

// SingleAlongZ creates a bundle with one on-axis ray.
func SingleAlongZ(wavelength quantity.Length, energy quantity.Energy) (*Bundle, error) {
	return Collimated(0, 0, wavelength, energy)
}

// CollimatedWithHelpers creates a hexapolar bundle where every energy
// carrying ray is followed by three zero-energy helper rays offset by delta
// in x, y and the diagonal. The resulting hit maps feed the helper-ray
// fluence estimator, which reads hits in strides of four.
func CollimatedWithHelpers(radius quantity.Length, ringCount int, delta quantity.Length, wavelength quantity.Length, totalEnergy quantity.Energy) (*Bundle, error) {
	if delta.Meters() <= 0 {
		return nil, fmt.Errorf("helper offset must be positive, got %v m", delta.Meters())
	}
	base, err := Collimated(radius, ringCount, wavelength, totalEnergy)
	if err != nil {
		return nil, err
	}
	d := delta.Meters()
	out := &Bundle{id: base.id}
	for _, primary := range base.rays {
		out.Add(primary)
		p := primary.Position()
		for _, off := range []r3.Vec{{X: d}, {Y: d}, {X: d, Y: d}} {
			h, err := New(r3.Add(p, off), r3.Vec{Z: 1}, wavelength, 0)
			if err != nil {
				return nil, err
			}
			h.markHelper()
			out.Add(h)
		}
	}
	return out, nil
}

// hexapolar lays out one center point plus rings of 6*i points at radius
// r*i/ringCount.
func hexapolar(r float64, ringCount int) []r3.Vec {
	points := []r3.Vec{{}}
	for i := 1; i <= ringCount; i++ {
		ringR := r * float64(i) / float64(ringCount)
		n := 6 * i
		for k := 0; k < n; k++ {
			phi := 2 * math.Pi * float64(k) / float64(n)
			points = append(points, r3.Vec{X: ringR * math.Cos(phi), Y: ringR * math.Sin(phi)})
		}
	}
	return points
}
