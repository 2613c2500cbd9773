// File: internal/ray/ray_test.go

package ray

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/beamline-cli/internal/geometry"
	"github.com/xkilldash9x/beamline-cli/internal/optics"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
)

func flatSurface(t *testing.T) *optics.Surface {
	t.Helper()
	return optics.NewSurface("front", geometry.Plane{})
}

func TestNewRay_Validation(t *testing.T) {
	_, err := New(r3.Vec{}, r3.Vec{}, quantity.Nanometer(1054), quantity.Joule(1))
	assert.Error(t, err, "zero direction")

	_, err = New(r3.Vec{}, r3.Vec{Z: 1}, quantity.Nanometer(-5), quantity.Joule(1))
	assert.Error(t, err, "negative wavelength")

	_, err = New(r3.Vec{}, r3.Vec{Z: 1}, quantity.Nanometer(1054), quantity.Joule(-1))
	assert.Error(t, err, "negative energy")

	r, err := New(r3.Vec{}, r3.Vec{Z: 2}, quantity.Nanometer(1054), quantity.Joule(1))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r3.Norm(r.Direction()), 1e-12, "direction is normalized")
	assert.True(t, r.Valid())
	assert.Equal(t, 1.0, r.RefractiveIndex())
}

func TestRay_Propagate(t *testing.T) {
	r, err := NewCollimated(quantity.Millimeter(1), 0, quantity.Nanometer(632.8), quantity.Joule(1))
	require.NoError(t, err)
	require.NoError(t, r.SetRefractiveIndex(1.5))

	require.NoError(t, r.Propagate(quantity.Millimeter(10)))
	assert.InDelta(t, 0.010, r.Position().Z, 1e-12)
	assert.InDelta(t, 0.001, r.Position().X, 1e-12)
	// Optical path length scales with the medium index.
	assert.InDelta(t, 0.015, r.PathLength().Meters(), 1e-12)
	assert.Len(t, r.History(), 1)

	err = r.Propagate(quantity.Length(math.Inf(1)))
	assert.Error(t, err)
}

func TestRefractOnSurface_NormalIncidence(t *testing.T) {
	surf := flatSurface(t)
	coat, err := optics.NewConstantR(0.04)
	require.NoError(t, err)
	surf.SetCoating(coat)

	r, err := New(r3.Vec{Z: -0.01}, r3.Vec{Z: 1}, quantity.Nanometer(1054), quantity.Joule(1))
	require.NoError(t, err)

	refl, err := r.RefractOnSurface(surf, 1.5, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, refl)

	// On-axis rays pass through undeviated.
	assert.InDelta(t, 1.0, r.Direction().Z, 1e-12)
	assert.InDelta(t, 0.0, r.Position().Z, 1e-12)
	assert.InDelta(t, 0.96, r.Energy().Joules(), 1e-12)
	assert.Equal(t, 1.5, r.RefractiveIndex())
	assert.Equal(t, 1, r.Refractions())
	assert.Equal(t, 0, r.Bounces())

	assert.InDelta(t, -1.0, refl.Direction().Z, 1e-12)
	assert.InDelta(t, 0.04, refl.Energy().Joules(), 1e-12)
	assert.Equal(t, 1, refl.Bounces())

	assert.InDelta(t, 1.0, surf.HitMap().TotalEnergy().Joules(), 1e-12)
}

func TestRefractOnSurface_SnellAngle(t *testing.T) {
	surf := flatSurface(t)
	sin45 := math.Sqrt(0.5)
	r, err := New(r3.Vec{X: -0.01, Z: -0.01}, r3.Vec{X: sin45, Z: sin45}, quantity.Nanometer(1054), quantity.Joule(1))
	require.NoError(t, err)

	_, err = r.RefractOnSurface(surf, 1.5, uuid.New())
	require.NoError(t, err)

	// sin(theta2) = sin(theta1) * n1/n2
	wantSin := sin45 / 1.5
	assert.InDelta(t, wantSin, r.Direction().X, 1e-12)
	assert.InDelta(t, math.Sqrt(1-wantSin*wantSin), r.Direction().Z, 1e-12)
}

func TestRefractOnSurface_ReflectedKeepsIncidentMedium(t *testing.T) {
	surf := flatSurface(t)
	coat, err := optics.NewConstantR(0.04)
	require.NoError(t, err)
	surf.SetCoating(coat)

	r, err := New(r3.Vec{Z: -0.01}, r3.Vec{Z: 1}, quantity.Nanometer(1054), quantity.Joule(1))
	require.NoError(t, err)

	refl, err := r.RefractOnSurface(surf, 1.5, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, refl)

	// The reflected ray never crossed the interface: it keeps the incident
	// medium and refraction count while the transmitted ray picks up both.
	assert.Equal(t, 1.0, refl.RefractiveIndex())
	assert.Equal(t, 0, refl.Refractions())
	assert.Equal(t, 1, refl.Bounces())
	assert.Equal(t, 1.5, r.RefractiveIndex())
	assert.Equal(t, 1, r.Refractions())
}

func TestRefractOnSurface_BackwardIncidence(t *testing.T) {
	surf := flatSurface(t)
	sin45 := math.Sqrt(0.5)
	r, err := New(r3.Vec{X: 0.01, Z: 0.01}, r3.Vec{X: -sin45, Z: -sin45}, quantity.Nanometer(1054), quantity.Joule(1))
	require.NoError(t, err)

	// A ray arriving from the far side of the surface sees the same Snell
	// bending, mirrored. This is how inverted elements and backwards
	// travelling ghosts hit their surfaces.
	_, err = r.RefractOnSurface(surf, 1.5, uuid.New())
	require.NoError(t, err)

	wantSin := sin45 / 1.5
	assert.InDelta(t, -wantSin, r.Direction().X, 1e-12)
	assert.InDelta(t, -math.Sqrt(1-wantSin*wantSin), r.Direction().Z, 1e-12)
	assert.Equal(t, 1.5, r.RefractiveIndex())
}

func TestRefractOnSurface_TotalInternalReflection(t *testing.T) {
	surf := flatSurface(t)
	sin45 := math.Sqrt(0.5)
	r, err := New(r3.Vec{X: -0.01, Z: -0.01}, r3.Vec{X: sin45, Z: sin45}, quantity.Nanometer(1054), quantity.Joule(1))
	require.NoError(t, err)
	require.NoError(t, r.SetRefractiveIndex(1.5))

	refl, err := r.RefractOnSurface(surf, 1.0, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, refl, "TIR folds the ray instead of splitting it")
	assert.True(t, r.Valid())
	assert.Equal(t, 1, r.Bounces())
	assert.InDelta(t, 1.0, r.Energy().Joules(), 1e-12, "TIR is lossless")
	assert.InDelta(t, sin45, r.Direction().X, 1e-12)
	assert.InDelta(t, -sin45, r.Direction().Z, 1e-12)
	assert.Equal(t, 1.5, r.RefractiveIndex())
}

func TestRefractOnSurface_MirrorSemantics(t *testing.T) {
	surf := flatSurface(t)
	coat, err := optics.NewConstantR(1.0)
	require.NoError(t, err)
	surf.SetCoating(coat)

	r, err := New(r3.Vec{Z: -0.01}, r3.Vec{Z: 1}, quantity.Nanometer(1054), quantity.Joule(1))
	require.NoError(t, err)

	refl, err := r.RefractOnSurface(surf, SameIndex, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, refl)

	// A perfect mirror leaves no transmitted energy behind.
	assert.InDelta(t, 0.0, r.Energy().Joules(), 1e-12)
	assert.Equal(t, 0, r.Refractions(), "same-index transit is not a refraction")
	assert.InDelta(t, 1.0, refl.Energy().Joules(), 1e-12)
	assert.InDelta(t, -1.0, refl.Direction().Z, 1e-12)
}

func TestRefractOnSurface_MissAndBlock(t *testing.T) {
	t.Run("miss invalidates", func(t *testing.T) {
		surf := flatSurface(t)
		r, err := New(r3.Vec{Z: -0.01}, r3.Vec{Z: -1}, quantity.Nanometer(1054), quantity.Joule(1))
		require.NoError(t, err)
		refl, err := r.RefractOnSurface(surf, 1.5, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, refl)
		assert.False(t, r.Valid())
	})

	t.Run("aperture blocks", func(t *testing.T) {
		surf := flatSurface(t)
		ap, err := geometry.NewCircleAperture(0.001, 0, 0)
		require.NoError(t, err)
		surf.SetAperture(ap)
		r, err := NewCollimated(quantity.Millimeter(5), 0, quantity.Nanometer(1054), quantity.Joule(1))
		require.NoError(t, err)
		r.pos.Z = -0.01
		refl, err := r.RefractOnSurface(surf, 1.5, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, refl)
		assert.False(t, r.Valid())
		assert.True(t, surf.HitMap().IsEmpty(), "blocked rays leave no hit")
	})
}

func TestRay_RefractParaxial(t *testing.T) {
	f := quantity.Millimeter(100)
	r, err := NewCollimated(quantity.Millimeter(10), 0, quantity.Nanometer(1054), quantity.Joule(1))
	require.NoError(t, err)

	require.NoError(t, r.RefractParaxial(f, quantity.IdentityPose()))
	// A parallel ray crosses the axis in the focal plane.
	d := r.Direction()
	zToAxis := -r.Position().X / (d.X / d.Z)
	assert.InDelta(t, 0.1, zToAxis, 1e-9)

	err = r.RefractParaxial(0, quantity.IdentityPose())
	assert.Error(t, err)
}

func TestRay_SplitEnergy(t *testing.T) {
	r, err := New(r3.Vec{}, r3.Vec{Z: 1}, quantity.Nanometer(632.8), quantity.Joule(1))
	require.NoError(t, err)

	other, err := r.SplitEnergy(0.6)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, r.Energy().Joules(), 1e-12)
	assert.InDelta(t, 0.4, other.Energy().Joules(), 1e-12)

	_, err = r.SplitEnergy(1.5)
	assert.Error(t, err)
}

func TestBundle_Collimated(t *testing.T) {
	b, err := Collimated(quantity.Millimeter(5), 2, quantity.Nanometer(1054), quantity.Joule(1))
	require.NoError(t, err)
	// 1 center + 6 + 12 rays.
	assert.Equal(t, 19, b.Len())
	assert.InDelta(t, 1.0, b.TotalEnergy().Joules(), 1e-12)

	for _, r := range b.Rays() {
		assert.LessOrEqual(t, math.Hypot(r.Position().X, r.Position().Y), 0.005+1e-12)
	}

	single, err := SingleAlongZ(quantity.Nanometer(1054), quantity.Joule(2))
	require.NoError(t, err)
	assert.Equal(t, 1, single.Len())
	assert.InDelta(t, 2.0, single.TotalEnergy().Joules(), 1e-12)

	_, err = Collimated(quantity.Millimeter(-1), 3, quantity.Nanometer(1054), quantity.Joule(1))
	assert.Error(t, err)
}

func TestBundle_CollimatedGaussian(t *testing.T) {
	b, err := CollimatedGaussian(quantity.Millimeter(5), quantity.Millimeter(2), 21, quantity.Nanometer(1054), quantity.Joule(3))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, b.TotalEnergy().Joules(), 1e-9, "weights are normalized")

	// The on-axis ray carries the most energy.
	var center, corner quantity.Energy
	for _, r := range b.Rays() {
		p := r.Position()
		if p.X == 0 && p.Y == 0 {
			center = r.Energy()
		}
		if r.Energy() > 0 && math.Hypot(p.X, p.Y) > 0.0045 {
			corner = r.Energy()
		}
	}
	assert.Greater(t, center.Joules(), corner.Joules())
}

func TestBundle_PointSource(t *testing.T) {
	b, err := PointSource(quantity.Degree(10), 2, quantity.Nanometer(632.8), quantity.Joule(1))
	require.NoError(t, err)
	assert.Equal(t, 19, b.Len())
	maxSin := math.Sin(10 * math.Pi / 180)
	for _, r := range b.Rays() {
		d := r.Direction()
		assert.LessOrEqual(t, math.Hypot(d.X, d.Y), maxSin+1e-9)
		assert.Greater(t, d.Z, 0.0)
	}

	_, err = PointSource(quantity.Degree(95), 2, quantity.Nanometer(632.8), quantity.Joule(1))
	assert.Error(t, err)
}

func TestBundle_RefractOnSurface_Policies(t *testing.T) {
	// A small convex sphere: marginal rays miss it entirely.
	sph, err := geometry.NewSphere(0.010)
	require.NoError(t, err)

	newBundle := func(t *testing.T) *Bundle {
		b := NewBundle()
		onAxis, err := New(r3.Vec{Z: -0.01}, r3.Vec{Z: 1}, quantity.Nanometer(1054), quantity.Joule(0.5))
		require.NoError(t, err)
		marginal, err := New(r3.Vec{X: 0.02, Z: -0.01}, r3.Vec{Z: 1}, quantity.Nanometer(1054), quantity.Joule(0.5))
		require.NoError(t, err)
		b.Add(onAxis)
		b.Add(marginal)
		return b
	}

	t.Run("stop drops missing rays", func(t *testing.T) {
		b := newBundle(t)
		_, blocked, err := b.RefractOnSurface(optics.NewSurface("lens front", sph), 1.5, MissedStop)
		require.NoError(t, err)
		assert.Equal(t, 0, blocked)
		assert.Equal(t, 1, b.ValidLen())
	})

	t.Run("ignore keeps missing rays", func(t *testing.T) {
		b := newBundle(t)
		_, blocked, err := b.RefractOnSurface(optics.NewSurface("lens front", sph), 1.5, MissedIgnore)
		require.NoError(t, err)
		assert.Equal(t, 0, blocked)
		assert.Equal(t, 2, b.ValidLen())
		assert.InDelta(t, 1.0, r3.Norm(b.Rays()[1].Direction()), 1e-12)
	})

	t.Run("aperture block is counted", func(t *testing.T) {
		b := newBundle(t)
		surf := optics.NewSurface("stop", geometry.Plane{})
		ap, err := geometry.NewCircleAperture(0.001, 0, 0)
		require.NoError(t, err)
		surf.SetAperture(ap)
		_, blocked, err := b.RefractOnSurface(surf, 1.5, MissedStop)
		require.NoError(t, err)
		assert.Equal(t, 1, blocked)
		assert.Equal(t, 1, b.ValidLen())
	})
}

func TestBundle_SplitConservation(t *testing.T) {
	for _, ratio := range []float64{0, 0.25, 0.5, 0.6, 1} {
		b, err := Collimated(quantity.Millimeter(5), 1, quantity.Nanometer(632.8), quantity.Joule(1))
		require.NoError(t, err)
		other, err := b.Split(ratio)
		require.NoError(t, err)
		assert.InDelta(t, ratio, b.TotalEnergy().Joules(), 1e-12)
		assert.InDelta(t, 1-ratio, other.TotalEnergy().Joules(), 1e-12)
		assert.NotEqual(t, b.ID(), other.ID())
	}
}

func TestBundle_Filters(t *testing.T) {
	b := NewBundle()
	weak, err := New(r3.Vec{}, r3.Vec{Z: 1}, quantity.Nanometer(1054), quantity.Joule(1e-9))
	require.NoError(t, err)
	strong, err := New(r3.Vec{}, r3.Vec{Z: 1}, quantity.Nanometer(1054), quantity.Joule(1))
	require.NoError(t, err)
	bounced := strong
	bounced.bounces = 3
	refracted := strong
	refracted.refractions = 5
	helper := weak
	helper.markHelper()
	b.Add(weak)
	b.Add(strong)
	b.Add(bounced)
	b.Add(refracted)
	b.Add(helper)

	assert.Equal(t, 1, b.FilterByBounces(2))
	assert.Equal(t, 1, b.FilterByRefractions(4))
	assert.Equal(t, 1, b.FilterByMinEnergy(quantity.Joule(1e-6)), "helpers survive the energy floor")
	assert.Equal(t, 2, b.ValidLen())
}

func TestBundle_CollimatedWithHelpers(t *testing.T) {
	b, err := CollimatedWithHelpers(quantity.Millimeter(5), 1, quantity.Micrometer(50), quantity.Nanometer(1054), quantity.Joule(1))
	require.NoError(t, err)
	require.Equal(t, 28, b.Len(), "each of 7 primaries brings 3 helpers")

	rays := b.Rays()
	for i := 0; i < len(rays); i += 4 {
		p := rays[i].Position()
		assert.False(t, rays[i].Helper())
		assert.Greater(t, rays[i].Energy().Joules(), 0.0)
		for k := 1; k < 4; k++ {
			h := rays[i+k]
			assert.True(t, h.Helper())
			assert.Zero(t, h.Energy().Joules())
			assert.InDelta(t, 50e-6, math.Max(math.Abs(h.Position().X-p.X), math.Abs(h.Position().Y-p.Y)), 1e-12)
		}
	}
	assert.InDelta(t, 1.0, b.TotalEnergy().Joules(), 1e-12)
}

func TestBundle_CenterWavelengthAndClone(t *testing.T) {
	b := NewBundle()
	r1, err := New(r3.Vec{}, r3.Vec{Z: 1}, quantity.Nanometer(1000), quantity.Joule(3))
	require.NoError(t, err)
	r2, err := New(r3.Vec{}, r3.Vec{Z: 1}, quantity.Nanometer(500), quantity.Joule(1))
	require.NoError(t, err)
	b.Add(r1)
	b.Add(r2)
	assert.InDelta(t, 875e-9, b.CenterWavelength().Meters(), 1e-15)

	c := b.Clone()
	require.NoError(t, c.Propagate(quantity.Millimeter(10)))
	assert.Equal(t, b.ID(), c.ID())
	assert.InDelta(t, 0.0, b.Rays()[0].Position().Z, 1e-15, "clone is independent")
}
