// File: internal/hitmap/hitmap_test.go
package hitmap

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/beamline-cli/internal/quantity"
)

func TestHitMap_AddAndReset(t *testing.T) {
	m := New()
	assert.True(t, m.IsEmpty())
	assert.Equal(t, -1, m.MaxBounce())

	id := uuid.New()
	m.Add(0, id, HitPoint{X: 0, Y: 0, Energy: quantity.Joule(1)})
	m.Add(2, id, HitPoint{X: 1e-3, Y: 0, Energy: quantity.Joule(0.5)})

	assert.False(t, m.IsEmpty())
	assert.Equal(t, 2, m.MaxBounce())
	assert.Len(t, m.Hits(0, id), 1)
	assert.Empty(t, m.Hits(1, id))
	assert.Len(t, m.Merged(), 2)
	assert.InDelta(t, 1.5, m.TotalEnergy().Joules(), 1e-12)
	assert.Equal(t, []uuid.UUID{id}, m.Bundles(2))

	m.Reset()
	assert.True(t, m.IsEmpty())
	assert.Empty(t, m.Critical())
}

// gaussianDisk builds a deterministic circular bundle footprint: a square
// grid of points clipped to a disk of the given radius, energies following
// a Gaussian profile. Returns the points and the total energy.
func gaussianDisk(radius float64, n int) []HitPoint {
	sigma := radius / 3.0
	step := 2 * radius / float64(n)
	var pts []HitPoint
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x := -radius + (float64(i)+0.5)*step
			y := -radius + (float64(j)+0.5)*step
			if x*x+y*y > radius*radius {
				continue
			}
			e := math.Exp(-(x*x + y*y) / (2 * sigma * sigma))
			pts = append(pts, HitPoint{X: x, Y: y, Energy: quantity.Energy(e)})
		}
	}
	return pts
}

func TestEstimators_Converge(t *testing.T) {
	// >= 10000 points inside the disk; 120x120 grid clipped to a circle
	// keeps about pi/4 of its 14400 points.
	pts := gaussianDisk(0.01, 120)
	require.GreaterOrEqual(t, len(pts), 10000)

	vor, err := Voronoi{}.Estimate(pts)
	require.NoError(t, err)
	bin, err := Binning{NX: 60, NY: 60}.Estimate(pts)
	require.NoError(t, err)

	require.Greater(t, vor.Average.JoulesPerSquareMeter(), 0.0)
	relErr := math.Abs(vor.Average.JoulesPerSquareMeter()-bin.Average.JoulesPerSquareMeter()) /
		vor.Average.JoulesPerSquareMeter()
	assert.Less(t, relErr, 0.01, "voronoi %v vs binning %v", vor.Average, bin.Average)

	// Peaks estimate the same Gaussian maximum.
	assert.InEpsilon(t, vor.Peak.JoulesPerSquareMeter(), bin.Peak.JoulesPerSquareMeter(), 0.05)
}

func TestVoronoi_CellIsCircumcenterDual(t *testing.T) {
	// Four zero-energy points around a unit-energy center. The center's
	// Voronoi cell is the square spanned by the four triangle circumcenters
	// (+-0.5, +-0.5), exactly 1 m^2, so its fluence is exactly 1 J/m^2. A
	// barycentric share of the incident triangles would report 2/3 m^2.
	pts := []HitPoint{
		{X: 0, Y: 0, Energy: quantity.Joule(1)},
		{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1},
	}
	res, err := Voronoi{}.Estimate(pts)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Peak.JoulesPerSquareMeter(), 1e-12)
	assert.InDelta(t, 1.0, res.Average.JoulesPerSquareMeter(), 1e-12)
}

func TestKDE_Estimate(t *testing.T) {
	pts := gaussianDisk(0.01, 60)
	kde, err := KDE{}.Estimate(pts)
	require.NoError(t, err)
	vor, err := Voronoi{}.Estimate(pts)
	require.NoError(t, err)
	// KDE smooths the peak; it must still be the same order of magnitude.
	assert.Greater(t, kde.Peak.JoulesPerSquareMeter(), 0.1*vor.Peak.JoulesPerSquareMeter())
	assert.Less(t, kde.Peak.JoulesPerSquareMeter(), 2.0*vor.Peak.JoulesPerSquareMeter())
}

func TestKDE_TooFewPoints(t *testing.T) {
	_, err := KDE{}.Estimate([]HitPoint{{X: 0, Y: 0, Energy: 1}})
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestVoronoi_TooFewPoints(t *testing.T) {
	_, err := Voronoi{}.Estimate([]HitPoint{{X: 0, Y: 0, Energy: 1}, {X: 1, Y: 0, Energy: 1}})
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestBinning_Degenerate(t *testing.T) {
	_, err := Binning{}.Estimate([]HitPoint{{X: 0, Y: 0, Energy: 1}, {X: 0, Y: 1, Energy: 1}})
	assert.Error(t, err)
	_, err = Binning{}.Estimate(nil)
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestHelperRays_Estimate(t *testing.T) {
	// One primary with 1 J over a 1 mm x 1 mm element: 1e6 J/m^2.
	pts := []HitPoint{
		{X: 0, Y: 0, Energy: quantity.Joule(1)},
		{X: 1e-3, Y: 0, Energy: 0},
		{X: 0, Y: 1e-3, Energy: 0},
		{X: 1e-3, Y: 1e-3, Energy: 0},
	}
	res, err := HelperRays{}.Estimate(pts)
	require.NoError(t, err)
	assert.InDelta(t, 1e6, res.Peak.JoulesPerSquareMeter(), 1e-3)

	_, err = HelperRays{}.Estimate(pts[:3])
	assert.Error(t, err)
}

func TestEvaluateCritical(t *testing.T) {
	m := New()
	id := uuid.New()
	for _, p := range gaussianDisk(0.01, 40) {
		m.Add(1, id, p)
	}

	t.Run("BelowThreshold", func(t *testing.T) {
		added := m.EvaluateCritical(quantity.Fluence(math.Inf(1)), Voronoi{})
		assert.Empty(t, added)
	})

	t.Run("AboveThreshold", func(t *testing.T) {
		added := m.EvaluateCritical(quantity.Fluence(1e-12), Voronoi{})
		require.Len(t, added, 1)
		assert.Equal(t, id, added[0].Bundle)
		assert.Equal(t, 1, added[0].Bounce)
		assert.Greater(t, added[0].Peak.JoulesPerSquareMeter(), 0.0)
		assert.Len(t, m.Critical(), 1)
	})

	t.Run("DisabledThreshold", func(t *testing.T) {
		assert.Empty(t, m.EvaluateCritical(0, Voronoi{}))
	})
}

func TestByName(t *testing.T) {
	for _, name := range []string{"voronoi", "kde", "binning", "helper-rays", ""} {
		e, err := ByName(name)
		require.NoError(t, err)
		require.NotNil(t, e)
	}
	_, err := ByName("nearest")
	assert.Error(t, err)
}
