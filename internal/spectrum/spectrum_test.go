// File: internal/spectrum/spectrum_test.go
package spectrum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/beamline-cli/internal/quantity"
)

func TestAddLine(t *testing.T) {
	s := New()
	require.NoError(t, s.AddLine(quantity.Nanometer(1053), quantity.Joule(1)))
	require.NoError(t, s.AddLine(quantity.Nanometer(527), quantity.Joule(0.5)))
	require.NoError(t, s.AddLine(quantity.Nanometer(1053), quantity.Joule(0.25)))

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.InDelta(t, 527.0, lines[0].Wavelength.Nanometers(), 1e-9)
	assert.InDelta(t, 1.25, lines[1].Energy.Joules(), 1e-12)
	assert.InDelta(t, 1.75, s.TotalEnergy().Joules(), 1e-12)
}

func TestAddLine_Invalid(t *testing.T) {
	s := New()
	assert.Error(t, s.AddLine(quantity.Nanometer(-1), quantity.Joule(1)))
	assert.Error(t, s.AddLine(quantity.Nanometer(1053), quantity.Joule(-1)))
	assert.Error(t, s.AddLine(quantity.Nanometer(1053), quantity.Energy(math.NaN())))
}

func TestHeNe(t *testing.T) {
	s, err := HeNe(quantity.Joule(1))
	require.NoError(t, err)
	assert.InDelta(t, 632.8, s.CenterWavelength().Nanometers(), 1e-9)
	assert.InDelta(t, 1.0, s.TotalEnergy().Joules(), 1e-12)
}

func TestCenterWavelength_Weighted(t *testing.T) {
	s, err := FromLaserLines([]Line{
		{Wavelength: quantity.Nanometer(500), Energy: quantity.Joule(1)},
		{Wavelength: quantity.Nanometer(1000), Energy: quantity.Joule(3)},
	})
	require.NoError(t, err)
	assert.InDelta(t, 875.0, s.CenterWavelength().Nanometers(), 1e-9)
}

func TestSplit_ConservesEnergy(t *testing.T) {
	for _, ratio := range []float64{0, 0.25, 0.5, 0.6, 1} {
		s, err := HeNe(quantity.Joule(1))
		require.NoError(t, err)
		kept, split, err := s.Split(ratio)
		require.NoError(t, err)
		assert.InDelta(t, ratio, kept.TotalEnergy().Joules(), 1e-12)
		assert.InDelta(t, 1.0, kept.TotalEnergy().Joules()+split.TotalEnergy().Joules(), 1e-12,
			"ratio %v must conserve energy", ratio)
	}
}

func TestSplit_InvalidRatio(t *testing.T) {
	s, _ := HeNe(quantity.Joule(1))
	_, _, err := s.Split(1.5)
	assert.Error(t, err)
	_, _, err = s.Split(-0.1)
	assert.Error(t, err)
}

func TestScaleAndFilter(t *testing.T) {
	s, _ := HeNe(quantity.Joule(2))
	require.NoError(t, s.Scale(0.5))
	assert.InDelta(t, 1.0, s.TotalEnergy().Joules(), 1e-12)
	assert.Error(t, s.Scale(-1))

	s.Filter(func(quantity.Length) float64 { return 0.25 })
	assert.InDelta(t, 0.25, s.TotalEnergy().Joules(), 1e-12)

	// Transmission outside [0,1] is clamped, never amplifying.
	s.Filter(func(quantity.Length) float64 { return 7.0 })
	assert.InDelta(t, 0.25, s.TotalEnergy().Joules(), 1e-12)
}

func TestMerge(t *testing.T) {
	a, _ := HeNe(quantity.Joule(1))
	b, _ := FromLaserLines([]Line{{Wavelength: quantity.Nanometer(1053), Energy: quantity.Joule(2)}})

	assert.Nil(t, Merge(nil, nil))
	m := Merge(a, b)
	require.NotNil(t, m)
	assert.InDelta(t, 3.0, m.TotalEnergy().Joules(), 1e-12)
	m = Merge(a, nil)
	assert.InDelta(t, 1.0, m.TotalEnergy().Joules(), 1e-12)
}

func TestClone_Independent(t *testing.T) {
	a, _ := HeNe(quantity.Joule(1))
	c := a.Clone()
	require.NoError(t, c.Scale(0))
	assert.InDelta(t, 1.0, a.TotalEnergy().Joules(), 1e-12)
	assert.InDelta(t, 0.0, c.TotalEnergy().Joules(), 1e-12)
}
