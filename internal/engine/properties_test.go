// File: internal/engine/properties_test.go

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/beamline-cli/internal/quantity"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
	"github.com/xkilldash9x/beamline-cli/internal/spectrum"
)

func TestProperties_DefineAndSet(t *testing.T) {
	p := NewProperties()
	require.NoError(t, p.Define("ratio", 0.5))
	require.NoError(t, p.Define("rings", 5))
	require.NoError(t, p.DefineReadOnly("kind", "lens"))
	require.NoError(t, p.Define("focal length", quantity.Millimeter(100)))

	err := p.Define("ratio", 0.7)
	assert.Equal(t, ErrCodeInvalidParameters, CodeOf(err), "redefinition")

	require.NoError(t, p.Set("ratio", 0.7))
	v, err := p.Float("ratio")
	require.NoError(t, err)
	assert.Equal(t, 0.7, v)

	err = p.Set("missing", 1)
	assert.Equal(t, ErrCodeUnknownProperty, CodeOf(err))

	err = p.Set("ratio", "high")
	assert.Equal(t, ErrCodeWrongPropertyType, CodeOf(err))

	err = p.Set("kind", "mirror")
	assert.Equal(t, ErrCodeReadOnlyProperty, CodeOf(err))

	_, err = p.Int("ratio")
	assert.Equal(t, ErrCodeWrongPropertyType, CodeOf(err))

	f, err := p.Length("focal length")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, f.Meters(), 1e-12)

	assert.Equal(t, []string{"focal length", "kind", "ratio", "rings"}, p.Keys())
}

func TestProperties_Export(t *testing.T) {
	p := NewProperties()
	require.NoError(t, p.Define("focal length", quantity.Millimeter(100)))
	require.NoError(t, p.Define("pulse energy", quantity.Joule(2)))
	require.NoError(t, p.Define("inverted", false))

	out := p.Export()
	assert.InDelta(t, 0.1, out["focal length"].(float64), 1e-12)
	assert.InDelta(t, 2.0, out["pulse energy"].(float64), 1e-12)
	assert.Equal(t, false, out["inverted"])
}

func TestLightData_Accessors(t *testing.T) {
	s, err := spectrum.HeNe(quantity.Joule(1))
	require.NoError(t, err)
	e := EnergyData(s)
	assert.Equal(t, KindEnergy, e.Kind())
	got, err := e.Spectrum()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.TotalEnergy().Joules(), 1e-12)

	_, err = e.Bundle()
	assert.Equal(t, ErrCodeWrongLightData, CodeOf(err))

	b, err := ray.SingleAlongZ(quantity.Nanometer(1054), quantity.Joule(1))
	require.NoError(t, err)
	geo := GeometricData(b)
	live, history, err := geo.LiveBundle()
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Same(t, b, live)

	_, err = geo.Spectrum()
	assert.Equal(t, ErrCodeWrongLightData, CodeOf(err))

	_, _, err = FourierData().LiveBundle()
	assert.Equal(t, ErrCodeWrongLightData, CodeOf(err))
}

func TestLightData_GhostLiveBundle(t *testing.T) {
	b1, err := ray.SingleAlongZ(quantity.Nanometer(1054), quantity.Joule(1))
	require.NoError(t, err)
	b2, err := ray.SingleAlongZ(quantity.Nanometer(1054), quantity.Joule(0.1))
	require.NoError(t, err)

	gd := GhostFocusData([]*ray.Bundle{b1, b2})
	live, history, err := gd.LiveBundle()
	require.NoError(t, err)
	assert.Same(t, b2, live)
	require.Len(t, history, 1)
	assert.Same(t, b1, history[0])

	b3, err := ray.SingleAlongZ(quantity.Nanometer(1054), quantity.Joule(0.01))
	require.NoError(t, err)
	replaced := gd.WithLiveBundle(b3)
	live, _, err = replaced.LiveBundle()
	require.NoError(t, err)
	assert.Same(t, b3, live)
	assert.InDelta(t, 1.01, replaced.TotalEnergy().Joules(), 1e-12)

	// The original payload is untouched.
	live, _, err = gd.LiveBundle()
	require.NoError(t, err)
	assert.Same(t, b2, live)
}

func TestLightData_Clone(t *testing.T) {
	b, err := ray.SingleAlongZ(quantity.Nanometer(1054), quantity.Joule(1))
	require.NoError(t, err)
	geo := GeometricData(b)
	c := geo.Clone()
	cb, _, err := c.LiveBundle()
	require.NoError(t, err)
	require.NoError(t, cb.Propagate(quantity.Millimeter(10)))
	assert.InDelta(t, 0.0, b.Rays()[0].Position().Z, 1e-15, "clone does not alias")
}
