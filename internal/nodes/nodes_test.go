// File: internal/nodes/nodes_test.go

package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
	"github.com/xkilldash9x/beamline-cli/internal/spectrum"
)

func energyCtx() *engine.AnalysisContext {
	return engine.NewAnalysisContext(engine.ModeEnergy, nil)
}

func rayCtx() *engine.AnalysisContext {
	return engine.NewAnalysisContext(engine.ModeRayTrace, nil)
}

func ghostCtx() *engine.AnalysisContext {
	return engine.NewAnalysisContext(engine.ModeGhostFocus, nil)
}

func heneData(t *testing.T, joules float64) engine.LightData {
	t.Helper()
	s, err := spectrum.HeNe(quantity.Joule(joules))
	require.NoError(t, err)
	return engine.EnergyData(s)
}

// singleBundle holds one 632.8 nm, 1 J ray at (x, y, 0) travelling along +Z.
func singleBundle(t *testing.T, x, y quantity.Length) *ray.Bundle {
	t.Helper()
	b := ray.NewBundle()
	r, err := ray.NewCollimated(x, y, quantity.Nanometer(632.8), quantity.Joule(1))
	require.NoError(t, err)
	b.Add(r)
	return b
}

func poseAt(zmm float64) quantity.Pose {
	return quantity.NewPose(r3.Vec{Z: quantity.Millimeter(zmm).Meters()}, 0, 0, 0)
}

func geomIn(b *ray.Bundle) engine.LightResult {
	return engine.LightResult{"input_1": engine.GeometricData(b)}
}

// outBundle extracts the live bundle delivered on the given result port.
func outBundle(t *testing.T, res engine.LightResult, port string) *ray.Bundle {
	t.Helper()
	data, ok := res[port]
	require.True(t, ok, "no light on port %q", port)
	b, _, err := data.LiveBundle()
	require.NoError(t, err)
	return b
}

func resultEnergy(res engine.LightResult) float64 {
	var total float64
	for _, data := range res {
		total += data.TotalEnergy().Joules()
	}
	return total
}

func TestNew_Factory(t *testing.T) {
	types := []string{
		TypeSource, TypeDummy, TypeDetector, TypeEnergyMeter, TypeSpectrometer,
		TypeBeamSplitter, TypeIdealFilter, TypeLens, TypeCylindricLens, TypeWedge,
		TypeThinMirror, TypeParabolicMirror, TypeParaxialSurface, TypeGrating,
		TypeFluenceDetector, TypeSpotDiagram, TypeRayVisualizer, TypeWaveFront,
		TypeGroup,
	}
	for _, typ := range types {
		t.Run(typ, func(t *testing.T) {
			n, err := New(typ)
			require.NoError(t, err)
			assert.Equal(t, typ, n.Type())
			assert.Equal(t, typ, n.Name())
		})
	}

	t.Run("Unknown", func(t *testing.T) {
		_, err := New("prism")
		assert.Equal(t, engine.ErrCodeInvalidParameters, engine.CodeOf(err))
	})

	t.Run("ReferenceNeedsTarget", func(t *testing.T) {
		// References cannot be built without a referent.
		_, err := New(TypeNodeReference)
		assert.Error(t, err)
	})
}

func TestSource_Modes(t *testing.T) {
	t.Run("Energy", func(t *testing.T) {
		s := NewSource("laser")
		res, err := s.Analyze(energyCtx(), nil)
		require.NoError(t, err)
		sp, err := res["output_1"].Spectrum()
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sp.TotalEnergy().Joules(), 1e-12)
	})

	t.Run("RayTrace", func(t *testing.T) {
		s := NewSource("laser")
		res, err := s.Analyze(rayCtx(), nil)
		require.NoError(t, err)
		b := outBundle(t, res, "output_1")
		require.Equal(t, 1, b.Len())
		assert.InDelta(t, 632.8, b.Rays()[0].Wavelength().Nanometers(), 1e-9)
	})

	t.Run("GhostEmitsOnce", func(t *testing.T) {
		s := NewSource("laser")
		ctx := ghostCtx()
		res, err := s.Analyze(ctx, nil)
		require.NoError(t, err)
		require.Len(t, res, 1)

		res, err = s.Analyze(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, res)

		s.Reset()
		res, err = s.Analyze(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, res, 1)
	})

	t.Run("Configuration", func(t *testing.T) {
		s := NewSource("laser")
		assert.Error(t, s.SetSpectrum(nil))
		assert.Error(t, s.SetBundle(nil))
		assert.Error(t, s.SetBundle(ray.NewBundle()))

		b, err := ray.Collimated(quantity.Millimeter(2), 2, quantity.Nanometer(1054), quantity.Joule(3))
		require.NoError(t, err)
		require.NoError(t, s.SetBundle(b))
		res, err := s.Analyze(rayCtx(), nil)
		require.NoError(t, err)
		assert.InDelta(t, 3.0, outBundle(t, res, "output_1").TotalEnergy().Joules(), 1e-12)
	})
}

func TestDummy_Forwards(t *testing.T) {
	d := NewDummy("marker")
	in := engine.LightResult{"input_1": heneData(t, 1)}
	res, err := d.Analyze(energyCtx(), in)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res["output_1"].TotalEnergy().Joules(), 1e-12)

	res, err = d.Analyze(energyCtx(), nil)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestDetector_Records(t *testing.T) {
	d := NewDetector("probe")
	in := engine.LightResult{"input_1": heneData(t, 0.5)}
	_, err := d.Analyze(energyCtx(), in)
	require.NoError(t, err)
	_, err = d.Analyze(energyCtx(), in)
	require.NoError(t, err)

	require.Len(t, d.Recorded(), 2)
	rep := d.Report()
	require.NotNil(t, rep.Detector)
	require.NotNil(t, rep.Detector.Energy)
	assert.InDelta(t, 1.0, *rep.Detector.Energy, 1e-12)

	d.Reset()
	assert.Empty(t, d.Recorded())
}

func TestEnergyMeter_Accumulates(t *testing.T) {
	m := NewEnergyMeter("meter")
	in := engine.LightResult{"input_1": heneData(t, 0.25)}
	for i := 0; i < 3; i++ {
		res, err := m.Analyze(energyCtx(), in)
		require.NoError(t, err)
		assert.InDelta(t, 0.25, res["output_1"].TotalEnergy().Joules(), 1e-12)
	}
	assert.InDelta(t, 0.75, m.Measured().Joules(), 1e-12)

	rep := m.Report()
	require.NotNil(t, rep.Detector)
	assert.InDelta(t, 0.75, *rep.Detector.Energy, 1e-12)

	m.Reset()
	assert.Zero(t, m.Measured().Joules())
	assert.Nil(t, m.Report().Detector)
}

func TestSpectrometer(t *testing.T) {
	t.Run("Energy", func(t *testing.T) {
		s := NewSpectrometer("spec")
		_, err := s.Analyze(energyCtx(), engine.LightResult{"input_1": heneData(t, 1)})
		require.NoError(t, err)
		require.NotNil(t, s.Measured())
		assert.InDelta(t, 1.0, s.Measured().TotalEnergy().Joules(), 1e-12)
	})

	t.Run("Geometric", func(t *testing.T) {
		s := NewSpectrometer("spec")
		_, err := s.Analyze(rayCtx(), geomIn(singleBundle(t, 0, 0)))
		require.NoError(t, err)
		lines := s.Measured().Lines()
		require.Len(t, lines, 1)
		assert.InDelta(t, 632.8, lines[0].Wavelength.Nanometers(), 1e-9)
		assert.InDelta(t, 1.0, lines[0].Energy.Joules(), 1e-12)

		rep := s.Report()
		require.NotNil(t, rep.Detector)
		assert.Len(t, rep.Detector.Spectrum, 1)
	})

	t.Run("Fourier", func(t *testing.T) {
		s := NewSpectrometer("spec")
		_, err := s.Analyze(energyCtx(), engine.LightResult{"input_1": engine.FourierData()})
		assert.Equal(t, engine.ErrCodeNotImplemented, engine.CodeOf(err))
	})
}

func TestBeamSplitter_Ratio(t *testing.T) {
	_, err := NewBeamSplitter("bad", -0.1)
	assert.Equal(t, engine.ErrCodeInvalidParameters, engine.CodeOf(err))
	_, err = NewBeamSplitter("bad", 1.5)
	assert.Error(t, err)

	bs, err := NewBeamSplitter("bs", 0.6)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, bs.Ratio(), 1e-12)

	in := engine.LightResult{"input_1": heneData(t, 1)}
	res, err := bs.Analyze(energyCtx(), in)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, res["out1_trans1_refl2"].TotalEnergy().Joules(), 1e-12)
	assert.InDelta(t, 0.4, res["out2_trans2_refl1"].TotalEnergy().Joules(), 1e-12)
}

func TestBeamSplitter_Conservation(t *testing.T) {
	for _, ratio := range []float64{0, 0.25, 0.5, 0.6, 1} {
		bs, err := NewBeamSplitter("bs", ratio)
		require.NoError(t, err)

		res, err := bs.Analyze(energyCtx(), engine.LightResult{"input_1": heneData(t, 1)})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, resultEnergy(res), 1e-12, "energy, ratio %v", ratio)

		res, err = bs.Analyze(rayCtx(), geomIn(singleBundle(t, 0, 0)))
		require.NoError(t, err)
		assert.InDelta(t, 1.0, resultEnergy(res), 1e-12, "geometric, ratio %v", ratio)
	}
}

func TestBeamSplitter_CrossMerge(t *testing.T) {
	bs, err := NewBeamSplitter("bs", 0.6)
	require.NoError(t, err)
	in := engine.LightResult{
		"input_1": engine.GeometricData(singleBundle(t, 0, 0)),
		"input_2": engine.GeometricData(singleBundle(t, quantity.Millimeter(1), 0)),
	}
	res, err := bs.Analyze(rayCtx(), in)
	require.NoError(t, err)

	out1 := outBundle(t, res, "out1_trans1_refl2")
	out2 := outBundle(t, res, "out2_trans2_refl1")
	assert.Equal(t, 2, out1.Len())
	assert.Equal(t, 2, out2.Len())
	assert.InDelta(t, 1.0, out1.TotalEnergy().Joules(), 1e-12)
	assert.InDelta(t, 1.0, out2.TotalEnergy().Joules(), 1e-12)
}

func TestBeamSplitter_GhostHistorySplits(t *testing.T) {
	bs, err := NewBeamSplitter("bs", 0.6)
	require.NoError(t, err)

	// A ghost payload carries one bundle per finished pass plus the live
	// one. Both must survive the splitter, each at its leg's share.
	past := singleBundle(t, 0, 0)
	live := singleBundle(t, quantity.Millimeter(1), 0)
	in := engine.LightResult{"input_1": engine.GhostFocusData([]*ray.Bundle{past, live})}

	res, err := bs.Analyze(ghostCtx(), in)
	require.NoError(t, err)

	trans, err := res["out1_trans1_refl2"].Bundles()
	require.NoError(t, err)
	require.Len(t, trans, 2)
	assert.InDelta(t, 0.6, trans[0].TotalEnergy().Joules(), 1e-12)
	assert.InDelta(t, 0.6, trans[1].TotalEnergy().Joules(), 1e-12)

	refl, err := res["out2_trans2_refl1"].Bundles()
	require.NoError(t, err)
	require.Len(t, refl, 2)
	assert.InDelta(t, 0.4, refl[0].TotalEnergy().Joules(), 1e-12)
	assert.InDelta(t, 0.4, refl[1].TotalEnergy().Joules(), 1e-12)
}

func TestBeamSplitter_KindMismatch(t *testing.T) {
	bs, err := NewBeamSplitter("bs", 0.5)
	require.NoError(t, err)
	in := engine.LightResult{
		"input_1": heneData(t, 1),
		"input_2": engine.GeometricData(singleBundle(t, 0, 0)),
	}
	_, err = bs.Analyze(energyCtx(), in)
	assert.Equal(t, engine.ErrCodeWrongLightData, engine.CodeOf(err))
}

func TestBeamSplitter_Inverted(t *testing.T) {
	bs, err := NewBeamSplitter("bs", 0.6)
	require.NoError(t, err)
	require.NoError(t, bs.SetInverted(true))

	// Inverted, the former outputs receive and the former inputs emit.
	in := engine.LightResult{"out1_trans1_refl2": heneData(t, 1)}
	res, err := bs.Analyze(energyCtx(), in)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, res["input_1"].TotalEnergy().Joules(), 1e-12)
	assert.InDelta(t, 0.4, res["input_2"].TotalEnergy().Joules(), 1e-12)
}

func TestIdealFilter(t *testing.T) {
	t.Run("Validation", func(t *testing.T) {
		_, err := NewIdealFilter("bad", -0.5)
		assert.Equal(t, engine.ErrCodeInvalidParameters, engine.CodeOf(err))
		_, err = NewIdealFilter("bad", 1.1)
		assert.Error(t, err)
		_, err = NewSpectralFilter("bad", nil)
		assert.Error(t, err)
	})

	t.Run("Energy", func(t *testing.T) {
		f, err := NewIdealFilter("nd", 0.25)
		require.NoError(t, err)
		res, err := f.Analyze(energyCtx(), engine.LightResult{"input_1": heneData(t, 1)})
		require.NoError(t, err)
		assert.InDelta(t, 0.25, res["output_1"].TotalEnergy().Joules(), 1e-12)
	})

	t.Run("Geometric", func(t *testing.T) {
		f, err := NewIdealFilter("nd", 0.25)
		require.NoError(t, err)
		res, err := f.Analyze(rayCtx(), geomIn(singleBundle(t, 0, 0)))
		require.NoError(t, err)
		b := outBundle(t, res, "output_1")
		assert.Equal(t, 1, b.ValidLen())
		assert.InDelta(t, 0.25, b.TotalEnergy().Joules(), 1e-12)
	})

	t.Run("SpectralClamped", func(t *testing.T) {
		f, err := NewSpectralFilter("curve", func(quantity.Length) float64 { return 2.0 })
		require.NoError(t, err)
		res, err := f.Analyze(energyCtx(), engine.LightResult{"input_1": heneData(t, 1)})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, res["output_1"].TotalEnergy().Joules(), 1e-12)
	})
}

func TestNodeReference(t *testing.T) {
	t.Run("NeedsTarget", func(t *testing.T) {
		_, err := NewNodeReference("alias", nil)
		assert.Equal(t, engine.ErrCodeInvalidParameters, engine.CodeOf(err))
	})

	t.Run("SharesReferentSurfaces", func(t *testing.T) {
		mirror, err := NewThinMirror("fold", 0)
		require.NoError(t, err)
		mirror.SetPose(poseAt(10))
		ref, err := NewNodeReference("fold again", mirror)
		require.NoError(t, err)

		_, err = mirror.Analyze(rayCtx(), geomIn(singleBundle(t, 0, 0)))
		require.NoError(t, err)
		_, err = ref.Analyze(rayCtx(), geomIn(singleBundle(t, 0, 0)))
		require.NoError(t, err)

		// Both passes accumulate on the one physical surface.
		assert.Len(t, mirror.Surface().HitMap().Merged(), 2)
	})

	t.Run("InversionRestored", func(t *testing.T) {
		d := NewDummy("marker")
		ref, err := NewNodeReference("back through", d)
		require.NoError(t, err)
		require.NoError(t, ref.SetInverted(true))

		res, err := ref.Analyze(energyCtx(), engine.LightResult{"output_1": heneData(t, 1)})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, res["input_1"].TotalEnergy().Joules(), 1e-12)
		assert.False(t, d.Inverted())
	})
}

func TestGroup(t *testing.T) {
	newFilterGroup := func(t *testing.T) *Group {
		t.Helper()
		g := NewGroup("attenuator")
		f, err := NewIdealFilter("nd", 0.5)
		require.NoError(t, err)
		require.NoError(t, g.AddNode(f))
		require.NoError(t, g.MapInputPort(f.ID(), "input_1", "in"))
		require.NoError(t, g.MapOutputPort(f.ID(), "output_1", "out"))
		return g
	}

	t.Run("ForwardsThroughSubGraph", func(t *testing.T) {
		g := newFilterGroup(t)
		res, err := g.Analyze(energyCtx(), engine.LightResult{"in": heneData(t, 1)})
		require.NoError(t, err)
		assert.InDelta(t, 0.5, res["out"].TotalEnergy().Joules(), 1e-12)
	})

	t.Run("InversionComposesAndRestores", func(t *testing.T) {
		g := newFilterGroup(t)
		require.NoError(t, g.SetInverted(true))

		res, err := g.Analyze(energyCtx(), engine.LightResult{"out": heneData(t, 1)})
		require.NoError(t, err)
		assert.InDelta(t, 0.5, res["in"].TotalEnergy().Joules(), 1e-12)
		assert.False(t, g.Graph().Inverted())
	})

	t.Run("PortsExposed", func(t *testing.T) {
		g := newFilterGroup(t)
		assert.Equal(t, []string{"in"}, g.Ports().Inputs())
		assert.Equal(t, []string{"out"}, g.Ports().Outputs())
	})
}
