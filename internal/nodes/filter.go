// File: internal/nodes/filter.go

package nodes

import (
	"math"

	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
)

// IdealFilter attenuates light without geometric interaction. The
// transmission is either a constant or a wavelength-dependent curve.
type IdealFilter struct {
	*engine.NodeAttr
	transmission func(quantity.Length) float64
}

// NewIdealFilter creates a filter with a constant transmission in [0, 1].
func NewIdealFilter(name string, transmission float64) (*IdealFilter, error) {
	if transmission < 0 || transmission > 1 || math.IsNaN(transmission) {
		return nil, engine.NewError(engine.ErrCodeInvalidParameters,
			"transmission must be within [0, 1], got %v", transmission)
	}
	f := newFilter(name)
	f.transmission = func(quantity.Length) float64 { return transmission }
	_ = f.Properties().DefineReadOnly("transmission", transmission)
	return f, nil
}

// NewSpectralFilter creates a filter whose transmission depends on the
// wavelength. Values outside [0, 1] are clamped.
func NewSpectralFilter(name string, transmission func(quantity.Length) float64) (*IdealFilter, error) {
	if transmission == nil {
		return nil, engine.NewError(engine.ErrCodeInvalidParameters, "transmission curve must not be nil")
	}
	f := newFilter(name)
	f.transmission = transmission
	return f, nil
}

func newFilter(name string) *IdealFilter {
	f := &IdealFilter{NodeAttr: engine.NewNodeAttr(name, TypeIdealFilter)}
	_ = f.Ports().AddInput("input_1")
	_ = f.Ports().AddOutput("output_1", nil)
	return f
}

func (f *IdealFilter) transmissionAt(wl quantity.Length) float64 {
	t := f.transmission(wl)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Analyze attenuates the payload and forwards it.
func (f *IdealFilter) Analyze(ctx *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	out := make(engine.LightResult)
	data, ok := inputs[f.InPort()]
	if !ok {
		return out, nil
	}
	switch data.Kind() {
	case engine.KindEnergy:
		s, err := data.Spectrum()
		if err != nil {
			return nil, err
		}
		filtered := s.Clone()
		filtered.Filter(f.transmissionAt)
		out[f.OutPort()] = engine.EnergyData(filtered)
	case engine.KindGeometric, engine.KindGhostFocus:
		b, _, err := data.LiveBundle()
		if err != nil {
			return nil, err
		}
		rays := b.Rays()
		for i := range rays {
			if !rays[i].Valid() {
				continue
			}
			if err := rays[i].AttenuateEnergy(f.transmissionAt(rays[i].Wavelength())); err != nil {
				return nil, err
			}
		}
		finishBundle(ctx, b)
		out[f.OutPort()] = data
	default:
		return nil, engine.NewError(engine.ErrCodeNotImplemented, "wave-optics propagation is not implemented")
	}
	return out, nil
}
