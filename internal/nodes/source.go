// File: internal/nodes/source.go

package nodes

import (
	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
	"github.com/xkilldash9x/beamline-cli/internal/spectrum"
)

// Source emits light into the graph. It has a single output port and no
// inputs. The emitted payload depends on the analysis mode: a spectrum for
// energy runs, a clone of the configured bundle for geometric runs. During
// a ghost-focus run the source emits only on the first pass.
type Source struct {
	*engine.NodeAttr
	spectrum *spectrum.Spectrum
	bundle   *ray.Bundle
	emitted  bool
}

// NewSource creates a source with a default 1 J HeNe line and a single
// on-axis ray.
func NewSource(name string) *Source {
	s := &Source{NodeAttr: engine.NewNodeAttr(name, TypeSource)}
	// The error paths cannot trigger for these fixed arguments.
	s.spectrum, _ = spectrum.HeNe(quantity.Joule(1))
	s.bundle, _ = ray.SingleAlongZ(quantity.Nanometer(632.8), quantity.Joule(1))
	_ = s.Ports().AddOutput("output_1", nil)
	return s
}

// SetSpectrum configures the energy-mode emission.
func (s *Source) SetSpectrum(sp *spectrum.Spectrum) error {
	if sp == nil || sp.IsEmpty() {
		return engine.NewError(engine.ErrCodeInvalidParameters, "source spectrum must not be empty")
	}
	s.spectrum = sp
	return nil
}

// SetBundle configures the geometric-mode emission prototype.
func (s *Source) SetBundle(b *ray.Bundle) error {
	if b == nil || b.Len() == 0 {
		return engine.NewError(engine.ErrCodeInvalidParameters, "source bundle must not be empty")
	}
	s.bundle = b
	return nil
}

// Analyze emits the configured light on the output port.
func (s *Source) Analyze(ctx *engine.AnalysisContext, _ engine.LightResult) (engine.LightResult, error) {
	out := make(engine.LightResult)
	port := s.OutPort()
	switch ctx.Mode {
	case engine.ModeEnergy:
		out[port] = engine.EnergyData(s.spectrum.Clone())
	case engine.ModeRayTrace:
		out[port] = engine.GeometricData(s.bundle.Clone())
	case engine.ModeGhostFocus:
		if s.emitted {
			return out, nil
		}
		s.emitted = true
		out[port] = engine.GhostFocusData([]*ray.Bundle{s.bundle.Clone()})
	}
	return out, nil
}

// Reset re-arms the source for a new run.
func (s *Source) Reset() {
	s.emitted = false
	s.NodeAttr.Reset()
}
