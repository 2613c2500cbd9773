// File: internal/nodes/mirror.go

package nodes

import (
	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/geometry"
	"github.com/xkilldash9x/beamline-cli/internal/optics"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
)

// ThinMirror reflects the beam off a flat or spherically curved surface.
// The default coating is a perfect reflector; a partial coating leaks the
// transmitted remainder, which is discarded.
type ThinMirror struct {
	*engine.NodeAttr
	surf *optics.Surface
}

// NewThinMirror creates a mirror. radius follows the signed sphere
// convention; zero means flat.
func NewThinMirror(name string, radius quantity.Length) (*ThinMirror, error) {
	surf, err := sphericalSurface(name+" front", radius)
	if err != nil {
		return nil, err
	}
	perfect, err := optics.NewConstantR(1.0)
	if err != nil {
		return nil, err
	}
	surf.SetCoating(perfect)
	m := &ThinMirror{NodeAttr: engine.NewNodeAttr(name, TypeThinMirror), surf: surf}
	_ = m.Ports().AddInput("input_1")
	_ = m.Ports().AddOutput("output_1", surf)
	_ = m.Properties().DefineReadOnly("curvature radius", radius)
	return m, nil
}

// SetCoating changes the mirror coating.
func (m *ThinMirror) SetCoating(c optics.Coating) { m.surf.SetCoating(c) }

// Surface returns the mirror surface for inspection.
func (m *ThinMirror) Surface() *optics.Surface { return m.surf }

// Analyze reflects the live bundle, or scales the spectrum by the coating's
// normal-incidence reflectivity in energy mode.
func (m *ThinMirror) Analyze(ctx *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	return traceReflective(ctx, m.NodeAttr, m.surf, inputs)
}

// Reset clears the hit map.
func (m *ThinMirror) Reset() {
	m.surf.Reset()
	m.NodeAttr.Reset()
}

// ParabolicMirror reflects off a paraboloid, focusing a collimated beam
// into its focal point without spherical aberration.
type ParabolicMirror struct {
	*engine.NodeAttr
	surf *optics.Surface
}

// NewParabolicMirror creates a parabolic mirror with the given focal
// length. A positive focal length gives a paraboloid opening towards -Z,
// concave to the incoming beam, with the focus a focal length upstream of
// the vertex.
func NewParabolicMirror(name string, focalLength quantity.Length) (*ParabolicMirror, error) {
	par, err := geometry.NewParabola(-focalLength.Meters())
	if err != nil {
		return nil, engine.WrapError(engine.ErrCodeInvalidParameters, err, "parabolic mirror %q", name)
	}
	surf := optics.NewSurface(name+" front", par)
	perfect, err := optics.NewConstantR(1.0)
	if err != nil {
		return nil, err
	}
	surf.SetCoating(perfect)
	m := &ParabolicMirror{NodeAttr: engine.NewNodeAttr(name, TypeParabolicMirror), surf: surf}
	_ = m.Ports().AddInput("input_1")
	_ = m.Ports().AddOutput("output_1", surf)
	_ = m.Properties().DefineReadOnly("focal length", focalLength)
	return m, nil
}

// Surface returns the mirror surface for inspection.
func (m *ParabolicMirror) Surface() *optics.Surface { return m.surf }

// Analyze reflects the live bundle off the paraboloid.
func (m *ParabolicMirror) Analyze(ctx *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	return traceReflective(ctx, m.NodeAttr, m.surf, inputs)
}

// Reset clears the hit map.
func (m *ParabolicMirror) Reset() {
	m.surf.Reset()
	m.NodeAttr.Reset()
}

// traceReflective is the shared mirror trace: the reflected bundle is the
// output, the coating leak is dropped. Energy payloads scale by the
// normal-incidence reflectivity.
func traceReflective(ctx *engine.AnalysisContext, attr *engine.NodeAttr, surf *optics.Surface, inputs engine.LightResult) (engine.LightResult, error) {
	out := make(engine.LightResult)
	data, bundle, ok, err := liveInput(attr, inputs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}
	if data.Kind() == engine.KindEnergy {
		s, err := data.Spectrum()
		if err != nil {
			return nil, err
		}
		r, err := surf.Coating().Reflectivity(1, 1, 1)
		if err != nil {
			return nil, err
		}
		scaled := s.Clone()
		if err := scaled.Scale(r); err != nil {
			return nil, err
		}
		out[attr.OutPort()] = engine.EnergyData(scaled)
		return out, nil
	}

	reflected, blocked, err := bundle.RefractOnSurface(surf, ray.SameIndex, ctx.RayTrace.MissedSurface)
	if err != nil {
		return nil, err
	}
	warnBlocked(ctx, attr.Name(), blocked)
	if reflected == nil {
		return out, nil
	}
	finishBundle(ctx, reflected)
	if reflected.ValidLen() == 0 {
		return out, nil
	}
	out[attr.OutPort()] = data.WithLiveBundle(reflected)
	return out, nil
}
