// File: internal/nodes/paraxial.go

package nodes

import (
	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/geometry"
	"github.com/xkilldash9x/beamline-cli/internal/optics"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
)

// ParaxialSurface is an ideal thin lens: rays are steered exactly toward
// the focal plane with no thickness, dispersion or aberration. Inverting it
// leaves the physics unchanged since an ideal lens is symmetric.
type ParaxialSurface struct {
	*engine.NodeAttr
	focalLength quantity.Length
	surf        *optics.Surface
}

// NewParaxialSurface creates an ideal lens with the given focal length.
// Negative focal lengths give a diverging lens.
func NewParaxialSurface(name string, focalLength quantity.Length) (*ParaxialSurface, error) {
	if focalLength == 0 || !focalLength.IsFinite() {
		return nil, engine.NewError(engine.ErrCodeInvalidParameters,
			"paraxial surface %q needs a non-zero finite focal length", name)
	}
	p := &ParaxialSurface{
		NodeAttr:    engine.NewNodeAttr(name, TypeParaxialSurface),
		focalLength: focalLength,
		surf:        optics.NewSurface(name+" plane", geometry.Plane{}),
	}
	_ = p.Ports().AddInput("input_1")
	_ = p.Ports().AddOutput("output_1", p.surf)
	_ = p.Properties().DefineReadOnly("focal length", focalLength)
	return p, nil
}

// FocalLength returns the configured focal length.
func (p *ParaxialSurface) FocalLength() quantity.Length { return p.focalLength }

// Analyze intersects the live bundle with the lens plane, records the hits
// and applies the ideal thin-lens steering. Energy runs pass through.
func (p *ParaxialSurface) Analyze(ctx *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	out := make(engine.LightResult)
	data, bundle, ok, err := liveInput(p.NodeAttr, inputs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}
	if data.Kind() == engine.KindEnergy {
		out[p.OutPort()] = data
		return out, nil
	}

	// Same-index transit through the lossless plane records hits without
	// bending or attenuating the rays.
	_, blocked, err := bundle.RefractOnSurface(p.surf, ray.SameIndex, ctx.RayTrace.MissedSurface)
	if err != nil {
		return nil, err
	}
	warnBlocked(ctx, p.Name(), blocked)
	if err := bundle.RefractParaxial(p.focalLength, p.Pose()); err != nil {
		return nil, err
	}
	finishBundle(ctx, bundle)
	if bundle.ValidLen() == 0 {
		return out, nil
	}
	out[p.OutPort()] = data.WithLiveBundle(bundle)
	return out, nil
}

// Reset clears the hit map.
func (p *ParaxialSurface) Reset() {
	p.surf.Reset()
	p.NodeAttr.Reset()
}
