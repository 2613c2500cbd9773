// File: internal/nodes/grating.go

package nodes

import (
	"math"

	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/geometry"
	"github.com/xkilldash9x/beamline-cli/internal/optics"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
)

// ReflectiveGrating reflects the beam and adds the grating equation's
// wavelength-dependent in-plane deviation: the local x component of the
// direction shifts by order * lineDensity * wavelength. Rays driven
// evanescent by the shift are dropped.
type ReflectiveGrating struct {
	*engine.NodeAttr
	order       int
	lineDensity float64 // lines per meter
	surf        *optics.Surface
}

// NewReflectiveGrating creates a grating with the given diffraction order
// and line density in lines per meter. Order zero degenerates to a plane
// mirror.
func NewReflectiveGrating(name string, order int, lineDensity float64) (*ReflectiveGrating, error) {
	if lineDensity <= 0 || math.IsNaN(lineDensity) || math.IsInf(lineDensity, 0) {
		return nil, engine.NewError(engine.ErrCodeInvalidParameters,
			"grating %q line density must be positive and finite, got %v", name, lineDensity)
	}
	surf := optics.NewSurface(name+" front", geometry.Plane{})
	perfect, err := optics.NewConstantR(1.0)
	if err != nil {
		return nil, err
	}
	surf.SetCoating(perfect)
	g := &ReflectiveGrating{
		NodeAttr:    engine.NewNodeAttr(name, TypeGrating),
		order:       order,
		lineDensity: lineDensity,
		surf:        surf,
	}
	_ = g.Ports().AddInput("input_1")
	_ = g.Ports().AddOutput("output_1", surf)
	_ = g.Properties().DefineReadOnly("diffraction order", order)
	_ = g.Properties().DefineReadOnly("line density", lineDensity)
	return g, nil
}

// Surface returns the grating surface for inspection.
func (g *ReflectiveGrating) Surface() *optics.Surface { return g.surf }

// Analyze reflects the live bundle and applies the diffraction shift. The
// inverted grating diffracts with opposite sign, undoing its own
// dispersion.
func (g *ReflectiveGrating) Analyze(ctx *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	out := make(engine.LightResult)
	data, bundle, ok, err := liveInput(g.NodeAttr, inputs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}
	if data.Kind() == engine.KindEnergy {
		out[g.OutPort()] = data
		return out, nil
	}

	reflected, blocked, err := bundle.RefractOnSurface(g.surf, ray.SameIndex, ctx.RayTrace.MissedSurface)
	if err != nil {
		return nil, err
	}
	warnBlocked(ctx, g.Name(), blocked)
	if reflected == nil {
		return out, nil
	}

	order := float64(g.order)
	if g.Inverted() {
		order = -order
	}
	pose := g.Pose()
	rays := reflected.Rays()
	for i := range rays {
		if !rays[i].Valid() {
			continue
		}
		local := pose.InverseDir(rays[i].Direction())
		local.X += order * g.lineDensity * rays[i].Wavelength().Meters()
		rest := 1 - local.X*local.X - local.Y*local.Y
		if rest <= 0 {
			rays[i].SetInvalid()
			continue
		}
		local.Z = math.Copysign(math.Sqrt(rest), local.Z)
		if err := rays[i].SetDirection(pose.TransformDir(local)); err != nil {
			return nil, err
		}
	}

	finishBundle(ctx, reflected)
	if reflected.ValidLen() == 0 {
		return out, nil
	}
	out[g.OutPort()] = data.WithLiveBundle(reflected)
	return out, nil
}

// Reset clears the hit map.
func (g *ReflectiveGrating) Reset() {
	g.surf.Reset()
	g.NodeAttr.Reset()
}
