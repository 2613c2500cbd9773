// File: internal/nodes/lens.go

package nodes

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/geometry"
	"github.com/xkilldash9x/beamline-cli/internal/optics"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
)

// LensSpec describes a thick spherical lens. Radii follow the signed
// convention of geometry.Sphere: positive is convex toward the incoming
// beam, zero means flat.
type LensSpec struct {
	FrontRadius quantity.Length
	BackRadius  quantity.Length
	Thickness   quantity.Length
	Material    optics.RefractiveIndex
	Coating     optics.Coating
}

// DefaultLensSpec is a biconvex NBK7 lens with 100 mm radii and 5 mm
// center thickness.
func DefaultLensSpec() LensSpec {
	return LensSpec{
		FrontRadius: quantity.Millimeter(100),
		BackRadius:  quantity.Millimeter(-100),
		Thickness:   quantity.Millimeter(5),
		Material:    optics.NBK7(),
	}
}

// Lens is a thick lens with two spherical (or flat) surfaces and a
// dispersive material between them. In ghost-focus runs the parasitic
// reflections off both surfaces are buffered for the next pass.
type Lens struct {
	*engine.NodeAttr
	ghostState
	spec  LensSpec
	front *optics.Surface
	back  *optics.Surface
}

// NewLens creates a lens from its spec.
func NewLens(name string, spec LensSpec) (*Lens, error) {
	front, err := sphericalSurface(name+" front", spec.FrontRadius)
	if err != nil {
		return nil, err
	}
	back, err := sphericalSurface(name+" back", spec.BackRadius)
	if err != nil {
		return nil, err
	}
	if err := quantity.ValidateDistance(spec.Thickness); err != nil {
		return nil, engine.WrapError(engine.ErrCodeInvalidParameters, err, "lens %q thickness", name)
	}
	if spec.Material == nil {
		return nil, engine.NewError(engine.ErrCodeInvalidParameters, "lens %q needs a material", name)
	}
	if spec.Coating != nil {
		front.SetCoating(spec.Coating)
		back.SetCoating(spec.Coating)
	}
	l := &Lens{NodeAttr: engine.NewNodeAttr(name, TypeLens), spec: spec, front: front, back: back}
	_ = l.Ports().AddInput("input_1")
	_ = l.Ports().AddOutput("output_1", back)
	_ = l.Properties().DefineReadOnly("front radius", spec.FrontRadius)
	_ = l.Properties().DefineReadOnly("back radius", spec.BackRadius)
	_ = l.Properties().DefineReadOnly("center thickness", spec.Thickness)
	l.SetPose(quantity.IdentityPose())
	return l, nil
}

func sphericalSurface(name string, radius quantity.Length) (*optics.Surface, error) {
	if radius == 0 {
		return optics.NewSurface(name, geometry.Plane{}), nil
	}
	sph, err := geometry.NewSphere(radius.Meters())
	if err != nil {
		return nil, engine.WrapError(engine.ErrCodeInvalidParameters, err, "surface %q", name)
	}
	return optics.NewSurface(name, sph), nil
}

// SetPose places the lens; the back surface vertex sits one center
// thickness behind the front along the local optical axis.
func (l *Lens) SetPose(p quantity.Pose) {
	l.NodeAttr.SetPose(p)
	l.front.SetPose(p)
	l.back.SetPose(p.Compose(quantity.NewPose(r3.Vec{Z: l.spec.Thickness.Meters()}, 0, 0, 0)))
}

// Surfaces returns the front and back surface for inspection.
func (l *Lens) Surfaces() []*optics.Surface {
	return []*optics.Surface{l.front, l.back}
}

// Analyze refracts the live bundle through both surfaces. Energy runs are
// attenuated by the coating losses at the ambient alignment wavelength.
func (l *Lens) Analyze(ctx *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	return traceTwoSurface(ctx, l.NodeAttr, &l.ghostState, inputs, l.entrySurfaces(), l.spec.Material)
}

// entrySurfaces orders the two surfaces for the current direction.
func (l *Lens) entrySurfaces() [2]*optics.Surface {
	if l.Inverted() {
		return [2]*optics.Surface{l.back, l.front}
	}
	return [2]*optics.Surface{l.front, l.back}
}

// Reset clears hit maps and buffered ghosts.
func (l *Lens) Reset() {
	l.front.Reset()
	l.back.Reset()
	l.resetGhosts()
	l.NodeAttr.Reset()
}

// scaleByCoatings attenuates an energy payload by the normal-incidence
// coating losses of both surfaces. Energy mode carries no per-ray
// wavelength, so the material index is taken at the ambient alignment
// wavelength against the ambient medium.
func scaleByCoatings(ctx *engine.AnalysisContext, data engine.LightData, surfaces [2]*optics.Surface, material optics.RefractiveIndex) (engine.LightData, error) {
	n1 := ctx.Ambient.RefractiveIndex
	n2, err := material.At(ctx.Ambient.AlignmentWavelength)
	if err != nil {
		return engine.LightData{}, err
	}
	r1, err := surfaces[0].Coating().Reflectivity(1, n1, n2)
	if err != nil {
		return engine.LightData{}, err
	}
	r2, err := surfaces[1].Coating().Reflectivity(1, n2, n1)
	if err != nil {
		return engine.LightData{}, err
	}
	s, err := data.Spectrum()
	if err != nil {
		return engine.LightData{}, err
	}
	scaled := s.Clone()
	if err := scaled.Scale((1 - r1) * (1 - r2)); err != nil {
		return engine.LightData{}, err
	}
	return engine.EnergyData(scaled), nil
}

// traceTwoSurface is the shared transmissive-element trace: refract into
// the material on the first surface, out of it on the second, buffering
// parasitic reflections in ghost-focus mode.
func traceTwoSurface(ctx *engine.AnalysisContext, attr *engine.NodeAttr, gs *ghostState, inputs engine.LightResult, surfaces [2]*optics.Surface, material optics.RefractiveIndex) (engine.LightResult, error) {
	out := make(engine.LightResult)
	data, bundle, ok, err := liveInput(attr, inputs)
	if err != nil {
		return nil, err
	}
	if !ok && gs.PendingGhosts() == 0 {
		return out, nil
	}
	if ok && data.Kind() == engine.KindEnergy {
		scaled, err := scaleByCoatings(ctx, data, surfaces, material)
		if err != nil {
			return nil, err
		}
		out[attr.OutPort()] = scaled
		return out, nil
	}

	// Ghosts buffered on the previous pass leave now; reflections traced
	// below wait for the next inversion.
	var carried []*ray.Bundle
	if ctx.Mode == engine.ModeGhostFocus {
		carried = gs.TakeGhosts()
	}

	var transmitted *ray.Bundle
	if bundle != nil {
		intoMaterial := func(wl quantity.Length) (float64, error) { return material.At(wl) }
		outOfMaterial := func(quantity.Length) (float64, error) { return ctx.Ambient.RefractiveIndex, nil }

		refl1, blocked1, err := bundle.RefractOnSurfaceIndexed(surfaces[0], intoMaterial, ctx.RayTrace.MissedSurface)
		if err != nil {
			return nil, err
		}
		warnBlocked(ctx, attr.Name(), blocked1)
		gs.bufferGhost(ctx, refl1)

		refl2, blocked2, err := bundle.RefractOnSurfaceIndexed(surfaces[1], outOfMaterial, ctx.RayTrace.MissedSurface)
		if err != nil {
			return nil, err
		}
		warnBlocked(ctx, attr.Name(), blocked2)
		gs.bufferGhost(ctx, refl2)

		finishBundle(ctx, bundle)
		transmitted = bundle
	}

	if result, ok := emitWithGhosts(ctx, data, transmitted, carried); ok {
		out[attr.OutPort()] = result
	}
	return out, nil
}

// CylindricLensSpec describes a plano lens with cylindrical curvature on
// the front surface, focusing in one axis only.
type CylindricLensSpec struct {
	FrontRadius quantity.Length
	Thickness   quantity.Length
	Material    optics.RefractiveIndex
	Coating     optics.Coating
}

// DefaultCylindricLensSpec is a plano-convex NBK7 cylinder lens.
func DefaultCylindricLensSpec() CylindricLensSpec {
	return CylindricLensSpec{
		FrontRadius: quantity.Millimeter(100),
		Thickness:   quantity.Millimeter(5),
		Material:    optics.NBK7(),
	}
}

// CylindricLens focuses in one transverse axis. The curved surface runs
// along the local x axis, so only the y component is steered.
type CylindricLens struct {
	*engine.NodeAttr
	ghostState
	spec  CylindricLensSpec
	front *optics.Surface
	back  *optics.Surface
}

// NewCylindricLens creates a cylinder lens from its spec.
func NewCylindricLens(name string, spec CylindricLensSpec) (*CylindricLens, error) {
	if spec.FrontRadius == 0 {
		return nil, engine.NewError(engine.ErrCodeInvalidParameters, "cylindric lens %q needs a curved front", name)
	}
	cyl, err := geometry.NewCylinder(spec.FrontRadius.Meters())
	if err != nil {
		return nil, engine.WrapError(engine.ErrCodeInvalidParameters, err, "cylindric lens %q", name)
	}
	if err := quantity.ValidateDistance(spec.Thickness); err != nil {
		return nil, engine.WrapError(engine.ErrCodeInvalidParameters, err, "cylindric lens %q thickness", name)
	}
	if spec.Material == nil {
		return nil, engine.NewError(engine.ErrCodeInvalidParameters, "cylindric lens %q needs a material", name)
	}
	front := optics.NewSurface(name+" front", cyl)
	back := optics.NewSurface(name+" back", geometry.Plane{})
	if spec.Coating != nil {
		front.SetCoating(spec.Coating)
		back.SetCoating(spec.Coating)
	}
	l := &CylindricLens{NodeAttr: engine.NewNodeAttr(name, TypeCylindricLens), spec: spec, front: front, back: back}
	_ = l.Ports().AddInput("input_1")
	_ = l.Ports().AddOutput("output_1", back)
	_ = l.Properties().DefineReadOnly("front radius", spec.FrontRadius)
	_ = l.Properties().DefineReadOnly("center thickness", spec.Thickness)
	l.SetPose(quantity.IdentityPose())
	return l, nil
}

// SetPose places the lens and offsets the back surface by the thickness.
func (l *CylindricLens) SetPose(p quantity.Pose) {
	l.NodeAttr.SetPose(p)
	l.front.SetPose(p)
	l.back.SetPose(p.Compose(quantity.NewPose(r3.Vec{Z: l.spec.Thickness.Meters()}, 0, 0, 0)))
}

// Surfaces returns the front and back surface for inspection.
func (l *CylindricLens) Surfaces() []*optics.Surface {
	return []*optics.Surface{l.front, l.back}
}

// Analyze refracts the live bundle through both surfaces.
func (l *CylindricLens) Analyze(ctx *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	surfaces := [2]*optics.Surface{l.front, l.back}
	if l.Inverted() {
		surfaces = [2]*optics.Surface{l.back, l.front}
	}
	return traceTwoSurface(ctx, l.NodeAttr, &l.ghostState, inputs, surfaces, l.spec.Material)
}

// Reset clears hit maps and buffered ghosts.
func (l *CylindricLens) Reset() {
	l.front.Reset()
	l.back.Reset()
	l.resetGhosts()
	l.NodeAttr.Reset()
}
