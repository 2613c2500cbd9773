// File: internal/nodes/wedge.go

package nodes

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/geometry"
	"github.com/xkilldash9x/beamline-cli/internal/optics"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
)

// WedgeSpec describes a flat glass block whose exit face is tilted against
// the entry face by the wedge angle (about the local x axis).
type WedgeSpec struct {
	Angle     quantity.Angle
	Thickness quantity.Length
	Material  optics.RefractiveIndex
	Coating   optics.Coating
}

// DefaultWedgeSpec is a 1 degree, 10 mm NBK7 wedge.
func DefaultWedgeSpec() WedgeSpec {
	return WedgeSpec{
		Angle:     quantity.Degree(1),
		Thickness: quantity.Millimeter(10),
		Material:  optics.NBK7(),
	}
}

// Wedge deviates the beam by a small, dispersion-dependent angle. Its two
// parasitic surface reflections make it a standard ghost-focus test piece.
type Wedge struct {
	*engine.NodeAttr
	ghostState
	spec  WedgeSpec
	front *optics.Surface
	back  *optics.Surface
}

// NewWedge creates a wedge from its spec.
func NewWedge(name string, spec WedgeSpec) (*Wedge, error) {
	if math.Abs(spec.Angle.Radians()) >= math.Pi/2 {
		return nil, engine.NewError(engine.ErrCodeInvalidParameters,
			"wedge %q angle must be within (-90, 90) degrees, got %v deg", name, spec.Angle.Degrees())
	}
	if err := quantity.ValidateDistance(spec.Thickness); err != nil {
		return nil, engine.WrapError(engine.ErrCodeInvalidParameters, err, "wedge %q thickness", name)
	}
	if spec.Material == nil {
		return nil, engine.NewError(engine.ErrCodeInvalidParameters, "wedge %q needs a material", name)
	}
	front := optics.NewSurface(name+" front", geometry.Plane{})
	back := optics.NewSurface(name+" back", geometry.Plane{})
	if spec.Coating != nil {
		front.SetCoating(spec.Coating)
		back.SetCoating(spec.Coating)
	}
	w := &Wedge{NodeAttr: engine.NewNodeAttr(name, TypeWedge), spec: spec, front: front, back: back}
	_ = w.Ports().AddInput("input_1")
	_ = w.Ports().AddOutput("output_1", back)
	_ = w.Properties().DefineReadOnly("wedge angle", spec.Angle)
	_ = w.Properties().DefineReadOnly("center thickness", spec.Thickness)
	w.SetPose(quantity.IdentityPose())
	return w, nil
}

// SetPose places the wedge; the exit face sits one thickness behind the
// entry face and is tilted by the wedge angle.
func (w *Wedge) SetPose(p quantity.Pose) {
	w.NodeAttr.SetPose(p)
	w.front.SetPose(p)
	w.back.SetPose(p.Compose(quantity.NewPose(r3.Vec{Z: w.spec.Thickness.Meters()}, w.spec.Angle, 0, 0)))
}

// Surfaces returns the entry and exit face for inspection.
func (w *Wedge) Surfaces() []*optics.Surface {
	return []*optics.Surface{w.front, w.back}
}

// Analyze refracts the live bundle through both faces.
func (w *Wedge) Analyze(ctx *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	surfaces := [2]*optics.Surface{w.front, w.back}
	if w.Inverted() {
		surfaces = [2]*optics.Surface{w.back, w.front}
	}
	return traceTwoSurface(ctx, w.NodeAttr, &w.ghostState, inputs, surfaces, w.spec.Material)
}

// Reset clears hit maps and buffered ghosts.
func (w *Wedge) Reset() {
	w.front.Reset()
	w.back.Reset()
	w.resetGhosts()
	w.NodeAttr.Reset()
}
