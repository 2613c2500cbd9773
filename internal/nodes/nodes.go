// File: internal/nodes/nodes.go

// Package nodes provides the catalogue of optical elements that populate a
// scene graph: sources, lenses, mirrors, splitters, detectors and nested
// groups. All kinds embed engine.NodeAttr and implement engine.Node.
//
// Port naming follows a single convention: input_1/input_2 and
// output_1/output_2. The beam splitter keeps its historical output names
// out1_trans1_refl2 and out2_trans2_refl1 because they state which input
// transmits and which reflects into each leg.
package nodes

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
)

// Node type identifiers as used in reports and the factory.
const (
	TypeSource          = "source"
	TypeDummy           = "dummy"
	TypeDetector        = "detector"
	TypeEnergyMeter     = "energy meter"
	TypeSpectrometer    = "spectrometer"
	TypeBeamSplitter    = "beam splitter"
	TypeIdealFilter     = "ideal filter"
	TypeLens            = "lens"
	TypeCylindricLens   = "cylindric lens"
	TypeWedge           = "wedge"
	TypeThinMirror      = "thin mirror"
	TypeParabolicMirror = "parabolic mirror"
	TypeParaxialSurface = "paraxial surface"
	TypeGrating         = "reflective grating"
	TypeFluenceDetector = "fluence detector"
	TypeSpotDiagram     = "spot diagram"
	TypeRayVisualizer   = "ray propagation visualizer"
	TypeWaveFront       = "wave front"
	TypeNodeReference   = "node reference"
	TypeGroup           = "group"
)

// New creates a node of the given type with default parameters. Unknown
// types yield a typed error. Callers wanting non-default optics use the
// kind-specific constructors.
func New(nodeType string) (engine.Node, error) {
	switch nodeType {
	case TypeSource:
		return NewSource(nodeType), nil
	case TypeDummy:
		return NewDummy(nodeType), nil
	case TypeDetector:
		return NewDetector(nodeType), nil
	case TypeEnergyMeter:
		return NewEnergyMeter(nodeType), nil
	case TypeSpectrometer:
		return NewSpectrometer(nodeType), nil
	case TypeBeamSplitter:
		return NewBeamSplitter(nodeType, 0.5)
	case TypeIdealFilter:
		return NewIdealFilter(nodeType, 1.0)
	case TypeLens:
		return NewLens(nodeType, DefaultLensSpec())
	case TypeCylindricLens:
		return NewCylindricLens(nodeType, DefaultCylindricLensSpec())
	case TypeWedge:
		return NewWedge(nodeType, DefaultWedgeSpec())
	case TypeThinMirror:
		return NewThinMirror(nodeType, 0)
	case TypeParabolicMirror:
		return NewParabolicMirror(nodeType, quantity.Millimeter(100))
	case TypeParaxialSurface:
		return NewParaxialSurface(nodeType, quantity.Millimeter(100))
	case TypeGrating:
		return NewReflectiveGrating(nodeType, 1, 1e6)
	case TypeFluenceDetector:
		return NewFluenceDetector(nodeType, "voronoi"), nil
	case TypeSpotDiagram:
		return NewSpotDiagram(nodeType), nil
	case TypeRayVisualizer:
		return NewRayPropagationVisualizer(nodeType), nil
	case TypeWaveFront:
		return NewWaveFront(nodeType), nil
	case TypeGroup:
		return NewGroup(nodeType), nil
	}
	return nil, engine.NewError(engine.ErrCodeInvalidParameters, "unknown node type %q", nodeType)
}

// ghostState buffers parasitically reflected bundles between ghost-focus
// passes. Reflective optics embed it and feed it through bufferGhost.
type ghostState struct {
	pending []*ray.Bundle
}

// PendingGhosts reports the number of buffered bundles.
func (g *ghostState) PendingGhosts() int { return len(g.pending) }

// TakeGhosts removes and returns the buffered bundles.
func (g *ghostState) TakeGhosts() []*ray.Bundle {
	out := g.pending
	g.pending = nil
	return out
}

// resetGhosts drops the buffer.
func (g *ghostState) resetGhosts() { g.pending = nil }

// bufferGhost stores a reflected bundle for the next pass, applying the
// ghost bounce cap so recursion terminates.
func (g *ghostState) bufferGhost(ctx *engine.AnalysisContext, b *ray.Bundle) {
	if ctx.Mode != engine.ModeGhostFocus || b == nil {
		return
	}
	b.FilterByBounces(ctx.Ghost.MaxBounces)
	if b.ValidLen() == 0 {
		return
	}
	g.pending = append(g.pending, b)
}

// liveInput extracts the geometric payload arriving on the node's primary
// effective input port. The second return is false when no light arrived,
// which the caller answers with an empty result.
func liveInput(attr *engine.NodeAttr, inputs engine.LightResult) (engine.LightData, *ray.Bundle, bool, error) {
	data, ok := inputs[attr.InPort()]
	if !ok {
		return engine.LightData{}, nil, false, nil
	}
	switch data.Kind() {
	case engine.KindFourier:
		return engine.LightData{}, nil, false, engine.NewError(engine.ErrCodeNotImplemented, "wave-optics propagation is not implemented")
	case engine.KindEnergy:
		return data, nil, true, nil
	}
	b, _, err := data.LiveBundle()
	if err != nil {
		return engine.LightData{}, nil, false, err
	}
	return data, b, true, nil
}

// warnBlocked notes rays the surface aperture stopped. Their strikes are on
// the hit map, but they carry no light downstream.
func warnBlocked(ctx *engine.AnalysisContext, name string, blocked int) {
	if blocked > 0 {
		ctx.Log.Warn("rays blocked by aperture",
			zap.String("node", name),
			zap.Int("blocked", blocked))
	}
}

// finishBundle applies the run's per-node ray caps before a bundle leaves a
// node.
func finishBundle(ctx *engine.AnalysisContext, b *ray.Bundle) {
	maxBounces := ctx.RayTrace.MaxBounces
	if ctx.Mode == engine.ModeGhostFocus {
		maxBounces = ctx.Ghost.MaxBounces
	}
	b.FilterByBounces(maxBounces)
	b.FilterByRefractions(ctx.RayTrace.MaxRefractions)
	b.FilterByMinEnergy(ctx.RayTrace.MinEnergyPerRay)
}

// emitWithGhosts merges the ghost bundles carried over from the previous
// pass into the outgoing payload. Reflections buffered during the current
// pass stay in the node until the graph is inverted, so carried is always
// the buffer drained before tracing.
func emitWithGhosts(ctx *engine.AnalysisContext, data engine.LightData, transmitted *ray.Bundle, carried []*ray.Bundle) (engine.LightData, bool) {
	if ctx.Mode != engine.ModeGhostFocus {
		if transmitted == nil || transmitted.ValidLen() == 0 {
			return engine.LightData{}, false
		}
		return data.WithLiveBundle(transmitted), true
	}
	merged := ray.Merge(append([]*ray.Bundle{transmitted}, carried...)...)
	if merged == nil || merged.ValidLen() == 0 {
		return engine.LightData{}, false
	}
	if data.Kind() == engine.KindGhostFocus || data.Kind() == engine.KindGeometric {
		return data.WithLiveBundle(merged), true
	}
	return engine.GhostFocusData([]*ray.Bundle{merged}), true
}
