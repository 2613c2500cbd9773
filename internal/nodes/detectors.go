// File: internal/nodes/detectors.go

package nodes

import (
	"github.com/xkilldash9x/beamline-cli/api/schemas"
	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/geometry"
	"github.com/xkilldash9x/beamline-cli/internal/hitmap"
	"github.com/xkilldash9x/beamline-cli/internal/optics"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
)

// FluenceDetector records ray hits on its plane and estimates the fluence
// distribution with the configured estimator. Light passes through
// unchanged.
type FluenceDetector struct {
	*engine.NodeAttr
	estimator string
	surf      *optics.Surface
}

// NewFluenceDetector creates a fluence detector. estimator is resolved via
// hitmap.ByName at report time; an empty string means Voronoi.
func NewFluenceDetector(name, estimator string) *FluenceDetector {
	f := &FluenceDetector{
		NodeAttr:  engine.NewNodeAttr(name, TypeFluenceDetector),
		estimator: estimator,
		surf:      optics.NewSurface(name+" plane", geometry.Plane{}),
	}
	_ = f.Ports().AddInput("input_1")
	_ = f.Ports().AddOutput("output_1", f.surf)
	_ = f.Properties().DefineReadOnly("estimator", estimator)
	return f
}

// SetDamageThreshold flags bundles whose peak fluence exceeds the given
// value in the report.
func (f *FluenceDetector) SetDamageThreshold(t quantity.Fluence) {
	f.surf.SetDamageThreshold(t)
}

// Surface returns the detector plane for inspection.
func (f *FluenceDetector) Surface() *optics.Surface { return f.surf }

// Analyze records hits on the detector plane and forwards the light.
func (f *FluenceDetector) Analyze(ctx *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	return recordOnPlane(ctx, f.NodeAttr, f.surf, inputs)
}

// Reset clears the hit map.
func (f *FluenceDetector) Reset() {
	f.surf.Reset()
	f.NodeAttr.Reset()
}

// Report includes the fluence estimate over all recorded hits.
func (f *FluenceDetector) Report() schemas.NodeReport {
	report := f.NodeAttr.Report()
	hm := f.surf.HitMap()
	if hm.IsEmpty() {
		return report
	}
	est, err := hitmap.ByName(f.estimator)
	if err != nil {
		return report
	}
	fluence := &schemas.FluenceReport{
		Estimator: f.estimator,
		HitCount:  len(hm.Merged()),
	}
	if e, err := est.Estimate(hm.Merged()); err == nil {
		fluence.PeakJPerM2 = e.Peak.JoulesPerSquareMeter()
		fluence.AvgJPerM2 = e.Average.JoulesPerSquareMeter()
	}
	if threshold := f.surf.DamageThreshold(); threshold > 0 {
		hm.EvaluateCritical(threshold, est)
		for _, c := range hm.Critical() {
			fluence.Critical = append(fluence.Critical, schemas.CriticalFluence{
				Bundle:     c.Bundle.String(),
				Bounce:     c.Bounce,
				PeakJPerM2: c.Peak.JoulesPerSquareMeter(),
			})
		}
	}
	perBounce := make(map[int]float64)
	for bounce := 0; bounce <= hm.MaxBounce(); bounce++ {
		var all []hitmap.HitPoint
		for _, id := range hm.Bundles(bounce) {
			all = append(all, hm.Hits(bounce, id)...)
		}
		if len(all) == 0 {
			continue
		}
		if e, err := est.Estimate(all); err == nil {
			perBounce[bounce] = e.Peak.JoulesPerSquareMeter()
		}
	}
	if len(perBounce) > 0 {
		fluence.PerBounce = perBounce
	}
	report.Detector = &schemas.DetectorData{Fluence: fluence}
	return report
}

// SpotDiagram records where rays strike its plane, in local coordinates.
type SpotDiagram struct {
	*engine.NodeAttr
	surf *optics.Surface
}

// NewSpotDiagram creates a spot diagram detector.
func NewSpotDiagram(name string) *SpotDiagram {
	s := &SpotDiagram{
		NodeAttr: engine.NewNodeAttr(name, TypeSpotDiagram),
		surf:     optics.NewSurface(name+" plane", geometry.Plane{}),
	}
	_ = s.Ports().AddInput("input_1")
	_ = s.Ports().AddOutput("output_1", s.surf)
	return s
}

// Analyze records hits and forwards the light.
func (s *SpotDiagram) Analyze(ctx *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	return recordOnPlane(ctx, s.NodeAttr, s.surf, inputs)
}

// Spots returns the recorded strikes.
func (s *SpotDiagram) Spots() []hitmap.HitPoint { return s.surf.HitMap().Merged() }

// Reset clears the recorded spots.
func (s *SpotDiagram) Reset() {
	s.surf.Reset()
	s.NodeAttr.Reset()
}

// Report includes the spot positions.
func (s *SpotDiagram) Report() schemas.NodeReport {
	report := s.NodeAttr.Report()
	spots := s.Spots()
	if len(spots) == 0 {
		return report
	}
	det := &schemas.DetectorData{}
	for _, h := range spots {
		det.Spots = append(det.Spots, schemas.SpotPoint{X: h.X, Y: h.Y, EnergyJ: h.Energy.Joules()})
	}
	report.Detector = det
	return report
}

// recordOnPlane passes the live bundle through a lossless plane so its hit
// map records the strikes, leaving direction and energy untouched.
func recordOnPlane(ctx *engine.AnalysisContext, attr *engine.NodeAttr, surf *optics.Surface, inputs engine.LightResult) (engine.LightResult, error) {
	out := make(engine.LightResult)
	data, bundle, ok, err := liveInput(attr, inputs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}
	if data.Kind() == engine.KindEnergy {
		out[attr.OutPort()] = data
		return out, nil
	}
	_, blocked, err := bundle.RefractOnSurface(surf, ray.SameIndex, ctx.RayTrace.MissedSurface)
	if err != nil {
		return nil, err
	}
	warnBlocked(ctx, attr.Name(), blocked)
	finishBundle(ctx, bundle)
	if bundle.ValidLen() == 0 {
		return out, nil
	}
	out[attr.OutPort()] = data.WithLiveBundle(bundle)
	return out, nil
}

// RayPropagationVisualizer collects the position history of every ray that
// passes, one polyline per ray, for bench layout plots.
type RayPropagationVisualizer struct {
	*engine.NodeAttr
	paths [][]schemas.PathPoint
}

// NewRayPropagationVisualizer creates a path collector.
func NewRayPropagationVisualizer(name string) *RayPropagationVisualizer {
	v := &RayPropagationVisualizer{NodeAttr: engine.NewNodeAttr(name, TypeRayVisualizer)}
	_ = v.Ports().AddInput("input_1")
	_ = v.Ports().AddOutput("output_1", nil)
	return v
}

// Analyze snapshots the ray histories and forwards the light unchanged.
func (v *RayPropagationVisualizer) Analyze(_ *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	out := make(engine.LightResult)
	data, bundle, ok, err := liveInput(v.NodeAttr, inputs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}
	if bundle != nil {
		for _, r := range bundle.Rays() {
			if !r.Valid() {
				continue
			}
			path := make([]schemas.PathPoint, 0, len(r.History())+1)
			for _, p := range r.History() {
				path = append(path, schemas.PathPoint{X: p.X, Y: p.Y, Z: p.Z})
			}
			p := r.Position()
			path = append(path, schemas.PathPoint{X: p.X, Y: p.Y, Z: p.Z})
			v.paths = append(v.paths, path)
		}
	}
	out[v.OutPort()] = data
	return out, nil
}

// Paths returns the collected polylines.
func (v *RayPropagationVisualizer) Paths() [][]schemas.PathPoint { return v.paths }

// Reset drops the collected paths.
func (v *RayPropagationVisualizer) Reset() {
	v.paths = nil
	v.NodeAttr.Reset()
}

// Report includes the ray paths.
func (v *RayPropagationVisualizer) Report() schemas.NodeReport {
	report := v.NodeAttr.Report()
	if len(v.paths) > 0 {
		report.Detector = &schemas.DetectorData{RayPaths: v.paths}
	}
	return report
}

// WaveFront is the placeholder for future wave-optics analysis. It records
// the bundle that would seed a field reconstruction and forwards the light.
type WaveFront struct {
	*engine.NodeAttr
	recorded []*ray.Bundle
}

// NewWaveFront creates the placeholder detector.
func NewWaveFront(name string) *WaveFront {
	w := &WaveFront{NodeAttr: engine.NewNodeAttr(name, TypeWaveFront)}
	_ = w.Ports().AddInput("input_1")
	_ = w.Ports().AddOutput("output_1", nil)
	return w
}

// Analyze records the live bundle and forwards the light.
func (w *WaveFront) Analyze(_ *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	out := make(engine.LightResult)
	data, bundle, ok, err := liveInput(w.NodeAttr, inputs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}
	if bundle != nil {
		w.recorded = append(w.recorded, bundle.Clone())
	}
	out[w.OutPort()] = data
	return out, nil
}

// Recorded returns the bundles seen so far.
func (w *WaveFront) Recorded() []*ray.Bundle { return w.recorded }

// Reset drops the recordings.
func (w *WaveFront) Reset() {
	w.recorded = nil
	w.NodeAttr.Reset()
}
