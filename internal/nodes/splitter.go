// File: internal/nodes/splitter.go

package nodes

import (
	"math"

	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
	"github.com/xkilldash9x/beamline-cli/internal/spectrum"
)

// BeamSplitter splits each input and cross-merges the halves: a share of
// ratio transmits straight through while the remainder reflects into the
// other leg. With light on both inputs each output carries the transmitted
// part of one input merged with the reflected part of the other. Energy is
// conserved for every ratio.
type BeamSplitter struct {
	*engine.NodeAttr
	ratio float64
}

// NewBeamSplitter creates a splitter with the given transmitted share in
// [0, 1].
func NewBeamSplitter(name string, ratio float64) (*BeamSplitter, error) {
	if ratio < 0 || ratio > 1 || math.IsNaN(ratio) {
		return nil, engine.NewError(engine.ErrCodeInvalidParameters, "splitting ratio must be within [0, 1], got %v", ratio)
	}
	b := &BeamSplitter{NodeAttr: engine.NewNodeAttr(name, TypeBeamSplitter), ratio: ratio}
	_ = b.Ports().AddInput("input_1")
	_ = b.Ports().AddInput("input_2")
	_ = b.Ports().AddOutput("out1_trans1_refl2", nil)
	_ = b.Ports().AddOutput("out2_trans2_refl1", nil)
	_ = b.Properties().DefineReadOnly("splitting ratio", ratio)
	return b, nil
}

// Ratio returns the transmitted share.
func (b *BeamSplitter) Ratio() float64 { return b.ratio }

// Analyze splits and cross-merges the light on the effective input ports.
// Inversion swaps the roles of the four ports; the time-reversed ideal
// splitter follows the same transmit/reflect rule.
func (b *BeamSplitter) Analyze(ctx *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	ins := b.Ports().Inputs()
	outs := b.Ports().Outputs()
	out := make(engine.LightResult)

	in1, ok1 := inputs[ins[0]]
	in2, ok2 := inputs[ins[1]]
	if !ok1 && !ok2 {
		return out, nil
	}
	kind := in1.Kind()
	if !ok1 {
		kind = in2.Kind()
	}
	if ok1 && ok2 && in1.Kind() != in2.Kind() {
		return nil, engine.NewError(engine.ErrCodeWrongLightData,
			"beam splitter inputs carry %s and %s light", in1.Kind(), in2.Kind())
	}

	switch kind {
	case engine.KindEnergy:
		var s1, s2 *spectrum.Spectrum
		if ok1 {
			var err error
			if s1, err = in1.Spectrum(); err != nil {
				return nil, err
			}
		}
		if ok2 {
			var err error
			if s2, err = in2.Spectrum(); err != nil {
				return nil, err
			}
		}
		t1, r1, err := splitSpectrum(s1, b.ratio)
		if err != nil {
			return nil, err
		}
		t2, r2, err := splitSpectrum(s2, b.ratio)
		if err != nil {
			return nil, err
		}
		if merged := spectrum.Merge(t1, r2); merged != nil {
			out[outs[0]] = engine.EnergyData(merged)
		}
		if merged := spectrum.Merge(r1, t2); merged != nil {
			out[outs[1]] = engine.EnergyData(merged)
		}
	case engine.KindGeometric, engine.KindGhostFocus:
		var live1, live2 *ray.Bundle
		var hist1, hist2 []*ray.Bundle
		if ok1 {
			var err error
			if live1, hist1, err = in1.LiveBundle(); err != nil {
				return nil, err
			}
		}
		if ok2 {
			var err error
			if live2, hist2, err = in2.LiveBundle(); err != nil {
				return nil, err
			}
		}
		t1, r1, err := splitBundle(live1, b.ratio)
		if err != nil {
			return nil, err
		}
		t2, r2, err := splitBundle(live2, b.ratio)
		if err != nil {
			return nil, err
		}
		// The finished passes of a ghost payload split like the live
		// bundle, so every leg keeps the full per-pass history at its
		// share of the energy.
		th1, rh1, err := splitBundles(hist1, b.ratio)
		if err != nil {
			return nil, err
		}
		th2, rh2, err := splitBundles(hist2, b.ratio)
		if err != nil {
			return nil, err
		}
		if merged := ray.Merge(t1, r2); merged != nil {
			finishBundle(ctx, merged)
			out[outs[0]] = packBundle(kind, append(th1, rh2...), merged)
		}
		if merged := ray.Merge(r1, t2); merged != nil {
			finishBundle(ctx, merged)
			out[outs[1]] = packBundle(kind, append(rh1, th2...), merged)
		}
	default:
		return nil, engine.NewError(engine.ErrCodeNotImplemented, "wave-optics propagation is not implemented")
	}
	return out, nil
}

// splitSpectrum divides a spectrum into its transmitted and reflected
// shares. A nil input yields nil halves.
func splitSpectrum(s *spectrum.Spectrum, ratio float64) (trans, refl *spectrum.Spectrum, err error) {
	if s == nil {
		return nil, nil, nil
	}
	return s.Split(ratio)
}

// splitBundle divides a bundle into its transmitted and reflected shares.
func splitBundle(b *ray.Bundle, ratio float64) (trans, refl *ray.Bundle, err error) {
	if b == nil {
		return nil, nil, nil
	}
	trans = b.Clone()
	refl, err = trans.Split(ratio)
	return trans, refl, err
}

// splitBundles applies splitBundle to a pass history, keeping pass order.
func splitBundles(bs []*ray.Bundle, ratio float64) (trans, refl []*ray.Bundle, err error) {
	for _, b := range bs {
		t, r, err := splitBundle(b, ratio)
		if err != nil {
			return nil, nil, err
		}
		if t != nil {
			trans = append(trans, t)
		}
		if r != nil {
			refl = append(refl, r)
		}
	}
	return trans, refl, nil
}

// packBundle wraps the live bundle in the variant the pass is running
// under; a ghost payload carries its split pass history ahead of it.
func packBundle(kind engine.LightKind, history []*ray.Bundle, live *ray.Bundle) engine.LightData {
	if kind == engine.KindGhostFocus {
		return engine.GhostFocusData(append(history, live))
	}
	return engine.GeometricData(live)
}
