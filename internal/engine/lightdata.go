// File: internal/engine/lightdata.go

// Package engine holds the optical scene graph: nodes with named ports, the
// light data flowing between them, graph construction and validation,
// deterministic topological traversal, and graph inversion for backward
// passes.
package engine

import (
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
	"github.com/xkilldash9x/beamline-cli/internal/spectrum"
)

// LightKind discriminates the payload of a LightData value.
type LightKind int

const (
	// KindEnergy carries a spectrum for energy-only analysis.
	KindEnergy LightKind = iota
	// KindGeometric carries a single ray bundle.
	KindGeometric
	// KindGhostFocus carries the bundles of every ghost pass so far.
	KindGhostFocus
	// KindFourier is reserved for wave-optics propagation. Analyzing it
	// fails with ErrCodeNotImplemented.
	KindFourier
)

func (k LightKind) String() string {
	switch k {
	case KindEnergy:
		return "energy"
	case KindGeometric:
		return "geometric"
	case KindGhostFocus:
		return "ghost-focus"
	case KindFourier:
		return "fourier"
	}
	return "unknown"
}

// LightData is the tagged union travelling along graph edges.
type LightData struct {
	kind     LightKind
	spectrum *spectrum.Spectrum
	bundle   *ray.Bundle
	bundles  []*ray.Bundle
}

// EnergyData wraps a spectrum.
func EnergyData(s *spectrum.Spectrum) LightData {
	return LightData{kind: KindEnergy, spectrum: s}
}

// GeometricData wraps a ray bundle.
func GeometricData(b *ray.Bundle) LightData {
	return LightData{kind: KindGeometric, bundle: b}
}

// GhostFocusData wraps the accumulated bundles of a ghost-focus run.
func GhostFocusData(bs []*ray.Bundle) LightData {
	return LightData{kind: KindGhostFocus, bundles: bs}
}

// FourierData creates the wave-optics placeholder variant.
func FourierData() LightData {
	return LightData{kind: KindFourier}
}

// Kind returns the payload discriminator.
func (d LightData) Kind() LightKind { return d.kind }

// Spectrum returns the energy payload or a typed error for other variants.
func (d LightData) Spectrum() (*spectrum.Spectrum, error) {
	if d.kind != KindEnergy {
		return nil, NewError(ErrCodeWrongLightData, "expected energy light data, got %s", d.kind)
	}
	return d.spectrum, nil
}

// Bundle returns the geometric payload or a typed error for other variants.
func (d LightData) Bundle() (*ray.Bundle, error) {
	if d.kind != KindGeometric {
		return nil, NewError(ErrCodeWrongLightData, "expected geometric light data, got %s", d.kind)
	}
	return d.bundle, nil
}

// Bundles returns the ghost-focus payload or a typed error for other
// variants.
func (d LightData) Bundles() ([]*ray.Bundle, error) {
	if d.kind != KindGhostFocus {
		return nil, NewError(ErrCodeWrongLightData, "expected ghost-focus light data, got %s", d.kind)
	}
	return d.bundles, nil
}

// LiveBundle returns the bundle a geometric or ghost-focus payload is
// currently propagating, plus the already-finished pass history. Ghost
// payloads keep one bundle per pass; only the last one is live.
func (d LightData) LiveBundle() (*ray.Bundle, []*ray.Bundle, error) {
	switch d.kind {
	case KindGeometric:
		if d.bundle == nil {
			return nil, nil, NewError(ErrCodeWrongLightData, "geometric light data carries no bundle")
		}
		return d.bundle, nil, nil
	case KindGhostFocus:
		if len(d.bundles) == 0 {
			return nil, nil, NewError(ErrCodeWrongLightData, "ghost-focus light data carries no bundles")
		}
		last := len(d.bundles) - 1
		return d.bundles[last], d.bundles[:last], nil
	}
	return nil, nil, NewError(ErrCodeWrongLightData, "%s light data carries no bundle", d.kind)
}

// WithLiveBundle replaces the live bundle, preserving the variant and any
// pass history.
func (d LightData) WithLiveBundle(b *ray.Bundle) LightData {
	switch d.kind {
	case KindGeometric:
		return GeometricData(b)
	case KindGhostFocus:
		if len(d.bundles) == 0 {
			return GhostFocusData([]*ray.Bundle{b})
		}
		out := make([]*ray.Bundle, len(d.bundles))
		copy(out, d.bundles)
		out[len(out)-1] = b
		return GhostFocusData(out)
	}
	return d
}

// TotalEnergy sums the payload's energy regardless of variant.
func (d LightData) TotalEnergy() quantity.Energy {
	switch d.kind {
	case KindEnergy:
		if d.spectrum != nil {
			return d.spectrum.TotalEnergy()
		}
	case KindGeometric:
		if d.bundle != nil {
			return d.bundle.TotalEnergy()
		}
	case KindGhostFocus:
		var total float64
		for _, b := range d.bundles {
			total += b.TotalEnergy().Joules()
		}
		return quantity.Energy(total)
	}
	return 0
}

// Clone deep-copies the payload so edges never alias node state.
func (d LightData) Clone() LightData {
	switch d.kind {
	case KindEnergy:
		c := LightData{kind: KindEnergy}
		if d.spectrum != nil {
			c.spectrum = d.spectrum.Clone()
		}
		return c
	case KindGeometric:
		c := LightData{kind: KindGeometric}
		if d.bundle != nil {
			c.bundle = d.bundle.Clone()
		}
		return c
	case KindGhostFocus:
		c := LightData{kind: KindGhostFocus}
		for _, b := range d.bundles {
			c.bundles = append(c.bundles, b.Clone())
		}
		return c
	}
	return LightData{kind: d.kind}
}

// LightResult maps port names (or external port-map names) to light data.
type LightResult map[string]LightData
