// File: internal/optics/refractiveindex.go
package optics

import (
	"fmt"
	"math"

	"github.com/xkilldash9x/beamline-cli/internal/quantity"
)

// RefractiveIndex models the wavelength dependence of a medium's refractive
// index.
type RefractiveIndex interface {
	// At returns the refractive index at the given wavelength. The result
	// is always >= 1 and finite; anything else is an error.
	At(wavelength quantity.Length) (float64, error)
	Name() string
}

// validateIndex rejects unphysical model outputs.
func validateIndex(n float64) (float64, error) {
	if n < 1 || !isFinite(n) {
		return 0, fmt.Errorf("refractive index calculated by model is %v (must be >= 1 and finite)", n)
	}
	return n, nil
}

// ConstIndex is a wavelength-independent refractive index.
type ConstIndex struct {
	N float64
}

// NewConstIndex validates the constant index value.
func NewConstIndex(n float64) (ConstIndex, error) {
	if _, err := validateIndex(n); err != nil {
		return ConstIndex{}, err
	}
	return ConstIndex{N: n}, nil
}

func (c ConstIndex) Name() string { return "const" }

func (c ConstIndex) At(quantity.Length) (float64, error) { return c.N, nil }

// WavelengthRange limits the validity of a dispersion fit.
type WavelengthRange struct {
	Min quantity.Length
	Max quantity.Length
}

func (r WavelengthRange) contains(wl quantity.Length) bool {
	return wl >= r.Min && wl <= r.Max
}

// Sellmeier1 is the standard three-term Sellmeier dispersion formula
// n^2 = 1 + sum_i K_i*l^2 / (l^2 - L_i), with l in micrometers.
type Sellmeier1 struct {
	K1, K2, K3 float64
	L1, L2, L3 float64
	Range      WavelengthRange
}

func (Sellmeier1) Name() string { return "sellmeier1" }

func (s Sellmeier1) At(wl quantity.Length) (float64, error) {
	if !s.Range.contains(wl) {
		return 0, fmt.Errorf("wavelength %v nm outside valid range of sellmeier1 fit", wl.Nanometers())
	}
	l2 := wl.Micrometers() * wl.Micrometers()
	n2 := 1 + s.K1*l2/(l2-s.L1) + s.K2*l2/(l2-s.L2) + s.K3*l2/(l2-s.L3)
	return validateIndex(math.Sqrt(n2))
}

// Conrady is the Conrady dispersion formula n = n0 + A/l + B/l^3.5, with l
// in micrometers. Commonly used for fitting sparse index data.
type Conrady struct {
	N0, A, B float64
	Range    WavelengthRange
}

func (Conrady) Name() string { return "conrady" }

func (c Conrady) At(wl quantity.Length) (float64, error) {
	if !c.Range.contains(wl) {
		return 0, fmt.Errorf("wavelength %v nm outside valid range of conrady fit", wl.Nanometers())
	}
	l := wl.Micrometers()
	return validateIndex(c.N0 + c.A/l + c.B/math.Pow(l, 3.5))
}

// NBK7 returns a Sellmeier fit of the Schott N-BK7 borosilicate glass,
// valid from 300 nm to 2.5 um.
func NBK7() Sellmeier1 {
	return Sellmeier1{
		K1: 1.03961212, K2: 0.231792344, K3: 1.01046945,
		L1: 0.00600069867, L2: 0.0200179144, L3: 103.560653,
		Range: WavelengthRange{Min: quantity.Nanometer(300), Max: quantity.Micrometer(2.5)},
	}
}
