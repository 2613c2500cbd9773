// File: internal/optics/coating.go

// Package optics binds the geometric surface primitives to their physical
// behavior: coatings (reflectivity models), refractive-index dispersion
// models, and the posed, aperture-clipped surface wrapper that the ray
// tracer interacts with.
package optics

import (
	"fmt"
	"math"
)

// Coating models the reflectivity of an optical surface. The incidence
// angle is passed as its cosine (always positive), n1 is the refractive
// index of the incoming medium, n2 of the following medium.
type Coating interface {
	// Reflectivity returns the reflected energy fraction in [0, 1].
	Reflectivity(cosIncidence, n1, n2 float64) (float64, error)
	Name() string
}

// IdealAR is a perfect anti-reflective coating: zero reflectivity.
type IdealAR struct{}

func (IdealAR) Name() string { return "ideal-ar" }

func (IdealAR) Reflectivity(cosIncidence, n1, n2 float64) (float64, error) {
	return 0, nil
}

// ConstantR reflects a fixed energy fraction regardless of angle and
// wavelength.
type ConstantR struct {
	R float64
}

// NewConstantR validates the reflectivity fraction.
func NewConstantR(r float64) (ConstantR, error) {
	if r < 0 || r > 1 || math.IsNaN(r) {
		return ConstantR{}, fmt.Errorf("reflectivity must be within [0, 1], got %v", r)
	}
	return ConstantR{R: r}, nil
}

func (c ConstantR) Name() string { return "constant-r" }

func (c ConstantR) Reflectivity(cosIncidence, n1, n2 float64) (float64, error) {
	return c.R, nil
}

// Fresnel computes the reflectivity of an uncoated surface from the Fresnel
// equations, assuming unpolarized light (average of the s and p
// polarizations).
type Fresnel struct{}

func (Fresnel) Name() string { return "fresnel" }

func (Fresnel) Reflectivity(cosIncidence, n1, n2 float64) (float64, error) {
	if cosIncidence < 0 || cosIncidence > 1 {
		return 0, fmt.Errorf("cosine of incidence angle must be within [0, 1], got %v", cosIncidence)
	}
	if n1 < 1 || n2 < 1 || !isFinite(n1) || !isFinite(n2) {
		return 0, fmt.Errorf("refractive indices must be >= 1 and finite, got n1=%v n2=%v", n1, n2)
	}
	cosA := cosIncidence
	sinA2 := 1 - cosA*cosA
	// Snell: sin(beta) = n1/n2 * sin(alpha).
	sinB2 := (n1 * n1 / (n2 * n2)) * sinA2
	if sinB2 >= 1 {
		// Total internal reflection.
		return 1, nil
	}
	cosB := math.Sqrt(1 - sinB2)
	rs := (n1*cosA - n2*cosB) / (n1*cosA + n2*cosB)
	rp := (n2*cosA - n1*cosB) / (n2*cosA + n1*cosB)
	return (rs*rs + rp*rp) / 2, nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
