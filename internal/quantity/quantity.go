// File: internal/quantity/quantity.go
package quantity

import (
	"fmt"
	"math"
)

// Length is a physical length in meters.
type Length float64

// Energy is a physical energy in joules.
type Energy float64

// Angle is a plane angle in radians.
type Angle float64

// Fluence is an energy density in joules per square meter.
type Fluence float64

// Meter returns a Length of v meters.
func Meter(v float64) Length { return Length(v) }

// Millimeter returns a Length of v millimeters.
func Millimeter(v float64) Length { return Length(v * 1e-3) }

// Micrometer returns a Length of v micrometers.
func Micrometer(v float64) Length { return Length(v * 1e-6) }

// Nanometer returns a Length of v nanometers.
func Nanometer(v float64) Length { return Length(v * 1e-9) }

// Joule returns an Energy of v joules.
func Joule(v float64) Energy { return Energy(v) }

// Millijoule returns an Energy of v millijoules.
func Millijoule(v float64) Energy { return Energy(v * 1e-3) }

// Radian returns an Angle of v radians.
func Radian(v float64) Angle { return Angle(v) }

// Degree returns an Angle of v degrees.
func Degree(v float64) Angle { return Angle(v * math.Pi / 180.0) }

// JoulePerSquareCentimeter returns a Fluence of v J/cm².
func JoulePerSquareCentimeter(v float64) Fluence { return Fluence(v * 1e4) }

// Meters returns the length in meters.
func (l Length) Meters() float64 { return float64(l) }

// Millimeters returns the length in millimeters.
func (l Length) Millimeters() float64 { return float64(l) * 1e3 }

// Micrometers returns the length in micrometers.
func (l Length) Micrometers() float64 { return float64(l) * 1e6 }

// Nanometers returns the length in nanometers.
func (l Length) Nanometers() float64 { return float64(l) * 1e9 }

// IsFinite reports whether the length is neither NaN nor infinite.
func (l Length) IsFinite() bool { return !math.IsNaN(float64(l)) && !math.IsInf(float64(l), 0) }

// Joules returns the energy in joules.
func (e Energy) Joules() float64 { return float64(e) }

// IsFinite reports whether the energy is neither NaN nor infinite.
func (e Energy) IsFinite() bool { return !math.IsNaN(float64(e)) && !math.IsInf(float64(e), 0) }

// Radians returns the angle in radians.
func (a Angle) Radians() float64 { return float64(a) }

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 { return float64(a) * 180.0 / math.Pi }

// JoulesPerSquareMeter returns the fluence in J/m².
func (f Fluence) JoulesPerSquareMeter() float64 { return float64(f) }

// IsFinite reports whether the fluence is neither NaN nor infinite.
func (f Fluence) IsFinite() bool { return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0) }

// ValidateDistance checks that a propagation distance is finite and non-negative.
func ValidateDistance(d Length) error {
	if !d.IsFinite() {
		return fmt.Errorf("distance must be finite, got %v m", d.Meters())
	}
	if d < 0 {
		return fmt.Errorf("distance must be non-negative, got %v m", d.Meters())
	}
	return nil
}

// ValidateEnergy checks that an energy is finite and non-negative.
func ValidateEnergy(e Energy) error {
	if !e.IsFinite() {
		return fmt.Errorf("energy must be finite, got %v J", e.Joules())
	}
	if e < 0 {
		return fmt.Errorf("energy must be non-negative, got %v J", e.Joules())
	}
	return nil
}

// ValidateWavelength checks that a wavelength is finite and strictly positive.
func ValidateWavelength(wl Length) error {
	if !wl.IsFinite() || wl <= 0 {
		return fmt.Errorf("wavelength must be positive and finite, got %v m", wl.Meters())
	}
	return nil
}
