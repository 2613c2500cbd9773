// File: internal/spectrum/spectrum.go

// Package spectrum implements the spectral energy bookkeeping used by the
// energy-flow analysis. A spectrum is represented as a set of discrete laser
// lines (wavelength, energy); this is exact for the line sources the engine
// supports and keeps arithmetic such as splitting and merging loss-free.
package spectrum

import (
	"fmt"
	"math"
	"sort"

	"github.com/xkilldash9x/beamline-cli/internal/quantity"
)

// Line is a single spectral line.
type Line struct {
	Wavelength quantity.Length
	Energy     quantity.Energy
}

// Spectrum is an ordered set of spectral lines. The zero value is an empty
// spectrum with zero total energy.
type Spectrum struct {
	lines []Line // sorted by wavelength, unique wavelengths
}

// New returns an empty spectrum.
func New() *Spectrum { return &Spectrum{} }

// FromLaserLines builds a spectrum from a list of lines. Lines at the same
// wavelength are merged by adding their energies.
func FromLaserLines(lines []Line) (*Spectrum, error) {
	s := New()
	for _, l := range lines {
		if err := s.AddLine(l.Wavelength, l.Energy); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// HeNe returns a single-line helium-neon spectrum (632.8 nm) with the given
// total energy. Widely used as a test and alignment source.
func HeNe(energy quantity.Energy) (*Spectrum, error) {
	return FromLaserLines([]Line{{Wavelength: quantity.Nanometer(632.8), Energy: energy}})
}

// AddLine adds a single line, merging with an existing line at the same
// wavelength.
func (s *Spectrum) AddLine(wl quantity.Length, e quantity.Energy) error {
	if err := quantity.ValidateWavelength(wl); err != nil {
		return err
	}
	if err := quantity.ValidateEnergy(e); err != nil {
		return err
	}
	i := sort.Search(len(s.lines), func(i int) bool { return s.lines[i].Wavelength >= wl })
	if i < len(s.lines) && s.lines[i].Wavelength == wl {
		s.lines[i].Energy += e
		return nil
	}
	s.lines = append(s.lines, Line{})
	copy(s.lines[i+1:], s.lines[i:])
	s.lines[i] = Line{Wavelength: wl, Energy: e}
	return nil
}

// Lines returns a copy of the spectral lines.
func (s *Spectrum) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// IsEmpty reports whether the spectrum contains no lines.
func (s *Spectrum) IsEmpty() bool { return len(s.lines) == 0 }

// TotalEnergy returns the sum of all line energies.
func (s *Spectrum) TotalEnergy() quantity.Energy {
	var total quantity.Energy
	for _, l := range s.lines {
		total += l.Energy
	}
	return total
}

// CenterWavelength returns the energy-weighted mean wavelength, or zero for
// an empty spectrum.
func (s *Spectrum) CenterWavelength() quantity.Length {
	total := s.TotalEnergy()
	if total == 0 {
		return 0
	}
	var acc float64
	for _, l := range s.lines {
		acc += l.Wavelength.Meters() * l.Energy.Joules()
	}
	return quantity.Length(acc / total.Joules())
}

// Scale multiplies every line energy by factor.
func (s *Spectrum) Scale(factor float64) error {
	if factor < 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return fmt.Errorf("scale factor must be non-negative and finite, got %v", factor)
	}
	for i := range s.lines {
		s.lines[i].Energy = quantity.Energy(s.lines[i].Energy.Joules() * factor)
	}
	return nil
}

// Add merges the lines of other into s.
func (s *Spectrum) Add(other *Spectrum) {
	if other == nil {
		return
	}
	for _, l := range other.lines {
		// Lines are already validated; AddLine cannot fail here.
		_ = s.AddLine(l.Wavelength, l.Energy)
	}
}

// Split divides the spectrum by ratio, returning the kept part (ratio) and
// the split-off part (1-ratio). Energy is conserved exactly per line.
func (s *Spectrum) Split(ratio float64) (*Spectrum, *Spectrum, error) {
	if ratio < 0 || ratio > 1 || math.IsNaN(ratio) {
		return nil, nil, fmt.Errorf("splitting ratio must be within [0, 1], got %v", ratio)
	}
	kept := New()
	split := New()
	for _, l := range s.lines {
		e := l.Energy.Joules()
		_ = kept.AddLine(l.Wavelength, quantity.Energy(e*ratio))
		_ = split.AddLine(l.Wavelength, quantity.Energy(e-e*ratio))
	}
	return kept, split, nil
}

// Filter applies a wavelength-dependent transmission function. Transmission
// values are clamped to [0, 1].
func (s *Spectrum) Filter(transmission func(quantity.Length) float64) {
	for i := range s.lines {
		t := transmission(s.lines[i].Wavelength)
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		s.lines[i].Energy = quantity.Energy(s.lines[i].Energy.Joules() * t)
	}
}

// Clone returns a deep copy.
func (s *Spectrum) Clone() *Spectrum {
	return &Spectrum{lines: s.Lines()}
}

// Merge combines two optional spectra; either argument may be nil.
func Merge(a, b *Spectrum) *Spectrum {
	if a == nil && b == nil {
		return nil
	}
	out := New()
	out.Add(a)
	out.Add(b)
	return out
}
