// File: internal/nodes/meters.go

package nodes

import (
	"github.com/xkilldash9x/beamline-cli/api/schemas"
	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
	"github.com/xkilldash9x/beamline-cli/internal/spectrum"
)

// EnergyMeter measures the total energy passing through it, summed over all
// passes, and forwards the light unchanged.
type EnergyMeter struct {
	*engine.NodeAttr
	measured quantity.Energy
	passes   int
}

// NewEnergyMeter creates an energy meter.
func NewEnergyMeter(name string) *EnergyMeter {
	m := &EnergyMeter{NodeAttr: engine.NewNodeAttr(name, TypeEnergyMeter)}
	_ = m.Ports().AddInput("input_1")
	_ = m.Ports().AddOutput("output_1", nil)
	return m
}

// Analyze accumulates the payload energy and forwards it.
func (m *EnergyMeter) Analyze(_ *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	out := make(engine.LightResult)
	if data, ok := inputs[m.InPort()]; ok {
		m.measured += data.TotalEnergy()
		m.passes++
		out[m.OutPort()] = data
	}
	return out, nil
}

// Measured returns the accumulated energy.
func (m *EnergyMeter) Measured() quantity.Energy { return m.measured }

// Reset zeroes the measurement.
func (m *EnergyMeter) Reset() {
	m.measured = 0
	m.passes = 0
	m.NodeAttr.Reset()
}

// Report includes the measured energy.
func (m *EnergyMeter) Report() schemas.NodeReport {
	report := m.NodeAttr.Report()
	if m.passes > 0 {
		e := m.measured.Joules()
		report.Detector = &schemas.DetectorData{Energy: &e}
	}
	return report
}

// Spectrometer measures the spectral content of the light passing through
// it. In energy mode it records the spectrum directly; in geometric modes
// it reconstructs one from the rays' wavelengths and energies.
type Spectrometer struct {
	*engine.NodeAttr
	measured *spectrum.Spectrum
}

// NewSpectrometer creates a spectrometer.
func NewSpectrometer(name string) *Spectrometer {
	s := &Spectrometer{NodeAttr: engine.NewNodeAttr(name, TypeSpectrometer)}
	_ = s.Ports().AddInput("input_1")
	_ = s.Ports().AddOutput("output_1", nil)
	return s
}

// Analyze records the spectrum and forwards the light.
func (s *Spectrometer) Analyze(_ *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	out := make(engine.LightResult)
	data, ok := inputs[s.InPort()]
	if !ok {
		return out, nil
	}
	if s.measured == nil {
		s.measured = spectrum.New()
	}
	switch data.Kind() {
	case engine.KindEnergy:
		sp, err := data.Spectrum()
		if err != nil {
			return nil, err
		}
		s.measured.Add(sp)
	case engine.KindGeometric, engine.KindGhostFocus:
		b, _, err := data.LiveBundle()
		if err != nil {
			return nil, err
		}
		for _, r := range b.Rays() {
			if !r.Valid() || r.Energy() == 0 {
				continue
			}
			if err := s.measured.AddLine(r.Wavelength(), r.Energy()); err != nil {
				return nil, err
			}
		}
	default:
		return nil, engine.NewError(engine.ErrCodeNotImplemented, "wave-optics propagation is not implemented")
	}
	out[s.OutPort()] = data
	return out, nil
}

// Measured returns the recorded spectrum, possibly nil.
func (s *Spectrometer) Measured() *spectrum.Spectrum { return s.measured }

// Reset drops the recorded spectrum.
func (s *Spectrometer) Reset() {
	s.measured = nil
	s.NodeAttr.Reset()
}

// Report includes the measured spectral lines.
func (s *Spectrometer) Report() schemas.NodeReport {
	report := s.NodeAttr.Report()
	if s.measured == nil || s.measured.IsEmpty() {
		return report
	}
	det := &schemas.DetectorData{}
	for _, line := range s.measured.Lines() {
		det.Spectrum = append(det.Spectrum, schemas.SpectralLine{
			WavelengthM: line.Wavelength.Meters(),
			EnergyJ:     line.Energy.Joules(),
		})
	}
	report.Detector = det
	return report
}
