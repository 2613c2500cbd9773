// File: internal/nodes/dummy.go

package nodes

import (
	"github.com/xkilldash9x/beamline-cli/api/schemas"
	"github.com/xkilldash9x/beamline-cli/internal/engine"
)

// Dummy forwards light unchanged. It marks a position on the bench without
// interacting with the beam.
type Dummy struct {
	*engine.NodeAttr
}

// NewDummy creates a pass-through node.
func NewDummy(name string) *Dummy {
	d := &Dummy{NodeAttr: engine.NewNodeAttr(name, TypeDummy)}
	_ = d.Ports().AddInput("input_1")
	_ = d.Ports().AddOutput("output_1", nil)
	return d
}

// Analyze forwards the input payload to the output port.
func (d *Dummy) Analyze(_ *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	out := make(engine.LightResult)
	if data, ok := inputs[d.InPort()]; ok {
		out[d.OutPort()] = data
	}
	return out, nil
}

// Detector records whatever payload passes through it and forwards it
// unchanged. It is the generic measurement node; specialized detectors
// refine what gets recorded.
type Detector struct {
	*engine.NodeAttr
	recorded []engine.LightData
}

// NewDetector creates a recording pass-through node.
func NewDetector(name string) *Detector {
	d := &Detector{NodeAttr: engine.NewNodeAttr(name, TypeDetector)}
	_ = d.Ports().AddInput("input_1")
	_ = d.Ports().AddOutput("output_1", nil)
	return d
}

// Analyze records the payload and forwards it.
func (d *Detector) Analyze(_ *engine.AnalysisContext, inputs engine.LightResult) (engine.LightResult, error) {
	out := make(engine.LightResult)
	if data, ok := inputs[d.InPort()]; ok {
		d.recorded = append(d.recorded, data.Clone())
		out[d.OutPort()] = data
	}
	return out, nil
}

// Recorded returns the payloads seen so far, one per pass.
func (d *Detector) Recorded() []engine.LightData { return d.recorded }

// Reset drops the recordings.
func (d *Detector) Reset() {
	d.recorded = nil
	d.NodeAttr.Reset()
}

// Report includes the total recorded energy.
func (d *Detector) Report() schemas.NodeReport {
	report := d.NodeAttr.Report()
	var total float64
	for _, data := range d.recorded {
		total += data.TotalEnergy().Joules()
	}
	if len(d.recorded) > 0 {
		report.Detector = &schemas.DetectorData{Energy: &total}
	}
	return report
}
