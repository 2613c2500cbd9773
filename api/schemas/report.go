// File: api/schemas/report.go

// Package schemas defines the JSON report structures produced by an
// analysis run. They are the stable external surface; downstream tooling
// renders them into documents and plots.
package schemas

import "time"

// NodeReport describes one node of the scene graph after analysis.
type NodeReport struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Inverted   bool           `json:"inverted,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Detector   *DetectorData  `json:"detector,omitempty"`
}

// DetectorData carries the measurement of a detector node. Only the fields
// matching the detector kind are populated.
type DetectorData struct {
	Energy   *float64       `json:"energyJ,omitempty"`
	Spectrum []SpectralLine `json:"spectrum,omitempty"`
	Fluence  *FluenceReport `json:"fluence,omitempty"`
	Spots    []SpotPoint    `json:"spots,omitempty"`
	RayPaths [][]PathPoint  `json:"rayPaths,omitempty"`
}

// SpectralLine is one wavelength/energy pair of a measured spectrum.
type SpectralLine struct {
	WavelengthM float64 `json:"wavelengthM"`
	EnergyJ     float64 `json:"energyJ"`
}

// SpotPoint is one ray strike in a detector plane, local coordinates.
type SpotPoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	EnergyJ float64 `json:"energyJ"`
}

// PathPoint is one vertex of a ray's position history.
type PathPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GhostPassData summarizes the bundle a ghost-focus pass delivered.
type GhostPassData struct {
	Bounce  int     `json:"bounce"`
	Rays    int     `json:"rays"`
	EnergyJ float64 `json:"energyJ"`
}

// FluenceReport carries fluence estimates for a surface hit map.
type FluenceReport struct {
	Estimator  string            `json:"estimator"`
	PeakJPerM2 float64           `json:"peakJPerM2"`
	AvgJPerM2  float64           `json:"avgJPerM2"`
	HitCount   int               `json:"hitCount"`
	Critical   []CriticalFluence `json:"critical,omitempty"`
	PerBounce  map[int]float64   `json:"peakPerBounceJPerM2,omitempty"`
}

// CriticalFluence flags a bundle whose peak fluence exceeded a surface's
// damage threshold.
type CriticalFluence struct {
	Bundle     string  `json:"bundle"`
	Bounce     int     `json:"bounce"`
	PeakJPerM2 float64 `json:"peakJPerM2"`
}

// AnalysisReport is the top-level result of one analyzer run over a scene.
// Ghosts is only populated by ghost-focus runs: one entry per bundle that
// escaped through an externally mapped port.
type AnalysisReport struct {
	AnalysisType string          `json:"analysisType"`
	Scenery      string          `json:"scenery"`
	GeneratedAt  time.Time       `json:"generatedAt"`
	Nodes        []NodeReport    `json:"nodes"`
	Ghosts       []GhostPassData `json:"collectedGhosts,omitempty"`
}
