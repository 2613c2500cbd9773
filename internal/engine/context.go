// File: internal/engine/context.go

package engine

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/beamline-cli/internal/quantity"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
)

// Mode selects which analysis strategy is driving the current run.
type Mode int

const (
	// ModeEnergy propagates spectral energy only.
	ModeEnergy Mode = iota
	// ModeRayTrace propagates a geometric ray bundle.
	ModeRayTrace
	// ModeGhostFocus traces parasitic reflections across repeated passes.
	ModeGhostFocus
)

func (m Mode) String() string {
	switch m {
	case ModeEnergy:
		return "energy"
	case ModeRayTrace:
		return "ray-trace"
	case ModeGhostFocus:
		return "ghost-focus"
	}
	return "unknown"
}

// RayTraceConfig bounds a geometric trace.
type RayTraceConfig struct {
	// MissedSurface decides the fate of rays missing a surface.
	MissedSurface ray.MissedSurfacePolicy
	// MinEnergyPerRay drops rays below this floor after each node.
	MinEnergyPerRay quantity.Energy
	// MaxBounces filters rays exceeding this reflection count.
	MaxBounces int
	// MaxRefractions filters rays exceeding this refraction count.
	MaxRefractions int
}

// DefaultRayTraceConfig returns the standard trace bounds.
func DefaultRayTraceConfig() RayTraceConfig {
	return RayTraceConfig{
		MissedSurface:   ray.MissedStop,
		MinEnergyPerRay: quantity.Joule(1e-12),
		MaxBounces:      1000,
		MaxRefractions:  1000,
	}
}

// GhostFocusConfig bounds a ghost-focus run.
type GhostFocusConfig struct {
	// MaxBounces is the highest reflection order followed. Zero admits
	// only the direct path.
	MaxBounces int
}

// AmbientConfig describes the medium the scene sits in.
type AmbientConfig struct {
	// RefractiveIndex of the space between nodes.
	RefractiveIndex float64
	// AlignmentWavelength used when a node needs a wavelength outside a
	// geometric trace.
	AlignmentWavelength quantity.Length
}

// DefaultAmbientConfig returns vacuum with a 1054 nm alignment wavelength.
func DefaultAmbientConfig() AmbientConfig {
	return AmbientConfig{
		RefractiveIndex:     1.0,
		AlignmentWavelength: quantity.Nanometer(1054),
	}
}

// AnalysisContext is the immutable configuration snapshot threaded through
// every Analyze call. Analyzers build one per run; nodes only read it.
type AnalysisContext struct {
	Mode     Mode
	RayTrace RayTraceConfig
	Ghost    GhostFocusConfig
	Ambient  AmbientConfig
	Log      *zap.Logger
}

// NewAnalysisContext assembles a context with defaults for everything but
// the mode. A nil logger is replaced by a no-op logger.
func NewAnalysisContext(mode Mode, log *zap.Logger) *AnalysisContext {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalysisContext{
		Mode:     mode,
		RayTrace: DefaultRayTraceConfig(),
		Ghost:    GhostFocusConfig{MaxBounces: 2},
		Ambient:  DefaultAmbientConfig(),
		Log:      log,
	}
}
