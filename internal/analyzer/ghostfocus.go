// File: internal/analyzer/ghostfocus.go

package analyzer

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/beamline-cli/api/schemas"
	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
)

// GhostFocus follows parasitic reflections through the scenery. The first
// pass traces the direct path; every surface buffers its reflected light.
// The graph is then inverted and re-propagated so the buffered bundles
// travel back through the bench, reflecting again on the way. A run with
// max bounces B takes at most B+1 passes: the per-surface bounce filter
// empties the buffers once every ray has reflected B times. Bundles that
// reach externally mapped ports are collected per pass.
type GhostFocus struct {
	log       *zap.Logger
	config    engine.GhostFocusConfig
	ambient   engine.AmbientConfig
	collected []*ray.Bundle
	passes    int
}

// NewGhostFocus creates a ghost-focus analyzer with the given bounce
// bound.
func NewGhostFocus(config engine.GhostFocusConfig, log *zap.Logger) *GhostFocus {
	if log == nil {
		log = zap.NewNop()
	}
	return &GhostFocus{log: log, config: config, ambient: engine.DefaultAmbientConfig()}
}

// SetAmbient overrides the medium the scene sits in.
func (a *GhostFocus) SetAmbient(ambient engine.AmbientConfig) { a.ambient = ambient }

// Analyze runs the bounded multi-pass ghost trace. The graph's orientation
// is restored afterwards regardless of how many passes ran.
func (a *GhostFocus) Analyze(g *engine.Graph) error {
	if a.config.MaxBounces < 0 {
		return engine.NewError(engine.ErrCodeInvalidParameters,
			"ghost focus max bounces must be >= 0, got %d", a.config.MaxBounces)
	}
	warnIfFragmented(g, a.log)
	ctx := engine.NewAnalysisContext(engine.ModeGhostFocus, a.log)
	ctx.Ghost = a.config
	ctx.Ambient = a.ambient

	startedInverted := g.Inverted()
	defer func() {
		if g.Inverted() != startedInverted {
			_ = g.InvertGraph()
		}
	}()

	a.collected = nil
	a.passes = 0
	maxPasses := a.config.MaxBounces + 1
	for pass := 0; pass < maxPasses; pass++ {
		result, err := g.Propagate(ctx, nil)
		if err != nil {
			return err
		}
		a.passes++
		for _, data := range result {
			if b, _, err := data.LiveBundle(); err == nil && b.ValidLen() > 0 {
				a.collected = append(a.collected, b)
			}
		}
		pending := g.PendingGhostCount()
		a.log.Info("ghost focus pass finished",
			zap.Int("pass", pass),
			zap.Int("pendingGhostBundles", pending),
			zap.Int("collectedBundles", len(a.collected)))
		if pending == 0 {
			break
		}
		if pass < maxPasses-1 {
			if err := g.InvertGraph(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Collected returns the bundles that reached externally mapped ports, in
// pass order.
func (a *GhostFocus) Collected() []*ray.Bundle { return a.collected }

// Passes returns how many passes the last run took.
func (a *GhostFocus) Passes() int { return a.passes }

// Report renders the post-analysis node reports plus a summary of the
// collected ghost bundles.
func (a *GhostFocus) Report(g *engine.Graph) (schemas.AnalysisReport, error) {
	report := buildReport(g, "ghost-focus")
	for _, b := range a.collected {
		report.Ghosts = append(report.Ghosts, schemas.GhostPassData{
			Bounce:  b.MaxBounces(),
			Rays:    b.ValidLen(),
			EnergyJ: b.TotalEnergy().Joules(),
		})
	}
	return report, nil
}
