// File: internal/analyzer/energy.go

package analyzer

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/beamline-cli/api/schemas"
	"github.com/xkilldash9x/beamline-cli/internal/engine"
)

// Energy propagates spectral energy through the scenery. Apertures and
// geometry are ignored; only splitting ratios, filter curves and coating
// losses act on the light.
type Energy struct {
	log     *zap.Logger
	ambient engine.AmbientConfig
	result  engine.LightResult
}

// NewEnergy creates an energy analyzer. A nil logger is replaced by a
// no-op logger.
func NewEnergy(log *zap.Logger) *Energy {
	if log == nil {
		log = zap.NewNop()
	}
	return &Energy{log: log, ambient: engine.DefaultAmbientConfig()}
}

// SetAmbient overrides the medium the scene sits in.
func (a *Energy) SetAmbient(ambient engine.AmbientConfig) { a.ambient = ambient }

// Analyze runs one energy pass over the graph.
func (a *Energy) Analyze(g *engine.Graph) error {
	warnIfFragmented(g, a.log)
	ctx := engine.NewAnalysisContext(engine.ModeEnergy, a.log)
	ctx.Ambient = a.ambient
	result, err := g.Propagate(ctx, nil)
	if err != nil {
		return err
	}
	a.result = result
	a.log.Info("energy analysis finished",
		zap.Int("externalOutputs", len(result)))
	return nil
}

// Result returns the light that reached the externally mapped outputs.
func (a *Energy) Result() engine.LightResult { return a.result }

// Report renders the post-analysis node reports.
func (a *Energy) Report(g *engine.Graph) (schemas.AnalysisReport, error) {
	return buildReport(g, "energy"), nil
}
