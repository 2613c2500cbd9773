// File: internal/analyzer/raytrace.go

package analyzer

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/beamline-cli/api/schemas"
	"github.com/xkilldash9x/beamline-cli/internal/engine"
)

// RayTrace runs a sequential geometric trace through the scenery. Rays
// refract and reflect at real surfaces; the configured caps bound bounce
// and refraction counts and drop rays below the energy floor.
type RayTrace struct {
	log     *zap.Logger
	config  engine.RayTraceConfig
	ambient engine.AmbientConfig
	result  engine.LightResult
}

// NewRayTrace creates a ray-trace analyzer with the given bounds.
func NewRayTrace(config engine.RayTraceConfig, log *zap.Logger) *RayTrace {
	if log == nil {
		log = zap.NewNop()
	}
	return &RayTrace{log: log, config: config, ambient: engine.DefaultAmbientConfig()}
}

// SetAmbient overrides the medium the scene sits in.
func (a *RayTrace) SetAmbient(ambient engine.AmbientConfig) { a.ambient = ambient }

// Analyze runs one geometric pass over the graph.
func (a *RayTrace) Analyze(g *engine.Graph) error {
	warnIfFragmented(g, a.log)
	ctx := engine.NewAnalysisContext(engine.ModeRayTrace, a.log)
	ctx.RayTrace = a.config
	ctx.Ambient = a.ambient
	result, err := g.Propagate(ctx, nil)
	if err != nil {
		return err
	}
	a.result = result
	a.log.Info("ray trace finished",
		zap.Int("externalOutputs", len(result)))
	return nil
}

// Result returns the light that reached the externally mapped outputs.
func (a *RayTrace) Result() engine.LightResult { return a.result }

// Report renders the post-analysis node reports.
func (a *RayTrace) Report(g *engine.Graph) (schemas.AnalysisReport, error) {
	return buildReport(g, "ray-trace"), nil
}
