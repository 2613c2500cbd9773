// -- cmd/analyze.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/beamline-cli/internal/analyzer"
	"github.com/xkilldash9x/beamline-cli/internal/config"
	"github.com/xkilldash9x/beamline-cli/internal/engine"
	"github.com/xkilldash9x/beamline-cli/internal/nodes"
	"github.com/xkilldash9x/beamline-cli/internal/observability"
	"github.com/xkilldash9x/beamline-cli/internal/optics"
	"github.com/xkilldash9x/beamline-cli/internal/quantity"
	"github.com/xkilldash9x/beamline-cli/internal/ray"
	"github.com/xkilldash9x/beamline-cli/internal/reporting"
)

// newAnalyzeCommand runs one of the built-in demo sceneries under a
// selected analyzer and writes the resulting report.
func newAnalyzeCommand(cfg *config.Config) *cobra.Command {
	var (
		analyzerName string
		sceneryName  string
		output       string
		format       string
		maxBounces   int
	)

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run an analysis over a built-in scenery and write a report.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.SetAnalysisConfig(config.AnalysisConfig{
				Analyzer: analyzerName,
				Scenery:  sceneryName,
				Output:   output,
				Format:   format,
			})
			if maxBounces >= 0 {
				cfg.SetGhostFocusMaxBounces(maxBounces)
			}
			return runAnalysis(cfg, observability.GetLogger())
		},
	}

	analyzeCmd.Flags().StringVarP(&analyzerName, "analyzer", "a", "energy",
		"analysis strategy: energy, ray-trace or ghost-focus")
	analyzeCmd.Flags().StringVarP(&sceneryName, "scenery", "s", "splitter",
		"built-in scenery: splitter, focus or ghost")
	analyzeCmd.Flags().StringVarP(&output, "output", "o", "",
		"report path (default stdout)")
	analyzeCmd.Flags().StringVarP(&format, "format", "f", "json",
		"report format: json or text")
	analyzeCmd.Flags().IntVar(&maxBounces, "max-bounces", -1,
		"override the ghost-focus reflection order")
	return analyzeCmd
}

// runAnalysis builds the scenery, runs the selected analyzer and writes
// the report. Split from the cobra plumbing so tests can drive it directly.
func runAnalysis(cfg *config.Config, log *zap.Logger) error {
	ac := cfg.Analysis()

	g, err := buildScenery(ac.Scenery)
	if err != nil {
		return err
	}

	a, err := newAnalyzer(ac.Analyzer, cfg, log)
	if err != nil {
		return err
	}

	log.Info("running analysis",
		zap.String("analyzer", ac.Analyzer),
		zap.String("scenery", ac.Scenery))
	if err := a.Analyze(g); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report, err := a.Report(g)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	report.Scenery = ac.Scenery

	reporter, err := reporting.New(ac.Format, ac.Output)
	if err != nil {
		return err
	}
	if err := reporter.Write(&report); err != nil {
		reporter.Close()
		return err
	}
	return reporter.Close()
}

// newAnalyzer maps the analyzer name and file config onto a strategy.
func newAnalyzer(name string, cfg *config.Config, log *zap.Logger) (analyzer.Analyzer, error) {
	ambient := engineAmbientConfig(cfg.Ambient())
	switch name {
	case "energy":
		a := analyzer.NewEnergy(log)
		a.SetAmbient(ambient)
		return a, nil
	case "ray-trace":
		rc, err := engineRayTraceConfig(cfg.RayTrace())
		if err != nil {
			return nil, err
		}
		a := analyzer.NewRayTrace(rc, log)
		a.SetAmbient(ambient)
		return a, nil
	case "ghost-focus":
		gc := engine.GhostFocusConfig{MaxBounces: cfg.GhostFocus().MaxBounces}
		a := analyzer.NewGhostFocus(gc, log)
		a.SetAmbient(ambient)
		return a, nil
	default:
		return nil, fmt.Errorf("unknown analyzer %q (want energy, ray-trace or ghost-focus)", name)
	}
}

// engineAmbientConfig converts the file-level medium settings to engine
// units.
func engineAmbientConfig(ac config.AmbientConfig) engine.AmbientConfig {
	return engine.AmbientConfig{
		RefractiveIndex:     ac.RefractiveIndex,
		AlignmentWavelength: quantity.Nanometer(ac.AlignmentWavelengthNm),
	}
}

// engineRayTraceConfig converts file-level trace settings to engine units.
func engineRayTraceConfig(rc config.RayTraceConfig) (engine.RayTraceConfig, error) {
	out := engine.RayTraceConfig{
		MinEnergyPerRay: quantity.Joule(rc.MinEnergyJoules),
		MaxBounces:      rc.MaxBounces,
		MaxRefractions:  rc.MaxRefractions,
	}
	switch rc.MissedSurface {
	case "stop":
		out.MissedSurface = ray.MissedStop
	case "ignore":
		out.MissedSurface = ray.MissedIgnore
	default:
		return out, fmt.Errorf("unknown missed-surface policy %q", rc.MissedSurface)
	}
	return out, nil
}

// buildScenery assembles one of the built-in demo benches.
func buildScenery(name string) (*engine.Graph, error) {
	switch name {
	case "splitter":
		return splitterScenery()
	case "focus":
		return focusScenery()
	case "ghost":
		return ghostScenery()
	default:
		return nil, fmt.Errorf("unknown scenery %q (want splitter, focus or ghost)", name)
	}
}

// splitterScenery is a HeNe laser feeding a 60/40 beam splitter with both
// legs mapped as external outputs.
func splitterScenery() (*engine.Graph, error) {
	g := engine.NewGraph()
	src := nodes.NewSource("laser")
	bs, err := nodes.NewBeamSplitter("splitter", 0.6)
	if err != nil {
		return nil, err
	}
	meter := nodes.NewEnergyMeter("transmitted meter")

	if err := addNodes(g, src, bs, meter); err != nil {
		return nil, err
	}
	if err := g.Connect(src.ID(), "output_1", bs.ID(), "input_1", quantity.Millimeter(100)); err != nil {
		return nil, err
	}
	if err := g.Connect(bs.ID(), "out1_trans1_refl2", meter.ID(), "input_1", quantity.Millimeter(100)); err != nil {
		return nil, err
	}
	if err := g.MapOutputPort(meter.ID(), "output_1", "transmitted"); err != nil {
		return nil, err
	}
	if err := g.MapOutputPort(bs.ID(), "out2_trans2_refl1", "reflected"); err != nil {
		return nil, err
	}
	return g, nil
}

// focusScenery is a collimated laser, an ideal lens one focal length
// downstream and a spot diagram in the focal plane.
func focusScenery() (*engine.Graph, error) {
	g := engine.NewGraph()
	src := nodes.NewSource("laser")
	b, err := ray.Collimated(quantity.Millimeter(2), 3, quantity.Nanometer(632.8), quantity.Joule(1))
	if err != nil {
		return nil, err
	}
	if err := src.SetBundle(b); err != nil {
		return nil, err
	}

	lens, err := nodes.NewParaxialSurface("ideal lens", quantity.Millimeter(100))
	if err != nil {
		return nil, err
	}
	spot := nodes.NewSpotDiagram("focal plane")

	if err := addNodes(g, src, lens, spot); err != nil {
		return nil, err
	}
	if err := g.Connect(src.ID(), "output_1", lens.ID(), "input_1", quantity.Millimeter(100)); err != nil {
		return nil, err
	}
	if err := g.Connect(lens.ID(), "output_1", spot.ID(), "input_1", quantity.Millimeter(100)); err != nil {
		return nil, err
	}
	if err := g.MapOutputPort(spot.ID(), "output_1", "out"); err != nil {
		return nil, err
	}
	if err := g.AlignAlongAxis(); err != nil {
		return nil, err
	}
	return g, nil
}

// ghostScenery shoots a laser into a Fresnel-coated wedge, the standard
// two-ghost bench.
func ghostScenery() (*engine.Graph, error) {
	g := engine.NewGraph()
	src := nodes.NewSource("laser")
	spec := nodes.DefaultWedgeSpec()
	spec.Coating = optics.Fresnel{}
	wedge, err := nodes.NewWedge("wedge", spec)
	if err != nil {
		return nil, err
	}

	if err := addNodes(g, src, wedge); err != nil {
		return nil, err
	}
	if err := g.Connect(src.ID(), "output_1", wedge.ID(), "input_1", quantity.Millimeter(50)); err != nil {
		return nil, err
	}
	if err := g.MapOutputPort(wedge.ID(), "output_1", "out"); err != nil {
		return nil, err
	}
	if err := g.AlignAlongAxis(); err != nil {
		return nil, err
	}
	return g, nil
}

func addNodes(g *engine.Graph, ns ...engine.Node) error {
	for _, n := range ns {
		if err := g.AddNode(n); err != nil {
			return err
		}
	}
	return nil
}
