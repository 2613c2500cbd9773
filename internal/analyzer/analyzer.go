// File: internal/analyzer/analyzer.go

// Package analyzer provides the three interchangeable analysis strategies:
// spectral energy flow, sequential geometric ray tracing, and ghost-focus
// tracking of parasitic reflections.
package analyzer

import (
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/beamline-cli/api/schemas"
	"github.com/xkilldash9x/beamline-cli/internal/engine"
)

// Analyzer runs one analysis strategy over a scene graph and renders the
// outcome as a report.
type Analyzer interface {
	Analyze(g *engine.Graph) error
	Report(g *engine.Graph) (schemas.AnalysisReport, error)
}

// buildReport assembles the per-node reports in graph order.
func buildReport(g *engine.Graph, analysisType string) schemas.AnalysisReport {
	report := schemas.AnalysisReport{
		AnalysisType: analysisType,
		GeneratedAt:  time.Now().UTC(),
	}
	for _, n := range g.Nodes() {
		report.Nodes = append(report.Nodes, n.Report())
	}
	return report
}

// warnIfFragmented flags sceneries that fall apart into disconnected
// pieces, which usually indicates a missing connection.
func warnIfFragmented(g *engine.Graph, log *zap.Logger) {
	if !g.IsSingleTree() {
		log.Warn("scenery is not a single connected tree")
	}
}
