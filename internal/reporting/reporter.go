// -- internal/reporting/reporter.go --
package reporting

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/beamline-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Reporter defines the interface for writing analysis results to an output.
type Reporter interface {
	// Write serializes a single analysis report.
	Write(report *schemas.AnalysisReport) error
	// Close finalizes the report and closes any underlying resources (e.g., file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a new reporter based on the specified format and output path.
// An empty or "stdout" path writes to standard output.
func New(format, outputPath string) (Reporter, error) {
	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout"

	if isStdOut {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	cleanup := func() {
		if !isStdOut {
			writer.Close()
		}
	}

	switch format {
	case "json", "":
		// NewJSONReporter takes ownership of the writer.
		return NewJSONReporter(writer), nil
	case "text":
		return NewTextReporter(writer), nil
	default:
		cleanup()
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// jsonReporter serializes reports as indented JSON.
type jsonReporter struct {
	w io.WriteCloser
}

// NewJSONReporter wraps the writer in a JSON reporter.
func NewJSONReporter(w io.WriteCloser) Reporter {
	return &jsonReporter{w: w}
}

func (r *jsonReporter) Write(report *schemas.AnalysisReport) error {
	if report == nil {
		return fmt.Errorf("cannot write a nil report")
	}
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode analysis report: %w", err)
	}
	return nil
}

func (r *jsonReporter) Close() error {
	return r.w.Close()
}

// textReporter renders a short human-readable summary, one node per line.
type textReporter struct {
	w io.WriteCloser
}

// NewTextReporter wraps the writer in a plain-text reporter.
func NewTextReporter(w io.WriteCloser) Reporter {
	return &textReporter{w: w}
}

func (r *textReporter) Write(report *schemas.AnalysisReport) error {
	if report == nil {
		return fmt.Errorf("cannot write a nil report")
	}
	if _, err := fmt.Fprintf(r.w, "%s analysis of %q (%d nodes)\n",
		report.AnalysisType, report.Scenery, len(report.Nodes)); err != nil {
		return err
	}
	for _, n := range report.Nodes {
		line := fmt.Sprintf("  %-24s %s", n.Name, n.Type)
		if d := n.Detector; d != nil {
			switch {
			case d.Energy != nil:
				line += fmt.Sprintf("  energy=%.6g J", *d.Energy)
			case d.Fluence != nil:
				line += fmt.Sprintf("  peak fluence=%.6g J/m2 (%d hits)",
					d.Fluence.PeakJPerM2, d.Fluence.HitCount)
			case len(d.Spots) > 0:
				line += fmt.Sprintf("  %d spots", len(d.Spots))
			}
		}
		if _, err := fmt.Fprintln(r.w, line); err != nil {
			return err
		}
	}
	for _, gp := range report.Ghosts {
		if _, err := fmt.Fprintf(r.w, "  ghost bundle: %d rays, %.6g J, max bounce %d\n",
			gp.Rays, gp.EnergyJ, gp.Bounce); err != nil {
			return err
		}
	}
	return nil
}

func (r *textReporter) Close() error {
	return r.w.Close()
}
