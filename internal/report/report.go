// Package report renders simulation results in various output formats.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nvandessel/chansim/internal/simulation"
)

// Format specifies the output format for rendered results.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatCSV, FormatHTML}
}

// ParseFormat maps a format name to a Format (case-insensitive).
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format %q (valid: text, json, csv, html)", s)
}

// DefaultMaxPoints bounds the trajectory points drawn in an HTML chart.
const DefaultMaxPoints = 500

// Options tune rendering.
type Options struct {
	// MaxPoints downsamples trajectories. For HTML, 0 means DefaultMaxPoints;
	// for JSON, 0 keeps every point.
	MaxPoints int

	// Title heads the HTML page.
	Title string
}

// Render writes results to w in the given format.
func Render(w io.Writer, results []simulation.ScenarioResult, format Format, opts Options) error {
	switch format {
	case FormatText:
		return RenderText(w, results)
	case FormatJSON:
		return RenderJSON(w, results, opts.MaxPoints)
	case FormatCSV:
		return RenderCSV(w, results)
	case FormatHTML:
		page, err := RenderHTML(results, opts)
		if err != nil {
			return err
		}
		_, err = w.Write(page)
		return err
	}
	return fmt.Errorf("unknown report format %q", format)
}

// RenderJSON writes results as an indented JSON array. Decimals are encoded
// as strings so no precision is lost.
func RenderJSON(w io.Writer, results []simulation.ScenarioResult, maxPoints int) error {
	out := results
	if maxPoints > 0 {
		out = make([]simulation.ScenarioResult, len(results))
		for i, r := range results {
			r.ClosingTrajectory = capacities(simulation.Downsample(r.ClosingTrajectory, maxPoints))
			r.WaitingTrajectory = capacities(simulation.Downsample(r.WaitingTrajectory, maxPoints))
			out[i] = r
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}

// Writer renders results to an io.Writer. It implements simulation.Reporter.
type Writer struct {
	W       io.Writer
	Format  Format
	Options Options
}

// Report implements simulation.Reporter.
func (w Writer) Report(results []simulation.ScenarioResult) error {
	return Render(w.W, results, w.Format, w.Options)
}
