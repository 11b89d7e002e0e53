package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/nvandessel/chansim/internal/simulation"
	"github.com/shopspring/decimal"
)

// Chart geometry, in SVG user units.
const (
	chartWidth   = 720
	chartHeight  = 280
	marginLeft   = 90
	marginRight  = 20
	marginTop    = 20
	marginBottom = 40
	yTicks       = 5
)

// lineChart is the template data for one capacity trajectory.
type lineChart struct {
	Title  string
	Points string
	YTicks []tick
	XMax   int
	Empty  bool
}

// barChart is the template data for the profit comparison.
type barChart struct {
	Groups []barGroup
	YTicks []tick
	ZeroY  float64
}

type barGroup struct {
	Label string
	X     float64
	Bars  []bar
}

type bar struct {
	Series string
	Class  string
	X, Y   float64
	Width  float64
	Height float64
	Value  string
}

type tick struct {
	Y     float64
	Label string
}

type htmlScenario struct {
	Probability string
	Closing     lineChart
	Waiting     lineChart
	Result      simulation.ScenarioResult
}

type htmlData struct {
	Title     string
	Scenarios []htmlScenario
	Profit    barChart
	Series    []string
	Results   template.JS
}

// RenderHTML generates a self-contained HTML report: one capacity chart per
// pair and scenario, then a grouped bar chart of the fees.
func RenderHTML(results []simulation.ScenarioResult, opts Options) ([]byte, error) {
	maxPoints := opts.MaxPoints
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	title := opts.Title
	if title == "" {
		title = "Payment channel simulation"
	}

	tmplContent, err := templates.ReadFile("templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	tmpl, err := template.New("report").Parse(string(tmplContent))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var jsonBuf bytes.Buffer
	if err := RenderJSON(&jsonBuf, results, maxPoints); err != nil {
		return nil, err
	}
	var compact, escaped bytes.Buffer
	if err := json.Compact(&compact, jsonBuf.Bytes()); err != nil {
		return nil, fmt.Errorf("compact results: %w", err)
	}
	json.HTMLEscape(&escaped, compact.Bytes())

	data := htmlData{
		Title:   title,
		Profit:  profitChart(results),
		Series:  seriesNames,
		Results: template.JS(escaped.String()), //nolint:gosec // HTML-escaped above
	}
	for _, r := range results {
		p := fmt.Sprintf("%.2f", r.Params.Probability)
		data.Scenarios = append(data.Scenarios, htmlScenario{
			Probability: p,
			Closing:     trajectoryChart("A->B with closing mechanism / p="+p, r.ClosingTrajectory, maxPoints),
			Waiting:     trajectoryChart("A->B with waiting mechanism / p="+p, r.WaitingTrajectory, maxPoints),
			Result:      r,
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func capacities(pts []simulation.ScenarioTrajectoryPoint) []decimal.Decimal {
	out := make([]decimal.Decimal, len(pts))
	for i, p := range pts {
		out[i] = p.Capacity
	}
	return out
}

func plotHeight() float64 { return chartHeight - marginTop - marginBottom }
func plotWidth() float64  { return chartWidth - marginLeft - marginRight }

// scaleY maps v in [lo, hi] onto the plot area, top is hi.
func scaleY(v, lo, hi float64) float64 {
	if hi == lo {
		return marginTop + plotHeight()/2
	}
	return marginTop + (hi-v)/(hi-lo)*plotHeight()
}

func ticks(lo, hi float64) []tick {
	out := make([]tick, 0, yTicks)
	for i := 0; i < yTicks; i++ {
		v := lo + (hi-lo)*float64(i)/float64(yTicks-1)
		out = append(out, tick{Y: scaleY(v, lo, hi), Label: fmt.Sprintf("%.0f", v)})
	}
	return out
}

func trajectoryChart(title string, traj []decimal.Decimal, maxPoints int) lineChart {
	c := lineChart{Title: title, XMax: len(traj)}
	if len(traj) == 0 {
		c.Empty = true
		return c
	}

	pts := simulation.Downsample(traj, maxPoints)
	lo, hi := pts[0].Capacity.InexactFloat64(), pts[0].Capacity.InexactFloat64()
	for _, p := range pts {
		v := p.Capacity.InexactFloat64()
		lo = min(lo, v)
		hi = max(hi, v)
	}
	// Anchor the axis at zero so depletion is visible.
	lo = min(lo, 0)

	span := float64(len(traj) - 1)
	var b bytes.Buffer
	for i, p := range pts {
		x := float64(marginLeft)
		if span > 0 {
			x += float64(p.Index) / span * plotWidth()
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f,%.1f", x, scaleY(p.Capacity.InexactFloat64(), lo, hi))
	}
	c.Points = b.String()
	c.YTicks = ticks(lo, hi)
	return c
}

var seriesNames = []string{"A (closing)", "B (closing)", "A (waiting)", "B (waiting)"}
var seriesClasses = []string{"closing-a", "closing-b", "waiting-a", "waiting-b"}

func profitChart(results []simulation.ScenarioResult) barChart {
	var c barChart
	if len(results) == 0 {
		c.ZeroY = scaleY(0, 0, 0)
		return c
	}

	lo, hi := 0.0, 0.0
	for _, r := range results {
		for _, f := range r.Fees() {
			v := f.InexactFloat64()
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	c.ZeroY = scaleY(0, lo, hi)
	c.YTicks = ticks(lo, hi)

	groupWidth := plotWidth() / float64(len(results))
	barWidth := groupWidth * 0.8 / float64(len(seriesNames))
	for gi, r := range results {
		g := barGroup{
			Label: fmt.Sprintf("p=%.2f", r.Params.Probability),
			X:     marginLeft + groupWidth*(float64(gi)+0.5),
		}
		left := marginLeft + groupWidth*float64(gi) + groupWidth*0.1
		for si, f := range r.Fees() {
			y := scaleY(f.InexactFloat64(), lo, hi)
			top, height := y, c.ZeroY-y
			if height < 0 {
				top, height = c.ZeroY, -height
			}
			g.Bars = append(g.Bars, bar{
				Series: seriesNames[si],
				Class:  seriesClasses[si],
				X:      left + barWidth*float64(si),
				Y:      top,
				Width:  barWidth,
				Height: height,
				Value:  f.StringFixed(r.FeePrecision),
			})
		}
		c.Groups = append(c.Groups, g)
	}
	return c
}
