package simulation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ScenarioTrajectoryPoint is one sample of a capacity trajectory.
type ScenarioTrajectoryPoint struct {
	Index    int
	Capacity decimal.Decimal
}

func points(traj []decimal.Decimal) []ScenarioTrajectoryPoint {
	pts := make([]ScenarioTrajectoryPoint, len(traj))
	for i, c := range traj {
		pts[i] = ScenarioTrajectoryPoint{Index: i, Capacity: c}
	}
	return pts
}

// Downsample returns at most max evenly spaced points of traj, always
// keeping the last one. A max <= 0 returns every point.
func Downsample(traj []decimal.Decimal, max int) []ScenarioTrajectoryPoint {
	if max <= 0 || len(traj) <= max {
		return points(traj)
	}
	if max == 1 {
		last := len(traj) - 1
		return []ScenarioTrajectoryPoint{{Index: last, Capacity: traj[last]}}
	}
	step := float64(len(traj)-1) / float64(max-1)
	pts := make([]ScenarioTrajectoryPoint, 0, max)
	for i := 0; i < max; i++ {
		idx := int(float64(i)*step + 0.5)
		if idx >= len(traj) {
			idx = len(traj) - 1
		}
		pts = append(pts, ScenarioTrajectoryPoint{Index: idx, Capacity: traj[idx]})
	}
	return pts
}

// FormatScenarioDebug returns a debug string for a scenario result.
func FormatScenarioDebug(r *ScenarioResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario p=%.2f: transactions=%d forward=%d reverse=%d\n",
		r.Params.Probability, r.Params.Transactions, r.Forward, r.Reverse)
	for _, e := range r.Endpoints {
		fmt.Fprintf(&b, "  %s (%s): fee=%s capacity=%s open=%t sent=%d received=%d resets=%d stalls=%d\n",
			e.ID, e.Mode, e.Fee, e.Capacity, e.Open, e.Ledger.Sent, e.Ledger.Received, e.Ledger.Resets, e.Ledger.Stalls)
	}
	return b.String()
}
