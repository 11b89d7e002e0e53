package simulation

import (
	"testing"

	"github.com/nvandessel/chansim/internal/channel"
	"github.com/shopspring/decimal"
)

// AssertReconciles asserts that every endpoint's fee matches its ledger.
func AssertReconciles(t *testing.T, result *ScenarioResult, precision int32) {
	t.Helper()
	if err := Reconcile(result, precision); err != nil {
		t.Errorf("AssertReconciles: p=%.2f: %v", result.Params.Probability, err)
	}
}

// AssertTrajectoryNonNegative asserts that no recorded capacity is negative.
func AssertTrajectoryNonNegative(t *testing.T, result *ScenarioResult) {
	t.Helper()
	for name, traj := range map[string][]decimal.Decimal{
		"closing": result.ClosingTrajectory,
		"waiting": result.WaitingTrajectory,
	} {
		for i, c := range traj {
			if c.IsNegative() {
				t.Errorf("AssertTrajectoryNonNegative: %s trajectory point %d is %s", name, i, c)
			}
		}
	}
}

// AssertTrajectoryLength asserts one trajectory point per forward transaction
// in both pairs.
func AssertTrajectoryLength(t *testing.T, result *ScenarioResult) {
	t.Helper()
	if len(result.ClosingTrajectory) != result.Forward {
		t.Errorf("AssertTrajectoryLength: closing trajectory has %d points, want %d", len(result.ClosingTrajectory), result.Forward)
	}
	if len(result.WaitingTrajectory) != result.Forward {
		t.Errorf("AssertTrajectoryLength: waiting trajectory has %d points, want %d", len(result.WaitingTrajectory), result.Forward)
	}
	if result.Forward+result.Reverse != result.Params.Transactions {
		t.Errorf("AssertTrajectoryLength: forward %d + reverse %d != %d transactions",
			result.Forward, result.Reverse, result.Params.Transactions)
	}
}

// AssertWaitingNeverPays asserts that waiting endpoints never reset and
// never pay a commission.
func AssertWaitingNeverPays(t *testing.T, result *ScenarioResult) {
	t.Helper()
	for _, e := range result.Endpoints {
		if e.Mode != channel.ModeWaiting {
			continue
		}
		if e.Ledger.Resets != 0 || !e.Ledger.CommissionPaid.IsZero() {
			t.Errorf("AssertWaitingNeverPays: endpoint %s reset %d times, paid %s", e.ID, e.Ledger.Resets, e.Ledger.CommissionPaid)
		}
		if e.Fee.IsNegative() {
			t.Errorf("AssertWaitingNeverPays: endpoint %s fee %s is negative", e.ID, e.Fee)
		}
	}
}

// AssertClosingNeverStalls asserts that closing endpoints never stall.
func AssertClosingNeverStalls(t *testing.T, result *ScenarioResult) {
	t.Helper()
	for _, e := range result.Endpoints {
		if e.Mode == channel.ModeClosing && (e.Ledger.Stalls != 0 || e.Ledger.Ignored != 0) {
			t.Errorf("AssertClosingNeverStalls: endpoint %s stalled %d and ignored %d times", e.ID, e.Ledger.Stalls, e.Ledger.Ignored)
		}
	}
}
