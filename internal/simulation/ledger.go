package simulation

import (
	"errors"
	"fmt"

	"github.com/nvandessel/chansim/internal/channel"
	"github.com/shopspring/decimal"
)

// ErrUnreconciled is returned by Reconcile when an endpoint's fee does not
// match its ledger.
var ErrUnreconciled = errors.New("fee ledger does not reconcile")

// Ledger accumulates the effects applied to one endpoint.
type Ledger struct {
	// FeeIncome is the total base and proportional fee received.
	FeeIncome decimal.Decimal `json:"fee_income"`

	// CommissionPaid is the total cost of resets.
	CommissionPaid decimal.Decimal `json:"commission_paid"`

	// Volume is the total amount successfully sent.
	Volume decimal.Decimal `json:"volume"`

	Sent     int `json:"sent"`
	Received int `json:"received"`
	Resets   int `json:"resets"`
	Stalls   int `json:"stalls"`
	Ignored  int `json:"ignored"`
}

// Record adds one effect to the ledger.
func (l *Ledger) Record(eff channel.Effect) {
	switch eff.Outcome {
	case channel.OutcomeTransferred:
		l.Sent++
		l.Volume = l.Volume.Add(eff.Amount)
	case channel.OutcomeCredited:
		l.Received++
		l.FeeIncome = l.FeeIncome.Add(eff.FeeIncome)
	case channel.OutcomeReset:
		l.Resets++
		l.CommissionPaid = l.CommissionPaid.Add(eff.Commission)
	case channel.OutcomeStalled:
		l.Stalls++
	case channel.OutcomeIgnored:
		l.Ignored++
	}
}

// Net is the fee the ledger accounts for: income minus commissions.
func (l Ledger) Net() decimal.Decimal {
	return l.FeeIncome.Sub(l.CommissionPaid)
}

// Reconcile checks that every endpoint's unrounded fee equals its ledger's
// net and that the reported fee is the unrounded fee rounded half to even.
func Reconcile(r *ScenarioResult, precision int32) error {
	for _, e := range r.Endpoints {
		if !e.RawFee.Equal(e.Ledger.Net()) {
			return fmt.Errorf("%w: endpoint %s fee %s, ledger %s - %s = %s",
				ErrUnreconciled, e.ID, e.RawFee, e.Ledger.FeeIncome, e.Ledger.CommissionPaid, e.Ledger.Net())
		}
		if want := e.RawFee.RoundBank(precision); !e.Fee.Equal(want) {
			return fmt.Errorf("%w: endpoint %s reported fee %s, want %s",
				ErrUnreconciled, e.ID, e.Fee, want)
		}
	}
	return nil
}
