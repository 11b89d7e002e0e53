package channel

import "github.com/shopspring/decimal"

// Transition applies ev to s under policy p and returns the next state with
// the effect it produced. It never fails: an amount the capacity cannot
// cover is handed to the policy.
func Transition(s State, ev Event, p Policy, params Params) (State, Effect) {
	switch ev.Kind {
	case EventSend:
		if s.Capacity.GreaterThanOrEqual(ev.Amount) {
			moved := clamp(ev.Amount, decimal.Zero, s.Capacity)
			s.Capacity = s.Capacity.Sub(moved)
			s.Open = true
			return s, Effect{Outcome: OutcomeTransferred, Amount: moved}
		}
		return p.exhausted(s, params)

	case EventReceive:
		if ev.SenderOpen {
			income := params.BaseFee.Add(ev.Amount.Mul(params.Rate))
			s.Fee = s.Fee.Add(income)
			s.Capacity = s.Capacity.Add(ev.Amount)
			return s, Effect{Outcome: OutcomeCredited, Amount: ev.Amount, FeeIncome: income}
		}
		return p.peerFailed(s, params)
	}
	return s, Effect{Outcome: OutcomeIgnored}
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Max(lo, decimal.Min(hi, v))
}
