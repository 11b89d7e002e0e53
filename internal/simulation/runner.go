package simulation

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nvandessel/chansim/internal/channel"
	"github.com/nvandessel/chansim/internal/logging"
	"github.com/nvandessel/chansim/internal/traffic"
	"github.com/shopspring/decimal"
)

// Runner runs scenarios against a transaction source. It is not safe for
// concurrent use: scenarios consume the source sequentially.
type Runner struct {
	src    traffic.Source
	setup  Setup
	logger *slog.Logger
	trace  *logging.TraceLogger
	runID  string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the operational logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithTrace sets the per-transaction trace. A nil trace disables tracing.
func WithTrace(t *logging.TraceLogger) Option {
	return func(r *Runner) { r.trace = t }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// NewRunner creates a runner drawing transactions from src.
func NewRunner(src traffic.Source, setup Setup, opts ...Option) (*Runner, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil transaction source", ErrInvalidParams)
	}
	if err := setup.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		src:    src,
		setup:  setup,
		logger: slog.New(slog.DiscardHandler),
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RunID returns the identifier stamped on every result and trace event.
func (r *Runner) RunID() string {
	return r.runID
}

// pair is one channel: fwd sends on forward draws, rev on reverse draws.
type pair struct {
	fwd, rev   *channel.Endpoint
	fwdLedger  *Ledger
	revLedger  *Ledger
	trajectory []decimal.Decimal
}

// RunScenario runs p.Transactions transactions through a closing pair and a
// waiting pair and returns the final fees and capacity trajectories.
func (r *Runner) RunScenario(p Params) (*ScenarioResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	eps, err := r.newEndpoints()
	if err != nil {
		return nil, err
	}
	a, b, c, d := eps[0], eps[1], eps[2], eps[3]

	var ledgers [4]Ledger
	hint := int(float64(p.Transactions) * p.Probability)
	pairs := [2]*pair{
		{fwd: a, rev: b, fwdLedger: &ledgers[0], revLedger: &ledgers[1], trajectory: make([]decimal.Decimal, 0, hint)},
		{fwd: c, rev: d, fwdLedger: &ledgers[2], revLedger: &ledgers[3], trajectory: make([]decimal.Decimal, 0, hint)},
	}

	r.logger.Info("scenario starting",
		"run_id", r.runID,
		"probability", p.Probability,
		"transactions", p.Transactions,
		"lambda", p.Lambda)

	var forward, reverse int
	for i := 0; i < p.Transactions; i++ {
		draw, err := r.src.Next(p.Probability, p.Lambda)
		if err != nil {
			return nil, fmt.Errorf("drawing transaction %d: %w", i, err)
		}
		if draw.Amount.IsNegative() {
			return nil, fmt.Errorf("transaction %d: %w: %s", i, ErrNegativeAmount, draw.Amount)
		}

		if draw.Forward {
			forward++
		} else {
			reverse++
		}
		for _, pr := range pairs {
			r.apply(pr, draw, p.Probability, i)
		}
	}

	result := &ScenarioResult{
		RunID:             r.runID,
		Params:            p,
		FeePrecision:      r.setup.FeePrecision,
		ClosingTrajectory: pairs[0].trajectory,
		WaitingTrajectory: pairs[1].trajectory,
		Forward:           forward,
		Reverse:           reverse,
	}
	if s, ok := r.src.(interface{ Seed() uint64 }); ok {
		result.Seed = s.Seed()
	}
	for i, e := range []*channel.Endpoint{a, b, c, d} {
		result.Endpoints[i] = EndpointResult{
			ID:         e.ID(),
			Mode:       e.Mode(),
			Commission: e.Commission(),
			Fee:        e.Fee().RoundBank(r.setup.FeePrecision),
			RawFee:     e.Fee(),
			Capacity:   e.Capacity(),
			Open:       e.IsOpen(),
			Ledger:     ledgers[i],
		}
	}

	for _, e := range result.Endpoints {
		r.logger.Debug("endpoint settled",
			"run_id", r.runID,
			"probability", p.Probability,
			"endpoint", e.ID,
			"mode", e.Mode,
			"fee", e.Fee.String(),
			"resets", e.Ledger.Resets,
			"stalls", e.Ledger.Stalls)
	}
	r.logger.Info("scenario finished",
		"run_id", r.runID,
		"probability", p.Probability,
		"forward", forward,
		"reverse", reverse,
		"fee_a", result.Endpoints[0].Fee.String(),
		"fee_b", result.Endpoints[1].Fee.String(),
		"fee_c", result.Endpoints[2].Fee.String(),
		"fee_d", result.Endpoints[3].Fee.String())

	return result, nil
}

// layout is the endpoint arrangement of every scenario: A and B form the
// closing pair, C and D the waiting pair.
var layout = [4]struct {
	id   string
	mode channel.Mode
}{
	{EndpointA, channel.ModeClosing},
	{EndpointB, channel.ModeClosing},
	{EndpointC, channel.ModeWaiting},
	{EndpointD, channel.ModeWaiting},
}

// newEndpoints builds fresh endpoints for one scenario.
func (r *Runner) newEndpoints() ([4]*channel.Endpoint, error) {
	commissions := map[string]decimal.Decimal{
		EndpointA: r.setup.CommissionA,
		EndpointB: r.setup.CommissionB,
	}
	var eps [4]*channel.Endpoint
	for i, l := range layout {
		policy, err := channel.NewPolicy(l.mode, commissions[l.id])
		if err != nil {
			return eps, fmt.Errorf("endpoint %s: %w", l.id, err)
		}
		eps[i] = channel.NewEndpoint(l.id, policy, r.setup.Channel)
	}
	return eps, nil
}

// apply moves one draw through a pair: the sender sends, the receiver learns
// whether it worked.
func (r *Runner) apply(pr *pair, draw traffic.Draw, prob float64, tx int) {
	from, to := pr.fwd, pr.rev
	fromLedger, toLedger := pr.fwdLedger, pr.revLedger
	if !draw.Forward {
		from, to = to, from
		fromLedger, toLedger = toLedger, fromLedger
	}

	sent := from.Send(draw.Amount)
	fromLedger.Record(sent)
	r.traceEffect(from, channel.EventSend, sent, draw.Amount, prob, tx)

	received := to.Receive(draw.Amount, from.IsOpen())
	toLedger.Record(received)
	r.traceEffect(to, channel.EventReceive, received, draw.Amount, prob, tx)

	if draw.Forward {
		pr.trajectory = append(pr.trajectory, pr.fwd.Capacity())
	}
}

func (r *Runner) traceEffect(e *channel.Endpoint, kind channel.EventKind, eff channel.Effect, amount decimal.Decimal, prob float64, tx int) {
	if !r.trace.Enabled() {
		return
	}
	r.trace.Log(logging.TxEvent{
		RunID:       r.runID,
		Probability: prob,
		Tx:          tx,
		Endpoint:    e.ID(),
		Mode:        e.Mode().String(),
		Event:       kind.String(),
		Outcome:     string(eff.Outcome),
		Amount:      amount.String(),
		FeeDelta:    eff.FeeDelta().String(),
		Capacity:    e.Capacity().String(),
		Fee:         e.Fee().String(),
		Open:        e.IsOpen(),
	})
}

// RunAll runs one scenario per probability, in order, with base supplying
// the transaction count and lambda. The collected results are handed to
// reporter when it is non-nil.
func (r *Runner) RunAll(base Params, probabilities []float64, reporter Reporter) ([]ScenarioResult, error) {
	if len(probabilities) == 0 {
		return nil, fmt.Errorf("%w: no probabilities to run", ErrInvalidParams)
	}
	// Fail before running anything if any scenario is invalid.
	for _, prob := range probabilities {
		p := base
		p.Probability = prob
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	results := make([]ScenarioResult, 0, len(probabilities))
	for _, prob := range probabilities {
		p := base
		p.Probability = prob
		res, err := r.RunScenario(p)
		if err != nil {
			return nil, fmt.Errorf("scenario p=%.2f: %w", prob, err)
		}
		results = append(results, *res)
	}

	if reporter != nil {
		if err := reporter.Report(results); err != nil {
			return results, fmt.Errorf("reporting results: %w", err)
		}
	}
	return results, nil
}
