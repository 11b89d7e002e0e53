package simulation

import (
	"errors"
	"fmt"

	"github.com/nvandessel/chansim/internal/channel"
	"github.com/nvandessel/chansim/internal/constants"
	"github.com/nvandessel/chansim/internal/validate"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidParams is wrapped by every parameter validation failure.
	ErrInvalidParams = errors.New("invalid simulation parameters")

	// ErrNegativeAmount is returned when the source draws a negative amount.
	ErrNegativeAmount = errors.New("negative transaction amount")
)

// Endpoint identifiers, in result order.
const (
	EndpointA = "A"
	EndpointB = "B"
	EndpointC = "C"
	EndpointD = "D"
)

// Params are the per-scenario inputs.
type Params struct {
	Transactions int     `json:"transactions" yaml:"transactions" validate:"gte=0"`
	Probability  float64 `json:"probability" yaml:"probability" validate:"gte=0,lte=1"`
	Lambda       float64 `json:"lambda" yaml:"lambda" validate:"gte=0,lte=1e15"`
}

// Validate checks the parameters, failing fast before any transaction runs.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return nil
}

// Setup is the channel configuration shared by every scenario a Runner runs.
type Setup struct {
	Channel channel.Params `json:"channel"`

	// CommissionA and CommissionB are the reset costs of the two closing
	// endpoints.
	CommissionA decimal.Decimal `json:"commission_a" validate:"gte=0"`
	CommissionB decimal.Decimal `json:"commission_b" validate:"gte=0"`

	// FeePrecision is the number of fractional digits reported fees are
	// rounded to (half to even).
	FeePrecision int32 `json:"fee_precision" validate:"gte=0,lte=18"`
}

// DefaultSetup returns the reference configuration: 1 BTC channels, commissions
// 0 and 7000, four-digit fees.
func DefaultSetup() Setup {
	return Setup{
		Channel:      channel.DefaultParams(),
		CommissionA:  decimal.RequireFromString(constants.CommissionA),
		CommissionB:  decimal.RequireFromString(constants.CommissionB),
		FeePrecision: constants.FeePrecision,
	}
}

// Validate checks the setup.
func (s Setup) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if !s.Channel.InitialCapacity.IsPositive() {
		return fmt.Errorf("%w: initial capacity must be > 0, got %s", ErrInvalidParams, s.Channel.InitialCapacity)
	}
	if s.Channel.Rate.IsNegative() || s.Channel.BaseFee.IsNegative() {
		return fmt.Errorf("%w: fee rate and base fee must be >= 0", ErrInvalidParams)
	}
	return nil
}

// EndpointResult is the final state of one endpoint.
type EndpointResult struct {
	ID         string          `json:"id"`
	Mode       channel.Mode    `json:"mode"`
	Commission decimal.Decimal `json:"commission"`

	// Fee is the charged fee rounded to the setup's precision.
	Fee decimal.Decimal `json:"fee"`

	// RawFee is the unrounded charged fee.
	RawFee decimal.Decimal `json:"raw_fee"`

	Capacity decimal.Decimal `json:"capacity"`
	Open     bool            `json:"open"`
	Ledger   Ledger          `json:"ledger"`
}

// ScenarioResult is the outcome of one scenario. It is never mutated after
// RunScenario returns it.
type ScenarioResult struct {
	RunID  string `json:"run_id"`
	Params Params `json:"params"`

	// Seed is the generator seed, when the source has one.
	Seed uint64 `json:"seed,omitempty"`

	// FeePrecision is the number of fractional digits the fees were rounded to.
	FeePrecision int32 `json:"fee_precision"`

	// Endpoints are A, B (closing) then C, D (waiting).
	Endpoints [4]EndpointResult `json:"endpoints"`

	// ClosingTrajectory and WaitingTrajectory hold the capacity of A and C
	// after each forward transaction.
	ClosingTrajectory []decimal.Decimal `json:"closing_trajectory"`
	WaitingTrajectory []decimal.Decimal `json:"waiting_trajectory"`

	Forward int `json:"forward"`
	Reverse int `json:"reverse"`
}

// Fees returns the four reported fees in endpoint order.
func (r *ScenarioResult) Fees() [4]decimal.Decimal {
	var fees [4]decimal.Decimal
	for i, e := range r.Endpoints {
		fees[i] = e.Fee
	}
	return fees
}

// Endpoint looks up an endpoint result by ID.
func (r *ScenarioResult) Endpoint(id string) (EndpointResult, bool) {
	for _, e := range r.Endpoints {
		if e.ID == id {
			return e, true
		}
	}
	return EndpointResult{}, false
}

// Reporter consumes the results of a full run.
type Reporter interface {
	Report(results []ScenarioResult) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(results []ScenarioResult) error

// Report implements Reporter.
func (f ReporterFunc) Report(results []ScenarioResult) error {
	return f(results)
}
