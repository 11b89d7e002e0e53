// Package constants provides named constants used throughout the chansim codebase.
// This centralizes the reference channel parameters and run defaults.
package constants

import "github.com/btcsuite/btcd/btcutil"

// Channel reference parameters
const (
	// InitialCapacity is the balance every endpoint starts a scenario with,
	// in satoshi. One bitcoin.
	InitialCapacity = btcutil.SatoshiPerBitcoin

	// FeeRate is the proportional fee charged per satoshi relayed (0.000001%).
	FeeRate = "0.00000001"

	// BaseFee is the fixed fee charged on every successful transfer, in satoshi.
	BaseFee = "1"

	// CommissionA is the reopening cost of the first closing-policy endpoint.
	CommissionA = "0"

	// CommissionB is the reopening cost of the second closing-policy endpoint.
	// The asymmetry with CommissionA models different on-chain reopening costs.
	CommissionB = "7000"
)

// Run defaults
const (
	// DefaultTransactions is the number of transactions per scenario.
	DefaultTransactions = 50000

	// DefaultLambda is the Poisson mean of a transaction amount, in satoshi.
	DefaultLambda = 10000.0

	// FeePrecision is the number of fractional digits fees are rounded to
	// before reporting.
	FeePrecision = 4
)

// DefaultProbabilities returns the forward-direction probabilities run when
// none are configured.
func DefaultProbabilities() []float64 {
	return []float64{0.50, 0.80}
}
