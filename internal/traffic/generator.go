// Package traffic supplies the transaction stream a simulation consumes.
//
// A Source yields one Draw per transaction: a direction and a non-negative
// amount. Generator samples them from a seeded PRNG; Script replays a fixed
// list so scenario runs can be checked by hand.
package traffic

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrScriptExhausted is returned by Script once every draw has been consumed.
var ErrScriptExhausted = errors.New("traffic script exhausted")

// ErrInvalidLambda is returned by Generator for a NaN lambda or one above
// MaxLambda. Non-positive lambdas draw zero amounts.
var ErrInvalidLambda = errors.New("invalid poisson lambda")

// MaxLambda is the largest mean Generator samples from. Poisson samples stay
// exact integers in a float64 well beyond it.
const MaxLambda = 1e15

// Draw is one sampled transaction.
type Draw struct {
	// Forward is true for A->B (and C->D) traffic, false for the reverse.
	Forward bool
	Amount  decimal.Decimal
}

func (d Draw) String() string {
	dir := "reverse"
	if d.Forward {
		dir = "forward"
	}
	return fmt.Sprintf("%s %s", dir, d.Amount)
}

// Source produces transaction draws.
type Source interface {
	// Next returns the next draw. probability is the chance the transaction
	// is forward; lambda is the mean of the amount distribution.
	Next(probability, lambda float64) (Draw, error)
}

// Generator draws directions from a uniform [0,1) sample and amounts from a
// Poisson distribution. It is not safe for concurrent use.
type Generator struct {
	seed uint64
	src  rand.Source
	rng  *rand.Rand
}

// NewGenerator creates a generator seeded with seed. A zero seed picks a
// random one; Seed reports it either way.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Generator{
		seed: seed,
		src:  src,
		rng:  rand.New(src),
	}
}

// Seed returns the seed the generator was built with.
func (g *Generator) Seed() uint64 {
	return g.seed
}

// Next implements Source.
func (g *Generator) Next(probability, lambda float64) (Draw, error) {
	if math.IsNaN(lambda) || lambda > MaxLambda {
		return Draw{}, fmt.Errorf("%w: %v", ErrInvalidLambda, lambda)
	}
	forward := g.rng.Float64() <= probability
	return Draw{Forward: forward, Amount: g.amount(lambda)}, nil
}

func (g *Generator) amount(lambda float64) decimal.Decimal {
	if lambda <= 0 {
		return decimal.Zero
	}
	dist := distuv.Poisson{Lambda: lambda, Src: g.src}
	return decimal.NewFromFloat(dist.Rand())
}
