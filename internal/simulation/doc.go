// Package simulation drives paired payment channels through a randomized
// transaction stream and aggregates per-endpoint profit.
//
// Every scenario builds four fresh endpoints: A and B share a channel under
// the closing policy, C and D share one under the waiting policy. Both pairs
// see the same draws, so their outcomes are directly comparable. Forward
// draws move A->B and C->D; reverse draws move B->A and D->C.
//
// Usage:
//
//	r, err := simulation.NewRunner(traffic.NewGenerator(seed), simulation.DefaultSetup())
//	if err != nil { ... }
//	results, err := r.RunAll(simulation.Params{Transactions: 50000, Lambda: 10000},
//	    []float64{0.5, 0.8}, reporter)
package simulation
