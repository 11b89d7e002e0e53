package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/nvandessel/chansim/internal/simulation"
	"github.com/shopspring/decimal"
)

// RenderText writes a per-scenario breakdown followed by a profit table
// across every probability.
func RenderText(w io.Writer, results []simulation.ScenarioResult) error {
	ew := &errWriter{w: w}

	for _, r := range results {
		ew.printf("Poisson lambda:     %g\n", r.Params.Lambda)
		ew.printf("Transactions:       %d (forward %d, reverse %d)\n", r.Params.Transactions, r.Forward, r.Reverse)
		ew.printf("Probability (A->B): %.2f\n", r.Params.Probability)
		if r.Seed != 0 {
			ew.printf("Seed:               %d\n", r.Seed)
		}
		ew.printf("\n")

		ew.printf("A<->B with closing mechanism:\n")
		writeEndpoint(ew, "A", r.Endpoints[0], r.FeePrecision)
		writeEndpoint(ew, "B", r.Endpoints[1], r.FeePrecision)
		ew.printf("\n")

		// The waiting pair plays the same A and B roles over endpoints C and D.
		ew.printf("A<->B with waiting mechanism:\n")
		writeEndpoint(ew, "A", r.Endpoints[2], r.FeePrecision)
		writeEndpoint(ew, "B", r.Endpoints[3], r.FeePrecision)
		ew.printf("\n")
	}

	if len(results) > 0 {
		ew.printf("Profit with different probabilities (satoshi):\n")
		tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "p\tA (closing)\tB (closing)\tA (waiting)\tB (waiting)\t")
		for _, r := range results {
			fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\t%s\t\n",
				r.Params.Probability,
				r.Endpoints[0].Fee.StringFixed(r.FeePrecision),
				r.Endpoints[1].Fee.StringFixed(r.FeePrecision),
				r.Endpoints[2].Fee.StringFixed(r.FeePrecision),
				r.Endpoints[3].Fee.StringFixed(r.FeePrecision))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	return ew.err
}

func writeEndpoint(ew *errWriter, role string, e simulation.EndpointResult, precision int32) {
	ew.printf("  %s profit total: %s sat  [%s] capacity %s, sent %d, received %d, resets %d, stalls %d\n",
		role, e.Fee.StringFixed(precision), e.ID, formatBTC(e.Capacity),
		e.Ledger.Sent, e.Ledger.Received, e.Ledger.Resets, e.Ledger.Stalls)
}

// formatBTC renders a satoshi amount in BTC.
func formatBTC(sat decimal.Decimal) string {
	return btcutil.Amount(sat.IntPart()).String()
}

// errWriter remembers the first write error so rendering code can print
// freely and check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	ew.err = err
	return n, err
}

func (ew *errWriter) printf(format string, args ...any) {
	fmt.Fprintf(ew, format, args...)
}
