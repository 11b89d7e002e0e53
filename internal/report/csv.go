package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/nvandessel/chansim/internal/simulation"
)

var csvHeader = []string{
	"run_id", "probability", "transactions", "lambda", "seed",
	"endpoint", "mode", "commission", "fee", "capacity", "open",
	"sent", "received", "resets", "stalls", "fee_income", "commission_paid", "volume",
}

// RenderCSV writes one row per (scenario, endpoint).
func RenderCSV(w io.Writer, results []simulation.ScenarioResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range results {
		for _, e := range r.Endpoints {
			row := []string{
				r.RunID,
				strconv.FormatFloat(r.Params.Probability, 'f', -1, 64),
				strconv.Itoa(r.Params.Transactions),
				strconv.FormatFloat(r.Params.Lambda, 'f', -1, 64),
				strconv.FormatUint(r.Seed, 10),
				e.ID,
				e.Mode.String(),
				e.Commission.String(),
				e.Fee.StringFixed(r.FeePrecision),
				e.Capacity.String(),
				strconv.FormatBool(e.Open),
				strconv.Itoa(e.Ledger.Sent),
				strconv.Itoa(e.Ledger.Received),
				strconv.Itoa(e.Ledger.Resets),
				strconv.Itoa(e.Ledger.Stalls),
				e.Ledger.FeeIncome.String(),
				e.Ledger.CommissionPaid.String(),
				e.Ledger.Volume.String(),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
