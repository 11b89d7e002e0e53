package simulation

import (
	"errors"
	"testing"

	"github.com/nvandessel/chansim/internal/channel"
	"github.com/shopspring/decimal"
)

func TestLedger_Record(t *testing.T) {
	var l Ledger
	l.Record(channel.Effect{Outcome: channel.OutcomeTransferred, Amount: decimal.NewFromInt(300)})
	l.Record(channel.Effect{Outcome: channel.OutcomeTransferred, Amount: decimal.NewFromInt(200)})
	l.Record(channel.Effect{Outcome: channel.OutcomeCredited, Amount: decimal.NewFromInt(10), FeeIncome: decimal.RequireFromString("1.5")})
	l.Record(channel.Effect{Outcome: channel.OutcomeReset, Commission: decimal.NewFromInt(7000)})
	l.Record(channel.Effect{Outcome: channel.OutcomeStalled})
	l.Record(channel.Effect{Outcome: channel.OutcomeIgnored})
	l.Record(channel.Effect{Outcome: channel.OutcomeIgnored})

	if l.Sent != 2 || l.Received != 1 || l.Resets != 1 || l.Stalls != 1 || l.Ignored != 2 {
		t.Errorf("counters = %+v", l)
	}
	if !l.Volume.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Volume = %s, want 500", l.Volume)
	}
	if want := decimal.RequireFromString("-6998.5"); !l.Net().Equal(want) {
		t.Errorf("Net = %s, want %s", l.Net(), want)
	}
}

func TestReconcile(t *testing.T) {
	ledger := Ledger{
		FeeIncome:      decimal.RequireFromString("3.123456"),
		CommissionPaid: decimal.NewFromInt(1),
	}
	good := ScenarioResult{}
	for i := range good.Endpoints {
		good.Endpoints[i] = EndpointResult{
			ID:     string(rune('A' + i)),
			RawFee: decimal.RequireFromString("2.123456"),
			Fee:    decimal.RequireFromString("2.1235"),
			Ledger: ledger,
		}
	}

	if err := Reconcile(&good, 4); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	badRaw := good
	badRaw.Endpoints[2].RawFee = decimal.NewFromInt(2)
	if err := Reconcile(&badRaw, 4); !errors.Is(err, ErrUnreconciled) {
		t.Errorf("expected ErrUnreconciled for raw fee mismatch, got %v", err)
	}

	badRounded := good
	badRounded.Endpoints[1].Fee = decimal.RequireFromString("2.1234")
	if err := Reconcile(&badRounded, 4); !errors.Is(err, ErrUnreconciled) {
		t.Errorf("expected ErrUnreconciled for rounding mismatch, got %v", err)
	}
}

func TestDownsample(t *testing.T) {
	traj := make([]decimal.Decimal, 1000)
	for i := range traj {
		traj[i] = decimal.NewFromInt(int64(i))
	}

	pts := Downsample(traj, 10)
	if len(pts) != 10 {
		t.Fatalf("len = %d, want 10", len(pts))
	}
	if pts[0].Index != 0 || pts[9].Index != 999 {
		t.Errorf("endpoints = %d..%d, want 0..999", pts[0].Index, pts[9].Index)
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].Index <= pts[i-1].Index {
			t.Fatalf("indices not increasing at %d: %d <= %d", i, pts[i].Index, pts[i-1].Index)
		}
	}

	if got := Downsample(traj[:5], 10); len(got) != 5 {
		t.Errorf("short trajectory len = %d, want 5", len(got))
	}
	if got := Downsample(traj, 0); len(got) != 1000 {
		t.Errorf("max 0 len = %d, want 1000", len(got))
	}
}
