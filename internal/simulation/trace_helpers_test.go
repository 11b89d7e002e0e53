package simulation_test

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvandessel/chansim/internal/logging"
)

func readTraceEvents(t *testing.T, dir string) []logging.TxEvent {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, logging.TraceFile))
	if err != nil {
		t.Fatalf("open trace: %v", err)
	}
	defer f.Close()

	var events []logging.TxEvent
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev logging.TxEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("parse trace line %q: %v", sc.Text(), err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan trace: %v", err)
	}
	return events
}
