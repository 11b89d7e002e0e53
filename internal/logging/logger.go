// Package logging provides leveled logging and transaction tracing for chansim.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A TraceLogger for per-transaction JSONL traces (<dir>/transactions.jsonl)
package logging

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LevelTrace is a custom slog level below Debug for per-transaction logging.
const LevelTrace = slog.LevelDebug - 4

// TraceFile is the name of the JSONL file a TraceLogger writes.
const TraceFile = "transactions.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// TxEvent is one line of the transaction trace: the effect a single send or
// receive had on one endpoint.
type TxEvent struct {
	RunID       string  `json:"run_id"`
	Probability float64 `json:"p"`
	Tx          int     `json:"tx"`
	Endpoint    string  `json:"endpoint"`
	Mode        string  `json:"mode"`
	Event       string  `json:"event"`
	Outcome     string  `json:"outcome"`
	Amount      string  `json:"amount"`
	FeeDelta    string  `json:"fee_delta"`
	Capacity    string  `json:"capacity"`
	Fee         string  `json:"fee"`
	Open        bool    `json:"open"`
}

// TraceLogger writes transaction events to a JSONL file.
// It is safe for concurrent use. A nil TraceLogger is safe to use;
// all methods are no-ops on nil receiver.
type TraceLogger struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

// NewTraceLogger creates a trace logger writing to dir/transactions.jsonl.
// At "info" level (the default), or with an empty dir, it returns nil and no
// file is created. At "debug" or "trace" level the file is truncated.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewTraceLogger(dir string, level string) *TraceLogger {
	if dir == "" || ParseLevel(level) == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, TraceFile)
	f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	buf := bufio.NewWriter(f)
	return &TraceLogger{file: f, buf: buf, enc: json.NewEncoder(buf)}
}

// Enabled reports whether events are being written. Callers use it to skip
// building events nobody will read.
func (tl *TraceLogger) Enabled() bool {
	return tl != nil && tl.file != nil
}

// Log writes ev as a single JSONL line. Safe to call on nil receiver.
func (tl *TraceLogger) Log(ev TxEvent) {
	if tl == nil {
		return
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.file == nil {
		return
	}
	_ = tl.enc.Encode(ev)
}

// Close flushes buffered events and closes the file. Safe to call on nil
// receiver.
func (tl *TraceLogger) Close() error {
	if tl == nil {
		return nil
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.file == nil {
		return nil
	}
	flushErr := tl.buf.Flush()
	closeErr := tl.file.Close()
	tl.file = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
