package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/chansim/internal/validate"
	"github.com/shopspring/decimal"
)

// isolate points HOME and the working directory at empty temp dirs so no
// real config, .env or CHANSIM_* variable leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, "CHANSIM_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDefault(t *testing.T) {
	config := Default()

	if config.Simulation.Transactions != 50000 {
		t.Errorf("expected Transactions 50000, got %d", config.Simulation.Transactions)
	}
	if config.Simulation.Lambda != 10000 {
		t.Errorf("expected Lambda 10000, got %v", config.Simulation.Lambda)
	}
	if len(config.Simulation.Probabilities) != 2 || config.Simulation.Probabilities[0] != 0.5 || config.Simulation.Probabilities[1] != 0.8 {
		t.Errorf("expected Probabilities [0.5 0.8], got %v", config.Simulation.Probabilities)
	}
	if config.Channel.InitialCapacity != "100000000" {
		t.Errorf("expected InitialCapacity '100000000', got '%s'", config.Channel.InitialCapacity)
	}
	if config.Channel.CommissionA != "0" || config.Channel.CommissionB != "7000" {
		t.Errorf("expected commissions 0/7000, got %s/%s", config.Channel.CommissionA, config.Channel.CommissionB)
	}
	if config.Report.Format != "text" {
		t.Errorf("expected Report.Format 'text', got '%s'", config.Report.Format)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	t.Setenv("CHANSIM_TEST_OUT", "/tmp/out")

	writeFile(t, configPath, `
simulation:
  transactions: 1000
  probabilities: [0.3, 0.6, 0.9]
  seed: 42

channel:
  commission_b: "5000.5"

report:
  format: csv
  output: ${CHANSIM_TEST_OUT}/report.csv
`)

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Simulation.Transactions != 1000 {
		t.Errorf("expected Transactions 1000, got %d", config.Simulation.Transactions)
	}
	if len(config.Simulation.Probabilities) != 3 {
		t.Errorf("expected 3 probabilities, got %v", config.Simulation.Probabilities)
	}
	if config.Simulation.Seed != 42 {
		t.Errorf("expected Seed 42, got %d", config.Simulation.Seed)
	}
	if config.Channel.CommissionB != "5000.5" {
		t.Errorf("expected CommissionB '5000.5', got '%s'", config.Channel.CommissionB)
	}
	if config.Report.Output != "/tmp/out/report.csv" {
		t.Errorf("expected expanded Output, got '%s'", config.Report.Output)
	}

	// Unset keys keep their defaults.
	if config.Simulation.Lambda != 10000 {
		t.Errorf("expected default Lambda 10000, got %v", config.Simulation.Lambda)
	}
	if config.Channel.CommissionA != "0" {
		t.Errorf("expected default CommissionA '0', got '%s'", config.Channel.CommissionA)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := LoadFromFile(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(tmpDir, "bad.yaml")
	writeFile(t, bad, "simulation: [not, a, map")
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestLoad_DefaultPath(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".chansim", "config.yaml"), "simulation:\n  lambda: 500\n")

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Simulation.Lambda != 500 {
		t.Errorf("expected Lambda 500 from ~/.chansim/config.yaml, got %v", config.Simulation.Lambda)
	}
}

func TestLoad_NoFiles(t *testing.T) {
	isolate(t)

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Simulation.Transactions != Default().Simulation.Transactions {
		t.Errorf("expected defaults, got Transactions %d", config.Simulation.Transactions)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	isolate(t)

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config path")
	}
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	writeFile(t, DotEnvFile, "CHANSIM_TRANSACTIONS=1234\nCHANSIM_LOG_LEVEL=debug\n")

	// Already-set variables win over .env.
	t.Setenv("CHANSIM_LOG_LEVEL", "trace")
	// Registered for cleanup, then unset so .env can provide it.
	t.Setenv("CHANSIM_TRANSACTIONS", "")
	os.Unsetenv("CHANSIM_TRANSACTIONS")

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Simulation.Transactions != 1234 {
		t.Errorf("expected Transactions 1234 from .env, got %d", config.Simulation.Transactions)
	}
	if config.Logging.Level != "trace" {
		t.Errorf("expected Level 'trace' from environment, got '%s'", config.Logging.Level)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CHANSIM_TRANSACTIONS", "10")
	t.Setenv("CHANSIM_LAMBDA", "25.5")
	t.Setenv("CHANSIM_PROBABILITIES", "0.1, 0.9")
	t.Setenv("CHANSIM_SEED", "7")
	t.Setenv("CHANSIM_COMMISSION_A", "1")
	t.Setenv("CHANSIM_COMMISSION_B", "2")
	t.Setenv("CHANSIM_FORMAT", "HTML")
	t.Setenv("CHANSIM_OUTPUT", "out.html")
	t.Setenv("CHANSIM_LOG_LEVEL", "debug")
	t.Setenv("CHANSIM_TRACE_DIR", "traces")

	config := Default()
	applyEnvOverrides(config)

	if config.Simulation.Transactions != 10 {
		t.Errorf("expected Transactions 10, got %d", config.Simulation.Transactions)
	}
	if config.Simulation.Lambda != 25.5 {
		t.Errorf("expected Lambda 25.5, got %v", config.Simulation.Lambda)
	}
	if len(config.Simulation.Probabilities) != 2 || config.Simulation.Probabilities[1] != 0.9 {
		t.Errorf("expected Probabilities [0.1 0.9], got %v", config.Simulation.Probabilities)
	}
	if config.Simulation.Seed != 7 {
		t.Errorf("expected Seed 7, got %d", config.Simulation.Seed)
	}
	if config.Channel.CommissionA != "1" || config.Channel.CommissionB != "2" {
		t.Errorf("expected commissions 1/2, got %s/%s", config.Channel.CommissionA, config.Channel.CommissionB)
	}
	if config.Report.Format != "html" {
		t.Errorf("expected Format 'html', got '%s'", config.Report.Format)
	}
	if config.Report.Output != "out.html" {
		t.Errorf("expected Output 'out.html', got '%s'", config.Report.Output)
	}
	if config.Logging.Level != "debug" || config.Logging.TraceDir != "traces" {
		t.Errorf("expected logging debug/traces, got %s/%s", config.Logging.Level, config.Logging.TraceDir)
	}
}

func TestApplyEnvOverrides_InvalidNumbersIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("CHANSIM_TRANSACTIONS", "many")
	t.Setenv("CHANSIM_LAMBDA", "x")
	t.Setenv("CHANSIM_PROBABILITIES", ",")
	t.Setenv("CHANSIM_SEED", "-1")

	config := Default()
	applyEnvOverrides(config)

	def := Default()
	if config.Simulation.Transactions != def.Simulation.Transactions ||
		config.Simulation.Lambda != def.Simulation.Lambda ||
		len(config.Simulation.Probabilities) != len(def.Simulation.Probabilities) ||
		config.Simulation.Seed != 0 {
		t.Errorf("invalid overrides should be ignored, got %+v", config.Simulation)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*ChansimConfig)
		wantErr string
	}{
		{
			name:   "valid default",
			modify: func(c *ChansimConfig) {},
		},
		{
			name:    "negative transactions",
			modify:  func(c *ChansimConfig) { c.Simulation.Transactions = -1 },
			wantErr: "simulation.transactions must be >= 0",
		},
		{
			name:    "negative lambda",
			modify:  func(c *ChansimConfig) { c.Simulation.Lambda = -1 },
			wantErr: "simulation.lambda must be >= 0",
		},
		{
			name:    "infinite lambda",
			modify:  func(c *ChansimConfig) { c.Simulation.Lambda = math.Inf(1) },
			wantErr: "simulation.lambda must be <= 1e15",
		},
		{
			name:    "huge lambda",
			modify:  func(c *ChansimConfig) { c.Simulation.Lambda = 1e20 },
			wantErr: "simulation.lambda must be <= 1e15",
		},
		{
			name:    "no probabilities",
			modify:  func(c *ChansimConfig) { c.Simulation.Probabilities = nil },
			wantErr: "simulation.probabilities must have at least 1 entries",
		},
		{
			name:    "probability above one",
			modify:  func(c *ChansimConfig) { c.Simulation.Probabilities = []float64{0.5, 1.5} },
			wantErr: "simulation.probabilities[1] must be <= 1",
		},
		{
			name:    "negative commission",
			modify:  func(c *ChansimConfig) { c.Channel.CommissionB = "-1" },
			wantErr: "channel.commission_b must be a non-negative decimal number",
		},
		{
			name:    "non-numeric fee rate",
			modify:  func(c *ChansimConfig) { c.Channel.FeeRate = "cheap" },
			wantErr: "channel.fee_rate must be a non-negative decimal number",
		},
		{
			name:    "zero capacity",
			modify:  func(c *ChansimConfig) { c.Channel.InitialCapacity = "0" },
			wantErr: "initial capacity must be > 0",
		},
		{
			name:    "bad format",
			modify:  func(c *ChansimConfig) { c.Report.Format = "dot" },
			wantErr: "report.format must be one of [text json csv html]",
		},
		{
			name:    "bad log level",
			modify:  func(c *ChansimConfig) { c.Logging.Level = "verbose" },
			wantErr: "logging.level must be one of [info debug trace]",
		},
		{
			name:   "empty log level",
			modify: func(c *ChansimConfig) { c.Logging.Level = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.modify(config)
			err := config.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestSetup(t *testing.T) {
	config := Default()
	config.Channel.CommissionA = "12.5"
	config.Channel.FeePrecision = 2

	s, err := config.Setup()
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if !s.CommissionA.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("expected CommissionA 12.5, got %s", s.CommissionA)
	}
	if !s.CommissionB.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("expected CommissionB 7000, got %s", s.CommissionB)
	}
	if !s.Channel.Rate.Equal(decimal.RequireFromString("0.00000001")) {
		t.Errorf("expected Rate 1e-8, got %s", s.Channel.Rate)
	}
	if !s.Channel.InitialCapacity.Equal(decimal.NewFromInt(100000000)) {
		t.Errorf("expected InitialCapacity 1e8, got %s", s.Channel.InitialCapacity)
	}
	if s.FeePrecision != 2 {
		t.Errorf("expected FeePrecision 2, got %d", s.FeePrecision)
	}
}

func TestSetup_InvalidDecimal(t *testing.T) {
	config := Default()
	config.Channel.BaseFee = "one"

	_, err := config.Setup()
	if !errors.Is(err, validate.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if !strings.Contains(err.Error(), "channel.base_fee") {
		t.Errorf("expected error to name channel.base_fee, got: %v", err)
	}
}

func TestParams(t *testing.T) {
	config := Default()
	config.Simulation.Transactions = 9
	config.Simulation.Lambda = 3

	p := config.Params()
	if p.Transactions != 9 || p.Lambda != 3 || p.Probability != 0 {
		t.Errorf("unexpected params %+v", p)
	}
}

func TestParseProbabilities(t *testing.T) {
	tests := []struct {
		in      string
		want    []float64
		wantErr bool
	}{
		{"0.5,0.8", []float64{0.5, 0.8}, false},
		{" 0.1 , 0.2 ,", []float64{0.1, 0.2}, false},
		{"1", []float64{1}, false},
		{"", nil, true},
		{"0.5,abc", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProbabilities(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CHANSIM_TEST_VAR", "value")

	if got := expandEnvVars("${CHANSIM_TEST_VAR}/x"); got != "value/x" {
		t.Errorf("expected 'value/x', got '%s'", got)
	}
	if got := expandEnvVars("plain"); got != "plain" {
		t.Errorf("expected 'plain', got '%s'", got)
	}
}
