// Package config provides unified configuration loading for chansim.
// It supports loading from YAML files, a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nvandessel/chansim/internal/channel"
	"github.com/nvandessel/chansim/internal/constants"
	"github.com/nvandessel/chansim/internal/simulation"
	"github.com/nvandessel/chansim/internal/validate"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DotEnvFile is the .env file Load reads from the working directory.
const DotEnvFile = ".env"

// ChansimConfig contains all chansim configuration settings.
type ChansimConfig struct {
	// Simulation contains the per-run scenario inputs.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Channel contains the channel fee schedule and reset costs.
	Channel ChannelConfig `json:"channel" yaml:"channel"`

	// Report contains output settings.
	Report ReportConfig `json:"report" yaml:"report"`

	// Logging contains settings for operational and transaction logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig configures the scenarios of one run.
type SimulationConfig struct {
	// Transactions is the number of transactions per scenario.
	Transactions int `json:"transactions" yaml:"transactions" validate:"gte=0"`

	// Lambda is the Poisson mean of a transaction amount, in satoshi.
	// Capped at traffic.MaxLambda.
	Lambda float64 `json:"lambda" yaml:"lambda" validate:"gte=0,lte=1e15"`

	// Probabilities are the forward-direction probabilities, one scenario each.
	Probabilities []float64 `json:"probabilities" yaml:"probabilities" validate:"min=1,dive,gte=0,lte=1"`

	// Seed seeds the transaction generator. 0 picks a random seed.
	Seed uint64 `json:"seed" yaml:"seed"`
}

// ChannelConfig holds money values as decimal strings so YAML floats never
// round them.
type ChannelConfig struct {
	InitialCapacity string `json:"initial_capacity" yaml:"initial_capacity" validate:"nonneg_decimal"`
	FeeRate         string `json:"fee_rate" yaml:"fee_rate" validate:"nonneg_decimal"`
	BaseFee         string `json:"base_fee" yaml:"base_fee" validate:"nonneg_decimal"`
	CommissionA     string `json:"commission_a" yaml:"commission_a" validate:"nonneg_decimal"`
	CommissionB     string `json:"commission_b" yaml:"commission_b" validate:"nonneg_decimal"`

	// FeePrecision is the number of fractional digits reported fees keep.
	FeePrecision int32 `json:"fee_precision" yaml:"fee_precision" validate:"gte=0,lte=18"`
}

// ReportConfig configures result output.
type ReportConfig struct {
	// Format is one of "text" (default), "json", "csv" or "html".
	Format string `json:"format" yaml:"format" validate:"oneof=text json csv html"`

	// Output is the report file. Empty writes to stdout. Supports ${VAR}.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// MaxPoints bounds the trajectory points per chart. 0 uses the report default.
	MaxPoints int `json:"max_points" yaml:"max_points" validate:"gte=0"`
}

// LoggingConfig configures chansim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" and "trace" enable the per-transaction trace in TraceDir.
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=info debug trace"`

	// TraceDir is where transactions.jsonl is written. Supports ${VAR}.
	TraceDir string `json:"trace_dir,omitempty" yaml:"trace_dir,omitempty"`
}

// Default returns a ChansimConfig with the reference parameters.
func Default() *ChansimConfig {
	return &ChansimConfig{
		Simulation: SimulationConfig{
			Transactions:  constants.DefaultTransactions,
			Lambda:        constants.DefaultLambda,
			Probabilities: constants.DefaultProbabilities(),
		},
		Channel: ChannelConfig{
			InitialCapacity: strconv.FormatInt(constants.InitialCapacity, 10),
			FeeRate:         constants.FeeRate,
			BaseFee:         constants.BaseFee,
			CommissionA:     constants.CommissionA,
			CommissionB:     constants.CommissionB,
			FeePrecision:    constants.FeePrecision,
		},
		Report: ReportConfig{
			Format: "text",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.chansim/config.yaml, or "" if the home directory
// is unknown.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".chansim", "config.yaml")
}

// Load loads configuration from path, or the default location when path is
// empty, then applies the .env file and environment variables.
// Order: defaults -> config file -> .env -> environment variables
//
// An explicit path must exist; a missing default file is skipped.
func Load(path string) (*ChansimConfig, error) {
	config := Default()

	if path == "" {
		if def := DefaultPath(); def != "" {
			if _, statErr := os.Stat(def); statErr == nil {
				path = def
			}
		}
	}
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys the file
// omits keep their defaults.
func LoadFromFile(path string) (*ChansimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Report.Output = expandEnvVars(config.Report.Output)
	config.Logging.TraceDir = expandEnvVars(config.Logging.TraceDir)

	return config, nil
}

// loadDotEnv exports the variables of a .env file that are not already set.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *ChansimConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.Setup(); err != nil {
		return err
	}
	return nil
}

// Setup converts the channel section into a simulation setup.
func (c *ChansimConfig) Setup() (simulation.Setup, error) {
	var (
		s    simulation.Setup
		errs []error
	)
	parse := func(name, v string) decimal.Decimal {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("channel.%s: %q is not a decimal number", name, v))
		}
		return d
	}

	s.Channel = channel.Params{
		InitialCapacity: parse("initial_capacity", c.Channel.InitialCapacity),
		Rate:            parse("fee_rate", c.Channel.FeeRate),
		BaseFee:         parse("base_fee", c.Channel.BaseFee),
	}
	s.CommissionA = parse("commission_a", c.Channel.CommissionA)
	s.CommissionB = parse("commission_b", c.Channel.CommissionB)
	s.FeePrecision = c.Channel.FeePrecision

	if len(errs) > 0 {
		return simulation.Setup{}, fmt.Errorf("%w: %w", validate.ErrInvalid, errors.Join(errs...))
	}
	if err := s.Validate(); err != nil {
		return simulation.Setup{}, err
	}
	return s, nil
}

// Params returns the scenario parameters shared by every probability. The
// probability itself is set per scenario.
func (c *ChansimConfig) Params() simulation.Params {
	return simulation.Params{
		Transactions: c.Simulation.Transactions,
		Lambda:       c.Simulation.Lambda,
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
// Unparsable numbers are ignored.
func applyEnvOverrides(config *ChansimConfig) {
	if v := os.Getenv("CHANSIM_TRANSACTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Transactions = n
		}
	}

	if v := os.Getenv("CHANSIM_LAMBDA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Simulation.Lambda = f
		}
	}

	if v := os.Getenv("CHANSIM_PROBABILITIES"); v != "" {
		if probs, err := ParseProbabilities(v); err == nil {
			config.Simulation.Probabilities = probs
		}
	}

	if v := os.Getenv("CHANSIM_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}

	// Money values stay strings; Validate rejects bad ones.
	if v := os.Getenv("CHANSIM_COMMISSION_A"); v != "" {
		config.Channel.CommissionA = v
	}
	if v := os.Getenv("CHANSIM_COMMISSION_B"); v != "" {
		config.Channel.CommissionB = v
	}

	if v := os.Getenv("CHANSIM_FORMAT"); v != "" {
		config.Report.Format = strings.ToLower(v)
	}
	if v := os.Getenv("CHANSIM_OUTPUT"); v != "" {
		config.Report.Output = v
	}

	if v := os.Getenv("CHANSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("CHANSIM_TRACE_DIR"); v != "" {
		config.Logging.TraceDir = v
	}
}

// ParseProbabilities parses a comma-separated probability list such as
// "0.5,0.8".
func ParseProbabilities(s string) ([]float64, error) {
	var probs []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid probability %q: %w", part, err)
		}
		probs = append(probs, f)
	}
	if len(probs) == 0 {
		return nil, fmt.Errorf("no probabilities in %q", s)
	}
	return probs, nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
