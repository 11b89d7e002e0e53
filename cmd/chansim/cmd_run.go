package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/nvandessel/chansim/internal/config"
	"github.com/nvandessel/chansim/internal/logging"
	"github.com/nvandessel/chansim/internal/report"
	"github.com/nvandessel/chansim/internal/simulation"
	"github.com/nvandessel/chansim/internal/traffic"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation for each probability and print a report",
		Long: `Run one scenario per forward-direction probability and report the fees
earned by both endpoint pairs.

Flags override the config file and environment.

Examples:
  chansim run                                  # 50000 transactions at p=0.50 and p=0.80
  chansim run --prob 0.3 --prob 0.7 --seed 42  # Reproducible run
  chansim run --format csv --out fees.csv
  chansim run --format html --serve            # Serve the charts locally`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runSimulation(cmd, cfg)
		},
	}

	cmd.Flags().Int("transactions", 0, "Transactions per scenario")
	cmd.Flags().Float64("lambda", 0, "Poisson mean of a transaction amount (satoshi)")
	cmd.Flags().Float64Slice("prob", nil, "Forward-direction probability (repeatable)")
	cmd.Flags().Uint64("seed", 0, "Generator seed (0 picks one at random)")
	cmd.Flags().String("commission-a", "", "Reset cost of closing endpoint A (satoshi)")
	cmd.Flags().String("commission-b", "", "Reset cost of closing endpoint B (satoshi)")
	cmd.Flags().String("format", "", "Report format: text, json, csv, html")
	cmd.Flags().StringP("out", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().Bool("serve", false, "Serve the HTML report on a local port until Ctrl-C")
	cmd.Flags().Bool("no-browser", false, "Don't open the HTML report in a browser")
	cmd.Flags().String("trace-dir", "", "Directory for the per-transaction trace (needs --log-level debug)")

	return cmd
}

// applyRunFlags copies explicitly set flags over the loaded configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.ChansimConfig) error {
	flags := cmd.Flags()
	if flags.Changed("transactions") {
		cfg.Simulation.Transactions, _ = flags.GetInt("transactions")
	}
	if flags.Changed("lambda") {
		cfg.Simulation.Lambda, _ = flags.GetFloat64("lambda")
	}
	if flags.Changed("prob") {
		cfg.Simulation.Probabilities, _ = flags.GetFloat64Slice("prob")
	}
	if flags.Changed("seed") {
		cfg.Simulation.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("commission-a") {
		cfg.Channel.CommissionA, _ = flags.GetString("commission-a")
	}
	if flags.Changed("commission-b") {
		cfg.Channel.CommissionB, _ = flags.GetString("commission-b")
	}
	if flags.Changed("format") {
		v, _ := flags.GetString("format")
		f, err := report.ParseFormat(v)
		if err != nil {
			return err
		}
		cfg.Report.Format = string(f)
	} else if jsonOut, _ := flags.GetBool("json"); jsonOut {
		cfg.Report.Format = string(report.FormatJSON)
	}
	if flags.Changed("out") {
		cfg.Report.Output, _ = flags.GetString("out")
	}
	if flags.Changed("trace-dir") {
		cfg.Logging.TraceDir, _ = flags.GetString("trace-dir")
	}
	return nil
}

func runSimulation(cmd *cobra.Command, cfg *config.ChansimConfig) error {
	serve, _ := cmd.Flags().GetBool("serve")
	noBrowser, _ := cmd.Flags().GetBool("no-browser")

	setup, err := cfg.Setup()
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}
	opts := report.Options{MaxPoints: cfg.Report.MaxPoints}

	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	trace := logging.NewTraceLogger(cfg.Logging.TraceDir, cfg.Logging.Level)
	defer func() {
		if err := trace.Close(); err != nil {
			logger.Warn("closing trace failed", "error", err)
		}
	}()

	src := traffic.NewGenerator(cfg.Simulation.Seed)
	runner, err := simulation.NewRunner(src, setup,
		simulation.WithLogger(logger),
		simulation.WithTrace(trace),
	)
	if err != nil {
		return err
	}
	logger.Info("run started",
		"run_id", runner.RunID(),
		"seed", src.Seed(),
		"transactions", cfg.Simulation.Transactions,
		"probabilities", cfg.Simulation.Probabilities)

	// HTML with no destination goes to a temp file and the browser.
	outPath := cfg.Report.Output
	openHTML := false
	if format == report.FormatHTML && outPath == "" && !serve {
		outPath = filepath.Join(os.TempDir(), "chansim-report.html")
		openHTML = !noBrowser
	}

	var reporter simulation.Reporter
	var out io.WriteCloser
	if !serve || outPath != "" {
		w := cmd.OutOrStdout()
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create report file: %w", err)
			}
			out = f
			w = f
		}
		reporter = report.Writer{W: w, Format: format, Options: opts}
	}

	results, err := runner.RunAll(cfg.Params(), cfg.Simulation.Probabilities, reporter)
	if out != nil {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close report file: %w", cerr)
		}
	}
	if err != nil {
		return err
	}

	if outPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", outPath)
	}
	if openHTML {
		if err := report.OpenBrowser(outPath); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, outPath)
		}
	}
	if trace.Enabled() {
		logger.Info("transaction trace written", "path", filepath.Join(cfg.Logging.TraceDir, logging.TraceFile))
	}

	if serve {
		return runReportServer(cmd, cmd.Context(), results, opts, noBrowser, logger)
	}
	return nil
}

// runReportServer serves the HTML report and blocks until Ctrl-C.
func runReportServer(cmd *cobra.Command, ctx context.Context, results []simulation.ScenarioResult, opts report.Options, noBrowser bool, logger *slog.Logger) error {
	srv := report.NewServer(results, opts)

	srvCtx, srvCancel := context.WithCancel(ctx)
	defer srvCancel()

	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			srvCancel()
		case <-srvCtx.Done():
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(srvCtx) }()

	// Wait for server to start
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && srv.Addr() == "" {
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}

	url := srv.URL()
	if url == "" {
		return fmt.Errorf("server failed to start")
	}
	logger.Debug("report server started", "addr", srv.Addr())

	fmt.Fprintf(cmd.OutOrStdout(), "Report server running at %s\n", url)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl-C to stop.\n")

	if !noBrowser {
		if err := report.OpenBrowser(url); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
		}
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
