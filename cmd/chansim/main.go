package main

import (
	"fmt"
	"os"

	"github.com/nvandessel/chansim/internal/config"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chansim",
		Short: "Payment channel recovery simulator",
		Long: `chansim runs Monte Carlo simulations of bidirectional payment channels.

Two pairs of endpoints see the same random traffic. One pair closes and
reopens a depleted channel for a commission; the other waits at no cost
until reverse traffic refills it. The report compares the fees each
endpoint earns across forward-direction probabilities.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.chansim/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// loadConfig loads the effective configuration and applies the global
// --log-level flag.
func loadConfig(cmd *cobra.Command) (*config.ChansimConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}
