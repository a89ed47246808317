// Command triage turns support conversations into issue tracker tickets.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/steveyegge/triage/internal/config"
)

var (
	configPath string
	logLevel   string
	logJSON    bool
	logger     = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Triage support conversations into issue tracker tickets",
	Long: `triage reads a support conversation, asks a reasoning engine whether it
describes a bug or feature request, and files it in the team's backlog.

When the backlog already holds a ticket for the same issue, that ticket is
updated instead of creating a duplicate.

Configuration is read from triage.yaml in the working directory (or
--config), overridden by TRIAGE_* environment variables.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = config.NewLogger(os.Stderr, logLevel, logJSON)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./triage.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// exitWithError prints err the way every command reports failure and exits 1
func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
