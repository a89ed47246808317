package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/steveyegge/triage/internal/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start interactive triage shell",
	Long: `Start an interactive shell for triaging conversations one after another.

Paste a conversation and finish it with a blank line to triage it. Type
/help in the shell for the available commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		asJSON, _ := cmd.Flags().GetBool("json")

		a := mustLoadApp()
		defer a.Close()

		pipeline, err := a.pipeline()
		if err != nil {
			exitWithError(err)
		}

		r, err := repl.New(&repl.Config{
			Runner: pipeline,
			Out:    cmd.OutOrStdout(),
			JSON:   asJSON,
		})
		if err != nil {
			exitWithError(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
		defer stop()
		if err := r.Run(ctx); err != nil {
			exitWithError(err)
		}
	},
}

func init() {
	replCmd.Flags().Bool("json", false, "Print results as JSON")
	rootCmd.AddCommand(replCmd)
}
