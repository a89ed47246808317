package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/triage/internal/samples"
)

var samplesCmd = &cobra.Command{
	Use:   "samples [name]",
	Short: "List or show the built-in sample conversations",
	Long: `List the built-in sample conversations, or print one by name.

Samples cover bug reports, feature requests and general queries. Bug
reports and feature requests should produce a ticket; general queries
should be skipped. Triage one with 'triage run --sample NAME'.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			sample, err := samples.Get(args[0])
			if err != nil {
				exitWithError(err)
			}
			fmt.Fprintln(out, sample.Conversation)
			return
		}

		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, name := range samples.Names() {
			sample, _ := samples.Get(name)
			expect := "skip"
			if sample.ExpectsTicket() {
				expect = "ticket"
			}
			fmt.Fprintf(out, "  %-20s %-16s %s\n", green(name), string(sample.Kind), gray("expects "+expect))
		}
	},
}

func init() {
	rootCmd.AddCommand(samplesCmd)
}
