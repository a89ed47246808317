package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/steveyegge/triage/internal/report"
	"github.com/steveyegge/triage/internal/samples"
	"github.com/steveyegge/triage/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run [conversation]",
	Short: "Triage one support conversation",
	Long: `Triage one support conversation into the configured team's backlog.

The conversation is taken from, in order:
  - the positional argument
  - --file (use "-" for stdin)
  - --sample NAME (see 'triage samples')
  - standard input

The result is a created ticket, an updated ticket, or a skip with a reason.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		sample, _ := cmd.Flags().GetString("sample")
		asJSON, _ := cmd.Flags().GetBool("json")

		conv, err := readConversation(args, file, sample, cmd.InOrStdin())
		if err != nil {
			return err
		}

		a, err := loadApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		pipeline, err := a.pipeline()
		if err != nil {
			return err
		}

		outcome, err := pipeline.Run(cmd.Context(), conv)
		if err != nil {
			return err
		}
		return printOutcome(cmd.OutOrStdout(), outcome, asJSON)
	},
}

func init() {
	runCmd.Flags().StringP("file", "f", "", "Read the conversation from a file (\"-\" for stdin)")
	runCmd.Flags().StringP("sample", "s", "", "Triage a built-in sample conversation")
	runCmd.Flags().Bool("json", false, "Print the result as JSON")
	rootCmd.AddCommand(runCmd)
}

// readConversation picks the conversation source for the run command
func readConversation(args []string, file, sample string, stdin io.Reader) (types.Conversation, error) {
	sources := 0
	for _, set := range []bool{len(args) > 0, file != "", sample != ""} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return "", fmt.Errorf("give the conversation as an argument, --file or --sample, not more than one")
	}

	var conv types.Conversation
	switch {
	case len(args) > 0:
		conv = types.Conversation(args[0])
	case sample != "":
		s, err := samples.Get(sample)
		if err != nil {
			return "", err
		}
		conv = s.Conversation
	case file != "" && file != "-":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading conversation: %w", err)
		}
		conv = types.Conversation(data)
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading conversation from stdin: %w", err)
		}
		conv = types.Conversation(data)
	}

	conv = types.Conversation(strings.TrimSpace(conv.String()))
	if conv.IsBlank() {
		return "", fmt.Errorf("conversation is empty")
	}
	return conv, nil
}

// printOutcome writes the outcome the way the user asked for
func printOutcome(w io.Writer, outcome *types.Outcome, asJSON bool) error {
	rec, err := report.FromOutcome(outcome)
	if err != nil {
		return err
	}
	if asJSON {
		return report.WriteJSON(w, rec)
	}
	return report.WriteText(w, rec)
}
