package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/triage/internal/types"
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Inspect the team backlog",
	Long:  `List the configured team's backlog, show one ticket, or archive one in a local tracker.`,
}

var issuesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every ticket in the team backlog",
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")

		a := mustLoadApp()
		defer a.Close()
		if err := a.cfg.RequireTeam(); err != nil {
			exitWithError(err)
		}

		backlog, err := a.store.ListIssues(context.Background(), a.cfg.TeamID)
		if err != nil {
			exitWithError(err)
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		out := cmd.OutOrStdout()

		shown := 0
		for _, ticket := range backlog {
			if ticket.IsArchived() && !all {
				continue
			}
			shown++
			line := fmt.Sprintf("%-10s %s", cyan(ticket.Identifier), ticket.Title)
			if ticket.Status != "" {
				line += " " + gray("["+ticket.Status+"]")
			}
			if ticket.IsArchived() {
				line += " " + gray("(archived)")
			}
			fmt.Fprintln(out, line)
		}
		if shown == 0 {
			fmt.Fprintf(out, "%s\n", gray("No tickets"))
			return
		}
		fmt.Fprintf(out, "\n%s\n", gray(fmt.Sprintf("%d of %d tickets", shown, len(backlog))))
	},
}

var issuesShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one ticket",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustLoadApp()
		defer a.Close()

		ticket, err := a.store.GetIssue(context.Background(), args[0])
		if err != nil {
			exitWithError(err)
		}
		printTicket(cmd, ticket)
	},
}

var issuesArchiveCmd = &cobra.Command{
	Use:   "archive ID",
	Short: "Archive a ticket in the local tracker",
	Long: `Archive a ticket in the local sqlite tracker. Archived tickets stay in
the backlog and are still compared against unless dedup.skip_archived is set.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustLoadApp()
		defer a.Close()

		local, err := a.localStore()
		if err != nil {
			exitWithError(err)
		}
		if err := local.ArchiveIssue(context.Background(), args[0]); err != nil {
			exitWithError(err)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(cmd.OutOrStdout(), "%s Archived %s\n", green("✓"), args[0])
	},
}

func printTicket(cmd *cobra.Command, ticket *types.Ticket) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s %s\n", cyan(ticket.Identifier), ticket.Title)
	fmt.Fprintf(out, "  ID:       %s\n", ticket.ID)
	if ticket.Status != "" {
		fmt.Fprintf(out, "  Status:   %s\n", ticket.Status)
	}
	if ticket.Assignee != nil {
		fmt.Fprintf(out, "  Assignee: %s\n", ticket.Assignee.Name)
	}
	fmt.Fprintf(out, "  Created:  %s\n", ticket.CreatedAt.Format(time.RFC3339))
	if ticket.ArchivedAt != nil {
		fmt.Fprintf(out, "  Archived: %s\n", ticket.ArchivedAt.Format(time.RFC3339))
	}
	if ticket.URL != "" {
		fmt.Fprintf(out, "  URL:      %s\n", ticket.URL)
	}
	if ticket.Description != "" {
		fmt.Fprintf(out, "\n%s\n", ticket.Description)
	}
}

func init() {
	issuesListCmd.Flags().Bool("all", false, "Include archived tickets")
	issuesCmd.AddCommand(issuesListCmd)
	issuesCmd.AddCommand(issuesShowCmd)
	issuesCmd.AddCommand(issuesArchiveCmd)
	rootCmd.AddCommand(issuesCmd)
}
