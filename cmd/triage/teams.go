package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "List the tracker teams",
	Long: `List the teams visible to the tracker credential. Put the id of the
team to triage into team_id in triage.yaml.`,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustLoadApp()
		defer a.Close()

		teams, err := a.store.ListTeams(context.Background())
		if err != nil {
			exitWithError(err)
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		out := cmd.OutOrStdout()

		if len(teams) == 0 {
			fmt.Fprintf(out, "%s\n", gray("No teams"))
			return
		}
		for _, team := range teams {
			marker := " "
			if team.ID == a.cfg.TeamID {
				marker = green("*")
			}
			fmt.Fprintf(out, "%s %-8s %-24s %s\n", marker, cyan(team.Key), team.Name, gray(team.ID))
		}
	},
}

var teamsAddCmd = &cobra.Command{
	Use:   "add KEY NAME",
	Short: "Create a team in the local tracker",
	Long: `Create a team in the local sqlite tracker. When no database exists yet one
is created under .triage/ in the working directory.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadApp(true)
		if err != nil {
			exitWithError(err)
		}
		defer a.Close()

		local, err := a.localStore()
		if err != nil {
			exitWithError(err)
		}
		team, err := local.CreateTeam(context.Background(), args[0], args[1])
		if err != nil {
			exitWithError(err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(cmd.OutOrStdout(), "%s Created team %s (%s)\n", green("✓"), team.Key, team.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "  Set team_id: %s in triage.yaml to triage into it\n", team.ID)
	},
}

func init() {
	teamsCmd.AddCommand(teamsAddCmd)
	rootCmd.AddCommand(teamsCmd)
}
