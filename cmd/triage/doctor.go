package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/triage/internal/ai"
	"github.com/steveyegge/triage/internal/config"
	"github.com/steveyegge/triage/internal/storage"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check triage configuration and credentials",
	Long: `Run checks to diagnose common triage configuration issues.

This command checks for:
- A readable, valid configuration
- Both credential files
- Tracker connectivity and the identity behind the tracker key
- The configured team
- Reasoning engine setup (and a live call with --ping)

Exit codes:
  0 - All checks passed
  1 - One or more checks failed (but not critical)
  2 - Critical failures that prevent triage from running`,
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		ping, _ := cmd.Flags().GetBool("ping")

		results := runDoctor(context.Background(), cmd.OutOrStdout(), doctorOptions{
			verbose: verbose,
			ping:    ping,
		})
		os.Exit(results.summarize(cmd.OutOrStdout()))
	},
}

func init() {
	doctorCmd.Flags().BoolP("verbose", "v", false, "Show detailed diagnostic information")
	doctorCmd.Flags().Bool("ping", false, "Make one call to the reasoning engine")
	rootCmd.AddCommand(doctorCmd)
}

type doctorOptions struct {
	verbose bool
	ping    bool
}

// doctorResults collects check outcomes by severity
type doctorResults struct {
	critical []string
	failures []string
	warnings []string
}

// runDoctor runs every check, printing progress to w
func runDoctor(ctx context.Context, w io.Writer, opts doctorOptions) *doctorResults {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	results := &doctorResults{}
	detail := func(err error) {
		if opts.verbose {
			fmt.Fprintf(w, "    Error: %v\n", err)
		}
	}

	fmt.Fprintf(w, "Running triage checks...\n\n")

	// Check 1: Configuration
	fmt.Fprintf(w, "%s Configuration\n", cyan("→"))
	cfg, err := config.Load(configPath)
	if err != nil {
		results.critical = append(results.critical, fmt.Sprintf("Invalid configuration: %v", err))
		fmt.Fprintf(w, "  %s Cannot load configuration\n", red("✗"))
		detail(err)
		return results
	}
	fmt.Fprintf(w, "  %s Provider %s, tracker %s\n", green("✓"), cfg.Provider, cfg.Tracker)

	// Check 2: Credentials
	fmt.Fprintf(w, "%s Credentials\n", cyan("→"))
	creds, err := config.LoadCredentials(cfg)
	if err != nil {
		results.critical = append(results.critical, fmt.Sprintf("Credentials: %v", err))
		fmt.Fprintf(w, "  %s Credential files missing or empty\n", red("✗"))
		detail(err)
		return results
	}
	fmt.Fprintf(w, "  %s Key files readable\n", green("✓"))

	// Check 3: Tracker connectivity
	fmt.Fprintf(w, "%s Tracker\n", cyan("→"))
	store, err := openStore(cfg, creds, false)
	if err != nil {
		results.critical = append(results.critical, fmt.Sprintf("Cannot open tracker: %v", err))
		fmt.Fprintf(w, "  %s Cannot open tracker\n", red("✗"))
		detail(err)
		return results
	}
	defer store.Close()

	if viewer, err := store.Viewer(ctx); err != nil {
		results.critical = append(results.critical, fmt.Sprintf("Tracker rejected the credential: %v", err))
		fmt.Fprintf(w, "  %s Cannot identify tracker user\n", red("✗"))
		detail(err)
	} else {
		fmt.Fprintf(w, "  %s Authenticated as %s\n", green("✓"), viewer.Name)
	}

	// Check 4: Team
	fmt.Fprintf(w, "%s Team\n", cyan("→"))
	checkTeam(ctx, w, cfg, store, results, detail)

	// Check 5: Reasoning engine
	fmt.Fprintf(w, "%s Reasoning engine\n", cyan("→"))
	engine, err := ai.NewEngine(cfg.EngineConfig(creds))
	if err != nil {
		results.critical = append(results.critical, fmt.Sprintf("Reasoning engine: %v", err))
		fmt.Fprintf(w, "  %s Cannot configure reasoning engine\n", red("✗"))
		detail(err)
		return results
	}
	model := cfg.Model
	if model == "" {
		model = ai.DefaultModel(ai.Provider(cfg.Provider))
	}
	fmt.Fprintf(w, "  %s %s model %s\n", green("✓"), cfg.Provider, model)

	if opts.ping {
		if _, err := engine.Classify(ctx, "Reply with the single word: ok", nil); err != nil {
			results.failures = append(results.failures, fmt.Sprintf("Reasoning engine call failed: %v", err))
			fmt.Fprintf(w, "  %s Engine call failed\n", red("✗"))
			detail(err)
		} else {
			fmt.Fprintf(w, "  %s Engine answered\n", green("✓"))
		}
	} else {
		fmt.Fprintf(w, "  %s Not contacted (use --ping)\n", yellow("⚠"))
	}

	return results
}

// checkTeam verifies team_id is set and names a team the tracker knows
func checkTeam(ctx context.Context, w io.Writer, cfg *config.Config, store storage.Storage, results *doctorResults, detail func(error)) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if err := cfg.RequireTeam(); err != nil {
		results.failures = append(results.failures, "No team_id configured")
		fmt.Fprintf(w, "  %s No team configured\n", red("✗"))
		detail(err)
		return
	}

	teams, err := store.ListTeams(ctx)
	if err != nil {
		results.failures = append(results.failures, fmt.Sprintf("Cannot list teams: %v", err))
		fmt.Fprintf(w, "  %s Cannot list teams\n", red("✗"))
		detail(err)
		return
	}
	for _, team := range teams {
		if team.ID == cfg.TeamID {
			fmt.Fprintf(w, "  %s Team %s (%s)\n", green("✓"), team.Name, team.ID)
			return
		}
	}
	results.failures = append(results.failures, fmt.Sprintf("Team %s not found (run 'triage teams')", cfg.TeamID))
	fmt.Fprintf(w, "  %s Team %s not found among %d teams\n", red("✗"), cfg.TeamID, len(teams))
}

// summarize prints the outcome and returns the process exit code
func (r *doctorResults) summarize(w io.Writer) int {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("─", 60))

	if len(r.critical)+len(r.failures)+len(r.warnings) == 0 {
		fmt.Fprintf(w, "%s All checks passed! triage is ready to run.\n", green("✓"))
		return 0
	}

	if len(r.critical) > 0 {
		fmt.Fprintf(w, "\n%s Critical failures (%d):\n", red("✗"), len(r.critical))
		for _, failure := range r.critical {
			fmt.Fprintf(w, "  • %s\n", failure)
		}
	}
	if len(r.failures) > 0 {
		fmt.Fprintf(w, "\n%s Failures (%d):\n", red("✗"), len(r.failures))
		for _, failure := range r.failures {
			fmt.Fprintf(w, "  • %s\n", failure)
		}
	}
	if len(r.warnings) > 0 {
		fmt.Fprintf(w, "\n%s Warnings (%d):\n", yellow("⚠"), len(r.warnings))
		for _, warning := range r.warnings {
			fmt.Fprintf(w, "  • %s\n", warning)
		}
	}

	if len(r.critical) > 0 {
		fmt.Fprintf(w, "\n%s triage cannot run until critical issues are resolved.\n", red("✗"))
		return 2
	}
	if len(r.failures) > 0 {
		fmt.Fprintf(w, "\n%s triage may not work correctly. Please address the failures above.\n", yellow("⚠"))
		return 1
	}
	fmt.Fprintf(w, "\n%s triage should work, but some warnings were detected.\n", green("✓"))
	return 0
}
