// Package repl is an interactive shell for pasting support conversations
// and triaging them one at a time.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/steveyegge/triage/internal/report"
	"github.com/steveyegge/triage/internal/samples"
	"github.com/steveyegge/triage/internal/types"
)

// Runner triages one conversation
type Runner interface {
	Run(ctx context.Context, conv types.Conversation) (*types.Outcome, error)
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

// errExit is returned by the exit command to stop the loop
var errExit = errors.New("exit")

// REPL represents the interactive shell.
//
// Lines are collected into a conversation until a blank line, which
// submits it. Lines starting with "/" are commands and only run when no
// conversation is being collected.
type REPL struct {
	runner   Runner
	out      io.Writer
	ctx      context.Context
	json     bool
	pending  []string
	commands map[string]CommandHandler
}

// Config holds REPL configuration
type Config struct {
	Runner Runner
	Out    io.Writer // Default: os.Stdout
	JSON   bool      // Print outcomes as JSON instead of text
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}

	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	r := &REPL{
		runner:   cfg.Runner,
		out:      out,
		ctx:      context.Background(),
		json:     cfg.JSON,
		commands: make(map[string]CommandHandler),
	}
	r.registerCommands()
	return r, nil
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("triage> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	r.printWelcome()

	for {
		if len(r.pending) > 0 {
			rl.SetPrompt(cyan("  ...> "))
		} else {
			rl.SetPrompt(cyan("triage> "))
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				// Ctrl+C drops the conversation being collected
				r.pending = nil
				continue
			} else if err == io.EOF {
				// Ctrl+D submits what was collected, then exits
				if len(r.pending) > 0 {
					if err := r.submit(); err != nil {
						fmt.Fprintf(r.out, "Error: %v\n", err)
					}
				}
				fmt.Fprintln(r.out, "\nGoodbye!")
				return nil
			}
			return err
		}

		if err := r.HandleLine(line); err != nil {
			if err == errExit {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(r.out, "%s %v\n", red("Error:"), err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// HandleLine processes one line of input
func (r *REPL) HandleLine(line string) error {
	trimmed := strings.TrimSpace(line)

	if trimmed == "" {
		if len(r.pending) == 0 {
			return nil
		}
		return r.submit()
	}

	if len(r.pending) == 0 && strings.HasPrefix(trimmed, "/") {
		parts := strings.Fields(trimmed)
		handler, ok := r.commands[parts[0]]
		if !ok {
			return fmt.Errorf("unknown command %s (try /help)", parts[0])
		}
		return handler(parts[1:])
	}

	r.pending = append(r.pending, line)
	return nil
}

// submit triages the collected conversation and prints the outcome
func (r *REPL) submit() error {
	conv := types.Conversation(strings.Join(r.pending, "\n"))
	r.pending = nil
	return r.triage(conv)
}

func (r *REPL) triage(conv types.Conversation) error {
	outcome, err := r.runner.Run(r.ctx, conv)
	if err != nil {
		return err
	}
	rec, err := report.FromOutcome(outcome)
	if err != nil {
		return err
	}
	if r.json {
		return report.WriteJSON(r.out, rec)
	}
	return report.WriteText(r.out, rec)
}

// registerCommands registers all built-in commands
func (r *REPL) registerCommands() {
	r.commands["/help"] = r.cmdHelp
	r.commands["/?"] = r.cmdHelp
	r.commands["/exit"] = r.cmdExit
	r.commands["/quit"] = r.cmdExit
	r.commands["/samples"] = r.cmdSamples
	r.commands["/sample"] = r.cmdSample
	r.commands["/json"] = r.cmdJSON
}

// printWelcome prints the welcome message
func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n", cyan("triage: support conversation triage"))
	fmt.Fprintln(r.out, "Paste a conversation and finish it with a blank line.")
	fmt.Fprintln(r.out, "Type /help for commands, /exit to quit")
	fmt.Fprintln(r.out)
}

// cmdHelp shows help information
func (r *REPL) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n\n", cyan("Available Commands:"))

	commands := []struct {
		name string
		desc string
	}{
		{"/help, /?", "Show this help message"},
		{"/samples", "List the built-in sample conversations"},
		{"/sample NAME", "Triage a built-in sample conversation"},
		{"/json", "Toggle JSON output"},
		{"/exit, /quit", "Exit the REPL"},
	}
	for _, cmd := range commands {
		fmt.Fprintf(r.out, "  %-14s %s\n", green(cmd.name), cmd.desc)
	}
	fmt.Fprintln(r.out)
	return nil
}

// cmdSamples lists sample names
func (r *REPL) cmdSamples(args []string) error {
	for _, name := range samples.Names() {
		fmt.Fprintf(r.out, "  %s\n", name)
	}
	return nil
}

// cmdSample triages a named sample
func (r *REPL) cmdSample(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /sample NAME")
	}
	sample, err := samples.Get(args[0])
	if err != nil {
		return err
	}
	gray := color.New(color.FgHiBlack).SprintFunc()
	fmt.Fprintf(r.out, "%s\n", gray(sample.Conversation))
	return r.triage(sample.Conversation)
}

// cmdJSON toggles JSON output
func (r *REPL) cmdJSON(args []string) error {
	r.json = !r.json
	fmt.Fprintf(r.out, "JSON output: %t\n", r.json)
	return nil
}

// cmdExit exits the REPL
func (r *REPL) cmdExit(args []string) error {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s Goodbye!\n", green("✓"))
	return errExit
}
