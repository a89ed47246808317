// Package report renders the outcome of a triage run for people and for
// machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/steveyegge/triage/internal/types"
)

// Action is the user-facing name of an outcome kind
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
)

// DefaultSkipReason is shown when a skipped outcome carries no reason
const DefaultSkipReason = "conversation did not describe a reportable issue"

// Record is the flattened, serializable form of an outcome
type Record struct {
	RunID       string         `json:"run_id"`
	Action      Action         `json:"action"`
	TicketID    string         `json:"ticket_id,omitempty"`
	Identifier  string         `json:"identifier,omitempty"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Detail      string         `json:"detail,omitempty"`
	Stats       types.RunStats `json:"stats"`
}

// FromOutcome converts an outcome into a record
func FromOutcome(o *types.Outcome) (Record, error) {
	if o == nil {
		return Record{}, fmt.Errorf("outcome cannot be nil")
	}
	if !o.Kind.IsValid() {
		return Record{}, fmt.Errorf("invalid outcome kind: %q", o.Kind)
	}

	rec := Record{
		RunID:  o.RunID,
		Action: Action(o.Kind),
		Stats:  o.Stats,
	}

	switch o.Kind {
	case types.OutcomeCreated, types.OutcomeUpdated:
		if o.Ticket == nil {
			return Record{}, fmt.Errorf("%s outcome has no ticket", o.Kind)
		}
		rec.TicketID = o.Ticket.ID
		rec.Identifier = o.Ticket.Identifier
		rec.Title = o.Ticket.Title
		rec.Description = o.Ticket.Description
		rec.URL = o.Ticket.URL
	case types.OutcomeSkipped:
		rec.Reason = o.Reason
		if strings.TrimSpace(rec.Reason) == "" {
			rec.Reason = DefaultSkipReason
		}
		rec.Detail = strings.TrimSpace(o.Detail)
	}
	return rec, nil
}

// WriteJSON writes the record as one indented JSON document
func WriteJSON(w io.Writer, rec Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// WriteText writes a short colored summary of the record
func WriteText(w io.Writer, rec Record) error {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	var b strings.Builder
	switch rec.Action {
	case ActionCreated:
		fmt.Fprintf(&b, "%s Created ticket %s\n", green("✓"), cyan(ticketLabel(rec)))
	case ActionUpdated:
		fmt.Fprintf(&b, "%s Updated ticket %s\n", green("✓"), cyan(ticketLabel(rec)))
	case ActionSkipped:
		fmt.Fprintf(&b, "%s Skipped: %s\n", yellow("→"), rec.Reason)
		if rec.Detail != "" {
			fmt.Fprintf(&b, "  Detail: %s\n", indent(rec.Detail, "    "))
		}
	default:
		return fmt.Errorf("unknown action %q", rec.Action)
	}

	if rec.Action != ActionSkipped {
		fmt.Fprintf(&b, "  Title: %s\n", rec.Title)
		if rec.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", indent(rec.Description, "    "))
		}
		if rec.URL != "" {
			fmt.Fprintf(&b, "  URL: %s\n", rec.URL)
		}
	}

	fmt.Fprintf(&b, "  %s\n", gray(fmt.Sprintf("run %s | backlog %d | compared %d | ai calls %d | tokens %d in / %d out | %s",
		rec.RunID,
		rec.Stats.BacklogSize,
		rec.Stats.ComparisonsMade,
		rec.Stats.AICallsMade,
		rec.Stats.Usage.InputTokens,
		rec.Stats.Usage.OutputTokens,
		rec.Stats.Duration.Round(time.Millisecond))))

	_, err := io.WriteString(w, b.String())
	return err
}

func ticketLabel(rec Record) string {
	if rec.Identifier != "" {
		return rec.Identifier
	}
	return rec.TicketID
}

// indent puts continuation lines of a multi-line value under the first
func indent(s, prefix string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n"+prefix)
}
