package types

import "time"

// Decision is the classifier's verdict on a conversation. It is one of
// Reportable, NonIssue or Unrecognized.
type Decision interface {
	decision()
}

// Reportable means the conversation describes a bug or feature request.
// Title and Description are summaries written by the reasoning engine.
type Reportable struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// NonIssue means the conversation needs no tracker action
type NonIssue struct {
	Description string `json:"description"`
}

// Unrecognized means the engine selected no known action
type Unrecognized struct {
	Reason string `json:"reason"`
}

func (Reportable) decision()   {}
func (NonIssue) decision()     {}
func (Unrecognized) decision() {}

// OutcomeKind is the terminal result of one triage run
type OutcomeKind string

const (
	OutcomeCreated OutcomeKind = "created"
	OutcomeUpdated OutcomeKind = "updated"
	OutcomeSkipped OutcomeKind = "skipped"
)

// IsValid checks if the outcome kind value is valid
func (k OutcomeKind) IsValid() bool {
	switch k {
	case OutcomeCreated, OutcomeUpdated, OutcomeSkipped:
		return true
	}
	return false
}

// RunStats provides metrics about one triage run
type RunStats struct {
	// BacklogSize is the number of tickets fetched from the tracker
	BacklogSize int `json:"backlog_size"`

	// ComparisonsMade is the number of tickets the matcher examined
	ComparisonsMade int `json:"comparisons_made"`

	// AICallsMade counts reasoning engine calls, classifier included
	AICallsMade int `json:"ai_calls_made"`

	Usage Usage `json:"usage"`

	Duration time.Duration `json:"duration"`
}

// Outcome is the result of one full run. Ticket is set for Created and
// Updated; Reason is set for Skipped. Detail carries the engine's own
// explanation of a skip, when it gave one.
type Outcome struct {
	RunID  string      `json:"run_id"`
	Kind   OutcomeKind `json:"kind"`
	Ticket *Ticket     `json:"ticket,omitempty"`
	Reason string      `json:"reason,omitempty"`
	Detail string      `json:"detail,omitempty"`
	Stats  RunStats    `json:"stats"`
}

// Created builds a Created outcome
func Created(t *Ticket) *Outcome {
	return &Outcome{Kind: OutcomeCreated, Ticket: t}
}

// Updated builds an Updated outcome
func Updated(t *Ticket) *Outcome {
	return &Outcome{Kind: OutcomeUpdated, Ticket: t}
}

// Skipped builds a Skipped outcome
func Skipped(reason string) *Outcome {
	return &Outcome{Kind: OutcomeSkipped, Reason: reason}
}

// Mutated reports whether the run changed the tracker
func (o *Outcome) Mutated() bool {
	return o.Kind == OutcomeCreated || o.Kind == OutcomeUpdated
}
