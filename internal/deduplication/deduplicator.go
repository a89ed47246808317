package deduplication

import (
	"context"
	"fmt"
	"strings"

	"github.com/steveyegge/triage/internal/types"
)

// Matcher decides whether a candidate is the same issue as one ticket.
//
// Example usage:
//
//	matcher, _ := NewAIDeduplicator(engine, DefaultConfig(), logger)
//	for _, ticket := range cfg.Candidates(backlog) {
//	    result, err := matcher.Match(ctx, candidate, ticket)
//	    if err != nil {
//	        return err
//	    }
//	    if result.IsMatch {
//	        store.UpdateIssue(ctx, ticket.ID, result.Update())
//	        break
//	    }
//	}
type Matcher interface {
	Match(ctx context.Context, candidate Candidate, ticket *types.Ticket) (*MatchResult, error)
}

// Candidate is the conversation under triage together with the summary the
// classifier produced for it
type Candidate struct {
	Conversation types.Conversation `json:"conversation"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
}

// Validate checks that the candidate carries something to compare
func (c Candidate) Validate() error {
	if c.Conversation.IsBlank() {
		return fmt.Errorf("conversation cannot be blank")
	}
	return nil
}

// MatchResult is the outcome of comparing a candidate with one ticket
type MatchResult struct {
	// IsMatch is true when the engine asked to update the ticket
	IsMatch bool `json:"is_match"`

	// NewTitle and NewDescription are the engine's rewrites, quote
	// normalized. Nil means keep the current value.
	NewTitle       *string `json:"new_title,omitempty"`
	NewDescription *string `json:"new_description,omitempty"`

	// Reasoning is any free text the engine returned alongside its choice
	Reasoning string `json:"reasoning,omitempty"`

	Usage types.Usage `json:"usage"`
}

// NoMatch returns a result that leaves the ticket alone
func NoMatch(reasoning string, usage types.Usage) *MatchResult {
	return &MatchResult{Reasoning: reasoning, Usage: usage}
}

// Validate checks if the match result is consistent
func (r *MatchResult) Validate() error {
	if !r.IsMatch && (r.NewTitle != nil || r.NewDescription != nil) {
		return fmt.Errorf("new fields must not be set when is_match is false")
	}
	if r.NewTitle != nil && strings.Contains(*r.NewTitle, `"`) {
		return fmt.Errorf("new_title contains an unnormalized double quote")
	}
	if r.NewDescription != nil && strings.Contains(*r.NewDescription, `"`) {
		return fmt.Errorf("new_description contains an unnormalized double quote")
	}
	return nil
}

// Update converts a match into the tracker's partial update
func (r *MatchResult) Update() types.TicketUpdate {
	return types.TicketUpdate{Title: r.NewTitle, Description: r.NewDescription}
}

// NormalizeQuotes replaces every double quote with a single quote
func NormalizeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `'`)
}
