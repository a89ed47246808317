package deduplication

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/steveyegge/triage/internal/ai"
	"github.com/steveyegge/triage/internal/types"
)

// ToolUpdateTicket is the only tool declared to the engine during matching
const ToolUpdateTicket = "update_ticket"

// UpdateTicketTool declares update_ticket. Both parameters are optional;
// an omitted one keeps the ticket's current value.
var UpdateTicketTool = types.ToolSchema{
	Name:        ToolUpdateTicket,
	Description: "Update the existing ticket because the conversation reports the same issue.",
	Parameters: []types.ToolParameter{
		{
			Name:        "new_title",
			Type:        types.ParamString,
			Description: "The updated ticket title.",
		},
		{
			Name:        "new_description",
			Type:        types.ParamString,
			Description: "The updated ticket description, noting how many times users have reported the issue.",
		},
	},
}

// AIDeduplicator implements Matcher with one reasoning engine call per ticket
type AIDeduplicator struct {
	engine ai.Engine
	config Config
	logger *slog.Logger
}

// Compile-time check that AIDeduplicator implements Matcher
var _ Matcher = (*AIDeduplicator)(nil)

// NewAIDeduplicator creates a new engine-backed matcher
func NewAIDeduplicator(engine ai.Engine, config Config, logger *slog.Logger) (*AIDeduplicator, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := UpdateTicketTool.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tool schema: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AIDeduplicator{
		engine: engine,
		config: config,
		logger: logger,
	}, nil
}

// Match asks the engine whether candidate and ticket describe the same
// issue. Engine errors are returned unchanged in meaning; the caller aborts.
func (d *AIDeduplicator) Match(ctx context.Context, candidate Candidate, ticket *types.Ticket) (*MatchResult, error) {
	if ticket == nil {
		return nil, fmt.Errorf("ticket cannot be nil")
	}
	if err := candidate.Validate(); err != nil {
		return nil, fmt.Errorf("invalid candidate: %w", err)
	}

	startTime := time.Now()
	resp, err := d.engine.Classify(ctx, BuildMatchPrompt(candidate, ticket), []types.ToolSchema{UpdateTicketTool})
	if err != nil {
		return nil, fmt.Errorf("comparing with ticket %s: %w", ticket.ID, err)
	}

	result := decodeMatch(resp)

	d.logger.Debug("dedup comparison",
		"ticket_id", ticket.ID,
		"match", result.IsMatch,
		"new_title", result.NewTitle != nil,
		"new_description", result.NewDescription != nil,
		"duration", time.Since(startTime))

	return result, nil
}

// decodeMatch maps an engine response to a match result. The first
// update_ticket call wins; calls to undeclared tools are ignored.
func decodeMatch(resp *types.EngineResponse) *MatchResult {
	for _, call := range resp.ToolCalls {
		if call.Name != ToolUpdateTicket {
			continue
		}
		return &MatchResult{
			IsMatch:        true,
			NewTitle:       normalizedArg(call, "new_title"),
			NewDescription: normalizedArg(call, "new_description"),
			Reasoning:      resp.Text,
			Usage:          resp.Usage,
		}
	}
	return NoMatch(resp.Text, resp.Usage)
}

// normalizedArg returns a quote-normalized copy of a string argument. A
// missing, non-string or blank argument is treated as omitted.
func normalizedArg(call types.ToolCall, name string) *string {
	value, ok := call.StringArg(name)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	normalized := NormalizeQuotes(value)
	return &normalized
}
