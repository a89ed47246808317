// Package triage runs a conversation through classification, backlog
// deduplication and the single resulting tracker mutation.
package triage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/steveyegge/triage/internal/deduplication"
	"github.com/steveyegge/triage/internal/storage"
	"github.com/steveyegge/triage/internal/types"
)

// Orchestrator creates or updates exactly one ticket for a reportable
// conversation.
//
// The backlog is fetched fresh on every call and walked in tracker order.
// The first ticket the matcher accepts is updated and the scan stops; if
// none matches a new ticket is created. Concurrent orchestrators working
// on the same team are not coordinated.
type Orchestrator struct {
	store   storage.Storage
	matcher deduplication.Matcher
	teamID  string
	config  deduplication.Config
	logger  *slog.Logger
}

// NewOrchestrator creates an orchestrator for one team
func NewOrchestrator(store storage.Storage, matcher deduplication.Matcher, teamID string, config deduplication.Config, logger *slog.Logger) (*Orchestrator, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if matcher == nil {
		return nil, fmt.Errorf("matcher cannot be nil")
	}
	if teamID == "" {
		return nil, fmt.Errorf("team id is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dedup config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("dedup settings", "team_id", teamID, "config", config.String())
	return &Orchestrator{
		store:   store,
		matcher: matcher,
		teamID:  teamID,
		config:  config,
		logger:  logger,
	}, nil
}

// Upsert runs the dedup scan for report and performs the one mutation.
// Any collaborator error aborts before a mutation is attempted.
func (o *Orchestrator) Upsert(ctx context.Context, conv types.Conversation, report types.Reportable) (*types.Outcome, error) {
	startTime := time.Now()

	backlog, err := o.store.ListIssues(ctx, o.teamID)
	if err != nil {
		return nil, fmt.Errorf("fetching backlog: %w", err)
	}

	candidate := deduplication.Candidate{
		Conversation: conv,
		Title:        report.Title,
		Description:  report.Description,
	}
	stats := types.RunStats{BacklogSize: len(backlog)}

	for _, ticket := range o.config.Candidates(backlog) {
		result, err := o.matcher.Match(ctx, candidate, ticket)
		stats.ComparisonsMade++
		stats.AICallsMade++
		if err != nil {
			return nil, fmt.Errorf("dedup scan: %w", err)
		}
		if err := result.Validate(); err != nil {
			return nil, fmt.Errorf("dedup scan: ticket %s: %w", ticket.ID, err)
		}
		stats.Usage.Add(result.Usage)

		if !result.IsMatch {
			continue
		}

		update := result.Update()
		updated, err := o.store.UpdateIssue(ctx, ticket.ID, update)
		if err != nil {
			return nil, fmt.Errorf("updating ticket %s: %w", ticket.ID, err)
		}
		o.logger.Info("updated existing ticket",
			"ticket_id", updated.ID,
			"identifier", updated.Identifier,
			"fields_changed", !update.IsEmpty(),
			"position", stats.ComparisonsMade,
			"backlog_size", stats.BacklogSize)

		outcome := types.Updated(updated)
		stats.Duration = time.Since(startTime)
		outcome.Stats = stats
		return outcome, nil
	}

	created, err := o.store.CreateIssue(ctx, report.Title, report.Description, o.teamID)
	if err != nil {
		return nil, fmt.Errorf("creating ticket: %w", err)
	}
	o.logger.Info("created ticket",
		"ticket_id", created.ID,
		"identifier", created.Identifier,
		"compared", stats.ComparisonsMade)

	outcome := types.Created(created)
	stats.Duration = time.Since(startTime)
	outcome.Stats = stats
	return outcome, nil
}
