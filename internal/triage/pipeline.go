package triage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/steveyegge/triage/internal/types"
)

// ReasonNonIssue is the reason of every Skipped outcome. What the engine
// said about the conversation goes to Outcome.Detail.
const ReasonNonIssue = "conversation did not describe a reportable issue"

// Decider is the classification step of a run
type Decider interface {
	Classify(ctx context.Context, conv types.Conversation) (types.Decision, types.Usage, error)
}

// Upserter is the create-or-update step of a run
type Upserter interface {
	Upsert(ctx context.Context, conv types.Conversation, report types.Reportable) (*types.Outcome, error)
}

// Pipeline is one full triage run: classify, then upsert when reportable
type Pipeline struct {
	decider  Decider
	upserter Upserter
	logger   *slog.Logger
}

// NewPipeline wires a classifier to an orchestrator
func NewPipeline(decider Decider, upserter Upserter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{decider: decider, upserter: upserter, logger: logger}
}

// Run triages one conversation. Each run gets its own id, carried by
// every log line and by the outcome.
func (p *Pipeline) Run(ctx context.Context, conv types.Conversation) (*types.Outcome, error) {
	runID := uuid.New().String()
	logger := p.logger.With("run_id", runID)
	startTime := time.Now()

	decision, usage, err := p.decider.Classify(ctx, conv)
	if err != nil {
		logger.Error("classification failed", "error", err)
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	var outcome *types.Outcome
	switch d := decision.(type) {
	case types.Reportable:
		logger.Info("conversation is reportable", "title", d.Title)
		outcome, err = p.upserter.Upsert(ctx, conv, d)
		if err != nil {
			logger.Error("upsert failed", "error", err)
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
	case types.NonIssue:
		logger.Info("conversation dismissed", "detail", d.Description)
		outcome = types.Skipped(ReasonNonIssue)
		outcome.Detail = d.Description
	case types.Unrecognized:
		logger.Warn("no action selected, skipping", "detail", d.Reason)
		outcome = types.Skipped(ReasonNonIssue)
		outcome.Detail = d.Reason
	default:
		return nil, fmt.Errorf("run %s: unhandled decision type %T", runID, decision)
	}

	outcome.RunID = runID
	outcome.Stats.AICallsMade++
	outcome.Stats.Usage.Add(usage)
	outcome.Stats.Duration = time.Since(startTime)

	logger.Info("run finished",
		"outcome", string(outcome.Kind),
		"ai_calls", outcome.Stats.AICallsMade,
		"input_tokens", outcome.Stats.Usage.InputTokens,
		"output_tokens", outcome.Stats.Usage.OutputTokens,
		"duration", outcome.Stats.Duration)

	return outcome, nil
}
