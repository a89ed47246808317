// Package classifier makes the entry decision of a triage run: does the
// conversation describe a bug report or feature request at all.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/steveyegge/triage/internal/ai"
	"github.com/steveyegge/triage/internal/types"
)

// ErrIncompleteReport is returned when the engine chose report_issue but
// left the title or description missing or blank. The run stops without
// touching the tracker.
var ErrIncompleteReport = errors.New("reportable issue is missing a title or description")

// Classifier asks the reasoning engine to pick report_issue or
// dismiss_conversation for one conversation
type Classifier struct {
	engine   ai.Engine
	validate *validator.Validate
	logger   *slog.Logger
}

// New creates a classifier backed by engine
func New(engine ai.Engine, logger *slog.Logger) (*Classifier, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	for _, tool := range Tools() {
		if err := tool.Validate(); err != nil {
			return nil, fmt.Errorf("invalid tool schema: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		engine:   engine,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}, nil
}

// Classify makes one engine call and returns the decision together with
// the tokens it used
func (c *Classifier) Classify(ctx context.Context, conv types.Conversation) (types.Decision, types.Usage, error) {
	if conv.IsBlank() {
		return nil, types.Usage{}, fmt.Errorf("conversation cannot be blank")
	}

	startTime := time.Now()
	resp, err := c.engine.Classify(ctx, BuildPrompt(conv), Tools())
	if err != nil {
		return nil, types.Usage{}, fmt.Errorf("classifying conversation: %w", err)
	}

	decision, err := DecodeDecision(resp, c.validate)
	if err != nil {
		return nil, resp.Usage, err
	}

	c.logger.Debug("classified conversation",
		"decision", Describe(decision),
		"tool_calls", len(resp.ToolCalls),
		"duration", time.Since(startTime))

	return decision, resp.Usage, nil
}

// DecodeDecision maps an engine response onto the tagged decision. The
// first call to a declared tool wins; undeclared tools are ignored. A nil
// validate skips struct validation of reportable arguments but blank
// fields are still rejected.
func DecodeDecision(resp *types.EngineResponse, validate *validator.Validate) (types.Decision, error) {
	for _, call := range resp.ToolCalls {
		switch call.Name {
		case ToolReportIssue:
			return decodeReportable(call, validate)
		case ToolDismissConversation:
			description, _ := call.StringArg("description")
			return types.NonIssue{Description: strings.TrimSpace(description)}, nil
		}
	}

	reason := "engine selected no action"
	if resp.HasToolCalls() {
		reason = fmt.Sprintf("engine called undeclared tool %q", resp.ToolCalls[0].Name)
	}
	return types.Unrecognized{Reason: reason}, nil
}

func decodeReportable(call types.ToolCall, validate *validator.Validate) (types.Decision, error) {
	title, _ := call.StringArg("title")
	description, _ := call.StringArg("description")
	report := types.Reportable{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
	}

	if validate != nil {
		if err := validate.Struct(report); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIncompleteReport, err)
		}
	} else if report.Title == "" || report.Description == "" {
		return nil, ErrIncompleteReport
	}
	return report, nil
}

// Describe returns a short label for a decision, for logs and reports
func Describe(d types.Decision) string {
	switch d := d.(type) {
	case types.Reportable:
		return "reportable"
	case types.NonIssue:
		return "non-issue"
	case types.Unrecognized:
		return "unrecognized"
	default:
		panic(fmt.Sprintf("unhandled decision type %T", d))
	}
}
