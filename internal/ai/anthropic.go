package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/steveyegge/triage/internal/types"
)

// AnthropicEngine implements Engine with Claude tool use
type AnthropicEngine struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

// Compile-time check that AnthropicEngine implements Engine
var _ Engine = (*AnthropicEngine)(nil)

// NewAnthropicEngine creates an engine backed by the Anthropic Messages API.
// SDK retries are disabled; a failed call aborts the run.
func NewAnthropicEngine(cfg Config) *AnthropicEngine {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel(ProviderAnthropic)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	return &AnthropicEngine{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Classify sends prompt with the declared tools and returns the text and
// tool_use blocks of the reply.
func (e *AnthropicEngine) Classify(ctx context.Context, prompt string, tools []types.ToolSchema) (*types.EngineResponse, error) {
	startTime := time.Now()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: int64(e.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if len(tools) > 0 {
		params.Tools = anthropicTools(tools)
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	}

	response, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	result := &types.EngineResponse{
		Usage: types.Usage{
			InputTokens:  response.Usage.InputTokens,
			OutputTokens: response.Usage.OutputTokens,
		},
	}

	for _, block := range response.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			result.Text += variant.Text
		case anthropic.ToolUseBlock:
			args, err := decodeArguments(variant.Input)
			if err != nil {
				return nil, fmt.Errorf("tool %s: %w (input: %s)", variant.Name, err, truncateString(string(variant.Input), 200))
			}
			result.ToolCalls = append(result.ToolCalls, types.ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: args,
			})
		}
	}

	e.logger.Debug("anthropic call",
		"model", e.model,
		"stop_reason", string(response.StopReason),
		"tool_calls", len(result.ToolCalls),
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens,
		"duration", time.Since(startTime))

	return result, nil
}

// anthropicTools converts tool schemas into the SDK's tool params
func anthropicTools(tools []types.ToolSchema) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i := range tools {
		tool := anthropic.ToolParam{
			Name:        tools[i].Name,
			Description: anthropic.String(tools[i].Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: tools[i].Properties(),
				Required:   tools[i].RequiredNames(),
			},
		}
		out[i] = anthropic.ToolUnionParam{OfTool: &tool}
	}
	return out
}

// decodeArguments parses a tool call's JSON arguments into a map.
// An empty payload means no arguments.
func decodeArguments(raw []byte) (map[string]interface{}, error) {
	args := map[string]interface{}{}
	if len(raw) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToolCall, err)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return args, nil
}
