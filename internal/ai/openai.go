package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/steveyegge/triage/internal/types"
)

// OpenAIEngine implements Engine with OpenAI function calling
type OpenAIEngine struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

// Compile-time check that OpenAIEngine implements Engine
var _ Engine = (*OpenAIEngine)(nil)

// NewOpenAIEngine creates an engine backed by the chat completions API
func NewOpenAIEngine(cfg Config) *OpenAIEngine {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel(ProviderOpenAI)
	}

	return &OpenAIEngine{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

// Classify sends prompt with tool_choice "auto" and returns the assistant
// text and tool calls of the first choice.
func (e *OpenAIEngine) Classify(ctx context.Context, prompt string, tools []types.ToolSchema) (*types.EngineResponse, error) {
	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: e.maxTokens,
	}
	if len(tools) > 0 {
		req.Tools = openaiTools(tools)
		req.ToolChoice = "auto"
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai API returned no choices")
	}

	msg := resp.Choices[0].Message
	result := &types.EngineResponse{
		Text: msg.Content,
		Usage: types.Usage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		},
	}

	for _, tc := range msg.ToolCalls {
		args, err := decodeArguments([]byte(tc.Function.Arguments))
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w (arguments: %s)", tc.Function.Name, err, truncateString(tc.Function.Arguments, 200))
		}
		result.ToolCalls = append(result.ToolCalls, types.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	e.logger.Debug("openai call",
		"model", e.model,
		"finish_reason", string(resp.Choices[0].FinishReason),
		"tool_calls", len(result.ToolCalls),
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens,
		"duration", time.Since(startTime))

	return result, nil
}

func openaiTools(tools []types.ToolSchema) []openai.Tool {
	out := make([]openai.Tool, len(tools))
	for i, t := range tools {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.JSONSchema(),
			},
		}
	}
	return out
}
