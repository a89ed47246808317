// Package ai is the reasoning engine client. Every model call in triage
// goes through the Engine interface so prompts and tools can be exercised
// against a deterministic stub in tests.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/steveyegge/triage/internal/types"
	"golang.org/x/time/rate"
)

// Model defaults per provider. Both can be overridden with TRIAGE_MODEL.
const (
	// ModelSonnet is the default Anthropic model
	ModelSonnet = "claude-sonnet-4-5-20250929"

	// ModelGPT4o is the default OpenAI model
	ModelGPT4o = "gpt-4o"
)

// Provider names the remote reasoning service
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// IsValid checks if the provider value is valid
func (p Provider) IsValid() bool {
	switch p {
	case ProviderAnthropic, ProviderOpenAI:
		return true
	}
	return false
}

// DefaultModel returns the model for a provider, checking TRIAGE_MODEL first
func DefaultModel(p Provider) string {
	if model := os.Getenv("TRIAGE_MODEL"); model != "" {
		return model
	}
	if p == ProviderOpenAI {
		return ModelGPT4o
	}
	return ModelSonnet
}

// ErrMalformedToolCall is returned when the engine requests a tool with
// arguments that are not a JSON object.
var ErrMalformedToolCall = errors.New("malformed tool call arguments")

// Engine asks a reasoning service to pick among declared tools.
//
// Selection is delegated entirely to the remote service and is not
// deterministic: the same prompt may yield different tool calls, or none.
// Errors are not retried.
type Engine interface {
	Classify(ctx context.Context, prompt string, tools []types.ToolSchema) (*types.EngineResponse, error)
}

// Config holds engine configuration
type Config struct {
	Provider  Provider
	APIKey    string // Required; read from the reasoning key file at startup
	Model     string // Defaults to DefaultModel(Provider)
	BaseURL   string // Optional API endpoint override
	MaxTokens int    // Default: 1024

	// RateLimit caps engine calls per second (0 = unlimited). A dedup scan
	// makes one call per backlog ticket.
	RateLimit float64

	// RequestTimeout bounds each call (0 = no timeout)
	RequestTimeout time.Duration

	Logger *slog.Logger
}

// NewEngine builds the engine for cfg.Provider, wrapped with the
// configured rate limit and timeout.
func NewEngine(cfg Config) (Engine, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("reasoning engine API key is required")
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderAnthropic
	}
	if !cfg.Provider.IsValid() {
		return nil, fmt.Errorf("unknown reasoning provider: %q", cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel(cfg.Provider)
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var engine Engine = NewAnthropicEngine(cfg)
	if cfg.Provider == ProviderOpenAI {
		engine = NewOpenAIEngine(cfg)
	}

	return Throttle(engine, cfg.RateLimit, cfg.RequestTimeout), nil
}

// throttledEngine applies a rate limit and per-call timeout to another engine
type throttledEngine struct {
	next    Engine
	limiter *rate.Limiter
	timeout time.Duration
}

// Throttle wraps an engine so each call waits on a token bucket of
// callsPerSecond (0 disables it) and runs under timeout (0 disables it).
func Throttle(next Engine, callsPerSecond float64, timeout time.Duration) Engine {
	if callsPerSecond <= 0 && timeout <= 0 {
		return next
	}
	t := &throttledEngine{next: next, timeout: timeout}
	if callsPerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(callsPerSecond), 1)
	}
	return t
}

func (t *throttledEngine) Classify(ctx context.Context, prompt string, tools []types.ToolSchema) (*types.EngineResponse, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.next.Classify(ctx, prompt, tools)
}

// truncateString keeps the first maxLen runes of s for error messages
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := 0
	for i := range s {
		if runes == maxLen {
			return s[:i] + "..."
		}
		runes++
	}
	return s
}
