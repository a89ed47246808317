// Package aitest provides a deterministic ai.Engine for tests.
package aitest

import (
	"context"
	"fmt"
	"sync"

	"github.com/steveyegge/triage/internal/ai"
	"github.com/steveyegge/triage/internal/types"
)

// Responder produces the scripted reply for one call
type Responder func(prompt string, tools []types.ToolSchema) (*types.EngineResponse, error)

// Call records one Classify invocation
type Call struct {
	Prompt string
	Tools  []types.ToolSchema
}

// StubEngine replays scripted responses in order. When the script is
// exhausted it falls back to Default, or to a plain-text reply.
type StubEngine struct {
	mu      sync.Mutex
	script  []Responder
	Default Responder
	calls   []Call
}

var _ ai.Engine = (*StubEngine)(nil)

// NewStub creates a stub that returns the given responders in order
func NewStub(script ...Responder) *StubEngine {
	return &StubEngine{script: script}
}

// Classify implements ai.Engine
func (s *StubEngine) Classify(ctx context.Context, prompt string, tools []types.ToolSchema) (*types.EngineResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	idx := len(s.calls)
	s.calls = append(s.calls, Call{Prompt: prompt, Tools: tools})
	var r Responder
	if idx < len(s.script) {
		r = s.script[idx]
	} else {
		r = s.Default
	}
	s.mu.Unlock()

	if r == nil {
		return Text("no action needed")(prompt, tools)
	}
	return r(prompt, tools)
}

// Calls returns a copy of the recorded calls
func (s *StubEngine) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Text replies with plain text and no tool calls
func Text(text string) Responder {
	return func(string, []types.ToolSchema) (*types.EngineResponse, error) {
		return &types.EngineResponse{Text: text, Usage: types.Usage{InputTokens: 10, OutputTokens: 5}}, nil
	}
}

// Tool replies with a single tool call
func Tool(name string, args map[string]interface{}) Responder {
	return func(string, []types.ToolSchema) (*types.EngineResponse, error) {
		return &types.EngineResponse{
			ToolCalls: []types.ToolCall{{ID: fmt.Sprintf("call_%s", name), Name: name, Arguments: args}},
			Usage:     types.Usage{InputTokens: 10, OutputTokens: 5},
		}, nil
	}
}

// Fail replies with err
func Fail(err error) Responder {
	return func(string, []types.ToolSchema) (*types.EngineResponse, error) {
		return nil, err
	}
}

// Respond replies with a copy of resp, for multi-call or mixed replies
func Respond(resp types.EngineResponse) Responder {
	return func(string, []types.ToolSchema) (*types.EngineResponse, error) {
		out := resp
		return &out, nil
	}
}
