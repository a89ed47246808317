package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/steveyegge/triage/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportTool = types.ToolSchema{
	Name:        "report_issue",
	Description: "File a ticket",
	Parameters: []types.ToolParameter{
		{Name: "title", Type: types.ParamString, Description: "Title", Required: true},
		{Name: "description", Type: types.ParamString, Description: "Body", Required: true},
	},
}

func TestNewEngineValidation(t *testing.T) {
	_, err := NewEngine(Config{Provider: ProviderAnthropic})
	assert.Error(t, err, "missing API key should fail")

	_, err = NewEngine(Config{Provider: "bard", APIKey: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown reasoning provider")

	engine, err := NewEngine(Config{Provider: ProviderOpenAI, APIKey: "k"})
	require.NoError(t, err)
	_, ok := engine.(*OpenAIEngine)
	assert.True(t, ok, "no limit and no timeout should return the bare engine")

	engine, err = NewEngine(Config{APIKey: "k", RateLimit: 2})
	require.NoError(t, err)
	_, ok = engine.(*throttledEngine)
	assert.True(t, ok, "rate limit should wrap the engine")
}

func TestDefaultModel(t *testing.T) {
	t.Setenv("TRIAGE_MODEL", "")
	assert.Equal(t, ModelSonnet, DefaultModel(ProviderAnthropic))
	assert.Equal(t, ModelGPT4o, DefaultModel(ProviderOpenAI))

	t.Setenv("TRIAGE_MODEL", "custom-model")
	assert.Equal(t, "custom-model", DefaultModel(ProviderOpenAI))
}

func TestOpenAIEngineToolCalls(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "report_issue", "arguments": "{\"title\":\"Address change broken\",\"description\":\"User cannot change delivery address\"}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
		}`)
	}))
	defer server.Close()

	engine := NewOpenAIEngine(Config{APIKey: "test-key", BaseURL: server.URL, Model: "gpt-4o"})
	resp, err := engine.Classify(context.Background(), "classify this", []types.ToolSchema{reportTool})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	call := resp.ToolCalls[0]
	assert.Equal(t, "report_issue", call.Name)
	title, ok := call.StringArg("title")
	assert.True(t, ok)
	assert.Equal(t, "Address change broken", title)
	assert.Equal(t, int64(42), resp.Usage.InputTokens)
	assert.Equal(t, int64(7), resp.Usage.OutputTokens)

	assert.Equal(t, "auto", gotBody["tool_choice"])
	tools, ok := gotBody["tools"].([]interface{})
	require.True(t, ok)
	assert.Len(t, tools, 1)
}

func TestOpenAIEngineMalformedArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"choices": [{
				"index": 0,
				"message": {
					"role": "assistant",
					"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "report_issue", "arguments": "{not json"}}]
				}
			}]
		}`)
	}))
	defer server.Close()

	engine := NewOpenAIEngine(Config{APIKey: "k", BaseURL: server.URL})
	_, err := engine.Classify(context.Background(), "p", []types.ToolSchema{reportTool})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedToolCall), "expected ErrMalformedToolCall, got %v", err)
}

func TestOpenAIEngineTransportErrorNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error": {"message": "overloaded", "type": "server_error"}}`)
	}))
	defer server.Close()

	engine := NewOpenAIEngine(Config{APIKey: "k", BaseURL: server.URL})
	_, err := engine.Classify(context.Background(), "p", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestAnthropicEngineToolUse(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), "unexpected path %s", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5-20250929",
			"stop_reason": "tool_use",
			"content": [
				{"type": "text", "text": "Filing a ticket."},
				{"type": "tool_use", "id": "toolu_1", "name": "report_issue", "input": {"title": "Profile picture upload fails", "description": "User cannot change profile picture"}}
			],
			"usage": {"input_tokens": 100, "output_tokens": 20}
		}`)
	}))
	defer server.Close()

	engine := NewAnthropicEngine(Config{APIKey: "test-key", BaseURL: server.URL})
	resp, err := engine.Classify(context.Background(), "classify", []types.ToolSchema{reportTool})
	require.NoError(t, err)

	assert.Equal(t, "Filing a ticket.", resp.Text)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.ToolCalls[0].ID)
	desc, _ := resp.ToolCalls[0].StringArg("description")
	assert.Equal(t, "User cannot change profile picture", desc)
	assert.Equal(t, int64(100), resp.Usage.InputTokens)

	choice, ok := gotBody["tool_choice"].(map[string]interface{})
	require.True(t, ok, "tool_choice should be sent")
	assert.Equal(t, "auto", choice["type"])
}

func TestAnthropicEngineTextOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_2", "type": "message", "role": "assistant", "model": "m",
			"stop_reason": "end_turn",
			"content": [{"type": "text", "text": "Nothing to file."}],
			"usage": {"input_tokens": 5, "output_tokens": 3}
		}`)
	}))
	defer server.Close()

	engine := NewAnthropicEngine(Config{APIKey: "k", BaseURL: server.URL})
	resp, err := engine.Classify(context.Background(), "classify", []types.ToolSchema{reportTool})
	require.NoError(t, err)
	assert.False(t, resp.HasToolCalls())
	assert.Equal(t, "Nothing to file.", resp.Text)
}

type countingEngine struct {
	calls    int32
	deadline bool
}

func (c *countingEngine) Classify(ctx context.Context, prompt string, tools []types.ToolSchema) (*types.EngineResponse, error) {
	atomic.AddInt32(&c.calls, 1)
	_, c.deadline = ctx.Deadline()
	return &types.EngineResponse{Text: "ok"}, nil
}

func TestThrottle(t *testing.T) {
	inner := &countingEngine{}
	assert.Same(t, Engine(inner), Throttle(inner, 0, 0), "zero limits should not wrap")

	wrapped := Throttle(inner, 1000, time.Second)
	for i := 0; i < 3; i++ {
		_, err := wrapped.Classify(context.Background(), "p", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&inner.calls))
	assert.True(t, inner.deadline, "timeout should set a context deadline")
}

func TestThrottleCanceledContext(t *testing.T) {
	inner := &countingEngine{}
	wrapped := Throttle(inner, 0.001, 0)

	// Drain the single burst token
	_, err := wrapped.Classify(context.Background(), "p", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = wrapped.Classify(ctx, "p", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.calls))
}

func TestDecodeArguments(t *testing.T) {
	args, err := decodeArguments(nil)
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = decodeArguments([]byte(`null`))
	require.NoError(t, err)
	assert.NotNil(t, args)

	_, err = decodeArguments([]byte(`["a"]`))
	assert.ErrorIs(t, err, ErrMalformedToolCall)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abc...", truncateString("abcdef", 3))
	assert.Equal(t, "héllo...", truncateString("héllo wörld", 5), "keeps whole runes from the front")
	assert.Equal(t, "日本...", truncateString("日本語", 2))
	assert.Equal(t, "", truncateString("abc", 0))
}
