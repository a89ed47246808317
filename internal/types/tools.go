package types

import "fmt"

// ParamType is the primitive type of a tool parameter
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
)

// IsValid checks if the parameter type value is valid
func (p ParamType) IsValid() bool {
	switch p {
	case ParamString, ParamInteger, ParamNumber, ParamBoolean:
		return true
	}
	return false
}

// ToolParameter declares one named argument of a tool
type ToolParameter struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
}

// ToolSchema declares a callable tool offered to the reasoning engine
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
}

// Properties returns the JSON-schema "properties" object for the tool
func (s ToolSchema) Properties() map[string]interface{} {
	props := make(map[string]interface{}, len(s.Parameters))
	for _, p := range s.Parameters {
		props[p.Name] = map[string]interface{}{
			"type":        string(p.Type),
			"description": p.Description,
		}
	}
	return props
}

// RequiredNames returns the names of required parameters, in declaration order
func (s ToolSchema) RequiredNames() []string {
	var names []string
	for _, p := range s.Parameters {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Validate checks the schema before it is declared to an engine: a name,
// unique named parameters and known parameter types
func (s ToolSchema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	seen := make(map[string]bool, len(s.Parameters))
	for _, p := range s.Parameters {
		if p.Name == "" {
			return fmt.Errorf("tool %s: parameter name is required", s.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("tool %s: duplicate parameter %s", s.Name, p.Name)
		}
		seen[p.Name] = true
		if !p.Type.IsValid() {
			return fmt.Errorf("tool %s: parameter %s has invalid type %q", s.Name, p.Name, p.Type)
		}
	}
	return nil
}

// JSONSchema returns the full object schema for the tool's parameters
func (s ToolSchema) JSONSchema() map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": s.Properties(),
	}
	if req := s.RequiredNames(); len(req) > 0 {
		schema["required"] = req
	}
	return schema
}

// ToolCall is a tool invocation requested by the reasoning engine
type ToolCall struct {
	ID        string                 `json:"id,omitempty"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// StringArg returns a string argument and whether it was present.
// Non-string values are reported as absent.
func (c ToolCall) StringArg(name string) (string, bool) {
	v, ok := c.Arguments[name]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Usage tracks token consumption for reasoning engine calls
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Add accumulates another usage sample
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// EngineResponse is the result of one reasoning engine call: plain text,
// a list of tool calls, or both.
type EngineResponse struct {
	Text      string     `json:"text,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     Usage      `json:"usage"`
}

// HasToolCalls returns true if the engine requested at least one tool
func (r *EngineResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}
