package tools

import (
	"context"

	"github.com/run-bigpig/apitools/pkg/interfaces"
)

// StaticTool is a direct-return tool: its result is a fixed literal value and
// invoking it performs no network call.
type StaticTool struct {
	name        string
	description string
	category    string
	response    string
}

// NewStaticTool creates a direct-return tool
func NewStaticTool(name, description, category, response string) *StaticTool {
	return &StaticTool{
		name:        name,
		description: description,
		category:    category,
		response:    response,
	}
}

// Name returns the name of the tool
func (t *StaticTool) Name() string {
	return t.name
}

// Description returns a description of what the tool does
func (t *StaticTool) Description() string {
	return t.description
}

// Category returns the category of the tool
func (t *StaticTool) Category() string {
	return t.category
}

// Parameters returns the parameters that the tool accepts
func (t *StaticTool) Parameters() map[string]interfaces.ParameterSpec {
	return map[string]interfaces.ParameterSpec{}
}

// Execute returns the fixed response
func (t *StaticTool) Execute(ctx context.Context, args map[string]interface{}) (*interfaces.ToolResult, error) {
	return &interfaces.ToolResult{Text: t.response}, nil
}
