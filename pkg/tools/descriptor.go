package tools

import (
	"context"

	"github.com/run-bigpig/apitools/pkg/interfaces"
)

const (
	// BodyParam is the argument key routed to the request payload
	BodyParam = "body"

	// AuthTokenParam is the argument key carrying a caller-supplied bearer token
	AuthTokenParam = "auth_token"
)

// ParamLocation identifies where a declared parameter is placed on the wire
type ParamLocation string

const (
	// InPath substitutes the parameter into a {placeholder} path segment
	InPath ParamLocation = "path"

	// InQuery appends the parameter to the query string
	InQuery ParamLocation = "query"

	// InHeader sends the parameter as a request header
	InHeader ParamLocation = "header"
)

// Placement routes one declared parameter to its wire position
type Placement struct {
	Name string
	In   ParamLocation
}

// ExecutionPlan describes how to invoke the operation behind a descriptor.
// Either the HTTP fields or the direct-return fields are populated, never both.
type ExecutionPlan struct {
	// BaseURL is the target server base URL
	BaseURL string

	// Method is the HTTP verb
	Method string

	// PathTemplate is the path with {placeholder} segments
	PathTemplate string

	// Placements routes declared parameters, in declaration order
	Placements []Placement

	// HasBody indicates the operation accepts a JSON request body
	HasBody bool

	// BodyRequired indicates the spec marks the body as required
	BodyRequired bool

	// AuthURL is set when the operation requires an external bearer token;
	// it carries the issuer URL of the identity provider
	AuthURL string

	// Direct marks a tool whose result is a fixed literal, with no network call
	Direct bool

	// DirectResponse is the literal payload of a direct-return tool
	DirectResponse string
}

// Descriptor is the compiled, invocable representation of one API operation
type Descriptor struct {
	// Name is the sanitized, registry-unique method name
	Name string

	// DisplayName is the human-readable name of the operation
	DisplayName string

	// Description describes the operation
	Description string

	// Category is the source product the operation belongs to
	Category string

	// Parameters maps parameter names to their validated type specs
	Parameters map[string]interfaces.ParameterSpec

	// Plan describes how to execute the operation
	Plan ExecutionPlan
}

// Invoker executes a descriptor with runtime arguments
type Invoker interface {
	Execute(ctx context.Context, desc *Descriptor, args map[string]interface{}) (*interfaces.ToolResult, error)
}

// HTTPTool adapts a Descriptor and an Invoker to the Tool interface
type HTTPTool struct {
	desc    *Descriptor
	invoker Invoker
}

// NewHTTPTool creates a tool backed by the given descriptor and invoker
func NewHTTPTool(desc *Descriptor, invoker Invoker) *HTTPTool {
	return &HTTPTool{
		desc:    desc,
		invoker: invoker,
	}
}

// Name returns the name of the tool
func (t *HTTPTool) Name() string {
	return t.desc.Name
}

// Description returns a description of what the tool does
func (t *HTTPTool) Description() string {
	return t.desc.Description
}

// Category returns the source product of the tool
func (t *HTTPTool) Category() string {
	return t.desc.Category
}

// Parameters returns the parameters that the tool accepts
func (t *HTTPTool) Parameters() map[string]interfaces.ParameterSpec {
	return t.desc.Parameters
}

// Descriptor returns the underlying descriptor
func (t *HTTPTool) Descriptor() *Descriptor {
	return t.desc
}

// Execute executes the tool with the given arguments
func (t *HTTPTool) Execute(ctx context.Context, args map[string]interface{}) (*interfaces.ToolResult, error) {
	return t.invoker.Execute(ctx, t.desc, args)
}
