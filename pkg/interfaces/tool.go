package interfaces

import "context"

// Parameter type names used in ParameterSpec.Type
const (
	TypeString     = "string"
	TypeInteger    = "integer"
	TypeNumber     = "number"
	TypeBoolean    = "boolean"
	TypeArray      = "array"
	TypeObject     = "object"
	TypeUnion      = "union"
	TypeAny        = "any"
	TypeUnresolved = "unresolved"
)

// Tool represents a callable operation compiled from an API specification
type Tool interface {
	// Name returns the sanitized, registry-unique name of the tool
	Name() string

	// Description returns a description of what the tool does
	Description() string

	// Category returns the source product the tool was compiled from
	Category() string

	// Parameters returns the parameters that the tool accepts
	Parameters() map[string]ParameterSpec

	// Execute executes the tool with the given arguments
	Execute(ctx context.Context, args map[string]interface{}) (*ToolResult, error)
}

// ParameterSpec defines the specification for a tool parameter.
// Type selects the variant; only the fields belonging to that variant are set.
type ParameterSpec struct {
	// Type is the data type of the parameter (string, integer, number,
	// boolean, array, object, union, any, unresolved)
	Type string

	// Description describes what the parameter is for
	Description string

	// Required indicates if the parameter is required
	Required bool

	// Nullable indicates the parameter also accepts an explicit null
	Nullable bool

	// Enum is the closed set of allowed values for a string parameter
	Enum []string

	// Format is a named string format (date-time, email, uuid)
	Format string

	// Pattern is a regular expression a string value must match
	Pattern string

	// MinLength and MaxLength bound the length of a string value
	MinLength *int
	MaxLength *int

	// Items is the type of the items in an array parameter
	Items *ParameterSpec

	// MinItems and MaxItems bound the size of an array value
	MinItems *int
	MaxItems *int

	// Properties maps field names to their specs for an object parameter.
	// A field is required iff its spec has Required set.
	Properties map[string]ParameterSpec

	// AdditionalProperties marks an object open to unvalidated extra fields
	AdditionalProperties bool

	// ValueType is the value type of a map-style object (no fixed properties)
	ValueType *ParameterSpec

	// OneOf lists the members of a union parameter
	OneOf []ParameterSpec

	// Ref carries the original pointer of an unresolved or circular reference
	Ref string
}

// ToolResult is the normalized outcome of a tool execution. Backend
// rejections are returned here with IsError set rather than as an error.
type ToolResult struct {
	Text    string
	IsError bool
}

// ToolRegistry is a registry of available tools
type ToolRegistry interface {
	// Register registers a tool with the registry
	Register(tool Tool)

	// Get returns a tool by name
	Get(name string) (Tool, bool)

	// List returns all registered tools
	List() []Tool
}
