package tools

import (
	"context"
	"sync"

	"github.com/run-bigpig/apitools/pkg/interfaces"
	"github.com/run-bigpig/apitools/pkg/logging"
)

// Registry handles storage and retrieval of compiled tools
type Registry struct {
	tools      map[string]interfaces.Tool
	toolsMutex sync.RWMutex
	logger     logging.Logger
	allowed    map[string]bool
	denied     map[string]bool
}

// RegistryOption represents an option for configuring the registry
type RegistryOption func(*Registry)

// WithLogger sets the logger used to report replaced registrations
func WithLogger(logger logging.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithAllowedTools restricts the registry to the named tools
func WithAllowedTools(names []string) RegistryOption {
	return func(r *Registry) {
		r.allowed = make(map[string]bool, len(names))
		for _, name := range names {
			r.allowed[name] = true
		}
	}
}

// WithDeniedTools rejects registration of the named tools
func WithDeniedTools(names []string) RegistryOption {
	return func(r *Registry) {
		r.denied = make(map[string]bool, len(names))
		for _, name := range names {
			r.denied[name] = true
		}
	}
}

// NewRegistry creates a new tool registry
func NewRegistry(options ...RegistryOption) *Registry {
	registry := &Registry{
		tools: make(map[string]interfaces.Tool),
	}

	for _, option := range options {
		option(registry)
	}

	return registry
}

// Register registers a tool with the registry. A tool registered under a name
// already in use replaces the earlier entry; the replacement is logged.
func (r *Registry) Register(tool interfaces.Tool) {
	name := tool.Name()

	if r.allowed != nil && !r.allowed[name] {
		return
	}
	if r.denied[name] {
		return
	}

	r.toolsMutex.Lock()
	defer r.toolsMutex.Unlock()

	if existing, ok := r.tools[name]; ok && r.logger != nil {
		r.logger.Warn(context.Background(), "tool name collision, replacing earlier registration", map[string]interface{}{
			"tool":              name,
			"existing_category": existing.Category(),
			"new_category":      tool.Category(),
		})
	}

	r.tools[name] = tool
}

// Get returns a tool by name
func (r *Registry) Get(name string) (interfaces.Tool, bool) {
	r.toolsMutex.RLock()
	defer r.toolsMutex.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tools
func (r *Registry) List() []interfaces.Tool {
	r.toolsMutex.RLock()
	defer r.toolsMutex.RUnlock()

	list := make([]interfaces.Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		list = append(list, tool)
	}
	return list
}
