package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/run-bigpig/apitools/pkg/interfaces"
	"github.com/run-bigpig/apitools/pkg/logging"
	"github.com/run-bigpig/apitools/pkg/openapi"
	"github.com/run-bigpig/apitools/pkg/tools"
)

// ConfigError reports a descriptor missing a mandatory execution field.
// It signals a compiler defect, not a caller mistake.
type ConfigError struct {
	Tool    string
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("tool %q has no %s in its execution plan", e.Tool, e.Missing)
}

// Executor turns a descriptor plus runtime arguments into an HTTP call and a
// normalized result. Backend rejections come back as error-flagged results;
// network and construction failures come back as errors.
type Executor struct {
	client *Client
	tokens interfaces.TokenSource
	logger logging.Logger
	strict bool
}

// Option represents an option for configuring the executor
type Option func(*Executor)

// WithTokenSource sets the managed token source attached to outgoing calls
func WithTokenSource(tokens interfaces.TokenSource) Option {
	return func(e *Executor) {
		e.tokens = tokens
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithClient sets the underlying HTTP client
func WithClient(client *Client) Option {
	return func(e *Executor) {
		e.client = client
	}
}

// WithStrictArguments makes argument validation issues hard failures instead
// of logged warnings. This changes observable behavior: calls the backend
// would have rejected are rejected locally instead.
func WithStrictArguments(strict bool) Option {
	return func(e *Executor) {
		e.strict = strict
	}
}

// NewExecutor creates a new executor
func NewExecutor(options ...Option) *Executor {
	executor := &Executor{
		client: NewClient(30 * time.Second),
		logger: logging.New(),
	}

	for _, option := range options {
		option(executor)
	}

	return executor
}

// Execute runs one tool invocation
func (e *Executor) Execute(ctx context.Context, desc *tools.Descriptor, args map[string]interface{}) (*interfaces.ToolResult, error) {
	ctx = logging.WithInvocationID(ctx, uuid.New().String())

	// Direct-return tools bypass network execution entirely
	if desc.Plan.Direct {
		return &interfaces.ToolResult{Text: desc.Plan.DirectResponse}, nil
	}

	if desc.Plan.BaseURL == "" {
		return nil, &ConfigError{Tool: desc.Name, Missing: "base URL"}
	}
	if desc.Plan.Method == "" {
		return nil, &ConfigError{Tool: desc.Name, Missing: "method"}
	}
	if desc.Plan.PathTemplate == "" {
		return nil, &ConfigError{Tool: desc.Name, Missing: "path template"}
	}

	if issues := openapi.ValidateArguments(desc.Parameters, args); len(issues) > 0 {
		if e.strict {
			return nil, fmt.Errorf("invalid arguments for %s: %s", desc.Name, strings.Join(issues, "; "))
		}
		// Permissive policy: proceed and let the backend reject the call
		e.logger.Warn(ctx, "argument validation issues, proceeding anyway", map[string]interface{}{
			"tool":   desc.Name,
			"issues": issues,
		})
	}

	req, err := e.buildRequest(ctx, desc, args)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", desc.Name, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && e.tokens != nil {
		// Force a fresh exchange on the next call
		e.tokens.Invalidate()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := json.Marshal(map[string]interface{}{
			"status": resp.StatusCode,
			"error":  string(resp.Body),
		})
		e.logger.Warn(ctx, "backend rejected tool call", map[string]interface{}{
			"tool":   desc.Name,
			"status": resp.StatusCode,
		})
		return &interfaces.ToolResult{Text: string(payload), IsError: true}, nil
	}

	return &interfaces.ToolResult{Text: string(resp.Body)}, nil
}

func (e *Executor) buildRequest(ctx context.Context, desc *tools.Descriptor, args map[string]interface{}) (Request, error) {
	path := desc.Plan.PathTemplate
	query := make(map[string]string)
	headers := make(map[string]string)

	for _, placement := range desc.Plan.Placements {
		value, present := args[placement.Name]
		if !present {
			if spec, ok := desc.Parameters[placement.Name]; ok && spec.Required {
				e.logger.Warn(ctx, "missing required parameter", map[string]interface{}{
					"tool":  desc.Name,
					"param": placement.Name,
				})
			}
			continue
		}

		text := stringify(value)
		switch placement.In {
		case tools.InPath:
			path = strings.ReplaceAll(path, "{"+placement.Name+"}", url.PathEscape(text))
		case tools.InQuery:
			query[placement.Name] = text
		case tools.InHeader:
			headers[placement.Name] = text
		}
	}

	var body interface{}
	if desc.Plan.HasBody {
		if value, present := args[tools.BodyParam]; present {
			body = value
		} else if desc.Plan.BodyRequired {
			e.logger.Warn(ctx, "missing required request body", map[string]interface{}{
				"tool": desc.Name,
			})
		}
	}

	// Authentication is merged last so spec-declared parameters can never
	// override it
	token, err := e.bearerToken(ctx, desc, args)
	if err != nil {
		return Request{}, err
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	return Request{
		Method:  desc.Plan.Method,
		URL:     strings.TrimRight(desc.Plan.BaseURL, "/") + path,
		Body:    body,
		Headers: headers,
		Query:   query,
	}, nil
}

// bearerToken picks the caller-supplied token for externally protected tools,
// falling back to the managed token source. A failed managed exchange
// propagates to the caller.
func (e *Executor) bearerToken(ctx context.Context, desc *tools.Descriptor, args map[string]interface{}) (string, error) {
	if desc.Plan.AuthURL != "" {
		if supplied, ok := args[tools.AuthTokenParam].(string); ok && supplied != "" {
			return supplied, nil
		}
	}

	if e.tokens == nil {
		return "", nil
	}

	token, err := e.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", desc.Name, err)
	}
	return token, nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		if encoded, err := json.Marshal(v); err == nil {
			return string(encoded)
		}
		return fmt.Sprintf("%v", v)
	}
}
