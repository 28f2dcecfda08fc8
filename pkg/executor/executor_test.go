package executor_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-bigpig/apitools/pkg/executor"
	"github.com/run-bigpig/apitools/pkg/interfaces"
	"github.com/run-bigpig/apitools/pkg/tools"
)

// staticTokens is a canned token source recording invalidations
type staticTokens struct {
	token        string
	invalidations int
}

func (s *staticTokens) Token(ctx context.Context) (string, error) {
	return s.token, nil
}

func (s *staticTokens) Invalidate() {
	s.invalidations++
}

func getUserDescriptor(baseURL string) *tools.Descriptor {
	return &tools.Descriptor{
		Name:     "getUser",
		Category: "users",
		Parameters: map[string]interfaces.ParameterSpec{
			"id":    {Type: interfaces.TypeInteger, Required: true},
			"limit": {Type: interfaces.TypeInteger},
		},
		Plan: tools.ExecutionPlan{
			BaseURL:      baseURL,
			Method:       http.MethodGet,
			PathTemplate: "/users/{id}",
			Placements: []tools.Placement{
				{Name: "id", In: tools.InPath},
				{Name: "limit", In: tools.InQuery},
			},
		},
	}
}

func TestExecutePathAndQueryPlacement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/42", r.URL.Path)
		// limit was not supplied, so it must not appear on the wire
		assert.False(t, r.URL.Query().Has("limit"))
		_, _ = w.Write([]byte(`{"id": 42}`))
	}))
	defer server.Close()

	exec := executor.NewExecutor()
	result, err := exec.Execute(context.Background(), getUserDescriptor(server.URL), map[string]interface{}{
		"id": float64(42),
	})

	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, `{"id": 42}`, result.Text)
}

func TestExecuteEscapesPathValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/a%2Fb", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	desc := getUserDescriptor(server.URL)
	desc.Parameters["id"] = interfaces.ParameterSpec{Type: interfaces.TypeString, Required: true}

	exec := executor.NewExecutor()
	_, err := exec.Execute(context.Background(), desc, map[string]interface{}{"id": "a/b"})
	require.NoError(t, err)
}

func TestExecuteHeaderPlacement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "trace-1", r.Header.Get("X-Trace"))
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	desc := &tools.Descriptor{
		Name: "ping",
		Parameters: map[string]interfaces.ParameterSpec{
			"X-Trace": {Type: interfaces.TypeString},
		},
		Plan: tools.ExecutionPlan{
			BaseURL:      server.URL,
			Method:       http.MethodGet,
			PathTemplate: "/ping",
			Placements:   []tools.Placement{{Name: "X-Trace", In: tools.InHeader}},
		},
	}

	exec := executor.NewExecutor()
	_, err := exec.Execute(context.Background(), desc, map[string]interface{}{"X-Trace": "trace-1"})
	require.NoError(t, err)
}

func TestExecuteSendsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, "ada", payload["name"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`created`))
	}))
	defer server.Close()

	desc := &tools.Descriptor{
		Name: "createUser",
		Parameters: map[string]interfaces.ParameterSpec{
			tools.BodyParam: {Type: interfaces.TypeObject, Required: true},
		},
		Plan: tools.ExecutionPlan{
			BaseURL:      server.URL,
			Method:       http.MethodPost,
			PathTemplate: "/users",
			HasBody:      true,
			BodyRequired: true,
		},
	}

	exec := executor.NewExecutor()
	result, err := exec.Execute(context.Background(), desc, map[string]interface{}{
		tools.BodyParam: map[string]interface{}{"name": "ada"},
	})

	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "created", result.Text)
}

func TestExecuteBackendErrorIsAResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`user not found`))
	}))
	defer server.Close()

	exec := executor.NewExecutor()
	result, err := exec.Execute(context.Background(), getUserDescriptor(server.URL), map[string]interface{}{
		"id": float64(7),
	})

	// Backend rejection is a structured result, not a raised error
	require.NoError(t, err)
	require.True(t, result.IsError)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Text), &payload))
	assert.Equal(t, float64(404), payload["status"])
	assert.Equal(t, "user not found", payload["error"])
}

func TestExecuteNetworkFailureIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	exec := executor.NewExecutor()
	_, err := exec.Execute(context.Background(), getUserDescriptor(server.URL), map[string]interface{}{
		"id": float64(7),
	})
	require.Error(t, err)
}

func TestExecuteManagedTokenAttached(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer managed-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	source := &staticTokens{token: "managed-token"}
	exec := executor.NewExecutor(executor.WithTokenSource(source))

	_, err := exec.Execute(context.Background(), getUserDescriptor(server.URL), map[string]interface{}{
		"id": float64(1),
	})
	require.NoError(t, err)
}

func TestExecuteCallerTokenWinsForExternalAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer caller-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	desc := getUserDescriptor(server.URL)
	desc.Plan.AuthURL = "https://id.example.com"
	desc.Parameters[tools.AuthTokenParam] = interfaces.ParameterSpec{Type: interfaces.TypeString}

	source := &staticTokens{token: "managed-token"}
	exec := executor.NewExecutor(executor.WithTokenSource(source))

	_, err := exec.Execute(context.Background(), desc, map[string]interface{}{
		"id":                 float64(1),
		tools.AuthTokenParam: "caller-token",
	})
	require.NoError(t, err)
}

func TestExecuteUnauthorizedInvalidatesTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	source := &staticTokens{token: "stale-token"}
	exec := executor.NewExecutor(executor.WithTokenSource(source))

	result, err := exec.Execute(context.Background(), getUserDescriptor(server.URL), map[string]interface{}{
		"id": float64(1),
	})

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, 1, source.invalidations)
}

func TestExecuteDirectReturn(t *testing.T) {
	desc := &tools.Descriptor{
		Name: "frozen",
		Plan: tools.ExecutionPlan{
			Direct:         true,
			DirectResponse: `{"pinned": true}`,
		},
	}

	exec := executor.NewExecutor()
	result, err := exec.Execute(context.Background(), desc, nil)

	require.NoError(t, err)
	assert.Equal(t, `{"pinned": true}`, result.Text)
}

func TestExecuteRejectsIncompletePlans(t *testing.T) {
	exec := executor.NewExecutor()

	desc := &tools.Descriptor{Name: "broken", Plan: tools.ExecutionPlan{Method: "GET", PathTemplate: "/x"}}
	_, err := exec.Execute(context.Background(), desc, nil)

	var cfgErr *executor.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "broken", cfgErr.Tool)
}

func TestExecuteStrictArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	// Permissive default: the call still goes out
	exec := executor.NewExecutor()
	_, err := exec.Execute(context.Background(), getUserDescriptor(server.URL), map[string]interface{}{})
	require.NoError(t, err)

	// Strict mode rejects locally
	strict := executor.NewExecutor(executor.WithStrictArguments(true))
	_, err = strict.Execute(context.Background(), getUserDescriptor(server.URL), map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id")
}
