package main

import (
	"context"
	"fmt"

	mcp_golang "github.com/metoro-io/mcp-golang"
	"github.com/metoro-io/mcp-golang/transport/stdio"

	apitools "github.com/run-bigpig/apitools/pkg"
	"github.com/run-bigpig/apitools/pkg/config"
	"github.com/run-bigpig/apitools/pkg/interfaces"
)

// ToolArgs carries the raw tool arguments. The compiled tools validate their
// own parameters, so the MCP layer just passes the object through.
type ToolArgs map[string]interface{}

func main() {
	ctx := context.Background()

	cfg := config.LoadFromEnv()
	client, err := apitools.NewClientFromConfig(cfg)
	if err != nil {
		panic(err)
	}

	registry, err := client.LoadTools(ctx)
	if err != nil {
		panic(err)
	}

	server := mcp_golang.NewServer(stdio.NewStdioServerTransport())

	// Register every compiled tool
	for _, tool := range registry.List() {
		t := tool
		err := server.RegisterTool(t.Name(), t.Description(), func(args ToolArgs) (*mcp_golang.ToolResponse, error) {
			result, err := t.Execute(ctx, args)
			if err != nil {
				return nil, err
			}
			return toolResponse(result), nil
		})
		if err != nil {
			panic(err)
		}
	}

	if err := server.Serve(); err != nil {
		panic(err)
	}

	select {}
}

func toolResponse(result *interfaces.ToolResult) *mcp_golang.ToolResponse {
	if result.IsError {
		return mcp_golang.NewToolResponse(mcp_golang.NewTextContent(fmt.Sprintf("Error: %s", result.Text)))
	}
	return mcp_golang.NewToolResponse(mcp_golang.NewTextContent(result.Text))
}
