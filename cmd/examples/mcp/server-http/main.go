package main

import (
	"context"
	"fmt"
	"log"
	"os"

	mcp_golang "github.com/metoro-io/mcp-golang"
	"github.com/metoro-io/mcp-golang/transport/http"

	apitools "github.com/run-bigpig/apitools/pkg"
	"github.com/run-bigpig/apitools/pkg/config"
)

// ToolArgs carries the raw tool arguments for compiled tools
type ToolArgs map[string]interface{}

func main() {
	ctx := context.Background()

	addr := os.Getenv("APITOOLS_MCP_ADDR")
	if addr == "" {
		addr = ":8083"
	}

	cfg := config.LoadFromEnv()
	client, err := apitools.NewClientFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to build client: %v", err)
	}

	registry, err := client.LoadTools(ctx)
	if err != nil {
		log.Fatalf("Failed to load tools: %v", err)
	}

	// Create an HTTP transport that listens on /mcp endpoint
	transport := http.NewHTTPTransport("/mcp").WithAddr(addr)

	server := mcp_golang.NewServer(
		transport,
		mcp_golang.WithName("apitools-http-example"),
		mcp_golang.WithInstructions("Tools compiled from OpenAPI specs, served over stateless HTTP"),
		mcp_golang.WithVersion("0.0.1"),
	)

	for _, tool := range registry.List() {
		t := tool
		err := server.RegisterTool(t.Name(), t.Description(), func(args ToolArgs) (*mcp_golang.ToolResponse, error) {
			result, err := t.Execute(ctx, args)
			if err != nil {
				return nil, err
			}
			if result.IsError {
				return mcp_golang.NewToolResponse(mcp_golang.NewTextContent(fmt.Sprintf("Error: %s", result.Text))), nil
			}
			return mcp_golang.NewToolResponse(mcp_golang.NewTextContent(result.Text)), nil
		})
		if err != nil {
			log.Fatalf("Failed to register tool %s: %v", t.Name(), err)
		}
	}

	log.Printf("Starting HTTP server on %s...", addr)
	if err := server.Serve(); err != nil {
		log.Fatalf("Failed to serve: %v", err)
	}
}
