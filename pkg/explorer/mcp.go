package explorer

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/prokopk1n/nullannotate/pkg/annotation"
)

const (
	serverName    = "nullannotate-explorer"
	serverVersion = "1.0.0"

	toolLookupFunction   = "lookup_function"
	toolLookupObjectFile = "lookup_object_file"
	toolLookupSourceFile = "lookup_source_file"
)

// LookupInput is the shared input schema for every explorer MCP tool.
type LookupInput struct {
	Name string `json:"name" jsonschema:"identifier to look up (function, object file, or source file name)"`
}

// LookupOutput wraps the matching annotation records for a lookup.
type LookupOutput struct {
	Annotations []*annotation.Record `json:"annotations"`
}

// NewMCPServer builds an MCP server exposing model's three lookups as
// tools over stdio (§4.O's --mcp mode), grounded on the teacher's
// mcpsdk.AddTool wiring.
func NewMCPServer(model *Model) *mcpsdk.Server {
	srv := mcpsdk.NewServer(&mcpsdk.Implementation{Name: serverName, Version: serverVersion}, &mcpsdk.ServerOptions{})

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolLookupFunction,
		Description: "Look up annotations recorded for a function name.",
	}, lookupHandler(model.LookupFunction))

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolLookupObjectFile,
		Description: "Look up annotations for every function compiled into an object file.",
	}, lookupHandler(model.LookupObjectFile))

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolLookupSourceFile,
		Description: "Look up annotations for every function declared in a source file.",
	}, lookupHandler(model.LookupSourceFile))

	return srv
}

// RunMCP serves the explorer tools on stdio until ctx is canceled or the
// connection closes.
func RunMCP(ctx context.Context, model *Model) error {
	if err := NewMCPServer(model).Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		return fmt.Errorf("explorer mcp server: %w", err)
	}

	return nil
}

func lookupHandler(lookup func(string) []*annotation.Record) func(context.Context, *mcpsdk.CallToolRequest, LookupInput) (*mcpsdk.CallToolResult, LookupOutput, error) {
	return func(_ context.Context, _ *mcpsdk.CallToolRequest, input LookupInput) (*mcpsdk.CallToolResult, LookupOutput, error) {
		records := lookup(input.Name)
		output := LookupOutput{Annotations: records}

		data, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return nil, LookupOutput{}, fmt.Errorf("encode lookup result: %w", err)
		}

		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
		}, output, nil
	}
}
