package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/igvf/catalog-llm/internal/core"
)

// AskInput is the input for the ask_catalog tool.
type AskInput struct {
	Password string `json:"password" jsonschema:"Query password for the catalog service"`
	Query    string `json:"query" jsonschema:"Natural-language question about the IGVF catalog"`
}

// ListCollectionsInput is the input for the list_collections tool.
type ListCollectionsInput struct{}

// ListCollectionsOutput is the output of the list_collections tool.
type ListCollectionsOutput struct {
	Collections []string `json:"collections"`
	Count       int      `json:"count"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_catalog",
		Description: "Answer a natural-language question from the IGVF catalog graph. Returns the answer, the AQL query and its result.",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_collections",
		Description: "List the catalog collections the service can query.",
	}, s.handleListCollections)
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, any, error) {
	resp, err := s.app.Handle(ctx, input.Password, input.Query)
	if err != nil {
		payload := map[string]string{"error": err.Error()}
		var ce *core.Error
		if errors.As(err, &ce) && ce.Query != "" {
			payload["query"] = ce.Query
		}
		if core.KindOf(err) == core.KindDownstream {
			s.logger.Error("ask_catalog failed", "error", err)
		}
		res, _, _ := toolJSON(payload)
		res.IsError = true
		return res, nil, nil
	}
	return toolJSON(resp)
}

func (s *Server) handleListCollections(_ context.Context, _ *mcp.CallToolRequest, _ ListCollectionsInput) (*mcp.CallToolResult, ListCollectionsOutput, error) {
	out := ListCollectionsOutput{Collections: []string{}}
	if st := s.app.Schema(); st != nil {
		out.Collections = st.Names()
	}
	out.Count = len(out.Collections)

	res, _, _ := toolJSON(out)
	return res, out, nil
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
