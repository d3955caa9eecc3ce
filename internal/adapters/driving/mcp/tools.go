package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the natural-language question to answer from the ingested contracts"`
}

// CitationOutput is one verified citation on an answer.
type CitationOutput struct {
	ChunkID    string `json:"chunk_id"`
	QuotedSpan string `json:"quoted_span"`
	ClaimText  string `json:"claim_text,omitempty"`
	Fuzzy      bool   `json:"fuzzy,omitempty"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer     string           `json:"answer"`
	Citations  []CitationOutput `json:"citations"`
	Confidence float64          `json:"confidence"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to find contract passages"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single retrieval candidate.
type SearchResultOutput struct {
	ChunkID    string   `json:"chunk_id"`
	DocumentID string   `json:"document_id"`
	Score      float64  `json:"score"`
	Source     string   `json:"source"`
	Highlights []string `json:"highlights,omitempty"`
	Content    string   `json:"content,omitempty"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Directory string `json:"directory" jsonschema:"directory of extracted plain-text contract documents to ingest"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question over the ingested contracts with verified citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Hybrid keyword and semantic search over the ingested contracts",
	}, s.handleSearch)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Ingest extracted contract documents from a directory and rebuild the indexes",
		}, s.handleIngest)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.ports.Ask.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:     result.AnswerText,
		Citations:  make([]CitationOutput, len(result.Citations)),
		Confidence: result.Confidence,
		Warnings:   result.Warnings,
	}
	for i, c := range result.Citations {
		output.Citations[i] = CitationOutput{
			ChunkID:    c.ChunkID,
			QuotedSpan: c.QuotedSpan,
			ClaimText:  c.ClaimText,
			Fuzzy:      c.Fuzzy,
		}
	}

	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	candidates, err := s.ports.Ask.Retrieve(ctx, input.Query)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(candidates)),
		Count:   len(candidates),
	}
	for i, c := range candidates {
		output.Results[i] = SearchResultOutput{
			ChunkID:    c.ChunkID,
			DocumentID: c.DocumentID,
			Score:      c.Score,
			Source:     string(c.Source),
			Highlights: c.Highlights,
			Content:    c.Content,
		}
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	stats, err := s.ports.Ingest.IngestDirectory(ctx, input.Directory)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		Documents: stats.Documents,
		Chunks:    stats.Chunks,
		Skipped:   stats.Skipped,
		Errors:    stats.Errors,
	}, nil
}
