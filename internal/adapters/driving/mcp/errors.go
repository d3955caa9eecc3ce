// Package mcp provides a Model Context Protocol server adapter for
// Athenea. It exposes the question-answering pipeline and raw retrieval
// as tools for AI assistants.
package mcp

import "errors"

// ErrMissingAskService is returned when the ask service is not provided.
var ErrMissingAskService = errors.New("mcp: ask service is required")
