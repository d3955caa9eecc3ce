package mcp

import (
	"github.com/atheneahq/athenea-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces the MCP server exposes.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ask answers questions and runs raw retrieval.
	Ask driving.AskService

	// Ingest rebuilds the corpus indexes. Optional; without it the
	// ingest tool is not registered.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	return nil
}
