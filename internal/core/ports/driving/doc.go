// Package driving provides interfaces for user-facing adapters
// (primary/inbound ports). The CLI and MCP adapters drive the core
// through these interfaces.
package driving
