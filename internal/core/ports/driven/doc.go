// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
//
// These are the capability boundaries of the core: document storage,
// the two retrieval indexes, and the external model services. The core
// services depend only on these interfaces; concrete adapters live
// under internal/adapters/driven.
package driven
