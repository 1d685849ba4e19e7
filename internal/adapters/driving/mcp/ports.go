// Package mcp exposes knowledge-base retrieval to MCP clients such as
// desktop assistants, over stdio or streamable HTTP.
package mcp

import (
	"errors"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
)

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Retrieval answers search and expand tool calls.
	Retrieval driving.RetrievalService

	// Tenants backs the tenants resource. Optional.
	Tenants driving.TenantService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
