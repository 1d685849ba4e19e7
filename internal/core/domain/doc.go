// Package domain defines the core business entities for the helpdesk.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Tenant: An organisation workspace keyed by its slug
//   - Chunk: A retrievable text segment of an uploaded file
//   - RetrievalResult: A ranked hit returned to the reply agent
//   - InboundEmail: A message received on a tenant's helpdesk mailbox
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
