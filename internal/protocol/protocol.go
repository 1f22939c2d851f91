// Package protocol is the client side of the Mark wire format: a one-line
// request with optional YAML metadata, answered by a markdown body behind a
// YAML frontmatter block.
package protocol

const (
	// DefaultPort is the default port for Mark servers.
	DefaultPort = 6309

	// ALPN is the application-layer protocol negotiation identifier.
	ALPN = "mark"

	// VerbFetch retrieves a document.
	VerbFetch = "FETCH"

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 8 << 20
)
