package domain

// CapabilityKind distinguishes the three MCP capability types.
type CapabilityKind string

const (
	CapabilityTool     CapabilityKind = "tool"
	CapabilityResource CapabilityKind = "resource"
	CapabilityPrompt   CapabilityKind = "prompt"
)

// Capability describes one registered tool, resource or prompt.
// Based on MCP Spec 2025-03-26: https://modelcontextprotocol.io/specification/2025-03-26
type Capability struct {
	Kind CapabilityKind `json:"kind"`

	// Name is the tool or prompt name, or the resource name.
	// It MUST be unique per kind within the MCP server.
	Name string `json:"name"`

	Title string `json:"title,omitempty"`

	// Description is what the agent reads to decide when to use the capability.
	Description string `json:"description"`

	// URI is set for resources only.
	URI string `json:"uri,omitempty"`

	// Arguments lists prompt arguments, or the top-level input fields of a tool.
	Arguments []string `json:"arguments,omitempty"`
}
