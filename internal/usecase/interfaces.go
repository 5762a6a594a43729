package usecase

import (
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"

	"github.com/i2y/clinicalmcp/internal/domain"
)

// ErrUnknownResource is returned when a reference resource name is not published.
var ErrUnknownResource = errors.New("unknown reference resource")

// Clock returns the evaluation time.
type Clock func() time.Time

// IDGenerator returns a new unique identifier.
type IDGenerator func() string

// --- Reference Data ---

// ReferenceRepository gives read-only access to the clinical reference tables.
// Implementations are immutable after construction and safe for concurrent use.
type ReferenceRepository interface {
	// FindTdmProfile looks a drug up by case-insensitive name.
	FindTdmProfile(drug string) (domain.TdmProfile, bool)
	TdmProfiles() []domain.TdmProfile

	Interactions() []domain.DrugInteraction
	LabRanges() []domain.LabReferenceRange
	VitalSignRanges() []domain.VitalSignRange
	ClinicalRules() []domain.ClinicalRule

	// FindHighAlertDrug reports whether drug names a high-alert medication.
	FindHighAlertDrug(drug string) (domain.HighAlertDrug, bool)
}

// --- MCP Server Abstraction ---

// MCPServerAdapter defines what the registry needs from the underlying MCP
// server (like mcp-go). *server.MCPServer satisfies it.
type MCPServerAdapter interface {
	AddTool(tool mcp.Tool, handler mcpGoServer.ToolHandlerFunc)
	AddResource(resource mcp.Resource, handler mcpGoServer.ResourceHandlerFunc)
	AddResourceTemplate(template mcp.ResourceTemplate, handler mcpGoServer.ResourceTemplateHandlerFunc)
	AddPrompt(prompt mcp.Prompt, handler mcpGoServer.PromptHandlerFunc)
}
