package mcpserver_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i2y/clinicalmcp/internal/adapter/inbound/mcpserver"
	"github.com/i2y/clinicalmcp/internal/adapter/outbound/memrepo"
	"github.com/i2y/clinicalmcp/internal/domain"
	"github.com/i2y/clinicalmcp/internal/refdata"
)

var fixedNow = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUseCases() mcpserver.UseCases {
	logger := testLogger()
	repo := memrepo.NewInMemoryReferenceRepository(refdata.Default(), logger)
	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return mcpserver.NewUseCases(repo, func() time.Time { return fixedNow }, ids, logger)
}

// MockServer is a mock implementation of usecase.MCPServerAdapter.
type MockServer struct {
	mock.Mock
}

func (m *MockServer) AddTool(tool mcp.Tool, handler mcpGoServer.ToolHandlerFunc) {
	m.Called(tool, handler)
}

func (m *MockServer) AddResource(resource mcp.Resource, handler mcpGoServer.ResourceHandlerFunc) {
	m.Called(resource, handler)
}

func (m *MockServer) AddResourceTemplate(template mcp.ResourceTemplate, handler mcpGoServer.ResourceTemplateHandlerFunc) {
	m.Called(template, handler)
}

func (m *MockServer) AddPrompt(prompt mcp.Prompt, handler mcpGoServer.PromptHandlerFunc) {
	m.Called(prompt, handler)
}

func TestRegistry_RegisterAll(t *testing.T) {
	srv := new(MockServer)
	srv.On("AddTool", mock.AnythingOfType("mcp.Tool"), mock.Anything).Return().Times(12)
	srv.On("AddResource", mock.AnythingOfType("mcp.Resource"), mock.Anything).Return().Times(5)
	srv.On("AddResourceTemplate", mock.AnythingOfType("mcp.ResourceTemplate"), mock.Anything).Return().Times(5)
	srv.On("AddPrompt", mock.AnythingOfType("mcp.Prompt"), mock.Anything).Return().Times(5)

	reg := mcpserver.NewRegistry(srv, testLogger())
	require.NoError(t, reg.RegisterAll(testUseCases()))
	srv.AssertExpectations(t)

	catalog := reg.Catalog()
	require.Len(t, catalog, 22)
	kinds := map[domain.CapabilityKind]int{}
	for i, c := range catalog {
		kinds[c.Kind]++
		assert.NotEmpty(t, c.Description, c.Name)
		if i > 0 {
			assert.False(t, catalog[i-1].Kind == domain.CapabilityPrompt && c.Kind != domain.CapabilityPrompt, "catalog out of order at %s", c.Name)
		}
	}
	assert.Equal(t, 12, kinds[domain.CapabilityTool])
	assert.Equal(t, 5, kinds[domain.CapabilityResource])
	assert.Equal(t, 5, kinds[domain.CapabilityPrompt])
	assert.Equal(t, domain.CapabilityTool, catalog[0].Kind)

	var labURI string
	for _, c := range catalog {
		if c.Kind == domain.CapabilityResource && c.Name == "lab-ranges" {
			labURI = c.URI
		}
	}
	assert.Equal(t, "mcp://clinical/lab-ranges", labURI)
}

func TestRegistry_ToolAnnotations(t *testing.T) {
	srv := new(MockServer)
	tools := map[string]mcp.Tool{}
	srv.On("AddTool", mock.AnythingOfType("mcp.Tool"), mock.Anything).Run(func(args mock.Arguments) {
		tool := args.Get(0).(mcp.Tool)
		tools[tool.Name] = tool
	}).Return()
	srv.On("AddResource", mock.Anything, mock.Anything).Return()
	srv.On("AddResourceTemplate", mock.Anything, mock.Anything).Return()
	srv.On("AddPrompt", mock.Anything, mock.Anything).Return()

	reg := mcpserver.NewRegistry(srv, testLogger(), mcpserver.WithNamespace("ward"))
	require.NoError(t, reg.RegisterAll(testUseCases()))
	assert.Equal(t, "ward", reg.Namespace())
	assert.Equal(t, "mcp://ward/tdm-drugs", reg.ResourceURI("tdm-drugs"))

	compare, ok := tools["compare_medication_lists"]
	require.True(t, ok)
	require.NotNil(t, compare.Annotations.IdempotentHint)
	assert.False(t, *compare.Annotations.IdempotentHint)
	require.NotNil(t, compare.Annotations.ReadOnlyHint)
	assert.True(t, *compare.Annotations.ReadOnlyHint)

	crcl := tools["calculate_creatinine_clearance"]
	assert.True(t, *crcl.Annotations.IdempotentHint)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(crcl.RawInputSchema, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.ElementsMatch(t, []any{"age", "weight_kg", "serum_creatinine", "gender"}, schema["required"])
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	srv := new(MockServer)
	srv.On("AddTool", mock.Anything, mock.Anything).Return()
	srv.On("AddResource", mock.Anything, mock.Anything).Return()
	srv.On("AddResourceTemplate", mock.Anything, mock.Anything).Return()
	srv.On("AddPrompt", mock.Anything, mock.Anything).Return()

	reg := mcpserver.NewRegistry(srv, testLogger())
	require.NoError(t, reg.RegisterAll(testUseCases()))
	err := reg.RegisterAll(testUseCases())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegister_RequiresEvaluator(t *testing.T) {
	reg := mcpserver.NewRegistry(new(MockServer), testLogger())
	err := mcpserver.Register(reg, mcpserver.ToolSpec[struct{}, string]{Name: "empty"})
	require.Error(t, err)
	assert.Empty(t, reg.Catalog())
}
