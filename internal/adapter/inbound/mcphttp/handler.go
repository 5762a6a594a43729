// Package mcphttp serves the MCP streamable HTTP transport and the admin
// endpoints with echo.
package mcphttp

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/i2y/clinicalmcp/internal/domain"
)

// HeaderSessionID carries the streamable HTTP session.
const HeaderSessionID = "Mcp-Session-Id"

// CatalogSource lists the registered capabilities.
type CatalogSource interface {
	Catalog() []domain.Capability
}

// Options configures the HTTP router.
type Options struct {
	// MCP handles the MCP endpoint, typically a *server.StreamableHTTPServer.
	MCP          http.Handler
	EndpointPath string
	CORSOrigins  []string
	Catalog      CatalogSource
	Sessions     *SessionTable
	Version      string
}

// Handlers holds dependencies for the admin endpoints.
type Handlers struct {
	catalog  CatalogSource
	sessions *SessionTable
	version  string
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(catalog CatalogSource, sessions *SessionTable, version string, logger *slog.Logger) *Handlers {
	return &Handlers{
		catalog:  catalog,
		sessions: sessions,
		version:  version,
		logger:   logger.With("component", "mcphttp_handler"),
	}
}

// RegisterAdminRoutes sets up the health and admin endpoints.
func (h *Handlers) RegisterAdminRoutes(e *echo.Echo) {
	e.GET("/health", h.handleHealth)
	admin := e.Group("/admin")
	admin.GET("/catalog", h.handleCatalog)
	admin.GET("/sessions", h.handleSessions)
}

func (h *Handlers) handleHealth(c echo.Context) error {
	body := map[string]any{
		"status":  "ok",
		"version": h.version,
	}
	if h.sessions != nil {
		body["sessions"] = h.sessions.Len()
	}
	return c.JSON(http.StatusOK, body)
}

// handleCatalog implements GET /admin/catalog, optionally filtered by ?kind=.
func (h *Handlers) handleCatalog(c echo.Context) error {
	if h.catalog == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "catalog not available")
	}
	kind := strings.TrimSpace(c.QueryParam("kind"))
	switch domain.CapabilityKind(kind) {
	case "", domain.CapabilityTool, domain.CapabilityResource, domain.CapabilityPrompt:
	default:
		h.logger.Warn("Unknown capability kind requested", slog.String("kind", kind))
		return echo.NewHTTPError(http.StatusBadRequest, "kind must be tool, resource or prompt")
	}

	out := []domain.Capability{}
	for _, capability := range h.catalog.Catalog() {
		if kind == "" || string(capability.Kind) == kind {
			out = append(out, capability)
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"count":        len(out),
		"capabilities": out,
	})
}

func (h *Handlers) handleSessions(c echo.Context) error {
	if h.sessions == nil {
		return c.JSON(http.StatusOK, map[string]any{"count": 0, "sessions": []SessionInfo{}})
	}
	sessions := h.sessions.Sessions()
	return c.JSON(http.StatusOK, map[string]any{
		"count":    len(sessions),
		"max":      h.sessions.max,
		"sessions": sessions,
	})
}

// NewRouter builds the echo instance serving the MCP endpoint and the admin routes.
func NewRouter(opts Options, logger *slog.Logger) *echo.Echo {
	logger = logger.With("component", "mcphttp")
	path := opts.EndpointPath
	if path == "" {
		path = "/mcp"
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(RequestLogger(logger))
	e.Use(Recovery(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  origins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderContentType, echo.HeaderAccept, HeaderSessionID, "Last-Event-ID", "Mcp-Protocol-Version"},
		ExposeHeaders: []string{HeaderSessionID},
	}))

	NewHandlers(opts.Catalog, opts.Sessions, opts.Version, logger).RegisterAdminRoutes(e)

	if opts.MCP != nil {
		mcpHandler := echo.WrapHandler(opts.MCP)
		e.POST(path, mcpHandler)
		e.GET(path, mcpHandler)
		e.DELETE(path, mcpHandler)
	}
	logger.Info("HTTP routes registered.", slog.String("endpoint", path), slog.Any("cors_origins", origins))
	return e
}
