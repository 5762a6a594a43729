package mcpserver

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"
)

// NewHooks returns server hooks that log session lifecycle and request errors.
func NewHooks(logger *slog.Logger) *mcpGoServer.Hooks {
	logger = logger.With("component", "mcp_hooks")
	hooks := &mcpGoServer.Hooks{}
	hooks.AddOnRegisterSession(func(ctx context.Context, session mcpGoServer.ClientSession) {
		logger.Info("Session registered.", slog.String("session_id", session.SessionID()))
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session mcpGoServer.ClientSession) {
		logger.Info("Session unregistered.", slog.String("session_id", session.SessionID()))
	})
	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		logger.Warn("Request failed.",
			slog.String("method", string(method)),
			slog.Any("id", id),
			slog.Any("error", err),
		)
	})
	return hooks
}
