package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	mcpGoServer "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/i2y/clinicalmcp/configs"
	"github.com/i2y/clinicalmcp/internal/adapter/inbound/mcphttp"
	"github.com/i2y/clinicalmcp/internal/adapter/inbound/mcpserver"
	"github.com/i2y/clinicalmcp/internal/adapter/outbound/memrepo"
	"github.com/i2y/clinicalmcp/internal/refdata"
	"github.com/i2y/clinicalmcp/internal/telemetry"
)

const instructions = `Clinical workflow tools for medication reconciliation, therapeutic drug monitoring, ` +
	`interaction screening, assessment and documentation. Every tool is stateless and returns ` +
	`a narrative followed by a JSON envelope. Reference tables are available as resources ` +
	`under the configured namespace. Results support clinical judgement and never replace it.`

func serveCmd() *cobra.Command {
	var transport string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configs.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("transport") {
				cfg.Transport = transport
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	return cmd
}

func serve(parent context.Context, cfg *configs.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, closeLog := newLogger(cfg, os.Stderr)
	defer closeLog()
	slog.SetDefault(logger)
	logger.Info("Logger initialized.",
		slog.String("level", cfg.ParsedLogLevel().String()),
		slog.String("transport", cfg.Transport),
		slog.String("version", version),
	)

	shutdownOtel, err := telemetry.Init(ctx, telemetry.Settings{
		Endpoint:       cfg.OtelExporterOtlpEndpoint,
		Insecure:       cfg.OtelExporterOtlpInsecure,
		ServiceName:    serverName,
		ServiceVersion: version,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			logger.Error("Failed to shutdown OpenTelemetry TracerProvider.", slog.Any("error", err))
		}
	}()

	srv, reg, err := buildServer(cfg, logger)
	if err != nil {
		return err
	}

	switch cfg.Transport {
	case "stdio":
		return serveStdio(ctx, srv, logger)
	case "http":
		return serveHTTP(ctx, cfg, srv, reg, logger)
	default:
		return fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
}

// buildServer loads reference data and registers every capability on a new
// MCP server.
func buildServer(cfg *configs.Config, logger *slog.Logger) (*mcpGoServer.MCPServer, *mcpserver.Registry, error) {
	tables, err := refdata.Load(cfg.ReferenceDataFile, logger)
	if err != nil {
		return nil, nil, err
	}
	repo := memrepo.NewInMemoryReferenceRepository(tables, logger)

	srv := mcpGoServer.NewMCPServer(
		serverName,
		version,
		mcpGoServer.WithToolCapabilities(false),
		mcpGoServer.WithResourceCapabilities(false, false),
		mcpGoServer.WithPromptCapabilities(false),
		mcpGoServer.WithRecovery(),
		mcpGoServer.WithHooks(mcpserver.NewHooks(logger)),
		mcpGoServer.WithInstructions(instructions),
	)

	instruments, err := telemetry.NewToolInstruments(nil)
	if err != nil {
		return nil, nil, err
	}
	reg := mcpserver.NewRegistry(srv, logger,
		mcpserver.WithToolTimeout(cfg.ToolTimeout),
		mcpserver.WithNamespace(cfg.Namespace),
		mcpserver.WithInstruments(instruments),
	)
	if err := reg.RegisterAll(mcpserver.NewUseCases(repo, time.Now, uuid.NewString, logger)); err != nil {
		return nil, nil, fmt.Errorf("failed to register capabilities: %w", err)
	}
	return srv, reg, nil
}

func serveStdio(ctx context.Context, srv *mcpGoServer.MCPServer, logger *slog.Logger) error {
	logger.Info("Starting in STDIO mode.")
	stdio := mcpGoServer.NewStdioServer(srv)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("STDIO server stopped.")
	return nil
}

func serveHTTP(ctx context.Context, cfg *configs.Config, srv *mcpGoServer.MCPServer, reg *mcpserver.Registry, logger *slog.Logger) error {
	sessions := mcphttp.NewSessionTable(cfg.MaxSessions, logger)
	streamable := mcpGoServer.NewStreamableHTTPServer(srv,
		mcpGoServer.WithEndpointPath(cfg.EndpointPath),
		mcpGoServer.WithSessionIdManager(sessions),
	)

	e := mcphttp.NewRouter(mcphttp.Options{
		MCP:          streamable,
		EndpointPath: cfg.EndpointPath,
		CORSOrigins:  cfg.CORSOrigins,
		Catalog:      reg,
		Sessions:     sessions,
		Version:      version,
	}, logger)
	e.Server.ReadTimeout = cfg.ServerReadTimeout
	e.Server.WriteTimeout = cfg.ServerWriteTimeout
	e.Server.IdleTimeout = cfg.ServerIdleTimeout

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("MCP HTTP server starting.",
			slog.String("address", cfg.ListenAddr),
			slog.String("endpoint", cfg.EndpointPath),
		)
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	}

	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed.", slog.Any("error", err))
		return err
	}
	logger.Info("HTTP server shut down gracefully.")
	return nil
}
