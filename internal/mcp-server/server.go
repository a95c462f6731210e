package mcp_server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SigNoz/signoz-query-mcp/internal/config"
	"github.com/SigNoz/signoz-query-mcp/internal/contextutil"
	"github.com/SigNoz/signoz-query-mcp/internal/handler/tools"
)

const (
	serverName      = "signoz-mcp-server"
	mcpEndpoint     = "/mcp"
	shutdownTimeout = 10 * time.Second
)

type MCPServer struct {
	logger  *zap.Logger
	handler *tools.Handler
	config  *config.Config
	version string
}

func NewMCPServer(log *zap.Logger, handler *tools.Handler, cfg *config.Config, version string) *MCPServer {
	return &MCPServer{logger: log, handler: handler, config: cfg, version: version}
}

// Build creates the MCP server with every tool registered.
func (m *MCPServer) Build() *server.MCPServer {
	s := server.NewMCPServer(serverName, m.version, server.WithLogging(), server.WithRecovery(), server.WithToolCapabilities(false))
	m.handler.RegisterTools(s)
	m.logger.Info("All handlers registered successfully")
	return s
}

// Start serves until ctx is cancelled or the transport fails.
func (m *MCPServer) Start(ctx context.Context) error {
	s := m.Build()

	m.logger.Info("Starting SigNoz MCP Server",
		zap.String("server_name", serverName),
		zap.String("version", m.version),
		zap.String("transport", m.config.Transport))

	if m.config.Transport == config.TransportHTTP {
		return m.startHTTP(ctx, s)
	}
	return m.startStdio(ctx, s)
}

func (m *MCPServer) startStdio(ctx context.Context, s *server.MCPServer) error {
	m.logger.Info("MCP Server running in stdio mode")
	err := server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (m *MCPServer) startHTTP(ctx context.Context, s *server.MCPServer) error {
	addr := fmt.Sprintf(":%s", m.config.Port)

	mux := http.NewServeMux()
	mux.Handle(mcpEndpoint, server.NewStreamableHTTPServer(s, server.WithHTTPContextFunc(contextutil.WithRequestAPIKey)))
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	m.logger.Info("Listening for MCP clients",
		zap.String("addr", addr),
		zap.String("mcp_endpoint", mcpEndpoint))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		m.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
