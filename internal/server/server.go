// Package server exposes the navigation engine as MCP tools.
package server

import (
	"context"
	"fmt"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/navsync/internal/index"
	"github.com/mj1618/navsync/internal/navconfig"
	"github.com/mj1618/navsync/internal/platform"
	"github.com/mj1618/navsync/internal/state"
	"github.com/mj1618/navsync/internal/version"
	"go.uber.org/zap"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int

	// NavigatorTTL bounds how long an idle Navigator is reused before it is
	// reconstructed. Zero disables pooling.
	NavigatorTTL time.Duration
}

// Deps are the engine components shared by all tool calls.
type Deps struct {
	Provider    *platform.Provider
	Store       *state.Store
	Indexes     *index.Store
	Table       *navconfig.Table
	Logger      *zap.Logger
	DataDir     string
	ActionDelay time.Duration
	CallTimeout time.Duration
}

// Server is an MCP server backed by a pool of Navigators.
type Server struct {
	deps Deps
	pool *navigatorPool
	mcp  *mcpserver.MCPServer
}

// New creates a Server with every tool registered.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Provider == nil || deps.Store == nil || deps.Indexes == nil {
		return nil, fmt.Errorf("server: provider, store and indexes are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Table == nil {
		deps.Table = navconfig.Default()
	}
	s := &Server{deps: deps}
	s.pool = newNavigatorPool(cfg.NavigatorTTL, deps.Open)
	s.mcp = mcpserver.NewMCPServer(
		"navsync",
		version.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	s.registerTools()
	return s, nil
}

// Serve runs the configured transport until it fails or ctx is done.
func (s *Server) Serve(ctx context.Context, cfg Config) error {
	switch cfg.Transport {
	case "", "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		errc := make(chan error, 1)
		go func() { errc <- httpServer.Start(fmt.Sprintf(":%d", cfg.Port)) }()
		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdown)
		}
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}
