package cmd

import (
	"fmt"
	"time"

	"github.com/mj1618/navsync/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing navsync tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes find, click,
menu, association, target, refresh and build as tools. A classifier must
be running for the tools to see a target.

Supported transports:
  stdio             Standard I/O (default)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  navsync serve
  navsync serve --transport streamable-http --port 8080
  navsync serve --navigator-ttl 0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
	serveCmd.Flags().Duration("navigator-ttl", 30*time.Second, "How long a navigator is reused between calls (0 to disable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	ttl, _ := cmd.Flags().GetDuration("navigator-ttl")

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	cfg := server.Config{
		Transport:    transport,
		Port:         port,
		NavigatorTTL: ttl,
	}
	srv, err := server.New(cfg, e.deps())
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return srv.Serve(cmd.Context(), cfg)
}
