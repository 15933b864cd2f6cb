package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mj1618/navsync/internal/output"
	"github.com/mj1618/navsync/internal/platform/memory"
	"github.com/mj1618/navsync/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "navsync",
	Short: "Keep a live navigation index of the focused application",
	Long: `navsync watches one application's windows, publishes which surface is
active, and answers element and menu lookups against an index of that surface.

Run "navsync classify" in one process; every other command reads what it
publishes.`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: $XDG_CONFIG_HOME/navsync/config.yaml)")
	flags.String("data-dir", "", "Directory for state records and indexes")
	flags.String("nav-config", "", "Per-target navigation config (default: <data-dir>/navconfig.yaml)")
	flags.String("fixture", "", "Use the in-memory backend with this YAML fixture")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("format", "yaml", "Output format: yaml, json")
	flags.Bool("pretty", false, "Pretty-print JSON output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")

		if fixture, _ := rootCmd.PersistentFlags().GetString("fixture"); fixture != "" {
			memory.Register(fixture)
		}
		return nil
	}
}
