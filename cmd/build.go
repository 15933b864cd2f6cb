package cmd

import (
	"github.com/mj1618/navsync/internal/output"
	"github.com/mj1618/navsync/internal/server"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the active target's indexes",
	Long:  "Crawl the active target now, replace its navigation and menu indexes on disk, and report what changed since the previous build.",
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().String("app", "", "Application name or bundle id (default: the active bundle)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	app, _ := cmd.Flags().GetString("app")
	nav, err := e.navigator(cmd.Context(), app)
	if err != nil {
		return err
	}
	res, err := server.Build(cmd.Context(), nav, e.indexes)
	if err != nil {
		return err
	}
	return output.Print(res)
}
