package cmd

import (
	"github.com/mj1618/navsync/internal/output"
	"github.com/mj1618/navsync/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Inspect or steer the desired target",
	Long: `The global record names the application the classifier should watch.
"target set" points it at another application, "target refresh" asks the
classifier to re-focus and re-scan, and "target show" prints the global
record with every published State Record.`,
}

var targetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the global record and published State Records",
	Args:  cobra.NoArgs,
	RunE:  runTargetShow,
}

var targetSetCmd = &cobra.Command{
	Use:   "set <app>",
	Short: "Ask the classifier to watch another application",
	Args:  cobra.ExactArgs(1),
	RunE:  runTargetSet,
}

var targetRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Ask the classifier to re-focus and re-scan",
	Args:  cobra.NoArgs,
	RunE:  runTargetRefresh,
}

func init() {
	rootCmd.AddCommand(targetCmd)
	targetCmd.AddCommand(targetShowCmd, targetSetCmd, targetRefreshCmd)
	targetRefreshCmd.Flags().String("reason", "manual", "Reason recorded in the global record")
}

func runTargetShow(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	res, err := server.Summarize(e.store)
	if err != nil {
		return err
	}
	return output.Print(res)
}

func runTargetSet(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	bundleID, err := e.deps().ResolveApp(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	g, err := e.store.SetActiveBundle(bundleID, "cli")
	if err != nil {
		return err
	}
	e.logger.Info("active bundle set", zap.String("bundle_id", bundleID), zap.Uint64("version", g.Version))
	return output.Print(output.TargetResult{Global: &g})
}

func runTargetRefresh(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	reason, _ := cmd.Flags().GetString("reason")
	g, err := e.store.RequestRefresh(reason, "cli")
	if err != nil {
		return err
	}
	return output.Print(output.TargetResult{Global: &g})
}
