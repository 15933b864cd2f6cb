package cmd

import (
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/navcache"
	"github.com/mj1618/navsync/internal/output"
	"github.com/spf13/cobra"
)

var windowCmd = &cobra.Command{
	Use:   "window [controls|close|minimize|maximize]",
	Short: "List or press the active window's title-bar controls",
	Long: `Without an action, or with "controls", list the close, minimize and
zoom buttons found in the active target. The other actions click the
matching button; "maximize" presses zoom.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"controls", "close", "minimize", "maximize"},
	RunE:      runWindow,
}

func init() {
	rootCmd.AddCommand(windowCmd)
	windowCmd.Flags().String("app", "", "Application name or bundle id (default: the active bundle)")
}

func runWindow(cmd *cobra.Command, args []string) error {
	action := "controls"
	if len(args) == 1 {
		action = args[0]
	}
	if action != "controls" {
		control := action
		if action == "maximize" {
			control = model.ControlZoom
		}
		return elementAction(cmd, action, func(nav *navcache.Navigator) (model.Descriptor, error) {
			return nav.PressWindowControl(cmd.Context(), control)
		})
	}

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
	controls, err := nav.WindowControls(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(output.ControlsResult{
		App:       nav.BundleID(),
		TargetRef: nav.Target().TargetRef,
		Controls:  controls,
	})
}
