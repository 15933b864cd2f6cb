package cmd

import (
	"fmt"

	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/output"
	"github.com/mj1618/navsync/internal/platform"
	"github.com/spf13/cobra"
)

var clickCmd = &cobra.Command{
	Use:   "click [label]",
	Short: "Click an element of the active target, or a screen point",
	Long: `Click an element found the same way as "find", or an absolute screen
point with --at. The target is re-checked before clicking and re-synced
afterwards.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClick,
	Example: `  navsync click "Send"
  navsync click --at 640,400`,
}

func init() {
	rootCmd.AddCommand(clickCmd)
	clickCmd.Flags().String("app", "", "Application name or bundle id (default: the active bundle)")
	clickCmd.Flags().String("at", "", "Click at screen coordinates x,y instead of a label")
}

func runClick(cmd *cobra.Command, args []string) error {
	at, _ := cmd.Flags().GetString("at")
	if (len(args) == 0) == (at == "") {
		return fmt.Errorf("specify either a label or --at x,y")
	}
	var point model.Point
	if at != "" {
		p, err := platform.ParsePoint(at)
		if err != nil {
			return err
		}
		point = p
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	app, _ := cmd.Flags().GetString("app")
	res := output.ElementResult{Action: "click"}
	nav, err := e.navigator(cmd.Context(), app)
	if err != nil {
		res.Error = err.Error()
		return report(res, err)
	}
	res.App = nav.BundleID()

	if at != "" {
		err = nav.ClickAt(cmd.Context(), point)
	} else {
		var d model.Descriptor
		d, err = nav.ClickElement(cmd.Context(), args[0])
		if d.Label != "" {
			res.Element, res.Path = &d, d.PathString()
		}
	}
	res.TargetRef = nav.Target().TargetRef
	if err != nil {
		res.Error = err.Error()
		return report(res, err)
	}
	res.OK = true
	return output.Print(res)
}
