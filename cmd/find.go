package cmd

import (
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/navcache"
	"github.com/mj1618/navsync/internal/output"
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find <label>",
	Short: "Find an element of the active target by label",
	Long: `Look up an element in the active target's navigation index. An exact
label match wins; otherwise the first case-insensitive substring match in
index order is returned. The index is built on first use.`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().String("app", "", "Application name or bundle id (default: the active bundle)")
}

// report prints res and passes err through so failed lookups still emit a
// structured result.
func report(res interface{}, err error) error {
	if perr := output.Print(res); perr != nil {
		return perr
	}
	return err
}

// elementAction opens the app's navigator, runs fn and prints the
// descriptor it acted on.
func elementAction(cmd *cobra.Command, action string, fn func(*navcache.Navigator) (model.Descriptor, error)) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	app, _ := cmd.Flags().GetString("app")
	res := output.ElementResult{Action: action}
	nav, err := e.navigator(cmd.Context(), app)
	if err != nil {
		res.Error = err.Error()
		return report(res, err)
	}
	res.App = nav.BundleID()

	d, err := fn(nav)
	if d.Label != "" {
		res.Element, res.Path = &d, d.PathString()
	}
	res.TargetRef = nav.Target().TargetRef
	if err != nil {
		res.Error = err.Error()
		return report(res, err)
	}
	res.OK = true
	return output.Print(res)
}

func runFind(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	app, _ := cmd.Flags().GetString("app")
	res := output.ElementResult{Action: "find"}
	nav, err := e.navigator(cmd.Context(), app)
	if err != nil {
		res.Error = err.Error()
		return report(res, err)
	}
	res.App, res.TargetRef = nav.BundleID(), nav.Target().TargetRef

	d, err := nav.FindElement(cmd.Context(), args[0])
	if err != nil {
		res.Error = err.Error()
		return report(res, err)
	}
	res.OK, res.Element, res.Path = true, &d, d.PathString()
	return output.Print(res)
}
