package cmd

import (
	"fmt"
	"strings"

	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/output"
	"github.com/mj1618/navsync/internal/server"
	"github.com/spf13/cobra"
)

var menuCmd = &cobra.Command{
	Use:   "menu [segment...]",
	Short: "Press a menu item by path, or search the menu index",
	Long: `Press a menu item by walking its path from the menu bar, opening each
level in turn. Segments may be given as separate arguments or as one
"File > Export > PDF" string.

With --search, the menu index is searched instead: every query word must
appear in the item's path, and the closest leaf title wins.`,
	RunE: runMenu,
	Example: `  navsync menu File Export "Export as PDF…"
  navsync menu "Format > Font > Bold"
  navsync menu --search "export pdf" --click`,
}

func init() {
	rootCmd.AddCommand(menuCmd)
	menuCmd.Flags().String("app", "", "Application name or bundle id (default: the active bundle)")
	menuCmd.Flags().String("search", "", "Search the menu index instead of pressing a path")
	menuCmd.Flags().Bool("click", false, "Press the best --search match")
}

func runMenu(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("search")
	click, _ := cmd.Flags().GetBool("click")
	path := server.SplitMenuPath(strings.Join(args, ">"))
	switch {
	case query == "" && len(path) == 0:
		return fmt.Errorf("specify a menu path or --search")
	case query != "" && len(path) > 0:
		return fmt.Errorf("--search cannot be combined with a menu path")
	case click && query == "":
		return fmt.Errorf("--click requires --search")
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	app, _ := cmd.Flags().GetString("app")
	res := output.MenuResult{Action: "menu", Path: path}
	nav, err := e.navigator(cmd.Context(), app)
	if err != nil {
		res.Error = err.Error()
		return report(res, err)
	}
	res.App = nav.BundleID()

	if query == "" {
		err = nav.NavigateMenuPath(cmd.Context(), path)
	} else {
		var d model.Descriptor
		res.Action = "menu_search"
		if click {
			res.Action = "menu_click"
			d, err = nav.ClickMenuItem(cmd.Context(), query)
		} else {
			d, err = nav.FindMenuItem(cmd.Context(), query)
		}
		if d.Label != "" {
			res.Item, res.Path = &d, d.MenuPath()
		}
	}
	if err != nil {
		res.Error = err.Error()
		return report(res, err)
	}
	res.OK = true
	return output.Print(res)
}
