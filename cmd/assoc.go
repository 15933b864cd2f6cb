package cmd

import (
	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/navcache"
	"github.com/mj1618/navsync/internal/output"
	"github.com/spf13/cobra"
)

var assocCmd = &cobra.Command{
	Use:   "assoc <name>",
	Short: "Read a declared association of the active target",
	Long: `Read a secondary index declared for the active target in the navigation
config, e.g. the sidebar entries of a file picker. Associations are
re-read from disk once their lifetime expires.

With --find or --click, look up one item by label the same way as "find"
and optionally click it.`,
	Args: cobra.ExactArgs(1),
	RunE: runAssoc,
	Example: `  navsync assoc picker
  navsync assoc picker --click Downloads`,
}

func init() {
	rootCmd.AddCommand(assocCmd)
	assocCmd.Flags().String("app", "", "Application name or bundle id (default: the active bundle)")
	assocCmd.Flags().String("find", "", "Find the item with this label")
	assocCmd.Flags().String("click", "", "Click the item with this label")
	assocCmd.MarkFlagsMutuallyExclusive("find", "click")
}

func runAssoc(cmd *cobra.Command, args []string) error {
	name := args[0]
	if label, _ := cmd.Flags().GetString("click"); label != "" {
		return elementAction(cmd, "association_click", func(nav *navcache.Navigator) (model.Descriptor, error) {
			return nav.ClickAssociationItem(cmd.Context(), name, label)
		})
	}
	if label, _ := cmd.Flags().GetString("find"); label != "" {
		return elementAction(cmd, "association_find", func(nav *navcache.Navigator) (model.Descriptor, error) {
			return nav.FindAssociationItem(cmd.Context(), name, label)
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
	items, err := nav.GetAssociation(name)
	if err != nil {
		return err
	}
	return output.Print(output.AssociationResult{
		App:       nav.BundleID(),
		TargetRef: nav.Target().TargetRef,
		Name:      name,
		Items:     items,
	})
}
