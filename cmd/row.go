package cmd

import (
	"fmt"
	"strconv"

	"github.com/mj1618/navsync/internal/model"
	"github.com/mj1618/navsync/internal/navcache"
	"github.com/spf13/cobra"
)

var rowCmd = &cobra.Command{
	Use:   "row <n>",
	Short: "Click the n-th row of the active target",
	Long: `Click a table or outline row by its position in the navigation index,
counting from 1. Rows keep index order, so rows with the same label are
still addressable.`,
	Args: cobra.ExactArgs(1),
	RunE: runRow,
}

func init() {
	rootCmd.AddCommand(rowCmd)
	rowCmd.Flags().String("app", "", "Application name or bundle id (default: the active bundle)")
}

func runRow(cmd *cobra.Command, args []string) error {
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("row number %q: %w", args[0], err)
	}
	return elementAction(cmd, "row", func(nav *navcache.Navigator) (model.Descriptor, error) {
		return nav.ClickRow(cmd.Context(), i)
	})
}
