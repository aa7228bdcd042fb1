package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bcgov/mmti-sync/internal/utils"
	"github.com/bcgov/mmti-sync/pkg/importer"
)

var importProjectsCmd = &cobra.Command{
	Use:   "import-projects <file>",
	Short: "Insert the projects of a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, err := openStore(ctx, storeURI())
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		n, err := importer.ImportProjects(ctx, store, data)
		if err != nil {
			return err
		}
		utils.Log.Infof("Added %d project(s)", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importProjectsCmd)
}
