package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/bcgov/mmti-sync/internal/utils"
	"github.com/bcgov/mmti-sync/pkg/importer"
)

var updateProjectsCmd = &cobra.Command{
	Use:   "update-projects <file>",
	Short: "Apply a JSON file of field updates to projects",
	Long: `Reads a JSON array of objects. Each object must carry the code of the
project to update; every other key is set on that project.`,
	Args: cobra.ExactArgs(1),
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

		res, err := importer.ApplyProjectUpdates(ctx, store, data, utils.Log)
		if err != nil {
			return err
		}
		utils.Log.Infof("Updated %d project(s), skipped %d", res.Updated, res.Skipped)
		if len(res.NotFound) > 0 {
			utils.Log.Warnf("Unknown project code(s): %s", strings.Join(res.NotFound, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateProjectsCmd)
}
