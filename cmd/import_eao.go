package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/bcgov/mmti-sync/internal/utils"
	"github.com/bcgov/mmti-sync/pkg/importer"
	"github.com/bcgov/mmti-sync/pkg/metrics"
	"github.com/bcgov/mmti-sync/pkg/storage"
)

var importEAOCmd = &cobra.Command{
	Use:   "import-eao <file>",
	Short: "Insert the records of an EAO collections export",
	Long: `Reads a JSON array of EAO collections (Code, ID, Date, Type, Collection Name,
Documents) and inserts the matching authorizations, inspections and other
documents. Rows for unknown projects or of unknown types are skipped.
Nothing is deleted: importing the same file twice duplicates its records.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args[0])
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		metricsFile, _ := cmd.Flags().GetString("metrics-file")

		ctx := cmd.Context()
		store, err := openStore(ctx, storeURI())
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		res, err := importer.ImportEAO(ctx, store, data, importer.EAOOptions{Log: utils.Log, DryRun: dryRun})
		if metricsFile != "" && res != nil {
			if werr := writeImportMetrics(metricsFile, res); werr != nil {
				utils.Log.Errorf("Could not write metrics to %s: %v", metricsFile, werr)
			}
		}
		if err != nil {
			return err
		}
		utils.Log.Infof("%d row(s): %d %s, %d %s, %d %s; skipped %d for unknown projects and %d of unknown type",
			res.Rows,
			res.Authorizations, storage.Authorizations,
			res.Inspections, storage.Inspections,
			res.OtherDocuments, storage.OtherDocuments,
			res.UnknownProject, res.UnknownType)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importEAOCmd)
	importEAOCmd.Flags().Bool("dry-run", false, "Parse and report, but do not insert")
	importEAOCmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile when done")
}

// writeImportMetrics records what an EAO import stored, including inserts
// that landed before a failure.
func writeImportMetrics(path string, res *importer.EAOResult) error {
	r := metrics.NewRecorder()
	for coll, n := range res.Written {
		r.ObserveInserted(coll, n)
	}
	r.MarkRun(time.Now())
	return r.WriteTextfile(path)
}
