package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bcgov/mmti-sync/pkg/storage"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints the number of records per project.",
	Long:  "Prints the number of authorizations, inspections and other documents stored for each project.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx, storeURI())
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		colls := []storage.Collection{storage.Authorizations, storage.Inspections, storage.OtherDocuments}
		counts := make([]map[string]int64, len(colls))
		codes := map[string]bool{}
		for i, c := range colls {
			if counts[i], err = store.CountByProject(ctx, c); err != nil {
				return err
			}
			for code := range counts[i] {
				codes[code] = true
			}
		}

		if len(codes) == 0 {
			fmt.Println("No records in the store to generate stats.")
			return nil
		}

		sorted := make([]string, 0, len(codes))
		for code := range codes {
			sorted = append(sorted, code)
		}
		sort.Strings(sorted)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "PROJECT\tAUTHORIZATIONS\tINSPECTIONS\tOTHER\t")

		var totals [3]int64
		for _, code := range sorted {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t\n", code, counts[0][code], counts[1][code], counts[2][code])
			for i := range totals {
				totals[i] += counts[i][code]
			}
		}

		fmt.Fprintln(w, " \t \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t%d\t%d\t\n", totals[0], totals[1], totals[2])

		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
