package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ip-landscape/recon-cli/internal/fetcher"
	"github.com/ip-landscape/recon-cli/internal/loader"
	"github.com/ip-landscape/recon-cli/internal/model"
	"github.com/ip-landscape/recon-cli/internal/reconcile"
)

var (
	inspectOnly          string
	inspectTop           int
	inspectUnresolvedOut string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load and merge the configured datasets without resolving or persisting",
	Long: `Dry run of the merge stage: reads the raw sources, joins counts with the
country lookup, and reports how many entities remain unresolved, listing the
highest-count ones. Nothing is written unless --unresolved-out is given.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		datasets, err := selectDatasets(inspectOnly)
		if err != nil {
			return err
		}

		opts := fetcher.Options{Charset: cfg.Reconcile.Charset}
		for _, ds := range datasets {
			spec := datasetSpec(ds)

			counts, err := loader.LoadCounts(spec.CountsPath, spec.EntityType, opts)
			if err != nil {
				return err
			}
			countries, err := loader.LoadCountries(spec.CountryPath, spec.EntityType, opts)
			if err != nil {
				return err
			}

			records := reconcile.Merge(counts.Records, countries.Records)
			var unresolved []model.ReconciledRecord
			for _, r := range records {
				if r.Unresolved() {
					unresolved = append(unresolved, r)
				}
			}
			sort.SliceStable(unresolved, func(i, j int) bool {
				return unresolved[i].Count > unresolved[j].Count
			})

			fmt.Printf("dataset %s: %d rows, %d unresolved (%d count rows dropped, %d lookup rows dropped)\n",
				spec.Name, len(records), len(unresolved), counts.Dropped, countries.Dropped)
			for i, r := range unresolved {
				if i >= inspectTop {
					break
				}
				fmt.Printf("  %6d  %s\n", r.Count, r.Entity)
			}

			if inspectUnresolvedOut != "" {
				out := unresolvedOutPath(inspectUnresolvedOut, spec.Name, len(datasets) > 1)
				if err := reconcile.WriteCSV(out, spec.EntityType, unresolved); err != nil {
					return err
				}
				fmt.Printf("  unresolved rows written to %s\n", out)
			}
		}
		return nil
	},
}

// unresolvedOutPath suffixes the dataset name onto the output path when
// several datasets are inspected, so one dataset's rows never overwrite
// another's.
func unresolvedOutPath(base, dataset string, multi bool) string {
	if !multi {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_" + dataset + ext
}

func init() {
	inspectCmd.Flags().StringVar(&inspectOnly, "only", "", "inspect a single configured dataset by name")
	inspectCmd.Flags().IntVar(&inspectTop, "top", 15, "number of unresolved entities to list")
	inspectCmd.Flags().StringVar(&inspectUnresolvedOut, "unresolved-out", "", "write unresolved rows to this CSV for manual review")
	rootCmd.AddCommand(inspectCmd)
}
