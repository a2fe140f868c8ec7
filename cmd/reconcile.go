package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ip-landscape/recon-cli/internal/config"
	"github.com/ip-landscape/recon-cli/internal/fetcher"
	"github.com/ip-landscape/recon-cli/internal/model"
	"github.com/ip-landscape/recon-cli/internal/oracle"
	"github.com/ip-landscape/recon-cli/internal/reconcile"
	"github.com/ip-landscape/recon-cli/internal/store"
	"github.com/ip-landscape/recon-cli/pkg/openrouter"
)

var (
	reconcileOnly        string
	reconcileOffline     bool
	reconcileConcurrency int
	reconcileOutput      string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run the full reconciliation pipeline over the configured datasets",
	Long: `Runs load → merge → cross-reference → oracle → persist for each configured
dataset. Oracle failures are non-fatal: whatever the local phases resolved is
still persisted and the failure is reported.

Examples:
  # All configured datasets, no oracle calls
  recon-cli reconcile --offline

  # One dataset with the oracle enabled (needs RECON_ORACLE_KEY)
  recon-cli reconcile --only assignee`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		datasets, err := selectDatasets(reconcileOnly)
		if err != nil {
			return err
		}

		resolver, cleanup, err := initResolver(ctx, reconcileOffline)
		if err != nil {
			return err
		}
		defer cleanup()

		pipeline := reconcile.NewPipeline(resolver, fetcher.Options{Charset: cfg.Reconcile.Charset})

		concurrency := reconcileConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Reconcile.Concurrency
		}
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		var mu sync.Mutex
		var reports []*model.RunReport
		for _, ds := range datasets {
			spec := datasetSpec(ds)
			g.Go(func() error {
				report, err := pipeline.Run(gCtx, spec)
				if err != nil {
					return eris.Wrapf(err, "dataset %s", spec.Name)
				}
				mu.Lock()
				reports = append(reports, report)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		printReports(reports)

		if reconcileOutput != "" {
			if err := writeReportsJSON(reconcileOutput, reports); err != nil {
				return err
			}
			zap.L().Info("reports written", zap.String("path", reconcileOutput))
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileOnly, "only", "", "run a single configured dataset by name")
	reconcileCmd.Flags().BoolVar(&reconcileOffline, "offline", false, "skip the oracle phase entirely")
	reconcileCmd.Flags().IntVar(&reconcileConcurrency, "concurrency", 0, "datasets processed in parallel (default from config)")
	reconcileCmd.Flags().StringVar(&reconcileOutput, "output", "", "write run reports as JSON to this file")
	rootCmd.AddCommand(reconcileCmd)
}

// selectDatasets returns the configured datasets, optionally filtered to one.
func selectDatasets(only string) ([]config.DatasetConfig, error) {
	if len(cfg.Datasets) == 0 {
		return nil, eris.New("no datasets configured (add a datasets section to config.yaml, or run recon-cli init)")
	}
	if only == "" {
		return cfg.Datasets, nil
	}
	for _, ds := range cfg.Datasets {
		if ds.Name == only {
			return []config.DatasetConfig{ds}, nil
		}
	}
	return nil, eris.Errorf("dataset %q is not configured", only)
}

// datasetSpec resolves a dataset's relative paths against the data dirs.
func datasetSpec(ds config.DatasetConfig) reconcile.DatasetSpec {
	output := ds.OutputFile
	if output == "" {
		output = ds.EntityType + "_Country_Count.csv"
	}
	xrefColumns := ds.XrefColumns
	if len(xrefColumns) == 0 {
		xrefColumns = []string{"Current Assignee", "Current Owner"}
	}
	return reconcile.DatasetSpec{
		Name:        ds.Name,
		EntityType:  ds.EntityType,
		CountsPath:  resolvePath(cfg.Data.RawDir, ds.CountsFile),
		CountryPath: resolvePath(cfg.Data.RawDir, ds.CountryFile),
		XrefPath:    resolvePath(cfg.Data.RawDir, ds.XrefFile),
		XrefColumns: xrefColumns,
		OutputPath:  resolvePath(cfg.Data.ProcessedDir, output),
	}
}

func resolvePath(dir, file string) string {
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(dir, file)
}

// initResolver wires the oracle and the resolution cache. The returned
// cleanup is always safe to call.
func initResolver(ctx context.Context, offline bool) (*reconcile.Resolver, func(), error) {
	if offline {
		return nil, func() {}, nil
	}

	if err := cfg.ValidateOracle(); err != nil {
		return nil, func() {}, err
	}

	var orc reconcile.Oracle
	switch cfg.Oracle.Provider {
	case "anthropic":
		orc = oracle.NewAnthropic(cfg.Oracle.Key, cfg.Oracle.Model)
	default:
		orc = oracle.NewOpenRouter(openrouter.NewClient(cfg.Oracle.Key,
			openrouter.WithBaseURL(cfg.Oracle.BaseURL),
			openrouter.WithModel(cfg.Oracle.Model),
			openrouter.WithTimeout(time.Duration(cfg.Oracle.TimeoutSecs)*time.Second),
		))
	}

	var cache reconcile.Cache
	cleanup := func() {}
	if cfg.Cache.Path != "" {
		st, err := store.Open(cfg.Cache.Path)
		if err != nil {
			return nil, cleanup, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, cleanup, err
		}
		cache = st
		cleanup = func() { _ = st.Close() }
	}

	return reconcile.NewResolver(orc, cache, cfg.Reconcile.BatchSize), cleanup, nil
}

func printReports(reports []*model.RunReport) {
	for _, r := range reports {
		fmt.Printf("dataset %s: %d rows, %d resolved (%d merge, %d xref, %d cache, %d oracle), %d unresolved",
			r.Dataset, r.TotalRows, r.Resolved(),
			r.MatchedOnMerge, r.ResolvedXref, r.ResolvedCache, r.ResolvedOracle,
			r.Unresolved,
		)
		if r.OracleFailures > 0 {
			fmt.Printf(", %d oracle failure(s): %s", r.OracleFailures, r.OracleLastError)
		}
		fmt.Printf(" -> %s\n", r.OutputPath)
	}
}

func writeReportsJSON(path string, reports []*model.RunReport) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal reports")
	}
	return eris.Wrap(os.WriteFile(path, data, 0o644), "write reports")
}
