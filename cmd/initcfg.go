package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ip-landscape/recon-cli/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config.yaml for the standard assignee/inventor datasets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		const path = "config.yaml"
		if !initForce {
			if _, err := os.Stat(path); err == nil {
				return eris.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}

		starter := config.Config{
			Data: config.DataConfig{
				RawDir:       "data/raw",
				ProcessedDir: "data/processed",
			},
			Datasets: []config.DatasetConfig{
				{
					Name:        "assignee",
					EntityType:  "Assignee",
					CountsFile:  "Assignee_Count.csv",
					CountryFile: "Assignee_Country.csv",
					XrefFile:    "Assignee_Inventor_Country.xlsx",
					XrefColumns: []string{"Current Assignee", "Current Owner"},
					OutputFile:  "Assignee_Country_Count.csv",
				},
				{
					Name:        "inventor",
					EntityType:  "Inventor",
					CountsFile:  "Inventor_Count.csv",
					CountryFile: "Inventor_Country.csv",
					OutputFile:  "Inventor_Country_Count.csv",
				},
			},
			Oracle: config.OracleConfig{
				Provider:    "openrouter",
				BaseURL:     "https://openrouter.ai/api/v1",
				Model:       "tngtech/deepseek-r1t2-chimera:free",
				TimeoutSecs: 60,
			},
			Cache:     config.CacheConfig{Path: "data/processed/resolutions.db"},
			Reconcile: config.ReconcileConfig{BatchSize: 20, Concurrency: 1},
			Log:       config.LogConfig{Level: "info", Format: "console"},
		}

		data, err := yaml.Marshal(&starter)
		if err != nil {
			return eris.Wrap(err, "marshal starter config")
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return eris.Wrap(err, "write config.yaml")
		}
		fmt.Printf("wrote %s (set RECON_ORACLE_KEY before running reconcile)\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config.yaml")
	rootCmd.AddCommand(initCmd)
}
