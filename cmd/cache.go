package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ip-landscape/recon-cli/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the resolution cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cached resolution counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%d cached resolution(s)\n", stats.Entries)
		for source, n := range stats.BySource {
			fmt.Printf("  %s: %d\n", source, n)
		}
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all cached resolutions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.Purge(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("purged %d cached resolution(s)\n", n)
		return nil
	},
}

func openCache(cmd *cobra.Command) (*store.ResolutionStore, error) {
	if cfg.Cache.Path == "" {
		return nil, eris.New("resolution cache is disabled (set cache.path)")
	}
	st, err := store.Open(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
