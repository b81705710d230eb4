// ABOUTME: Records command for reading the censored-document journal
// ABOUTME: Lists recent records and prints single records as JSON

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hikmaai-io/hikmaai-censor/internal/config"
	"github.com/hikmaai-io/hikmaai-censor/internal/journal"
)

// openJournal opens the journal described by cfg, creating its directory.
func openJournal(cfg *config.Config) (*journal.Store, error) {
	storeCfg := journal.StoreConfig{
		InMemory:   cfg.Journal.InMemory,
		SyncWrites: cfg.Journal.SyncWrites,
		TTL:        cfg.Journal.TTL,
	}
	if !cfg.Journal.InMemory {
		storeCfg.Path = cfg.JournalPath()
		if err := os.MkdirAll(storeCfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	store, err := journal.Open(storeCfg)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return store, nil
}

func newRecordsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect the journal of censored documents",
	}

	cmd.AddCommand(newRecordsListCmd(opts))
	cmd.AddCommand(newRecordsGetCmd(opts))

	return cmd
}

func newRecordsListCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := openJournal(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, rec := range records {
				fmt.Fprintf(out, "%s  %s  %-12s masked=%d failed=%d\n",
					rec.ID,
					rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
					rec.Source,
					rec.Masked,
					rec.Failed,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of records")

	return cmd
}

func newRecordsGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Print one record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := openJournal(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
}
