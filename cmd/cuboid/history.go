package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/chazu/cuboid/pkg/config"
	"github.com/chazu/cuboid/pkg/store"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
	historyStore string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded volume results",
	Long:  "Read past volume results from the result store, newest first",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of results (0 = all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print results as JSON")
	historyCmd.Flags().StringVar(&historyStore, "store", "", "Result store path")
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := cfg.Store.Path
	if historyStore != "" {
		path = historyStore
	}
	if path == config.MemoryStore {
		return fmt.Errorf("cannot list history from in-memory store, set store.path or --store")
	}

	s, err := store.New(store.Config{Path: path})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	records, err := s.List(historyLimit)
	if err != nil {
		return fmt.Errorf("listing results: %w", err)
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tSOURCE\tVOLUME\tINSTRUCTIONS\tDIGEST")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			humanize.Time(r.CreatedAt), r.Source, formatCells(r.Volume), r.Instructions, r.Digest[:12])
	}
	return tw.Flush()
}
