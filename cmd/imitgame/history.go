package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"imitgame/internal/console"
	"imitgame/internal/storage"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history [game-id]",
		Short: "List recorded games or replay one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, store, err := c.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()
			r := console.New(c.out)

			if len(args) == 0 {
				list, err := hist.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeIndented(c, list)
				}
				r.PrintSummaries(list)
				return nil
			}
			rec, err := hist.Get(cmd.Context(), args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("game %s not found", args[0])
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeIndented(c, rec)
			}
			r.PrintRecord(rec)
			return nil
		},
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of games to list")

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Summarize all recorded games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hist, store, err := c.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()
			st, err := hist.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeIndented(c, st)
			}
			console.New(c.out).PrintStats(st)
			return nil
		},
	})
	return cmd
}

func writeIndented(c *cli, v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
