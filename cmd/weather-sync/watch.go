package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-sync/internal/weather"
)

var watchID int64

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the cached records every time they change",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Int64Var(&watchID, "id", 0, "watch a single record instead of the whole cache")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	unit := rt.cfg.TemperatureUnit

	if watchID > 0 {
		sub := rt.repo.ObserveByID(ctx, watchID)
		defer sub.Close()

		for rec := range sub.C() {
			fmt.Fprintf(out, "--- %s\n", time.Now().Format(time.Kitchen))
			if rec == nil {
				fmt.Fprintf(out, "Record %d not present.\n", watchID)
				continue
			}
			if err := printRecords(out, []weather.Record{*rec}, unit); err != nil {
				return err
			}
		}
		return sub.Err()
	}

	sub := rt.repo.ObserveAll(ctx)
	defer sub.Close()

	for recs := range sub.C() {
		fmt.Fprintf(out, "--- %s\n", time.Now().Format(time.Kitchen))
		if err := printRecords(out, recs, unit); err != nil {
			return err
		}
	}
	return sub.Err()
}
