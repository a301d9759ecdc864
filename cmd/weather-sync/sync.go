package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-sync/internal/weather"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the current weather once and store it",
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := rt.repo.SyncRemote(ctx)
	out := cmd.OutOrStdout()

	var last weather.FetchResult
	for res := range s.Subscribe(ctx) {
		last = res
		switch res.Status {
		case weather.StatusLoading:
			fmt.Fprintln(out, "Loading...")
		case weather.StatusSuccess:
			fmt.Fprintf(out, "Synced %s: %s\n", res.Record.CityName, rt.cfg.TemperatureUnit.Format(res.Record.Temperature))
		case weather.StatusError:
			fmt.Fprintf(out, "Sync failed: %v\n", res.Err)
		}
	}

	if _, err := s.Wait(ctx); err != nil {
		return err
	}
	if last.Status == weather.StatusError {
		return fmt.Errorf("sync failed: %s", last.Err.Kind)
	}
	return nil
}
