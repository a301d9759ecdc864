package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-sync/internal/stream"
	"github.com/i474232898/weather-sync/internal/weather"
)

var listUnit string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the cached weather records",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listUnit, "unit", "", "temperature unit (celsius or fahrenheit; overrides TEMPERATURE_UNIT)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	recs, err := stream.First(ctx, rt.repo.ObserveAll(ctx))
	if err != nil {
		return fmt.Errorf("reading records: %w", err)
	}

	unit := rt.cfg.TemperatureUnit
	if listUnit != "" {
		unit = weather.ParseUnit(listUnit)
	}
	return printRecords(cmd.OutOrStdout(), recs, unit)
}

func printRecords(w io.Writer, recs []weather.Record, unit weather.Unit) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No weather records.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCITY\tTEMP\tFEELS LIKE\tHUMIDITY\tCONDITION\tOBSERVED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.0f%%\t%s\t%s\n",
			r.ID,
			r.CityName,
			unit.Format(r.Temperature),
			unit.Format(r.FeelsLike),
			r.Humidity,
			r.Condition,
			r.ObservedAt.Format(time.RFC3339),
		)
	}
	return tw.Flush()
}
