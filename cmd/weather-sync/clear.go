package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached weather record",
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rt.repo.ClearAll(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cleared all weather records.")
	return nil
}
