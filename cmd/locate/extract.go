package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/lora-locator/internal/ingest"
	"github.com/couchcryptid/lora-locator/internal/observability"
	"github.com/couchcryptid/lora-locator/internal/output"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <csv>",
		Short: "Print received_at, rx_lat and rx_lng of every row",
		Long: `Extract the timestamp and gateway coordinates of every row of a reception
export for exploration. No row is dropped: unparseable coordinates are
printed as NA.`,
		Args: cobra.ExactArgs(1),
		RunE: runExtract,
	}
}

func init() {
	rootCmd.AddCommand(newExtractCmd())
}

func runExtract(cmd *cobra.Command, args []string) error {
	track, err := ingest.LoadTrack(args[0])
	if err != nil {
		return err
	}
	observability.NewTextLogger(cmd.ErrOrStderr(), logLevel).
		Info("track extracted", "rows", len(track.Points), "missing", track.Missing())

	if err := output.WriteTrack(cmd.OutOrStdout(), track); err != nil {
		return fmt.Errorf("write track: %w", err)
	}
	return nil
}
