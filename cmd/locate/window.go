package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/lora-locator/internal/adapter/postgres"
	"github.com/couchcryptid/lora-locator/internal/observability"
)

func newWindowCmd() *cobra.Command {
	var (
		flags       estimateFlags
		from, to    string
		databaseURL string
	)
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Estimate positions for uplinks stored in a time window",
		Long: `Load the uplinks the locator service stored between --from and --to
(RFC 3339, exclusive on both ends) and estimate one position per uplink.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := time.Parse(time.RFC3339, from)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			end, err := time.Parse(time.RFC3339, to)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}

			logger := observability.NewTextLogger(cmd.ErrOrStderr(), logLevel)
			store, err := postgres.Open(cmd.Context(), databaseURL, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			ds, err := store.Dataset(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			return flags.locate(cmd, ds)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&from, "from", "", "window start, RFC 3339")
	cmd.Flags().StringVar(&to, "to", "", "window end, RFC 3339")
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func init() {
	rootCmd.AddCommand(newWindowCmd())
}
