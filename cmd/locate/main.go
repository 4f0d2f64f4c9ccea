// Command locate estimates LoRaWAN device positions from gateway reception
// exports or from uplinks stored by the locator service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "locate",
	Short: "Estimate LoRaWAN device positions from gateway receptions",
	Long: `locate groups gateway receptions by message, combines the gateway
positions into a signal-weighted centroid per message and optionally ranks
the estimates by distance to a reference point.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
