package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/lora-locator/internal/adapter/mapbox"
	"github.com/couchcryptid/lora-locator/internal/config"
	"github.com/couchcryptid/lora-locator/internal/domain"
	"github.com/couchcryptid/lora-locator/internal/ingest"
	"github.com/couchcryptid/lora-locator/internal/observability"
	"github.com/couchcryptid/lora-locator/internal/output"
	"github.com/couchcryptid/lora-locator/internal/pipeline"
)

const defaultGeocodeTimeout = 5 * time.Second

var (
	metricsOnce   sync.Once
	sharedMetrics *observability.Metrics
)

// cliMetrics registers the metrics once per process. Nothing scrapes them, but
// the adapters record into them unconditionally.
func cliMetrics() *observability.Metrics {
	metricsOnce.Do(func() { sharedMetrics = observability.NewMetrics() })
	return sharedMetrics
}

// estimateFlags are shared by every command that produces estimates.
type estimateFlags struct {
	mode      string
	rssiScale float64
	snrOffset float64
	rank      bool
	refLat    float64
	refLng    float64
	format    string
	output    string
	geocode   bool
}

func (f *estimateFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.mode, "mode", string(domain.ModeWeighted), "estimation mode (weighted, unweighted)")
	fs.Float64Var(&f.rssiScale, "rssi-scale", domain.DefaultRSSIScale, "RSSI divisor of the weight model")
	fs.Float64Var(&f.snrOffset, "snr-offset", domain.DefaultSNROffset, "SNR offset of the weight model")
	fs.BoolVar(&f.rank, "rank", false, "rank estimates by distance to the reference point")
	fs.Float64Var(&f.refLat, "ref-lat", config.DefaultRefLat, "reference latitude for ranking")
	fs.Float64Var(&f.refLng, "ref-lng", config.DefaultRefLng, "reference longitude for ranking")
	fs.StringVar(&f.format, "format", string(output.FormatTable), "output format (table, csv, geojson)")
	fs.StringVarP(&f.output, "output", "o", "", "write to file instead of stdout")
	fs.BoolVar(&f.geocode, "geocode", false, "reverse geocode estimates with Mapbox (needs MAPBOX_TOKEN)")
}

func (f *estimateFlags) options() (pipeline.Options, output.Format, error) {
	mode, err := domain.ParseMode(f.mode)
	if err != nil {
		return pipeline.Options{}, "", err
	}
	format, err := output.ParseFormat(f.format)
	if err != nil {
		return pipeline.Options{}, "", err
	}
	opts := pipeline.Options{
		Mode:    mode,
		Weights: domain.WeightModel{RSSIScale: f.rssiScale, SNROffset: f.snrOffset},
	}
	if f.rank {
		opts.Reference = &domain.Point{Lat: f.refLat, Lng: f.refLng}
	}
	return opts, format, nil
}

// locate runs the estimation over ds and renders the result.
func (f *estimateFlags) locate(cmd *cobra.Command, ds domain.Dataset) error {
	opts, format, err := f.options()
	if err != nil {
		return err
	}

	logger := observability.NewTextLogger(cmd.ErrOrStderr(), logLevel)
	metrics := cliMetrics()

	var geocoder domain.Geocoder
	if f.geocode {
		token := os.Getenv("MAPBOX_TOKEN")
		if token == "" {
			return fmt.Errorf("--geocode needs MAPBOX_TOKEN to be set")
		}
		geocoder = mapbox.NewCachedGeocoder(mapbox.NewClient(token, defaultGeocodeTimeout, metrics, logger), 1000, metrics)
	}

	res, err := pipeline.NewLocator(geocoder, logger, metrics).Locate(cmd.Context(), ds, opts)
	if err != nil {
		return err
	}

	report := output.Report{
		Estimates: res.Estimates,
		Ranked:    res.Ranked,
		Reference: opts.Reference,
		Summary:   res.Summary,
		Failures:  res.Failures,
	}
	if f.output == "" {
		return output.Write(cmd.OutOrStdout(), format, report)
	}
	return writeFile(f.output, func(w io.Writer) error {
		return output.Write(w, format, report)
	})
}

// writeFile creates path, runs write on it and reports a failed close.
func writeFile(path string, write func(io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return write(file)
}

func newEstimateCmd() *cobra.Command {
	var flags estimateFlags
	cmd := &cobra.Command{
		Use:   "estimate <csv>",
		Short: "Estimate one position per message from a reception export",
		Long: `Read a reception CSV (message_id, rx_lat, rx_lng, rssi, snr) and print one
position estimate per message. Rows with a missing required field are
dropped; messages left without receptions are reported as failures.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := ingest.LoadReceptions(args[0])
			if err != nil {
				return err
			}
			return flags.locate(cmd, ds)
		},
	}
	flags.register(cmd)
	return cmd
}

func init() {
	rootCmd.AddCommand(newEstimateCmd())
}
