// Command genmock writes a synthetic reception export for a transmitter at a
// known position heard by a grid of gateways. RSSI follows a log-distance
// path-loss model with Gaussian shadowing, so the weighted centroid of the
// output can be compared against the true position.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -lat 52.0 -lng 4.37 \
//	  -grid 4 -spacing-km 2.5 \
//	  -messages 20 -na-rate 0.05 \
//	  -out data/mock/receptions.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/lora-locator/internal/domain"
	"github.com/couchcryptid/lora-locator/internal/ingest"
)

const kmPerDegree = 111.32

var baseTime = time.Date(2024, time.December, 13, 12, 0, 0, 0, time.UTC)

// pathLoss is a log-distance propagation model.
type pathLoss struct {
	refRSSI    float64 // dBm at refDistKm
	refDistKm  float64
	exponent   float64
	shadowing  float64 // standard deviation, dB
	noiseFloor float64 // dBm
	minRSSI    float64 // gateway sensitivity, dBm
}

func (m pathLoss) rssi(distKm float64, rng *rand.Rand) float64 {
	d := math.Max(distKm, m.refDistKm)
	return m.refRSSI - 10*m.exponent*math.Log10(d/m.refDistKm) + rng.NormFloat64()*m.shadowing
}

// snr derives a LoRa SNR from RSSI, clamped to what a demodulator reports.
func (m pathLoss) snr(rssi float64) float64 {
	return math.Max(-20, math.Min(12, rssi-m.noiseFloor))
}

type params struct {
	transmitter domain.Point
	grid        int
	spacingKm   float64
	messages    int
	naRate      float64
	model       pathLoss
}

type gateway struct {
	id  string
	pos domain.Point
}

// gatewayGrid places grid×grid gateways centred on the transmitter.
func gatewayGrid(center domain.Point, grid int, spacingKm float64) []gateway {
	gws := make([]gateway, 0, grid*grid)
	half := float64(grid-1) / 2
	lngScale := kmPerDegree * math.Cos(center.Lat*math.Pi/180)
	for i := range grid {
		for j := range grid {
			gws = append(gws, gateway{
				id: fmt.Sprintf("gw-%02d-%02d", i, j),
				pos: domain.Point{
					Lat: center.Lat + (float64(i)-half)*spacingKm/kmPerDegree,
					Lng: center.Lng + (float64(j)-half)*spacingKm/lngScale,
				},
			})
		}
	}
	return gws
}

// generate returns the export rows, header first. Gateways below the
// sensitivity threshold do not report; a fraction naRate of the reported
// numeric cells is replaced with NA.
func generate(p params, rng *rand.Rand) [][]string {
	rows := [][]string{{ingest.ColMessageID, ingest.ColReceivedAt, ingest.ColGatewayID, ingest.ColLat, ingest.ColLng, ingest.ColRSSI, ingest.ColSNR}}
	gws := gatewayGrid(p.transmitter, p.grid, p.spacingKm)

	for msg := 1; msg <= p.messages; msg++ {
		receivedAt := domain.Now().Add(time.Duration(msg-1) * time.Minute).UTC().Format(time.RFC3339)
		for _, gw := range gws {
			rssi := p.model.rssi(domain.Haversine(p.transmitter, gw.pos), rng)
			if rssi < p.model.minRSSI {
				continue
			}
			row := []string{
				strconv.Itoa(msg),
				receivedAt,
				gw.id,
				strconv.FormatFloat(gw.pos.Lat, 'f', 6, 64),
				strconv.FormatFloat(gw.pos.Lng, 'f', 6, 64),
				strconv.FormatFloat(math.Round(rssi), 'f', -1, 64),
				strconv.FormatFloat(math.Round(p.model.snr(rssi)*4)/4, 'f', -1, 64),
			}
			for c := 3; c < len(row); c++ {
				if rng.Float64() < p.naRate {
					row[c] = "NA"
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	lat := flag.Float64("lat", 52.0, "true transmitter latitude")
	lng := flag.Float64("lng", 4.37, "true transmitter longitude")
	grid := flag.Int("grid", 4, "gateways per side of the square grid")
	spacing := flag.Float64("spacing-km", 2.5, "distance between neighbouring gateways")
	messages := flag.Int("messages", 20, "number of messages to emit")
	naRate := flag.Float64("na-rate", 0.05, "fraction of numeric cells replaced with NA")
	exponent := flag.Float64("exponent", 2.7, "path-loss exponent")
	shadowing := flag.Float64("shadowing-db", 4, "log-normal shadowing standard deviation")
	seed := flag.Uint64("seed", 1, "random seed")
	out := flag.String("out", "", "output CSV path (default stdout)")
	flag.Parse()

	p := params{
		transmitter: domain.Point{Lat: *lat, Lng: *lng},
		grid:        *grid,
		spacingKm:   *spacing,
		messages:    *messages,
		naRate:      *naRate,
		model: pathLoss{
			refRSSI:    -40,
			refDistKm:  0.001,
			exponent:   *exponent,
			shadowing:  *shadowing,
			noiseFloor: -117,
			minRSSI:    -137,
		},
	}
	if err := p.transmitter.Validate(); err != nil {
		return err
	}
	if p.grid < 1 || p.messages < 1 || p.spacingKm <= 0 {
		return fmt.Errorf("-grid, -messages and -spacing-km must be positive")
	}

	// Fixed clock for reproducible received_at timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(baseTime))
	defer domain.SetClock(nil)

	rows := generate(p, rand.New(rand.NewPCG(*seed, *seed)))

	var w io.Writer = os.Stdout
	if *out != "" {
		if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
			return err
		}
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	log.Printf("wrote %d receptions for %d messages from %d gateways", len(rows)-1, p.messages, p.grid*p.grid)
	return nil
}
