// Package output renders estimation results as CSV, an aligned text table or
// a GeoJSON FeatureCollection.
package output

import (
	"fmt"
	"io"
	"math"

	"github.com/couchcryptid/lora-locator/internal/domain"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatTable   Format = "table"
	FormatGeoJSON Format = "geojson"
)

// coordDecimals is the precision of rendered coordinates, about 0.1 m.
const coordDecimals = 6

// ParseFormat validates a format name. An empty name selects FormatTable.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatCSV, FormatGeoJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: unknown output format %q", domain.ErrInvalidInput, s)
	}
}

// Report is what one estimation run produced.
type Report struct {
	Estimates []domain.Estimate

	// Ranked replaces Estimates in the rendered rows when a reference was set.
	Ranked    []domain.RankedEstimate
	Reference *domain.Point

	Summary  *domain.Point
	Failures []*domain.GroupError
}

// row is an estimate with an optional distance, in render order.
type row struct {
	domain.Estimate
	distanceKm float64
	ranked     bool
}

func (r Report) rows() []row {
	if r.Ranked != nil {
		rows := make([]row, len(r.Ranked))
		for i, re := range r.Ranked {
			rows[i] = row{Estimate: re.Estimate, distanceKm: re.DistanceKm, ranked: true}
		}
		return rows
	}
	rows := make([]row, len(r.Estimates))
	for i, e := range r.Estimates {
		rows[i] = row{Estimate: e}
	}
	return rows
}

// Write renders the report to w in the given format.
func Write(w io.Writer, format Format, r Report) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, r)
	case FormatGeoJSON:
		return writeGeoJSON(w, r)
	case FormatTable, "":
		return writeTable(w, r)
	default:
		return fmt.Errorf("%w: unknown output format %q", domain.ErrInvalidInput, format)
	}
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
