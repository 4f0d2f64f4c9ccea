// Package ingest reads reception exports into the domain model.
//
// Two contracts live here and must not be merged. ReadReceptions is strict:
// a row with any missing or unparseable required field is dropped whole so
// the per-reception values stay aligned. ExtractTrack is exploratory: every
// row is kept and unparseable coordinates become an invalid Coordinate.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/lora-locator/internal/domain"
)

// Column names of a reception export.
const (
	ColMessageID  = "message_id"
	ColLat        = "rx_lat"
	ColLng        = "rx_lng"
	ColRSSI       = "rssi"
	ColSNR        = "snr"
	ColReceivedAt = "received_at"
	ColGatewayID  = "gateway_id"
)

// requiredColumns are the columns the strict contract cannot work without.
var requiredColumns = []string{ColMessageID, ColLat, ColLng, ColRSSI, ColSNR}

// LoadReceptions opens path and reads it with ReadReceptions.
func LoadReceptions(path string) (domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer f.Close()

	return ReadReceptions(f)
}

// ReadReceptions parses a CSV reception export. Rows lacking a message id,
// latitude, longitude, RSSI or SNR, or holding out-of-range coordinates, are
// dropped and reported in Dataset.Dropped. Only an unreadable source or a
// header without the required columns is an error.
func ReadReceptions(r io.Reader) (domain.Dataset, error) {
	reader := newReader(r)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Dataset{}, fmt.Errorf("%w: empty input", domain.ErrSourceUnavailable)
		}
		return domain.Dataset{}, fmt.Errorf("%w: read header: %w", domain.ErrSourceUnavailable, err)
	}
	cols := indexColumns(header)
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return domain.Dataset{}, fmt.Errorf("%w: missing column %q", domain.ErrSourceUnavailable, name)
		}
	}

	var ds domain.Dataset
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("%w: row %d: %w", domain.ErrSourceUnavailable, row, err)
		}

		if id := field(cols, record, ColMessageID); !isMissing(id) {
			ds.See(id)
		}
		rec, fe := parseReception(row, cols, record)
		if fe != nil {
			ds.Dropped = append(ds.Dropped, fe)
			continue
		}
		ds.Receptions = append(ds.Receptions, rec)
	}
	return ds, nil
}

func parseReception(row int, cols map[string]int, record []string) (domain.Reception, *domain.FieldError) {
	id := field(cols, record, ColMessageID)
	if isMissing(id) {
		return domain.Reception{}, &domain.FieldError{Row: row, Field: ColMessageID, Value: id}
	}

	values := make(map[string]float64, 4)
	for _, name := range []string{ColLat, ColLng, ColRSSI, ColSNR} {
		raw := field(cols, record, name)
		v, ok := parseNumber(raw)
		if !ok {
			return domain.Reception{}, &domain.FieldError{Row: row, MessageID: id, Field: name, Value: raw}
		}
		values[name] = v
	}

	rec := domain.Reception{
		MessageID: id,
		GatewayID: field(cols, record, ColGatewayID),
		Lat:       values[ColLat],
		Lng:       values[ColLng],
		RSSI:      values[ColRSSI],
		SNR:       values[ColSNR],
	}
	if rec.Lat < -90 || rec.Lat > 90 {
		return domain.Reception{}, &domain.FieldError{Row: row, MessageID: id, Field: ColLat, Value: field(cols, record, ColLat)}
	}
	if rec.Lng < -180 || rec.Lng > 180 {
		return domain.Reception{}, &domain.FieldError{Row: row, MessageID: id, Field: ColLng, Value: field(cols, record, ColLng)}
	}
	return rec, nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

// indexColumns maps lower-cased header names to their positions. The first
// occurrence of a duplicated name wins.
func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

func field(cols map[string]int, record []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// isMissing reports whether a cell holds no value. "NA" is the export's null marker.
func isMissing(s string) bool {
	return s == "" || strings.EqualFold(s, "NA") || strings.EqualFold(s, "null")
}

func parseNumber(s string) (float64, bool) {
	if isMissing(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
