package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/lora-locator/internal/ingest"
)

func writeCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)

	header := []string{"message_id", "device_lat", "device_lng", "receivers", "mode"}
	if r.Ranked != nil {
		header = append(header, "distance_km")
	}
	header = append(header, "place_name")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range r.rows() {
		record := []string{
			row.MessageID,
			strconv.FormatFloat(row.DeviceLat, 'f', coordDecimals, 64),
			strconv.FormatFloat(row.DeviceLng, 'f', coordDecimals, 64),
			strconv.Itoa(row.Receivers),
			string(row.Mode),
		}
		if row.ranked {
			record = append(record, strconv.FormatFloat(row.distanceKm, 'f', 3, 64))
		}
		record = append(record, row.PlaceName)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTrack renders an exploratory extraction as CSV, one line per source
// row, with "NA" for missing coordinates.
func WriteTrack(w io.Writer, t ingest.Track) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ingest.ColReceivedAt, ingest.ColLat, ingest.ColLng}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range t.Points {
		if err := cw.Write([]string{p.ReceivedAt, p.Lat.String(), p.Lng.String()}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
