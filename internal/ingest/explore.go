package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/couchcryptid/lora-locator/internal/domain"
)

// Coordinate is a possibly missing decimal-degree value. An unparseable
// source cell yields Coordinate{Valid: false}.
type Coordinate struct {
	Value float64
	Valid bool
}

// String renders the coordinate, or "NA" when it is missing.
func (c Coordinate) String() string {
	if !c.Valid {
		return "NA"
	}
	return strconv.FormatFloat(c.Value, 'f', -1, 64)
}

// TrackPoint is one row of an exploratory extraction.
type TrackPoint struct {
	ReceivedAt string
	Lat        Coordinate
	Lng        Coordinate
}

// Track is the positionally aligned result of ExtractTrack: Points[i] comes
// from data row i+1 of the source.
type Track struct {
	Points []TrackPoint
}

// Missing counts the points with at least one missing coordinate.
func (t Track) Missing() int {
	n := 0
	for _, p := range t.Points {
		if !p.Lat.Valid || !p.Lng.Valid {
			n++
		}
	}
	return n
}

// LoadTrack opens path and reads it with ExtractTrack.
func LoadTrack(path string) (Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return Track{}, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer f.Close()

	return ExtractTrack(f)
}

// ExtractTrack reads received_at, rx_lat and rx_lng from every row of a
// reception export. Rows are never dropped: a missing timestamp becomes ""
// and an unparseable coordinate becomes an invalid Coordinate. Absent
// columns are treated as missing on every row.
func ExtractTrack(r io.Reader) (Track, error) {
	reader := newReader(r)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Track{}, nil
		}
		return Track{}, fmt.Errorf("%w: read header: %w", domain.ErrSourceUnavailable, err)
	}
	cols := indexColumns(header)

	var track Track
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Track{}, fmt.Errorf("%w: row %d: %w", domain.ErrSourceUnavailable, row, err)
		}

		ts := field(cols, record, ColReceivedAt)
		if isMissing(ts) {
			ts = ""
		}
		track.Points = append(track.Points, TrackPoint{
			ReceivedAt: ts,
			Lat:        coordinate(field(cols, record, ColLat)),
			Lng:        coordinate(field(cols, record, ColLng)),
		})
	}
	return track, nil
}

func coordinate(s string) Coordinate {
	v, ok := parseNumber(s)
	return Coordinate{Value: v, Valid: ok}
}
