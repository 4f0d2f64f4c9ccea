package domain

import (
	"context"
	"fmt"
	"time"
)

// Reception is one gateway's report of a received message.
type Reception struct {
	MessageID string  `json:"message_id"`
	GatewayID string  `json:"gateway_id,omitempty"`
	Lat       float64 `json:"rx_lat"`
	Lng       float64 `json:"rx_lng"`
	RSSI      float64 `json:"rssi"`
	SNR       float64 `json:"snr"`
}

// Position returns the gateway location of the reception.
func (r Reception) Position() Point {
	return Point{Lat: r.Lat, Lng: r.Lng}
}

// Point is a WGS-84 latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate reports whether the point lies within the valid coordinate ranges.
func (p Point) Validate() error {
	if !(p.Lat >= -90 && p.Lat <= 90) {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidInput, p.Lat)
	}
	if !(p.Lng >= -180 && p.Lng <= 180) {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidInput, p.Lng)
	}
	return nil
}

// Group holds every reception of one message, in input order.
type Group struct {
	MessageID  string
	Receptions []Reception
}

// Mode selects how receptions are combined into a position.
type Mode string

const (
	ModeWeighted   Mode = "weighted"
	ModeUnweighted Mode = "unweighted"
)

// ParseMode validates a mode name. An empty name selects ModeWeighted.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeWeighted:
		return ModeWeighted, nil
	case ModeUnweighted:
		return ModeUnweighted, nil
	default:
		return "", fmt.Errorf("%w: unknown estimate mode %q", ErrInvalidInput, s)
	}
}

// Estimate is the computed device position for one message.
type Estimate struct {
	MessageID   string    `json:"message_id"`
	DeviceLat   float64   `json:"device_lat"`
	DeviceLng   float64   `json:"device_lng"`
	Receivers   int       `json:"receivers"`
	Mode        Mode      `json:"mode"`
	ProcessedAt time.Time `json:"processed_at"`

	// Reverse geocoding enrichment fields.
	PlaceName        string  `json:"place_name,omitempty"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"` // "reverse", "original", "failed"
}

// Position returns the estimated device location.
func (e Estimate) Position() Point {
	return Point{Lat: e.DeviceLat, Lng: e.DeviceLng}
}

// RankedEstimate is an estimate with its distance to a reference point.
type RankedEstimate struct {
	Estimate
	DistanceKm float64 `json:"distance_km"`
}

// RawEvent represents an unprocessed uplink message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
