package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding attaches place details for the estimated position.
// If geocoder is nil the estimate is returned untouched; if geocoding fails
// the estimate keeps its coordinates and GeoSource records the outcome.
func EnrichWithGeocoding(ctx context.Context, e Estimate, geocoder Geocoder, logger *slog.Logger) Estimate {
	if geocoder == nil {
		return e
	}

	result, err := geocoder.ReverseGeocode(ctx, e.DeviceLat, e.DeviceLng)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"message_id", e.MessageID,
			"lat", e.DeviceLat,
			"lng", e.DeviceLng,
			"error", err,
		)
		e.GeoSource = "failed"
		return e
	}
	if result.FormattedAddress == "" {
		e.GeoSource = "original"
		return e
	}

	e.FormattedAddress = result.FormattedAddress
	e.PlaceName = result.PlaceName
	e.GeoConfidence = result.Confidence
	e.GeoSource = "reverse"
	return e
}
