package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/lora-locator/internal/domain"
	"github.com/couchcryptid/lora-locator/internal/observability"
	"github.com/couchcryptid/lora-locator/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coordDelta = 1e-6

var testReference = domain.Point{Lat: 51.998, Lng: 4.374}

type stubGeocoder struct {
	result domain.GeocodingResult
	err    error
	calls  int
}

func (s *stubGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	s.calls++
	return s.result, s.err
}

// locatorDataset mirrors a reception export in which message 1 has two good
// receptions, message 3 one, and message 2 lost all of its rows.
func locatorDataset() domain.Dataset {
	return domain.Dataset{
		Receptions: []domain.Reception{
			{MessageID: "1", GatewayID: "gw-a", Lat: 52.0, Lng: 4.0, RSSI: -80, SNR: 5},
			{MessageID: "1", GatewayID: "gw-b", Lat: 52.01, Lng: 4.02, RSSI: -60, SNR: 10},
			{MessageID: "3", GatewayID: "gw-c", Lat: 51.95, Lng: 4.10, RSSI: -101, SNR: -2.25},
		},
		Dropped: []*domain.FieldError{
			{Row: 3, MessageID: "2", Field: "rssi", Value: "NA"},
			{Row: 4, MessageID: "2", Field: "rx_lat", Value: "NA"},
		},
	}
}

func freezeClock(t *testing.T) time.Time {
	t.Helper()
	at := time.Date(2024, 12, 13, 14, 30, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })
	return at
}

func TestLocator_Locate_Weighted(t *testing.T) {
	at := freezeClock(t)
	metrics := observability.NewMetricsForTesting()
	loc := pipeline.NewLocator(nil, discardLogger(), metrics)

	res, err := loc.Locate(context.Background(), locatorDataset(), pipeline.Options{
		Mode:    domain.ModeWeighted,
		Weights: domain.DefaultWeightModel(),
	})
	require.NoError(t, err)

	require.Len(t, res.Estimates, 2)
	first := res.Estimates[0]
	assert.Equal(t, "1", first.MessageID)
	assert.InDelta(t, 52.0090785, first.DeviceLat, coordDelta)
	assert.InDelta(t, 4.018157, first.DeviceLng, coordDelta)
	assert.Equal(t, 2, first.Receivers)
	assert.Equal(t, at, first.ProcessedAt)

	// A single reception is its own centroid regardless of weight.
	assert.Equal(t, "3", res.Estimates[1].MessageID)
	assert.InDelta(t, 51.95, res.Estimates[1].DeviceLat, coordDelta)
	assert.InDelta(t, 4.10, res.Estimates[1].DeviceLng, coordDelta)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "2", res.Failures[0].MessageID)
	assert.ErrorIs(t, res.Failures[0], domain.ErrEmptyGroup)
	assert.Len(t, res.Dropped, 2)

	require.NotNil(t, res.Summary)
	assert.InDelta(t, (52.0090785+51.95)/2, res.Summary.Lat, coordDelta)
	assert.Nil(t, res.Ranked)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GroupFailures.WithLabelValues("empty_group")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Estimates.WithLabelValues("weighted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReceptionsDropped.WithLabelValues("rssi")))
}

func TestLocator_Locate_Unweighted(t *testing.T) {
	loc := pipeline.NewLocator(nil, discardLogger(), observability.NewMetricsForTesting())

	res, err := loc.Locate(context.Background(), locatorDataset(), pipeline.Options{
		Mode:    domain.ModeUnweighted,
		Weights: domain.DefaultWeightModel(),
	})
	require.NoError(t, err)

	require.Len(t, res.Estimates, 2)
	assert.Equal(t, domain.ModeUnweighted, res.Estimates[0].Mode)
	assert.InDelta(t, 52.005, res.Estimates[0].DeviceLat, coordDelta)
	assert.InDelta(t, 4.01, res.Estimates[0].DeviceLng, coordDelta)
}

func TestLocator_Locate_Ranked(t *testing.T) {
	loc := pipeline.NewLocator(nil, discardLogger(), observability.NewMetricsForTesting())
	ref := testReference

	res, err := loc.Locate(context.Background(), locatorDataset(), pipeline.Options{
		Mode:      domain.ModeWeighted,
		Weights:   domain.DefaultWeightModel(),
		Reference: &ref,
	})
	require.NoError(t, err)

	require.Len(t, res.Ranked, 2)
	assert.LessOrEqual(t, res.Ranked[0].DistanceKm, res.Ranked[1].DistanceKm)
	for _, r := range res.Ranked {
		assert.InDelta(t, domain.Haversine(r.Position(), ref), r.DistanceKm, 1e-9)
	}
}

func TestLocator_Locate_RejectsInvalidOptions(t *testing.T) {
	loc := pipeline.NewLocator(nil, discardLogger(), observability.NewMetricsForTesting())

	tests := []struct {
		name string
		opts pipeline.Options
	}{
		{"zero rssi scale", pipeline.Options{Weights: domain.WeightModel{RSSIScale: 0, SNROffset: 10}}},
		{"latitude out of range", pipeline.Options{Weights: domain.DefaultWeightModel(), Reference: &domain.Point{Lat: 91, Lng: 0}}},
		{"longitude out of range", pipeline.Options{Weights: domain.DefaultWeightModel(), Reference: &domain.Point{Lat: 0, Lng: -181}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loc.Locate(context.Background(), locatorDataset(), tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestLocator_Locate_NothingEstimated(t *testing.T) {
	loc := pipeline.NewLocator(nil, discardLogger(), observability.NewMetricsForTesting())

	res, err := loc.Locate(context.Background(), domain.Dataset{}, pipeline.Options{Weights: domain.DefaultWeightModel()})
	require.NoError(t, err)
	assert.Empty(t, res.Estimates)
	assert.Empty(t, res.Failures)
	assert.Nil(t, res.Summary)
}

func TestLocator_Locate_Geocoding(t *testing.T) {
	tests := []struct {
		name       string
		geocoder   *stubGeocoder
		wantSource string
		wantPlace  string
	}{
		{
			name:       "enriched",
			geocoder:   &stubGeocoder{result: domain.GeocodingResult{FormattedAddress: "Mekelweg 4, Delft", PlaceName: "Delft", Confidence: 0.9}},
			wantSource: "reverse",
			wantPlace:  "Delft",
		},
		{
			name:       "no address",
			geocoder:   &stubGeocoder{},
			wantSource: "original",
		},
		{
			name:       "geocoder error keeps estimate",
			geocoder:   &stubGeocoder{err: errors.New("timeout")},
			wantSource: "failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := pipeline.NewLocator(tt.geocoder, discardLogger(), observability.NewMetricsForTesting())
			res, err := loc.Locate(context.Background(), locatorDataset(), pipeline.Options{Weights: domain.DefaultWeightModel()})
			require.NoError(t, err)
			require.Len(t, res.Estimates, 2)
			assert.Equal(t, 2, tt.geocoder.calls)
			for _, e := range res.Estimates {
				assert.Equal(t, tt.wantSource, e.GeoSource)
				assert.Equal(t, tt.wantPlace, e.PlaceName)
			}
		})
	}
}
