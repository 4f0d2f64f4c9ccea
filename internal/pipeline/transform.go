package pipeline

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/lora-locator/internal/domain"
)

// UplinkTransformer implements Transformer: it decodes one uplink, estimates
// the device position from its gateway receptions and serializes the result.
type UplinkTransformer struct {
	mode     domain.Mode
	weights  domain.WeightModel
	geocoder domain.Geocoder
	logger   *slog.Logger

	// reference, when set, adds a distance_km header to every estimate.
	reference *domain.Point
}

// NewTransformer creates an UplinkTransformer. Pass a nil geocoder to disable
// reverse geocoding enrichment.
func NewTransformer(mode domain.Mode, weights domain.WeightModel, geocoder domain.Geocoder, logger *slog.Logger) *UplinkTransformer {
	return &UplinkTransformer{
		mode:     mode,
		weights:  weights,
		geocoder: geocoder,
		logger:   logger,
	}
}

// WithReference makes the transformer annotate each estimate with its
// great-circle distance to ref.
func (t *UplinkTransformer) WithReference(ref domain.Point) *UplinkTransformer {
	t.reference = &ref
	return t
}

// Transform estimates the position of one uplink and serializes it.
func (t *UplinkTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	key := string(raw.Key)
	if key == "" {
		key = raw.Topic + "/" + strconv.Itoa(raw.Partition) + "/" + strconv.FormatInt(raw.Offset, 10)
	}

	ds, err := domain.ParseUplink(key, raw.Value)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	for _, fe := range ds.Dropped {
		t.logger.Debug("gateway reception dropped", "message_id", fe.MessageID, "field", fe.Field)
	}

	// Receptions of one uplink share a message id, so there is at most one group.
	groups := ds.Groups()
	if len(groups) == 0 {
		return domain.OutputEvent{}, &domain.GroupError{MessageID: key, Err: domain.ErrEmptyGroup}
	}

	estimate, err := domain.EstimateGroup(groups[0], t.mode, t.weights)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	estimate = domain.EnrichWithGeocoding(ctx, estimate, t.geocoder, t.logger)

	out, err := domain.SerializeEstimate(estimate)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	if t.reference != nil {
		km := domain.Haversine(*t.reference, estimate.Position())
		out.Headers["distance_km"] = strconv.FormatFloat(km, 'f', 3, 64)
	}
	return out, nil
}
