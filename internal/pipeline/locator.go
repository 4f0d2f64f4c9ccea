package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/lora-locator/internal/domain"
	"github.com/couchcryptid/lora-locator/internal/observability"
)

// Options selects how a batch of receptions is turned into estimates.
type Options struct {
	Mode    domain.Mode
	Weights domain.WeightModel

	// Reference enables distance ranking when non-nil.
	Reference *domain.Point
}

// Result is the outcome of one batch estimation run.
type Result struct {
	Estimates []domain.Estimate
	Failures  []*domain.GroupError
	Dropped   []*domain.FieldError

	// Summary is the mean of all estimated positions; nil when nothing was estimated.
	Summary *domain.Point

	// Ranked is set only when a reference point was given.
	Ranked []domain.RankedEstimate
}

// Locator runs the grouping, weighting, centroid and ranking stages over an
// in-memory dataset.
type Locator struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewLocator creates a Locator. Pass a nil geocoder to disable place enrichment.
func NewLocator(geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *Locator {
	return &Locator{
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

// Locate estimates one position per message in ds. Per-message failures are
// collected in Result.Failures and do not stop the run. An invalid weight
// model or reference point is rejected before any computation.
func (l *Locator) Locate(ctx context.Context, ds domain.Dataset, opts Options) (Result, error) {
	if err := opts.Weights.Validate(); err != nil {
		return Result{}, err
	}
	if opts.Reference != nil {
		if err := opts.Reference.Validate(); err != nil {
			return Result{}, fmt.Errorf("reference point: %w", err)
		}
	}

	for _, fe := range ds.Dropped {
		l.metrics.ReceptionsDropped.WithLabelValues(fe.Field).Inc()
		l.logger.Debug("reception dropped", "row", fe.Row, "message_id", fe.MessageID, "field", fe.Field, "value", fe.Value)
	}

	groups := ds.Groups()
	estimates, failures := domain.EstimateAll(groups, opts.Mode, opts.Weights)

	for _, f := range failures {
		l.metrics.GroupFailures.WithLabelValues(failureReason(f)).Inc()
		l.logger.Warn("estimate failed", "message_id", f.MessageID, "error", f.Err)
	}

	for i := range estimates {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		estimates[i] = domain.EnrichWithGeocoding(ctx, estimates[i], l.geocoder, l.logger)
		l.metrics.Estimates.WithLabelValues(string(estimates[i].Mode)).Inc()
		l.metrics.Receivers.Observe(float64(estimates[i].Receivers))
	}

	res := Result{
		Estimates: estimates,
		Failures:  failures,
		Dropped:   ds.Dropped,
	}
	if summary, err := domain.MeanOfCentroids(estimates); err == nil {
		res.Summary = &summary
	}

	l.logger.Info("estimation complete",
		"receptions", len(ds.Receptions),
		"dropped", len(ds.Dropped),
		"messages", len(groups),
		"estimates", len(estimates),
		"failures", len(failures),
	)

	if opts.Reference == nil {
		return res, nil
	}
	ranked, err := domain.Rank(estimates, *opts.Reference)
	if err != nil {
		return res, err
	}
	res.Ranked = ranked
	return res, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyGroup):
		return "empty_group"
	case errors.Is(err, domain.ErrZeroWeight):
		return "zero_weight"
	default:
		return "invalid"
	}
}
