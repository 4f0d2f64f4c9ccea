package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// EstimateGroup computes the position of one message using the given mode.
func EstimateGroup(g Group, mode Mode, model WeightModel) (Estimate, error) {
	var (
		p   Point
		err error
	)
	switch mode {
	case ModeUnweighted:
		p, err = UnweightedCentroid(g)
	case ModeWeighted, "":
		mode = ModeWeighted
		p, err = WeightedCentroid(g, model)
	default:
		return Estimate{}, &GroupError{MessageID: g.MessageID, Err: fmt.Errorf("%w: unknown estimate mode %q", ErrInvalidInput, mode)}
	}
	if err != nil {
		return Estimate{}, err
	}

	return Estimate{
		MessageID:   g.MessageID,
		DeviceLat:   p.Lat,
		DeviceLng:   p.Lng,
		Receivers:   len(g.Receptions),
		Mode:        mode,
		ProcessedAt: clock.Now(),
	}, nil
}

// EstimateAll estimates every group independently. Groups that fail are
// returned as GroupErrors and do not affect the others. Estimates keep the
// order of groups.
func EstimateAll(groups []Group, mode Mode, model WeightModel) ([]Estimate, []*GroupError) {
	estimates := make([]Estimate, 0, len(groups))
	var failures []*GroupError
	for _, g := range groups {
		e, err := EstimateGroup(g, mode, model)
		if err != nil {
			failures = append(failures, asGroupError(g.MessageID, err))
			continue
		}
		estimates = append(estimates, e)
	}
	return estimates, failures
}

func asGroupError(messageID string, err error) *GroupError {
	var ge *GroupError
	if errors.As(err, &ge) {
		return ge
	}
	return &GroupError{MessageID: messageID, Err: err}
}

// SerializeEstimate marshals an estimate into an OutputEvent keyed by message id.
func SerializeEstimate(e Estimate) (OutputEvent, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize estimate: %w", err)
	}
	return OutputEvent{
		Key:   []byte(e.MessageID),
		Value: data,
		Headers: map[string]string{
			"mode":         string(e.Mode),
			"receivers":    strconv.Itoa(e.Receivers),
			"processed_at": e.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
