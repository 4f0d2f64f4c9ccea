package domain

import (
	"fmt"
	"math"
)

const (
	// DefaultRSSIScale divides RSSI before exponentiation. Empirical tuning
	// constant: every 10 dB of RSSI multiplies the weight by e.
	DefaultRSSIScale = 10.0

	// DefaultSNROffset is added to SNR so receptions near or slightly below
	// the noise floor still carry a positive weight. Empirical tuning constant.
	DefaultSNROffset = 10.0
)

// WeightModel converts reception signal metrics into spatial weights.
type WeightModel struct {
	RSSIScale float64
	SNROffset float64
}

// DefaultWeightModel returns the model with the default tuning constants.
func DefaultWeightModel() WeightModel {
	return WeightModel{RSSIScale: DefaultRSSIScale, SNROffset: DefaultSNROffset}
}

// Validate rejects models that cannot produce finite weights.
func (m WeightModel) Validate() error {
	if m.RSSIScale <= 0 || math.IsNaN(m.RSSIScale) || math.IsInf(m.RSSIScale, 0) {
		return fmt.Errorf("%w: rssi scale must be positive, got %v", ErrInvalidInput, m.RSSIScale)
	}
	if math.IsNaN(m.SNROffset) || math.IsInf(m.SNROffset, 0) {
		return fmt.Errorf("%w: snr offset must be finite, got %v", ErrInvalidInput, m.SNROffset)
	}
	return nil
}

// RawWeight returns the unnormalized weight of a single reception.
func (m WeightModel) RawWeight(r Reception) float64 {
	return math.Exp(r.RSSI/m.RSSIScale) * (r.SNR + m.SNROffset)
}

// Weights returns normalized weights aligned with g.Receptions, summing to 1.
//
// Raw weights go negative when SNR falls below -SNROffset. In a group that
// also has positive raw weights, negative ones are clamped to zero. When no
// raw weight is positive the group is normalized by its negative sum, which
// gives each reception its share of the total magnitude. ErrZeroWeight is
// returned only when the sum is zero or not finite.
func (m WeightModel) Weights(g Group) ([]float64, error) {
	if len(g.Receptions) == 0 {
		return nil, &GroupError{MessageID: g.MessageID, Err: ErrEmptyGroup}
	}

	raw := make([]float64, len(g.Receptions))
	var positive bool
	for i, r := range g.Receptions {
		raw[i] = m.RawWeight(r)
		if raw[i] > 0 {
			positive = true
		}
	}

	weights := make([]float64, len(raw))
	var sum float64
	for i, w := range raw {
		if positive && w < 0 {
			w = 0
		}
		weights[i] = w
		sum += w
	}

	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, &GroupError{MessageID: g.MessageID, Err: ErrZeroWeight}
	}

	for i := range weights {
		weights[i] /= sum
	}
	return weights, nil
}
