package domain

import "fmt"

// UnweightedCentroid returns the arithmetic mean of the group's gateway positions.
func UnweightedCentroid(g Group) (Point, error) {
	n := len(g.Receptions)
	if n == 0 {
		return Point{}, &GroupError{MessageID: g.MessageID, Err: ErrEmptyGroup}
	}

	var lat, lng float64
	for _, r := range g.Receptions {
		lat += r.Lat
		lng += r.Lng
	}
	return Point{Lat: lat / float64(n), Lng: lng / float64(n)}, nil
}

// WeightedCentroid returns the weighted average of the group's gateway
// positions using the normalized weights of m.
func WeightedCentroid(g Group, m WeightModel) (Point, error) {
	weights, err := m.Weights(g)
	if err != nil {
		return Point{}, err
	}

	var p Point
	for i, r := range g.Receptions {
		p.Lat += r.Lat * weights[i]
		p.Lng += r.Lng * weights[i]
	}
	return p, nil
}

// MeanOfCentroids folds a set of estimates into the mean of their positions.
// It is a dataset-wide diagnostic and is not used by ranking.
func MeanOfCentroids(estimates []Estimate) (Point, error) {
	if len(estimates) == 0 {
		return Point{}, fmt.Errorf("%w: no estimates to summarize", ErrInvalidInput)
	}

	sum := Point{}
	for _, e := range estimates {
		sum.Lat += e.DeviceLat
		sum.Lng += e.DeviceLng
	}
	n := float64(len(estimates))
	return Point{Lat: sum.Lat / n, Lng: sum.Lng / n}, nil
}
