package domain

import (
	"fmt"
	"math"
	"sort"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Point) float64 {
	lat1, lng1 := toRadians(a.Lat), toRadians(a.Lng)
	lat2, lng2 := toRadians(b.Lat), toRadians(b.Lng)

	dLat := lat2 - lat1
	dLng := lng2 - lng1

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLng/2), 2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Rank computes each estimate's distance to ref and returns them sorted
// ascending by distance. Ties keep their input order.
func Rank(estimates []Estimate, ref Point) ([]RankedEstimate, error) {
	if len(estimates) == 0 {
		return nil, fmt.Errorf("%w: no estimates to rank", ErrInvalidInput)
	}
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("reference point: %w", err)
	}

	ranked := make([]RankedEstimate, len(estimates))
	for i, e := range estimates {
		ranked[i] = RankedEstimate{
			Estimate:   e,
			DistanceKm: Haversine(ref, e.Position()),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	return ranked, nil
}
