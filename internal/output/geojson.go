package output

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/lora-locator/internal/domain"
)

// Feature "kind" property values.
const (
	kindEstimate  = "estimate"
	kindSummary   = "summary"
	kindReference = "reference"
)

// FeatureCollection builds the GeoJSON form of a report: one Point feature
// per estimate, plus the mean position and reference point when present.
// The bounding box covers the estimates only.
func FeatureCollection(r Report) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	var points orb.MultiPoint
	for i, row := range r.rows() {
		p := toOrb(row.Position())
		points = append(points, p)

		f := geojson.NewFeature(p)
		f.ID = row.MessageID
		f.Properties["kind"] = kindEstimate
		f.Properties["message_id"] = row.MessageID
		f.Properties["receivers"] = row.Receivers
		f.Properties["mode"] = string(row.Mode)
		if !row.ProcessedAt.IsZero() {
			f.Properties["processed_at"] = row.ProcessedAt
		}
		if row.PlaceName != "" {
			f.Properties["place_name"] = row.PlaceName
			f.Properties["formatted_address"] = row.FormattedAddress
		}
		if row.ranked {
			f.Properties["rank"] = i + 1
			f.Properties["distance_km"] = round(row.distanceKm, 3)
		}
		fc.Append(f)
	}

	if r.Summary != nil {
		f := geojson.NewFeature(toOrb(*r.Summary))
		f.Properties["kind"] = kindSummary
		f.Properties["estimates"] = len(points)
		fc.Append(f)
	}
	if r.Reference != nil {
		f := geojson.NewFeature(toOrb(*r.Reference))
		f.Properties["kind"] = kindReference
		fc.Append(f)
	}

	if len(points) > 0 {
		fc.BBox = geojson.NewBBox(points.Bound())
	}
	return fc
}

func writeGeoJSON(w io.Writer, r Report) error {
	data, err := FeatureCollection(r).MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal geojson: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}

// toOrb converts to orb's [lng, lat] order, rounded to the output precision.
func toOrb(p domain.Point) orb.Point {
	return orb.Point{round(p.Lng, coordDecimals), round(p.Lat, coordDecimals)}
}
