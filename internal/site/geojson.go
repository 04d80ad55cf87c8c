package site

import (
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection renders companies as WGS84 points for the map layer.
func FeatureCollection(companies []Company) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(companies))}
	for i, c := range companies {
		pt := geom.NewPointFlat(geom.XY, []float64{c.Lon, c.Lat}).SetSRID(4326)
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       strconv.Itoa(i),
			Geometry: pt,
			Properties: map[string]any{
				"name":        c.Name,
				"url":         c.URL,
				"stage":       c.Stage,
				"hiring":      c.Hiring,
				"tags":        c.Tags,
				"role_count":  len(c.Roles),
				"careers_url": c.CareersURL,
				"postcode":    c.Postcode,
				"loc_approx":  c.LocApprox,
			},
		})
	}
	return fc
}
