package arc

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/globe-mesh/internal/geodesy"
)

// Path returns the arc's ground track as a lon/lat line string. Heights are
// dropped; a path crossing the antimeridian is split into a MultiLineString.
func (s Spec) Path() orb.Geometry {
	pts := Interpolate(s.From, s.To, s.Segments, 0, 1)

	var lines orb.MultiLineString
	var cur orb.LineString
	for i, p := range pts {
		lat, lon := geodesy.FromSpherePoint(p).Degrees()
		if i > 0 && math.Abs(lon-cur[len(cur)-1][0]) > 180 {
			lines = append(lines, cur)
			cur = nil
		}
		cur = append(cur, orb.Point{lon, lat})
	}
	if len(lines) == 0 {
		return cur
	}
	return append(lines, cur)
}

// Feature returns the arc as a GeoJSON feature carrying its styling.
func (s Spec) Feature() *geojson.Feature {
	f := geojson.NewFeature(s.Path())
	fromLat, fromLon := s.From.Degrees()
	toLat, toLon := s.To.Degrees()
	f.Properties["from"] = []float64{fromLat, fromLon}
	f.Properties["to"] = []float64{toLat, toLon}
	f.Properties["color"] = FormatColor(s.Color)
	f.Properties["segments"] = s.Segments
	f.Properties["peak_height"] = s.PeakHeight
	f.Properties["thickness"] = s.Thickness
	return f
}

// FeatureCollection bundles arcs into one GeoJSON collection.
func FeatureCollection(specs []Spec) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range specs {
		fc.Append(s.Feature())
	}
	return fc
}

