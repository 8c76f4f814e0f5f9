package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang/geo/r3"

	"github.com/couchcryptid/globe-mesh/internal/catalog"
	"github.com/couchcryptid/globe-mesh/internal/geodesy"
)

// ResolveEndpoint turns an endpoint into a validated coordinate. Coordinates
// are used as given; place names are looked up in the city catalogue and then
// forward geocoded. A nil geocoder limits places to the catalogue.
//
// Requests that can never resolve wrap ErrInvalidRequest. A failed geocoder
// call is returned as is so the caller can retry it.
func ResolveEndpoint(ctx context.Context, e Endpoint, geocoder Geocoder, logger *slog.Logger) (GeoPoint, geodesy.Coordinate, error) {
	place := strings.TrimSpace(e.Place)

	switch {
	case e.Lat != nil && e.Lon != nil:
		c, err := geodesy.FromDegrees(*e.Lat, *e.Lon)
		if err != nil {
			return GeoPoint{}, geodesy.Coordinate{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return GeoPoint{Lat: *e.Lat, Lon: *e.Lon, Place: place, Source: "coordinates"}, c, nil

	case e.Lat != nil || e.Lon != nil:
		return GeoPoint{}, geodesy.Coordinate{}, fmt.Errorf("%w: endpoint needs both lat and lon", ErrInvalidRequest)

	case place == "":
		return GeoPoint{}, geodesy.Coordinate{}, fmt.Errorf("%w: endpoint has neither coordinates nor place", ErrInvalidRequest)
	}

	if city, ok := catalog.Lookup(place); ok {
		c, err := city.Coordinate()
		if err != nil {
			return GeoPoint{}, geodesy.Coordinate{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return GeoPoint{Lat: city.Lat, Lon: city.Lon, Place: city.Name, Source: "catalog"}, c, nil
	}

	if geocoder == nil {
		return GeoPoint{}, geodesy.Coordinate{}, fmt.Errorf("%w: unknown place %q", ErrInvalidRequest, place)
	}

	result, err := geocoder.ForwardGeocode(ctx, place)
	if err != nil {
		logger.Warn("forward geocoding failed", "place", place, "error", err)
		return GeoPoint{}, geodesy.Coordinate{}, fmt.Errorf("geocode %q: %w", place, err)
	}
	if !result.Found() {
		return GeoPoint{}, geodesy.Coordinate{}, fmt.Errorf("%w: no match for place %q", ErrInvalidRequest, place)
	}
	c, err := geodesy.FromDegrees(result.Lat, result.Lon)
	if err != nil {
		return GeoPoint{}, geodesy.Coordinate{}, fmt.Errorf("%w: geocoded %q: %w", ErrInvalidRequest, place, err)
	}

	name := result.PlaceName
	if name == "" {
		name = place
	}
	return GeoPoint{Lat: result.Lat, Lon: result.Lon, Place: name, Source: "forward"}, c, nil
}

// PickResult describes a point picked on the globe.
type PickResult struct {
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	PlaceName        string  `json:"place_name,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source"` // "reverse", "original", "failed"
}

// Pick converts a hit point in sphere space into a coordinate and, when a
// geocoder is available, enriches it with the nearest place. Geocoding
// failures degrade to the bare coordinate.
func Pick(ctx context.Context, hit r3.Vector, geocoder Geocoder, logger *slog.Logger) (PickResult, error) {
	if hit.Norm() == 0 {
		return PickResult{}, fmt.Errorf("%w: pick point at the origin", ErrInvalidRequest)
	}
	lat, lon := geodesy.FromSpherePoint(hit).Degrees()
	res := PickResult{Lat: lat, Lon: lon, GeoSource: "original"}
	if geocoder == nil {
		return res, nil
	}

	result, err := geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Warn("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		res.GeoSource = "failed"
		return res, nil
	}
	if result.FormattedAddress == "" {
		return res, nil
	}
	res.FormattedAddress = result.FormattedAddress
	res.PlaceName = result.PlaceName
	res.GeoConfidence = result.Confidence
	res.GeoSource = "reverse"
	return res, nil
}
