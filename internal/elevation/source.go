// Package elevation samples terrain heights from georeferenced rasters.
//
// A [Dataset] is the raster backend: something that can reproject WGS84
// degrees into its own spatial reference, describe its affine geotransform,
// and read single band-1 pixels. [RasterSource] turns any Dataset into a
// [Source] keyed by latitude/longitude. The GDAL-backed Dataset lives in
// internal/adapter/gdalraster; [Grid] is an in-memory Dataset in EPSG:4326.
//
// Sources report three outcomes: an elevation, no data at that location
// (ok == false), or an error wrapping [ErrDataSource]. Failures are never
// turned into a zero elevation here; callers own that policy.
package elevation

import "errors"

// ErrDataSource marks raster open, reprojection, and read failures.
var ErrDataSource = errors.New("elevation data source error")

// ErrOutOfBounds is wrapped alongside ErrDataSource when a coordinate maps
// outside the raster.
var ErrOutOfBounds = errors.New("pixel out of bounds")

// Source returns the elevation at a geographic position in degrees.
type Source interface {
	Sample(lat, lon float64) (elevation float64, ok bool, err error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(lat, lon float64) (float64, bool, error)

// Sample calls f(lat, lon).
func (f SourceFunc) Sample(lat, lon float64) (float64, bool, error) {
	return f(lat, lon)
}
