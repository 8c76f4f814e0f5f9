package elevation

import (
	"fmt"
	"math"
)

// GeoTransform is the GDAL-style affine transform between pixel indices and
// projected coordinates:
//
//	x = gt[0] + px*gt[1] + py*gt[2]
//	y = gt[3] + px*gt[4] + py*gt[5]
//
// Rotation terms (gt[2], gt[4]) are ignored when inverting; north-up rasters
// have them at zero.
type GeoTransform [6]float64

// Pixel returns the pixel containing projected coordinate (x, y).
func (gt GeoTransform) Pixel(x, y float64) (px, py int) {
	return int(math.Floor((x - gt[0]) / gt[1])), int(math.Floor((y - gt[3]) / gt[5]))
}

// pixelIn is Pixel with the closing edge of a width x height raster folded
// into the last row/column, so a raster covering [-180, 180] still answers
// for longitude 180 exactly.
func (gt GeoTransform) pixelIn(x, y float64, width, height int) (px, py int) {
	px, py = gt.Pixel(x, y)
	if px == width && (x-gt[0])/gt[1] == float64(width) {
		px = width - 1
	}
	if py == height && (y-gt[3])/gt[5] == float64(height) {
		py = height - 1
	}
	return px, py
}

// Valid reports whether the transform can be inverted.
func (gt GeoTransform) Valid() bool {
	return gt[1] != 0 && gt[5] != 0 && !math.IsNaN(gt[1]) && !math.IsNaN(gt[5])
}

// Dataset is a single-band georeferenced raster.
type Dataset interface {
	// ToNative reprojects WGS84 lon/lat degrees into the raster's spatial
	// reference.
	ToNative(lon, lat float64) (x, y float64, err error)
	GeoTransform() GeoTransform
	// Size returns the raster width and height in pixels.
	Size() (width, height int)
	// ReadPixel reads band 1 at (px, py) with average resampling. ok is false
	// when the pixel holds the band's nodata value.
	ReadPixel(px, py int) (value float64, ok bool, err error)
	Close() error
}

// RasterSource samples a Dataset by geographic coordinate.
type RasterSource struct {
	ds Dataset
}

// NewRasterSource wraps ds. The source takes ownership; Close closes ds.
func NewRasterSource(ds Dataset) (*RasterSource, error) {
	if !ds.GeoTransform().Valid() {
		return nil, fmt.Errorf("%w: degenerate geotransform %v", ErrDataSource, ds.GeoTransform())
	}
	return &RasterSource{ds: ds}, nil
}

// Sample reprojects (lat, lon), locates the pixel through the geotransform,
// and reads it.
func (s *RasterSource) Sample(lat, lon float64) (float64, bool, error) {
	x, y, err := s.ds.ToNative(lon, lat)
	if err != nil {
		return 0, false, fmt.Errorf("%w: reproject (%v, %v): %w", ErrDataSource, lat, lon, err)
	}

	w, h := s.ds.Size()
	px, py := s.ds.GeoTransform().pixelIn(x, y, w, h)
	if px < 0 || py < 0 || px >= w || py >= h {
		return 0, false, fmt.Errorf("%w: %w: pixel (%d, %d) for (%v, %v) outside %dx%d",
			ErrDataSource, ErrOutOfBounds, px, py, lat, lon, w, h)
	}

	v, ok, err := s.ds.ReadPixel(px, py)
	if err != nil {
		return 0, false, fmt.Errorf("%w: read pixel (%d, %d): %w", ErrDataSource, px, py, err)
	}
	return v, ok, nil
}

// Close releases the underlying dataset.
func (s *RasterSource) Close() error {
	return s.ds.Close()
}
