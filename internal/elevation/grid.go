package elevation

import (
	"fmt"
	"math"
)

// Grid is an in-memory, north-up raster in EPSG:4326. Reprojection is the
// identity, so x is longitude and y is latitude. NaN cells read as no data.
type Grid struct {
	width, height int
	gt            GeoTransform
	values        []float64
}

// NewGrid builds a grid from row-major values (row 0 is the northern edge).
func NewGrid(width, height int, gt GeoTransform, values []float64) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: grid size %dx%d", ErrDataSource, width, height)
	}
	if len(values) != width*height {
		return nil, fmt.Errorf("%w: grid %dx%d needs %d values, got %d", ErrDataSource, width, height, width*height, len(values))
	}
	if !gt.Valid() {
		return nil, fmt.Errorf("%w: degenerate geotransform %v", ErrDataSource, gt)
	}
	return &Grid{width: width, height: height, gt: gt, values: values}, nil
}

// GlobalGrid covers the whole globe with width x height cells and fills each
// cell by evaluating fn at the cell center.
func GlobalGrid(width, height int, fn func(lat, lon float64) float64) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: grid size %dx%d", ErrDataSource, width, height)
	}
	gt := GeoTransform{-180, 360 / float64(width), 0, 90, 0, -180 / float64(height)}
	values := make([]float64, width*height)
	for py := range height {
		lat := gt[3] + (float64(py)+0.5)*gt[5]
		for px := range width {
			lon := gt[0] + (float64(px)+0.5)*gt[1]
			values[py*width+px] = fn(lat, lon)
		}
	}
	return NewGrid(width, height, gt, values)
}

// ToNative is the identity.
func (g *Grid) ToNative(lon, lat float64) (float64, float64, error) {
	return lon, lat, nil
}

// GeoTransform returns the grid's affine transform.
func (g *Grid) GeoTransform() GeoTransform { return g.gt }

// Size returns the grid dimensions.
func (g *Grid) Size() (int, int) { return g.width, g.height }

// ReadPixel returns the cell value.
func (g *Grid) ReadPixel(px, py int) (float64, bool, error) {
	if px < 0 || py < 0 || px >= g.width || py >= g.height {
		return 0, false, fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, px, py)
	}
	v := g.values[py*g.width+px]
	if math.IsNaN(v) {
		return 0, false, nil
	}
	return v, true, nil
}

// Close is a no-op.
func (g *Grid) Close() error { return nil }
