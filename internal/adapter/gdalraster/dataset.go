// Package gdalraster implements elevation.Dataset on top of GDAL.
package gdalraster

import (
	"errors"
	"fmt"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/couchcryptid/globe-mesh/internal/elevation"
)

var registerOnce sync.Once

var errClosed = errors.New("dataset closed")

// Dataset is a GDAL raster opened read-only. Band 1 holds elevation. All
// GDAL calls go through mu; the handle is not safe for concurrent use on its
// own.
type Dataset struct {
	mu     sync.Mutex
	ds     *godal.Dataset
	band   godal.Band
	trn    *godal.Transform
	srs    []*godal.SpatialRef
	gt     elevation.GeoTransform
	width  int
	height int
	nodata float64
	hasND  bool
}

var _ elevation.Dataset = (*Dataset)(nil)

// Open opens path and prepares a WGS84 to native transform. It fails when the
// file cannot be opened, has no bands, no spatial reference, or no usable
// geotransform.
func Open(path string) (*Dataset, error) {
	registerOnce.Do(godal.RegisterAll)

	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", elevation.ErrDataSource, path, err)
	}
	d, err := wrap(ds)
	if err != nil {
		_ = ds.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func wrap(ds *godal.Dataset) (*Dataset, error) {
	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: no raster bands", elevation.ErrDataSource)
	}

	wkt := ds.Projection()
	if wkt == "" {
		return nil, fmt.Errorf("%w: missing spatial reference", elevation.ErrDataSource)
	}
	native, err := godal.NewSpatialRefFromWKT(wkt)
	if err != nil {
		return nil, fmt.Errorf("%w: parse spatial reference: %w", elevation.ErrDataSource, err)
	}
	wgs84, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		native.Close()
		return nil, fmt.Errorf("%w: wgs84 spatial reference: %w", elevation.ErrDataSource, err)
	}
	trn, err := godal.NewTransform(wgs84, native)
	if err != nil {
		native.Close()
		wgs84.Close()
		return nil, fmt.Errorf("%w: coordinate transform: %w", elevation.ErrDataSource, err)
	}

	gt, err := ds.GeoTransform()
	if err != nil || !elevation.GeoTransform(gt).Valid() {
		trn.Close()
		native.Close()
		wgs84.Close()
		if err == nil {
			err = errors.New("degenerate")
		}
		return nil, fmt.Errorf("%w: geotransform: %w", elevation.ErrDataSource, err)
	}

	st := ds.Structure()
	nd, hasND := bands[0].NoData()
	return &Dataset{
		ds:     ds,
		band:   bands[0],
		trn:    trn,
		srs:    []*godal.SpatialRef{native, wgs84},
		gt:     elevation.GeoTransform(gt),
		width:  st.SizeX,
		height: st.SizeY,
		nodata: nd,
		hasND:  hasND,
	}, nil
}

// ToNative reprojects WGS84 degrees into the dataset's spatial reference.
func (d *Dataset) ToNative(lon, lat float64) (float64, float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ds == nil {
		return 0, 0, errClosed
	}

	x, y, z := []float64{lon}, []float64{lat}, []float64{0}
	ok := []bool{false}
	if err := d.trn.TransformEx(x, y, z, ok); err != nil {
		return 0, 0, err
	}
	if !ok[0] {
		return 0, 0, fmt.Errorf("point (%v, %v) not transformable", lat, lon)
	}
	return x[0], y[0], nil
}

func (d *Dataset) GeoTransform() elevation.GeoTransform { return d.gt }

func (d *Dataset) Size() (int, int) { return d.width, d.height }

// ReadPixel reads one band-1 pixel with average resampling.
func (d *Dataset) ReadPixel(px, py int) (float64, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ds == nil {
		return 0, false, errClosed
	}

	buf := make([]float64, 1)
	err := d.band.Read(px, py, buf, 1, 1,
		godal.Window(1, 1),
		godal.Resampling(godal.Average),
	)
	if err != nil {
		return 0, false, err
	}
	if d.hasND && buf[0] == d.nodata {
		return 0, false, nil
	}
	return buf[0], true, nil
}

// Close releases the transform, spatial references, and dataset.
func (d *Dataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ds == nil {
		return nil
	}
	d.trn.Close()
	for _, sr := range d.srs {
		sr.Close()
	}
	err := d.ds.Close()
	d.ds = nil
	return err
}
