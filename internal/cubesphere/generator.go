package cubesphere

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/globe-mesh/internal/elevation"
	"github.com/couchcryptid/globe-mesh/internal/geodesy"
	"github.com/couchcryptid/globe-mesh/internal/mesh"
)

// ErrInvalidParams is returned by NewGenerator for unusable parameters.
var ErrInvalidParams = errors.New("invalid generator parameters")

// antimeridianEpsilon absorbs radian/degree round-off when testing lon == 180.
const antimeridianEpsilon = 1e-9

// SeamPolicy holds the latitude thresholds of the texture seam patches.
type SeamPolicy struct {
	// MidLatitude bounds the band |lat| < MidLatitude in which a tile that
	// starts west of 0° has u forced to 0 once it crosses into positive
	// longitudes.
	MidLatitude float64
	// SouthLatitude is the latitude below which a tile's first column at
	// exactly 180° has u forced to 0.
	SouthLatitude float64
	Disabled      bool
}

// DefaultSeamPolicy returns the stock thresholds.
func DefaultSeamPolicy() SeamPolicy {
	return SeamPolicy{MidLatitude: 89, SouthLatitude: -40}
}

// Params configures tile generation.
type Params struct {
	Radius float64
	// ExaggerationDivisor scales elevation samples into scene units: a sample
	// of h raises the vertex by h/ExaggerationDivisor.
	ExaggerationDivisor float64
	Seam                SeamPolicy
}

// DefaultParams returns radius 300, divisor 300 and the default seam policy.
func DefaultParams() Params {
	return Params{
		Radius:              geodesy.DefaultRadius,
		ExaggerationDivisor: 300,
		Seam:                DefaultSeamPolicy(),
	}
}

func (p Params) validate() error {
	if !(p.Radius > 0) || math.IsInf(p.Radius, 0) {
		return fmt.Errorf("%w: radius %v", ErrInvalidParams, p.Radius)
	}
	if !(p.ExaggerationDivisor > 0) || math.IsInf(p.ExaggerationDivisor, 0) {
		return fmt.Errorf("%w: exaggeration divisor %v", ErrInvalidParams, p.ExaggerationDivisor)
	}
	if !p.Seam.Disabled {
		if !(p.Seam.MidLatitude >= 0 && p.Seam.MidLatitude <= 90) {
			return fmt.Errorf("%w: seam mid latitude %v", ErrInvalidParams, p.Seam.MidLatitude)
		}
		if !(p.Seam.SouthLatitude >= -90 && p.Seam.SouthLatitude <= 90) {
			return fmt.Errorf("%w: seam south latitude %v", ErrInvalidParams, p.Seam.SouthLatitude)
		}
	}
	return nil
}

// FaceStats summarizes how a tile's vertices were produced.
type FaceStats struct {
	Vertices  int
	Displaced int
	// Fallback counts by reason: no data at the location, a zero or
	// negative sample, or a sampling error.
	NoData      int
	NonPositive int
	Errors      int
	// FirstError is the first sampling error seen, if any.
	FirstError    error
	SeamCorrected int
	MaxElevation  float64
}

// Fallbacks returns the number of vertices left at the base radius.
func (s FaceStats) Fallbacks() int {
	return s.NoData + s.NonPositive + s.Errors
}

// Generator builds tiles. The elevation source may be nil, which yields a
// smooth sphere.
type Generator struct {
	params Params
	source elevation.Source
}

// NewGenerator validates params and returns a Generator.
func NewGenerator(params Params, source elevation.Source) (*Generator, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Generator{params: params, source: source}, nil
}

// Params returns the generator's parameters.
func (g *Generator) Params() Params { return g.params }

// GenerateFace builds the tile described by spec. Sampling failures never fail
// the tile; affected vertices stay at the base radius and are counted in the
// returned stats. An error is returned only for malformed spec values.
func (g *Generator) GenerateFace(spec FaceSpec) (mesh.Buffers, FaceStats, error) {
	if err := spec.Validate(); err != nil {
		return mesh.Buffers{}, FaceStats{}, err
	}

	r := spec.Resolution
	axisA, axisB := axes(spec.Normal)
	last := float64(r - 1)

	buf := mesh.New(r*r, 6*(r-1)*(r-1))
	var stats FaceStats
	var firstLon float64

	for y := range r {
		for x := range r {
			cube := spec.Normal.
				Add(axisA.Mul(float64(x)/last - spec.OffsetX)).
				Add(axisB.Mul(float64(y)/last - spec.OffsetY))
			dir := cube.Normalize()
			coord := geodesy.FromSpherePoint(dir)
			lat, lon := coord.Degrees()

			pos := dir.Mul(g.radiusAt(lat, lon, &stats))

			uv := coord.UV()
			if x == 0 && y == 0 {
				firstLon = lon
			}
			if g.patchSeam(x, lat, lon, firstLon) {
				uv.U = 0
				stats.SeamCorrected++
			}

			i := buf.AddVertex(pos, dir.Mul(-1), uv.U, uv.V)
			stats.Vertices++

			if x != r-1 && y != r-1 {
				ur := uint32(r)
				buf.AddTriangle(i, i+ur, i+ur+1)
				buf.AddTriangle(i, i+ur+1, i+1)
			}
		}
	}
	return buf, stats, nil
}

// radiusAt returns the displaced radius for a vertex and records the outcome.
func (g *Generator) radiusAt(lat, lon float64, stats *FaceStats) float64 {
	base := g.params.Radius
	if g.source == nil {
		return base
	}
	h, ok, err := g.source.Sample(lat, lon)
	switch {
	case err != nil:
		stats.Errors++
		if stats.FirstError == nil {
			stats.FirstError = err
		}
		return base
	case !ok:
		stats.NoData++
		return base
	case !(h > 0):
		stats.NonPositive++
		return base
	}
	stats.Displaced++
	stats.MaxElevation = math.Max(stats.MaxElevation, h)
	return base + h/g.params.ExaggerationDivisor
}

func (g *Generator) patchSeam(x int, lat, lon, firstLon float64) bool {
	seam := g.params.Seam
	if seam.Disabled {
		return false
	}
	if firstLon < 0 && lon > 0 && lat < seam.MidLatitude && lat > -seam.MidLatitude {
		return true
	}
	return x == 0 && math.Abs(lon-180) < antimeridianEpsilon && lat < seam.SouthLatitude
}

// Tile generates quadrant q of face f at the given resolution.
func (g *Generator) Tile(f Face, q Quadrant, resolution int) (mesh.Buffers, FaceStats, error) {
	return g.GenerateFace(f.Spec(q, resolution))
}
