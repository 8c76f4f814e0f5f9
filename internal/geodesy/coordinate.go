package geodesy

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// DefaultRadius is the planet radius, in scene units, used when callers do not
// configure one.
const DefaultRadius = 300.0

// ErrInvalidCoordinate is returned when a latitude or longitude falls outside
// its valid degree range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a validated geographic position.
type Coordinate struct {
	Lat s1.Angle
	Lon s1.Angle
}

// FromDegrees validates lat/lon in degrees and returns the coordinate.
func FromDegrees(lat, lon float64) (Coordinate, error) {
	if err := checkLatitude(lat); err != nil {
		return Coordinate{}, err
	}
	if err := checkLongitude(lon); err != nil {
		return Coordinate{}, err
	}
	return Coordinate{
		Lat: s1.Angle(lat) * s1.Degree,
		Lon: s1.Angle(lon) * s1.Degree,
	}, nil
}

// MustFromDegrees is like FromDegrees but panics on invalid input. It is meant
// for package-level tables of known-good coordinates.
func MustFromDegrees(lat, lon float64) Coordinate {
	c, err := FromDegrees(lat, lon)
	if err != nil {
		panic(err)
	}
	return c
}

// Degrees returns latitude and longitude in degrees.
func (c Coordinate) Degrees() (lat, lon float64) {
	return c.Lat.Degrees(), c.Lon.Degrees()
}

func (c Coordinate) String() string {
	lat, lon := c.Degrees()
	return fmt.Sprintf("(%.6f, %.6f)", lat, lon)
}

// UnitVector returns the coordinate's direction on the unit sphere.
func (c Coordinate) UnitVector() r3.Vector {
	lat, lon := c.Lat.Radians(), c.Lon.Radians()
	r := math.Cos(lat)
	return r3.Vector{
		X: math.Sin(lon) * r,
		Y: math.Sin(lat),
		Z: math.Cos(lon) * r,
	}.Normalize()
}

// SpherePoint returns the coordinate's position on a sphere of the given radius.
func (c Coordinate) SpherePoint(radius float64) r3.Vector {
	return c.UnitVector().Mul(radius)
}

// FromSpherePoint recovers the coordinate of a point in sphere space. Only the
// direction matters; the point may be at any distance from the origin. The
// zero vector maps to the zero coordinate.
func FromSpherePoint(p r3.Vector) Coordinate {
	n := p.Normalize()
	y := math.Max(-1, math.Min(1, n.Y))
	return Coordinate{
		Lat: s1.Angle(math.Asin(y)),
		Lon: s1.Angle(math.Atan2(n.X, n.Z)),
	}
}

func checkLatitude(lat float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidCoordinate, lat)
	}
	return nil
}

func checkLongitude(lon float64) error {
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidCoordinate, lon)
	}
	return nil
}
