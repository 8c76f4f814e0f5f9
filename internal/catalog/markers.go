package catalog

import (
	"image/color"
	"math"

	"github.com/golang/geo/r3"
)

// Population range used to normalize marker sizes, in millions.
const (
	MinPopulation = 5.0
	MaxPopulation = 40.0

	markerBaseSize = 2.0
	markerScale    = 0.5
)

// Marker is a sphere drawn at a city, sized and tinted by population.
type Marker struct {
	City     City
	Position r3.Vector
	Size     float64
	Color    color.NRGBA
}

// MarkerFor sizes and colors a marker for c on a sphere of the given radius.
// Size grows linearly with population and is not clamped; color runs from
// pale yellow at MinPopulation to red at MaxPopulation.
func MarkerFor(c City, radius float64) (Marker, error) {
	coord, err := c.Coordinate()
	if err != nil {
		return Marker{}, err
	}
	n := (c.Population - MinPopulation) / (MaxPopulation - MinPopulation)
	t := math.Max(0, math.Min(1, n))
	return Marker{
		City:     c,
		Position: coord.SpherePoint(radius),
		Size:     markerBaseSize + n*markerScale*10,
		Color: color.NRGBA{
			R: 255,
			G: channel(1 - 0.7*t),
			B: channel(0.5 - 0.4*t),
			A: 255,
		},
	}, nil
}

// Markers returns a marker for every catalogue city.
func Markers(radius float64) []Marker {
	out := make([]Marker, 0, len(Cities))
	for _, c := range Cities {
		m, err := MarkerFor(c, radius)
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
