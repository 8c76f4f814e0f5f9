package geodesy

import "math"

// boundaryEpsilon is the distance, in degrees, within which a value is snapped
// onto a piece boundary.
const boundaryEpsilon = 1e-9

// UV is a texture coordinate in [0,1]².
type UV struct {
	U float64
	V float64
}

type span struct{ from, to float64 }

var (
	latNorth = [2]span{{90, 0}, {0, 0.5}}
	latSouth = [2]span{{0, -90}, {0.5, 1}}
	lonWest  = [2]span{{-180, 0}, {0, 0.5}}
	lonEast  = [2]span{{0, 180}, {0.5, 1}}
)

// UV maps the coordinate into texture space. A Coordinate built with
// FromDegrees or FromSpherePoint is always in range, so the mapping cannot
// fail.
func (c Coordinate) UV() UV {
	lat, lon := c.Degrees()
	return UV{U: mapLongitude(clampDeg(lon, 180)), V: mapLatitude(clampDeg(lat, 90))}
}

// MapLatitude maps latitude degrees to v: 90 -> 0.0, 0 -> 0.5, -90 -> 1.0.
func MapLatitude(lat float64) (float64, error) {
	if err := checkLatitude(lat); err != nil {
		return 0, err
	}
	return mapLatitude(lat), nil
}

// MapLongitude maps longitude degrees to u: -180 -> 0.0, 0 -> 0.5, 180 -> 1.0.
func MapLongitude(lon float64) (float64, error) {
	if err := checkLongitude(lon); err != nil {
		return 0, err
	}
	return mapLongitude(lon), nil
}

func mapLatitude(lat float64) float64 {
	if lat >= 0 {
		return remap(latNorth, lat)
	}
	return remap(latSouth, lat)
}

func mapLongitude(lon float64) float64 {
	if lon <= 0 {
		return remap(lonWest, lon)
	}
	return remap(lonEast, lon)
}

// remap linearly maps v from r[0] onto r[1]. Values at the piece endpoints
// return the target endpoint verbatim so joints do not pick up rounding error.
func remap(r [2]span, v float64) float64 {
	a, b := r[0], r[1]
	if math.Abs(v-a.from) < boundaryEpsilon {
		return b.from
	}
	if math.Abs(v-a.to) < boundaryEpsilon {
		return b.to
	}
	return b.from + (v-a.from)*(b.to-b.from)/(a.to-a.from)
}

// clampDeg absorbs the last-ulp overshoot that radian/degree conversion can
// produce at ±limit.
func clampDeg(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
