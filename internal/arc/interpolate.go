package arc

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/couchcryptid/globe-mesh/internal/geodesy"
)

// MinAngle is the angular separation, in radians, below which an arc
// collapses to its two endpoints.
const MinAngle = 0.001

// Interpolate returns segments+1 points from from to to along the great
// circle, each lifted by peakHeight*4t(1-t) above radius. Endpoints closer
// than MinAngle yield exactly two points on the sphere. Segments below 1 are
// treated as 1.
//
// Antipodal endpoints have no unique great circle; the arc then passes
// through the north pole, or through 0° longitude when the endpoints are the
// poles themselves.
func Interpolate(from, to geodesy.Coordinate, segments int, peakHeight, radius float64) []r3.Vector {
	p0 := from.UnitVector()
	p1 := to.UnitVector()

	angle := math.Acos(math.Max(-1, math.Min(1, p0.Dot(p1))))
	if angle < MinAngle {
		return []r3.Vector{p0.Mul(radius), p1.Mul(radius)}
	}
	if segments < 1 {
		segments = 1
	}

	// Rotate p0 toward m, the unit tangent at p0 pointing at p1. This is
	// slerp written so that it stays defined for antipodal endpoints.
	m := p1.Sub(p0.Mul(p0.Dot(p1)))
	if m.Norm() < 1e-12 {
		m = antipodalTangent(p0)
	} else {
		m = m.Normalize()
	}

	points := make([]r3.Vector, 0, segments+1)
	for i := 0; i <= segments; i++ {
		t := float64(i) / float64(segments)
		dir := p0.Mul(math.Cos(t * angle)).Add(m.Mul(math.Sin(t * angle))).Normalize()
		points = append(points, dir.Mul(radius+peakHeight*4*t*(1-t)))
	}
	points[0] = p0.Mul(radius)
	points[segments] = p1.Mul(radius)
	return points
}

func antipodalTangent(p r3.Vector) r3.Vector {
	north := r3.Vector{Y: 1}
	m := north.Sub(p.Mul(p.Dot(north)))
	if m.Norm() < 1e-9 {
		return r3.Vector{Z: 1}
	}
	return m.Normalize()
}
