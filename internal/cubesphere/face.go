package cubesphere

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r3"
)

// ErrInvalidFace is returned for malformed face parameters.
var ErrInvalidFace = errors.New("invalid face")

// MaxResolution bounds the tile grid. A tile holds r*r vertices and
// 6*(r-1)^2 indices, about 56 bytes of buffers per vertex, so a tile at
// MaxResolution needs roughly 235 MB before encoding.
const MaxResolution = 2048

// Face is one of the six cube faces, named by its outward axis.
type Face struct {
	Name   string
	Normal r3.Vector
}

// Faces lists the cube faces in generation order.
var Faces = []Face{
	{Name: "+x", Normal: r3.Vector{X: 1}},
	{Name: "-x", Normal: r3.Vector{X: -1}},
	{Name: "+y", Normal: r3.Vector{Y: 1}},
	{Name: "-y", Normal: r3.Vector{Y: -1}},
	{Name: "+z", Normal: r3.Vector{Z: 1}},
	{Name: "-z", Normal: r3.Vector{Z: -1}},
}

// Quadrant is a grid offset selecting one quarter of a face.
type Quadrant struct {
	Index            int
	OffsetX, OffsetY float64
}

// Quadrants lists the four offsets that together cover a face.
var Quadrants = []Quadrant{
	{Index: 0, OffsetX: 0, OffsetY: 0},
	{Index: 1, OffsetX: 0, OffsetY: 1},
	{Index: 2, OffsetX: 1, OffsetY: 0},
	{Index: 3, OffsetX: 1, OffsetY: 1},
}

// FaceByName looks up a face by name ("+x", "-z", ...). Matching ignores case
// and accepts a missing "+".
func FaceByName(name string) (Face, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" && name[0] != '+' && name[0] != '-' {
		name = "+" + name
	}
	for _, f := range Faces {
		if f.Name == name {
			return f, true
		}
	}
	return Face{}, false
}

// FaceSpec describes one tile.
type FaceSpec struct {
	Normal     r3.Vector
	Resolution int
	OffsetX    float64
	OffsetY    float64
}

// Spec returns the tile for quadrant q of f at the given resolution.
func (f Face) Spec(q Quadrant, resolution int) FaceSpec {
	return FaceSpec{Normal: f.Normal, Resolution: resolution, OffsetX: q.OffsetX, OffsetY: q.OffsetY}
}

// Validate checks the static tile parameters.
func (s FaceSpec) Validate() error {
	if s.Resolution < 2 || s.Resolution > MaxResolution {
		return fmt.Errorf("%w: resolution %d outside [2, %d]", ErrInvalidFace, s.Resolution, MaxResolution)
	}
	if !axisAligned(s.Normal) {
		return fmt.Errorf("%w: normal %v is not a unit axis", ErrInvalidFace, s.Normal)
	}
	if !unitInterval(s.OffsetX) || !unitInterval(s.OffsetY) {
		return fmt.Errorf("%w: offset (%v, %v) outside [0, 1]", ErrInvalidFace, s.OffsetX, s.OffsetY)
	}
	return nil
}

// axes returns the horizontal and vertical grid axes for normal n.
func axes(n r3.Vector) (a, b r3.Vector) {
	a = r3.Vector{X: n.Y, Y: n.Z, Z: n.X}
	return a, a.Cross(n)
}

func axisAligned(n r3.Vector) bool {
	var ones, zeros int
	for _, c := range [3]float64{n.X, n.Y, n.Z} {
		switch math.Abs(c) {
		case 1:
			ones++
		case 0:
			zeros++
		}
	}
	return ones == 1 && zeros == 2
}

func unitInterval(v float64) bool {
	return v >= 0 && v <= 1
}
