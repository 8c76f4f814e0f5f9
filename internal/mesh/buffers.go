// Package mesh holds the renderable triangle-list buffers produced by the
// globe and arc generators.
package mesh

import (
	"errors"
	"fmt"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/golang/geo/r3"
)

// ErrMalformed is returned by Validate when the buffers break an invariant.
var ErrMalformed = errors.New("malformed mesh buffers")

// Buffers is an indexed triangle list in the float32 layout renderers expect.
// Positions, Normals and UVs are parallel per-vertex arrays; every three
// Indices form one counter-clockwise triangle.
type Buffers struct {
	Positions []vec3.T `cbor:"positions" json:"positions"`
	Normals   []vec3.T `cbor:"normals" json:"normals"`
	UVs       []vec2.T `cbor:"uvs" json:"uvs"`
	Indices   []uint32 `cbor:"indices" json:"indices"`
}

// New allocates buffers with room for the given vertex and index counts.
func New(vertices, indices int) Buffers {
	return Buffers{
		Positions: make([]vec3.T, 0, vertices),
		Normals:   make([]vec3.T, 0, vertices),
		UVs:       make([]vec2.T, 0, vertices),
		Indices:   make([]uint32, 0, indices),
	}
}

// AddVertex appends one vertex and returns its index.
func (b *Buffers) AddVertex(position, normal r3.Vector, u, v float64) uint32 {
	i := uint32(len(b.Positions))
	b.Positions = append(b.Positions, toVec3(position))
	b.Normals = append(b.Normals, toVec3(normal))
	b.UVs = append(b.UVs, vec2.T{float32(u), float32(v)})
	return i
}

// AddTriangle appends one triangle.
func (b *Buffers) AddTriangle(i0, i1, i2 uint32) {
	b.Indices = append(b.Indices, i0, i1, i2)
}

// VertexCount returns the number of vertices.
func (b Buffers) VertexCount() int { return len(b.Positions) }

// TriangleCount returns the number of triangles.
func (b Buffers) TriangleCount() int { return len(b.Indices) / 3 }

// Empty reports whether the buffers hold no geometry.
func (b Buffers) Empty() bool { return len(b.Positions) == 0 && len(b.Indices) == 0 }

// Validate checks that the per-vertex arrays line up, that the index list is a
// whole number of triangles, and that every index points at a vertex.
func (b Buffers) Validate() error {
	n := len(b.Positions)
	if len(b.Normals) != n || len(b.UVs) != n {
		return fmt.Errorf("%w: %d positions, %d normals, %d uvs", ErrMalformed, n, len(b.Normals), len(b.UVs))
	}
	if len(b.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a multiple of 3", ErrMalformed, len(b.Indices))
	}
	for i, idx := range b.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: index %d at position %d out of range (%d vertices)", ErrMalformed, idx, i, n)
		}
	}
	return nil
}

func toVec3(v r3.Vector) vec3.T {
	return vec3.T{float32(v.X), float32(v.Y), float32(v.Z)}
}
