package arc

import (
	"github.com/golang/geo/r3"

	"github.com/couchcryptid/globe-mesh/internal/mesh"
)

var quadUVs = [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// BuildRibbon turns a polyline into a double-sided strip of the given width.
// Each segment becomes a front quad facing away from the sphere center and a
// back quad with inverted normals and reversed winding, so k points produce
// 8(k-1) vertices and 12(k-1) indices. Fewer than two points yield empty
// buffers.
func BuildRibbon(points []r3.Vector, thickness float64) mesh.Buffers {
	if len(points) < 2 {
		return mesh.Buffers{}
	}

	n := len(points) - 1
	buf := mesh.New(8*n, 12*n)
	half := thickness / 2

	for i := range n {
		start, end := points[i], points[i+1]

		dir := end.Sub(start).Normalize()
		toCenter := start.Normalize().Mul(-1)
		side := dir.Cross(toCenter).Normalize().Mul(half)

		corners := [4]r3.Vector{
			start.Sub(side),
			start.Add(side),
			end.Add(side),
			end.Sub(side),
		}
		outward := start.Normalize()

		b := addQuad(&buf, corners, outward)
		buf.AddTriangle(b, b+1, b+2)
		buf.AddTriangle(b, b+2, b+3)

		b = addQuad(&buf, corners, outward.Mul(-1))
		buf.AddTriangle(b, b+2, b+1)
		buf.AddTriangle(b, b+3, b+2)
	}
	return buf
}

func addQuad(buf *mesh.Buffers, corners [4]r3.Vector, normal r3.Vector) uint32 {
	first := buf.AddVertex(corners[0], normal, quadUVs[0][0], quadUVs[0][1])
	for k := 1; k < 4; k++ {
		buf.AddVertex(corners[k], normal, quadUVs[k][0], quadUVs[k][1])
	}
	return first
}
