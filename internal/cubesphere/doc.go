// Package cubesphere builds globe tiles by projecting a subdivided cube face
// onto a sphere.
//
// A face is identified by its outward axis direction. Each face is split into
// four quadrants by offsetting the grid origin, so the full globe is 6 x 4
// tiles. Vertices are displaced outward by positive elevation samples, mapped
// to texture space with geodesy.Coordinate.UV, and patched along the
// longitude seam so a tile never interpolates across the whole texture.
package cubesphere
