// Package geodesy converts between geographic, sphere, and texture space.
//
// # Coordinate Conventions
//
// Latitude and longitude are stored as [s1.Angle] values (radians). The
// degree-facing API accepts latitude in [-90, 90] and longitude in
// [-180, 180]; anything outside those ranges, including NaN, is rejected with
// [ErrInvalidCoordinate]. Values are never clamped.
//
// # Sphere Space
//
// The planet is a sphere of configurable radius centered on the origin with
// +Y through the north pole. Longitude 0° lies on +Z and longitude +90° on +X:
//
//	y = sin(lat)
//	x = sin(lon) * cos(lat)
//	z = cos(lon) * cos(lat)
//
// The inverse is lat = asin(y), lon = atan2(x, z) on the normalized point. At
// the poles the longitude is undefined and comes back as whatever atan2
// produces for the rounding residue.
//
// # Texture Space
//
// UVs follow the equirectangular layout of the globe imagery. Each axis is two
// linear pieces joined at 0°:
//
//	v: 90°..0° -> 0.0..0.5,   0°..-90° -> 0.5..1.0
//	u: -180°..0° -> 0.0..0.5, 0°..180° -> 0.5..1.0
//
// The joints and the ends land exactly on 0.0, 0.5 and 1.0. The u axis is
// discontinuous across the ±180° meridian; mesh builders own seam handling.
package geodesy
