// Package domain models arc requests flowing through the arc pipeline and the
// meshes produced from them.
//
// # Requests
//
// Each message on the source topic is one JSON [ArcRequest]:
//
//	{"id": "ny-lon",
//	 "from": {"lat": 40.7128, "lon": -74.0060},
//	 "to":   {"place": "London"},
//	 "segments": 60, "peak_height": 30, "thickness": 1, "color": "red"}
//
// Endpoints carry either coordinates in degrees or a place name. Places are
// resolved against the built-in city catalogue first and then through the
// configured [Geocoder]. Styling fields are optional; omitted fields take the
// arc package defaults.
//
// # Output
//
// A resolved request becomes an [ArcMesh]: both endpoints, the styling, the
// material hints, and the double-sided ribbon buffers. [SerializeArcMesh]
// encodes it as CBOR with headers arc_id, content_type, and processed_at.
//
// # ID Generation
//
// Requests without an id get a deterministic SHA-256 hash of their endpoints
// and styling, so replaying the same request yields the same key downstream.
// See [generateID].
//
// # Failures
//
// Malformed JSON, coordinates outside their degree range, and unresolvable
// places wrap [ErrInvalidRequest]. They are per-message failures: the pipeline
// logs, counts, and skips them.
package domain
