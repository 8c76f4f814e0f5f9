package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/globe-mesh/internal/arc"
	"github.com/couchcryptid/globe-mesh/internal/mesh"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Endpoint is one end of a requested arc: coordinates, a place name, or both.
// When both are present the coordinates win and the place is kept as a label.
type Endpoint struct {
	Lat   *float64 `json:"lat,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
	Place string   `json:"place,omitempty"`
}

// ArcRequest is the JSON payload on the source topic.
type ArcRequest struct {
	ID         string   `json:"id,omitempty"`
	From       Endpoint `json:"from"`
	To         Endpoint `json:"to"`
	Segments   *int     `json:"segments,omitempty"`
	PeakHeight *float64 `json:"peak_height,omitempty"`
	Thickness  *float64 `json:"thickness,omitempty"`
	Color      string   `json:"color,omitempty"`
}

// GeoPoint is a resolved endpoint.
type GeoPoint struct {
	Lat   float64 `cbor:"lat" json:"lat"`
	Lon   float64 `cbor:"lon" json:"lon"`
	Place string  `cbor:"place,omitempty" json:"place,omitempty"`
	// Source records how the point was resolved: "coordinates", "catalog",
	// or "forward".
	Source string `cbor:"source" json:"source"`
}

// ArcMesh is a fully built arc, ready for a renderer.
type ArcMesh struct {
	ID          string            `cbor:"id" json:"id"`
	From        GeoPoint          `cbor:"from" json:"from"`
	To          GeoPoint          `cbor:"to" json:"to"`
	Segments    int               `cbor:"segments" json:"segments"`
	PeakHeight  float64           `cbor:"peak_height" json:"peak_height"`
	Thickness   float64           `cbor:"thickness" json:"thickness"`
	Material    arc.MaterialHints `cbor:"material" json:"material"`
	Mesh        mesh.Buffers      `cbor:"mesh" json:"mesh"`
	ProcessedAt time.Time         `cbor:"processed_at" json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
