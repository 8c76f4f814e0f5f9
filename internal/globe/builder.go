package globe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/globe-mesh/internal/cubesphere"
	"github.com/couchcryptid/globe-mesh/internal/mesh"
	"github.com/couchcryptid/globe-mesh/internal/observability"
)

// TilePayload is the wire form of a tile.
type TilePayload struct {
	Face       string       `cbor:"face" json:"face"`
	Quadrant   int          `cbor:"quadrant" json:"quadrant"`
	Resolution int          `cbor:"resolution" json:"resolution"`
	Radius     float64      `cbor:"radius" json:"radius"`
	Mesh       mesh.Buffers `cbor:"mesh" json:"mesh"`
}

// Builder generates every face/quadrant tile with one Generator.
type Builder struct {
	gen        *cubesphere.Generator
	resolution int
	store      *Store
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewBuilder returns a Builder that writes tiles of the given per-tile
// resolution into store.
func NewBuilder(gen *cubesphere.Generator, resolution int, store *Store, metrics *observability.Metrics, logger *slog.Logger) *Builder {
	return &Builder{
		gen:        gen,
		resolution: resolution,
		store:      store,
		metrics:    metrics,
		logger:     logger,
	}
}

// Build generates all tiles sequentially. Cancellation is checked between
// tiles; a tile in progress always completes.
func (b *Builder) Build(ctx context.Context) error {
	start := time.Now()
	b.logger.Info("globe build started", "tiles", TileCount, "resolution", b.resolution)

	var total cubesphere.FaceStats
	for _, f := range cubesphere.Faces {
		for _, q := range cubesphere.Quadrants {
			if err := ctx.Err(); err != nil {
				b.logger.Warn("globe build cancelled", "built", b.store.Len(), "error", err)
				return err
			}
			stats, err := b.buildTile(f, q)
			if err != nil {
				return err
			}
			total.Vertices += stats.Vertices
			total.NoData += stats.NoData
			total.NonPositive += stats.NonPositive
			total.Errors += stats.Errors
			total.SeamCorrected += stats.SeamCorrected
			total.MaxElevation = max(total.MaxElevation, stats.MaxElevation)
		}
	}

	b.store.markComplete()
	b.metrics.GlobeReady.Set(1)
	b.logger.Info("globe build complete",
		"tiles", b.store.Len(),
		"vertices", total.Vertices,
		"stored_bytes", b.store.Bytes(),
		"fallbacks", total.Fallbacks(),
		"seam_corrected", total.SeamCorrected,
		"max_elevation", total.MaxElevation,
		"duration", time.Since(start),
	)
	return nil
}

func (b *Builder) buildTile(f cubesphere.Face, q cubesphere.Quadrant) (cubesphere.FaceStats, error) {
	start := time.Now()
	key := TileKey{Face: f.Name, Quadrant: q.Index}

	buf, stats, err := b.gen.Tile(f, q, b.resolution)
	if err != nil {
		return stats, fmt.Errorf("tile %s: %w", key, err)
	}

	data, err := mesh.Marshal(TilePayload{
		Face:       f.Name,
		Quadrant:   q.Index,
		Resolution: b.resolution,
		Radius:     b.gen.Params().Radius,
		Mesh:       buf,
	})
	if err != nil {
		return stats, fmt.Errorf("tile %s: %w", key, err)
	}

	b.store.Put(Tile{
		Key:       key,
		Data:      data,
		Vertices:  buf.VertexCount(),
		Triangles: buf.TriangleCount(),
		Stats:     stats,
	})

	b.metrics.TilesBuilt.Inc()
	b.metrics.GlobeStoredBytes.Set(float64(b.store.Bytes()))
	b.metrics.VerticesGenerated.Add(float64(stats.Vertices))
	b.metrics.ElevationFallbacks.WithLabelValues("nodata").Add(float64(stats.NoData))
	b.metrics.ElevationFallbacks.WithLabelValues("non_positive").Add(float64(stats.NonPositive))
	b.metrics.ElevationFallbacks.WithLabelValues("error").Add(float64(stats.Errors))
	b.metrics.TileBuildDuration.Observe(time.Since(start).Seconds())

	if stats.Errors > 0 {
		b.logger.Warn("elevation sampling failed, vertices left at base radius",
			"face", f.Name, "quadrant", q.Index, "errors", stats.Errors, "error", stats.FirstError)
	}
	if stats.Fallbacks() > 0 {
		b.logger.Debug("elevation fallbacks",
			"face", f.Name, "quadrant", q.Index,
			"nodata", stats.NoData, "non_positive", stats.NonPositive, "errors", stats.Errors)
	}
	return stats, nil
}
