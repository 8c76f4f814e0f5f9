package globe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/couchcryptid/globe-mesh/internal/cubesphere"
	"github.com/couchcryptid/globe-mesh/internal/elevation"
	"github.com/couchcryptid/globe-mesh/internal/observability"
	"github.com/fxamacker/cbor/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func newBuilder(t *testing.T, src elevation.Source, res int) (*Builder, *Store, *observability.Metrics) {
	t.Helper()
	gen, err := cubesphere.NewGenerator(cubesphere.DefaultParams(), src)
	require.NoError(t, err)
	store := NewStore()
	metrics := observability.NewMetricsForTesting()
	return NewBuilder(gen, res, store, metrics, discardLogger()), store, metrics
}

func TestBuilder_BuildFlatGlobe(t *testing.T) {
	b, store, metrics := newBuilder(t, nil, 4)

	require.Error(t, store.CheckReadiness(context.Background()))
	require.NoError(t, b.Build(context.Background()))

	assert.Equal(t, 24, store.Len())
	require.NoError(t, store.CheckReadiness(context.Background()))
	assert.Equal(t, 24.0, counterValue(t, metrics.TilesBuilt))
	assert.Equal(t, float64(24*16), counterValue(t, metrics.VerticesGenerated))
	assert.Equal(t, 1.0, gaugeValue(t, metrics.GlobeReady))
	assert.Positive(t, store.Bytes())
	assert.Equal(t, float64(store.Bytes()), gaugeValue(t, metrics.GlobeStoredBytes))

	for _, f := range cubesphere.Faces {
		for _, q := range cubesphere.Quadrants {
			tile, err := store.Get(f.Name, q.Index)
			require.NoError(t, err)
			assert.Equal(t, 16, tile.Vertices)
			assert.Equal(t, 18, tile.Triangles)

			var p TilePayload
			require.NoError(t, cbor.Unmarshal(tile.Data, &p))
			assert.Equal(t, f.Name, p.Face)
			assert.Equal(t, q.Index, p.Quadrant)
			assert.Equal(t, 4, p.Resolution)
			require.NoError(t, p.Mesh.Validate())
			for _, pos := range p.Mesh.Positions {
				assert.InDelta(t, 300, pos.Length(), 1e-3, "flat globe vertices sit on the base radius")
			}
		}
	}
}

func TestBuilder_ElevationFallbacksCounted(t *testing.T) {
	failing := elevation.SourceFunc(func(_, _ float64) (float64, bool, error) {
		return 0, false, elevation.ErrDataSource
	})
	b, store, metrics := newBuilder(t, failing, 3)

	require.NoError(t, b.Build(context.Background()))
	assert.Equal(t, 24, store.Len())
	assert.Equal(t, float64(24*9), counterValue(t, metrics.ElevationFallbacks.WithLabelValues("error")))
	assert.Zero(t, counterValue(t, metrics.ElevationFallbacks.WithLabelValues("nodata")))

	tile, err := store.Get("+y", 0)
	require.NoError(t, err)
	assert.Equal(t, 9, tile.Stats.Errors)
	assert.ErrorIs(t, tile.Stats.FirstError, elevation.ErrDataSource)
}

func TestBuilder_DisplacedGlobe(t *testing.T) {
	grid, err := elevation.GlobalGrid(36, 18, func(lat, _ float64) float64 {
		return math.Max(0, lat) * 30
	})
	require.NoError(t, err)
	src, err := elevation.NewRasterSource(grid)
	require.NoError(t, err)

	b, store, _ := newBuilder(t, src, 5)
	require.NoError(t, b.Build(context.Background()))

	north, err := store.Get("+y", 3)
	require.NoError(t, err)
	assert.Positive(t, north.Stats.Displaced)
	assert.Greater(t, north.Stats.MaxElevation, 0.0)
}

func TestBuilder_CancelledBetweenTiles(t *testing.T) {
	b, store, metrics := newBuilder(t, nil, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.Len())
	assert.Error(t, store.CheckReadiness(context.Background()))
	assert.Zero(t, gaugeValue(t, metrics.GlobeReady))
}

func TestBuilder_InvalidResolution(t *testing.T) {
	b, store, _ := newBuilder(t, nil, 1)

	err := b.Build(context.Background())
	require.ErrorIs(t, err, cubesphere.ErrInvalidFace)
	assert.Zero(t, store.Len())
}

func TestStore_GetMissing(t *testing.T) {
	s := NewStore()
	_, err := s.Get("+x", 0)
	require.True(t, errors.Is(err, ErrTileNotFound))
}

func TestStore_KeysSorted(t *testing.T) {
	s := NewStore()
	s.Put(Tile{Key: TileKey{Face: "-z", Quadrant: 1}})
	s.Put(Tile{Key: TileKey{Face: "+x", Quadrant: 3}})
	s.Put(Tile{Key: TileKey{Face: "+x", Quadrant: 0}})

	assert.Equal(t, []TileKey{
		{Face: "+x", Quadrant: 0},
		{Face: "+x", Quadrant: 3},
		{Face: "-z", Quadrant: 1},
	}, s.Keys())
	assert.Equal(t, "+x/3", s.Keys()[1].String())
}

func TestStore_Bytes(t *testing.T) {
	s := NewStore()
	assert.Zero(t, s.Bytes())

	s.Put(Tile{Key: TileKey{Face: "+x", Quadrant: 0}, Data: make([]byte, 10)})
	s.Put(Tile{Key: TileKey{Face: "+y", Quadrant: 2}, Data: make([]byte, 5)})
	assert.Equal(t, 15, s.Bytes())

	s.Put(Tile{Key: TileKey{Face: "+x", Quadrant: 0}, Data: make([]byte, 3)})
	assert.Equal(t, 8, s.Bytes(), "replacing a tile replaces its bytes")
}
