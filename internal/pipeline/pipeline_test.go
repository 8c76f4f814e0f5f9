package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/globe-mesh/internal/domain"
	"github.com/couchcryptid/globe-mesh/internal/observability"
	"github.com/couchcryptid/globe-mesh/internal/pipeline"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if m.err != nil {
		return domain.OutputEvent{}, m.err
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.OutputEvent
	err    error
	calls  int
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

// --- pipeline tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawRequest(t, "arc-1", 40.7128, -74.006, 51.5074, -0.1278)

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	assert.True(t, p.Ready())
	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, counterValue(t, metrics.MessagesConsumed))
	assert.Equal(t, 1.0, counterValue(t, metrics.MessagesProduced))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	var commits atomic.Int32
	raw := makeRawRequest(t, "arc-2", 0, 0, 10, 10)
	raw.Commit = func(context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{err: domain.ErrInvalidRequest}, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.Zero(t, ldr.calls, "nothing to load")
	assert.False(t, p.Ready())
	assert.Equal(t, int32(1), commits.Load(), "rejected requests are committed so they are not redelivered")
	assert.Equal(t, 1.0, counterValue(t, metrics.TransformErrors))
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var order []string
	var mu sync.Mutex

	raw := makeRawRequest(t, "arc-5", 0, 0, 10, 10)
	raw.Topic = "arc-requests"
	raw.Commit = func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, "commit")
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &orderedLoader{record: func() {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, "load")
	}}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	if diff := cmp.Diff([]string{"load", "commit"}, order); diff != "" {
		t.Fatalf("stage order mismatch (-want +got):\n%s", diff)
	}
}

type orderedLoader struct {
	record func()
}

func (l *orderedLoader) LoadBatch(context.Context, []domain.OutputEvent) error {
	l.record()
	return nil
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	var commits atomic.Int32
	raw := makeRawRequest(t, "arc-6", 0, 0, 10, 10)
	raw.Commit = func(context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{err: errors.New("broker unavailable")}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Zero(t, commits.Load())
	assert.False(t, p.Ready())
}

type failingGeocoder struct {
	calls atomic.Int32
}

func (g *failingGeocoder) ForwardGeocode(context.Context, string) (domain.GeocodingResult, error) {
	g.calls.Add(1)
	return domain.GeocodingResult{}, errors.New("mapbox API returned status 503")
}

func (g *failingGeocoder) ReverseGeocode(context.Context, float64, float64) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{}, errors.New("mapbox API returned status 503")
}

// flakyTransformer fails the first failures calls with a transient error.
type flakyTransformer struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakyTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if f.calls.Add(1) <= f.failures {
		return domain.OutputEvent{}, errors.New("geocoder timeout")
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

func TestPipeline_Run_GeocoderErrorDoesNotCommit(t *testing.T) {
	var commits atomic.Int32
	data, err := json.Marshal(domain.ArcRequest{
		ID:   "reykjavik-london",
		From: domain.Endpoint{Place: "Reykjavik"},
		To:   domain.Endpoint{Place: "London"},
	})
	require.NoError(t, err)
	raw := domain.RawEvent{
		Key:   []byte("reykjavik-london"),
		Value: data,
		Commit: func(context.Context) error {
			commits.Add(1)
			return nil
		},
	}

	geo := &failingGeocoder{}
	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, pipeline.NewTransformer(geo, domain.BuildOptions{}, discardLogger()), ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Zero(t, commits.Load(), "a failed lookup must be redelivered")
	assert.Zero(t, ldr.calls)
	assert.Zero(t, counterValue(t, metrics.TransformErrors))
	assert.GreaterOrEqual(t, geo.calls.Load(), int32(2), "the lookup is retried after backoff")
	assert.GreaterOrEqual(t, counterValue(t, metrics.TransformRetries), 1.0)
}

func TestPipeline_Run_TransientTransformErrorRetries(t *testing.T) {
	var commits atomic.Int32
	first := makeRawRequest(t, "arc-7", 0, 0, 10, 10)
	second := makeRawRequest(t, "arc-8", 10, 10, 20, 20)
	for _, raw := range []*domain.RawEvent{&first, &second} {
		raw.Commit = func(context.Context) error {
			commits.Add(1)
			return nil
		}
	}

	tfm := &flakyTransformer{failures: 1}
	ext := &mockExtractor{batches: [][]domain.RawEvent{{first, second}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, tfm, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, 2)
	assert.Equal(t, []byte("arc-7"), ldr.loaded[0].Key)
	assert.Equal(t, int32(3), tfm.calls.Load())
	assert.Equal(t, int32(2), commits.Load())
	assert.Equal(t, 1.0, counterValue(t, metrics.TransformRetries))
	assert.Zero(t, counterValue(t, metrics.TransformErrors))
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("connection refused")}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, p.Run(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond, "run returns only on cancellation")
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_MixedBatch(t *testing.T) {
	good := makeRawRequest(t, "arc-good", 35.6762, 139.6503, -34.6037, -58.3816)
	bad := domain.RawEvent{Key: []byte("bad"), Value: []byte("not-json{{{")}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{bad, good}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, pipeline.NewTransformer(nil, domain.BuildOptions{}, discardLogger()), ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, []byte("arc-good"), ldr.loaded[0].Key)
	assert.Equal(t, 1.0, counterValue(t, metrics.TransformErrors))
	assert.Equal(t, 1.0, counterValue(t, metrics.MessagesProduced))
}

// --- transformer tests ---

func TestArcTransformer_Transform(t *testing.T) {
	fixed := time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { domain.SetClock(nil) })

	raw := makeRawRequest(t, "ny-london", 40.7128, -74.006, 51.5074, -0.1278)

	tfm := pipeline.NewTransformer(nil, domain.BuildOptions{Radius: 300}, discardLogger())
	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, []byte("ny-london"), out.Key)
	assert.Equal(t, "ny-london", out.Headers["arc_id"])
	assert.Equal(t, "application/cbor", out.Headers["content_type"])
	assert.Equal(t, "2026-03-14T15:09:26Z", out.Headers["processed_at"])

	var m domain.ArcMesh
	require.NoError(t, cbor.Unmarshal(out.Value, &m))
	assert.Equal(t, "ny-london", m.ID)
	assert.Equal(t, 50, m.Segments)
	assert.Equal(t, 8*50, m.Mesh.VertexCount())
	require.NoError(t, m.Mesh.Validate())
	assert.Equal(t, fixed.Unix(), m.ProcessedAt.Unix())
}

func TestArcTransformer_InvalidCoordinate(t *testing.T) {
	raw := makeRawRequest(t, "bad-lat", 91, 0, 0, 0)

	tfm := pipeline.NewTransformer(nil, domain.BuildOptions{}, discardLogger())
	_, err := tfm.Transform(context.Background(), raw)
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestArcTransformer_InvalidJSON(t *testing.T) {
	tfm := pipeline.NewTransformer(nil, domain.BuildOptions{}, discardLogger())
	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("not json")})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

// --- helpers ---

func makeRawRequest(t *testing.T, id string, fromLat, fromLon, toLat, toLon float64) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(domain.ArcRequest{
		ID:   id,
		From: domain.Endpoint{Lat: &fromLat, Lon: &fromLon},
		To:   domain.Endpoint{Lat: &toLat, Lon: &toLon},
	})
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(id),
		Value: data,
	}
}
