package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/couchcryptid/globe-mesh/internal/adapter/httpadapter"
	"github.com/couchcryptid/globe-mesh/internal/arc"
	"github.com/couchcryptid/globe-mesh/internal/catalog"
	"github.com/couchcryptid/globe-mesh/internal/cubesphere"
	"github.com/couchcryptid/globe-mesh/internal/domain"
	"github.com/couchcryptid/globe-mesh/internal/globe"
	"github.com/couchcryptid/globe-mesh/internal/observability"
	"github.com/fxamacker/cbor/v2"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type failingTiles struct{}

func (failingTiles) Get(string, int) (globe.Tile, error) { return globe.Tile{}, errors.New("disk on fire") }

type mockGeocoder struct {
	result domain.GeocodingResult
	err    error
}

func (m *mockGeocoder) ForwardGeocode(context.Context, string) (domain.GeocodingResult, error) {
	return m.result, m.err
}

func (m *mockGeocoder) ReverseGeocode(context.Context, float64, float64) (domain.GeocodingResult, error) {
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func builtStore(t *testing.T) *globe.Store {
	t.Helper()
	gen, err := cubesphere.NewGenerator(cubesphere.DefaultParams(), nil)
	require.NoError(t, err)
	store := globe.NewStore()
	b := globe.NewBuilder(gen, 3, store, observability.NewMetricsForTesting(), discardLogger())
	require.NoError(t, b.Build(context.Background()))
	return store
}

func arcsJSON(t *testing.T) []byte {
	t.Helper()
	specs, err := catalog.Specs(catalog.ExampleRoutes)
	require.NoError(t, err)
	data, err := arc.FeatureCollection(specs).MarshalJSON()
	require.NoError(t, err)
	return data
}

func newTestServer(t *testing.T, deps httpadapter.Deps) *httpadapter.Server {
	t.Helper()
	if deps.Ready == nil {
		deps.Ready = &mockReadiness{}
	}
	if deps.Tiles == nil {
		deps.Tiles = globe.NewStore()
	}
	return httpadapter.NewServer(":0", deps, discardLogger())
}

func get(srv http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(t, httpadapter.Deps{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newTestServer(t, httpadapter.Deps{}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(t, httpadapter.Deps{Ready: &mockReadiness{err: fmt.Errorf("globe not built")}})
	rec := get(srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyzFollowsGlobeStore(t *testing.T) {
	store := globe.NewStore()
	srv := newTestServer(t, httpadapter.Deps{Ready: httpadapter.AllReady{store}, Tiles: store})
	assert.Equal(t, http.StatusServiceUnavailable, get(srv, "/readyz").Code)

	built := builtStore(t)
	srv = newTestServer(t, httpadapter.Deps{Ready: httpadapter.AllReady{built}, Tiles: built})
	assert.Equal(t, http.StatusOK, get(srv, "/readyz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(t, httpadapter.Deps{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- tiles ---

func TestTileEndpoint(t *testing.T) {
	srv := newTestServer(t, httpadapter.Deps{Tiles: builtStore(t)})

	for _, path := range []string{"/tiles/+x/2", "/tiles/x/2", "/tiles/%2Bx/2"} {
		rec := get(srv, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/cbor", rec.Header().Get("Content-Type"))

		var p globe.TilePayload
		require.NoError(t, cbor.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, "+x", p.Face)
		assert.Equal(t, 2, p.Quadrant)
		assert.Equal(t, 9, p.Mesh.VertexCount())
	}
}

func TestTileEndpoint_BadRequests(t *testing.T) {
	srv := newTestServer(t, httpadapter.Deps{Tiles: builtStore(t)})

	cases := map[string]int{
		"/tiles/+w/0":   http.StatusBadRequest,
		"/tiles/+x/4":   http.StatusBadRequest,
		"/tiles/+x/abc": http.StatusBadRequest,
		"/tiles/+x/-1":  http.StatusBadRequest,
	}
	for path, want := range cases {
		assert.Equal(t, want, get(srv, path).Code, path)
	}
}

func TestTileEndpoint_NotBuilt(t *testing.T) {
	rec := get(newTestServer(t, httpadapter.Deps{Tiles: globe.NewStore()}), "/tiles/-z/0")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTileEndpoint_StoreError(t *testing.T) {
	rec := get(newTestServer(t, httpadapter.Deps{Tiles: failingTiles{}}), "/tiles/-z/0")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

// --- pick ---

func TestPickEndpoint_NoGeocoder(t *testing.T) {
	rec := get(newTestServer(t, httpadapter.Deps{}), "/pick?x=0&y=300&z=0")
	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.PickResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.InDelta(t, 90, res.Lat, 1e-9)
	assert.Equal(t, "original", res.GeoSource)
}

func TestPickEndpoint_ReverseGeocoded(t *testing.T) {
	geo := &mockGeocoder{result: domain.GeocodingResult{
		FormattedAddress: "Gulf of Guinea",
		PlaceName:        "Gulf of Guinea",
		Confidence:       0.7,
	}}
	rec := get(newTestServer(t, httpadapter.Deps{Geocoder: geo}), "/pick?x=0&y=0&z=301.5")
	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.PickResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.InDelta(t, 0, res.Lat, 1e-9)
	assert.InDelta(t, 0, res.Lon, 1e-9)
	assert.Equal(t, "reverse", res.GeoSource)
	assert.Equal(t, "Gulf of Guinea", res.PlaceName)
}

func TestPickEndpoint_GeocoderFailureDegrades(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("timeout")}
	rec := get(newTestServer(t, httpadapter.Deps{Geocoder: geo}), "/pick?x=1&y=0&z=0")
	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.PickResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.InDelta(t, 90, res.Lon, 1e-9)
	assert.Equal(t, "failed", res.GeoSource)
}

func TestPickEndpoint_BadInput(t *testing.T) {
	srv := newTestServer(t, httpadapter.Deps{})
	for _, q := range []string{"", "?x=1&y=2", "?x=a&y=0&z=0", "?x=NaN&y=0&z=0", "?x=0&y=0&z=0"} {
		assert.Equal(t, http.StatusBadRequest, get(srv, "/pick"+q).Code, q)
	}
}

// --- arcs ---

func TestArcsEndpoint(t *testing.T) {
	rec := get(newTestServer(t, httpadapter.Deps{Arcs: arcsJSON(t)}), "/arcs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, fc.Features, len(catalog.ExampleRoutes))
}

// --- readiness aggregation ---

func TestAllReady(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, httpadapter.AllReady{}.CheckReadiness(ctx))
	assert.NoError(t, httpadapter.AllReady{&mockReadiness{}, nil}.CheckReadiness(ctx))

	err := httpadapter.AllReady{&mockReadiness{}, &mockReadiness{err: errors.New("second")}}.CheckReadiness(ctx)
	assert.EqualError(t, err, "second")
}
