package catalog

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/globe-mesh/internal/arc"
	"github.com/couchcryptid/globe-mesh/internal/geodesy"
)

func TestCities_AllValid(t *testing.T) {
	require.Len(t, Cities, 40)
	seen := make(map[string]bool)
	for _, c := range Cities {
		_, err := c.Coordinate()
		require.NoError(t, err, c.Name)
		assert.False(t, seen[c.Name], "duplicate %s", c.Name)
		seen[c.Name] = true
	}
}

func TestLookup(t *testing.T) {
	c, ok := Lookup("  new   YORK ")
	require.True(t, ok)
	assert.Equal(t, 40.7128, c.Lat)

	c, ok = Lookup("austin")
	require.True(t, ok)
	assert.Equal(t, Austin, c)

	_, ok = Lookup("Atlantis")
	assert.False(t, ok)
}

func TestMarkerFor(t *testing.T) {
	cases := []struct {
		name  string
		city  City
		size  float64
		color color.NRGBA
	}{
		{"minimum population", City{"Min", 0, 0, MinPopulation}, 2, color.NRGBA{R: 255, G: 255, B: 128, A: 255}},
		{"maximum population", City{"Max", 0, 0, MaxPopulation}, 7, color.NRGBA{R: 255, G: 77, B: 25, A: 255}},
		{"below range grows smaller, color clamps", City{"Small", 0, 0, 1.5}, 1.5, color.NRGBA{R: 255, G: 255, B: 128, A: 255}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := MarkerFor(tc.city, geodesy.DefaultRadius)
			require.NoError(t, err)
			assert.InDelta(t, tc.size, m.Size, 1e-9)
			assert.Equal(t, tc.color, m.Color)
			assert.InDelta(t, geodesy.DefaultRadius, m.Position.Norm(), 1e-9)
		})
	}
}

func TestMarkerFor_InvalidCity(t *testing.T) {
	_, err := MarkerFor(City{Name: "Nowhere", Lat: 100}, 1)
	require.ErrorIs(t, err, geodesy.ErrInvalidCoordinate)
}

func TestMarkers(t *testing.T) {
	ms := Markers(geodesy.DefaultRadius)
	require.Len(t, ms, len(Cities))
	assert.Greater(t, ms[0].Size, ms[len(ms)-1].Size, "Tokyo outsizes Taipei")
}

func TestExampleRoutes(t *testing.T) {
	specs, err := Specs(ExampleRoutes)
	require.NoError(t, err)
	require.Len(t, specs, 4)

	ny := specs[0]
	assert.Equal(t, 60, ny.Segments)
	assert.Equal(t, 30.0, ny.PeakHeight)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, ny.Color)
	assert.Len(t, ny.Points(geodesy.DefaultRadius), 61)
}

func TestHubRoutes(t *testing.T) {
	routes := HubRoutes(Austin)
	require.Len(t, routes, 40)

	for _, r := range routes {
		assert.Equal(t, "Austin", r.To)
		assert.Equal(t, 50, r.Segments)
		_, tabulated := hubHeights[r.From]
		assert.True(t, tabulated, r.From)
	}
	assert.Equal(t, 8.0, routes[17].PeakHeight, "Los Angeles")

	hub, ok := Lookup("Tokyo")
	require.True(t, ok)
	assert.Len(t, HubRoutes(hub), 39, "the hub is not routed to itself")
}

func TestAllRoutes(t *testing.T) {
	specs, err := Specs(AllRoutes())
	require.NoError(t, err)
	assert.Len(t, specs, 44)
	for _, s := range specs {
		require.NoError(t, s.Validate())
	}
}

func TestSpecs_InvalidRoute(t *testing.T) {
	_, err := Specs([]Route{{From: "a", To: "b", FromLat: 95, Segments: 1, PeakHeight: 1, Color: arc.Yellow}})
	require.ErrorIs(t, err, geodesy.ErrInvalidCoordinate)
}
