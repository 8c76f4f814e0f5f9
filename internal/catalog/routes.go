package catalog

import (
	"fmt"
	"image/color"

	"github.com/couchcryptid/globe-mesh/internal/arc"
)

// Route is a styled arc between two places.
type Route struct {
	From, To   string
	FromLat    float64
	FromLon    float64
	ToLat      float64
	ToLon      float64
	Color      color.NRGBA
	Segments   int
	PeakHeight float64
}

// Spec builds the arc for r.
func (r Route) Spec() (arc.Spec, error) {
	s, err := arc.New(r.FromLat, r.FromLon, r.ToLat, r.ToLon)
	if err != nil {
		return arc.Spec{}, fmt.Errorf("route %s -> %s: %w", r.From, r.To, err)
	}
	return s.WithColor(r.Color).WithSegments(r.Segments).WithPeakHeight(r.PeakHeight), nil
}

var (
	red    = color.NRGBA{R: 255, A: 255}
	blue   = color.NRGBA{B: 255, A: 255}
	green  = color.NRGBA{G: 255, A: 255}
	orange = color.NRGBA{R: 255, G: 165, A: 255}
	cyan   = color.NRGBA{G: 255, B: 255, A: 255}
)

// ExampleRoutes are four long-haul routes with distinct styling.
var ExampleRoutes = []Route{
	{"New York", "London", 40.7128, -74.0060, 51.5074, -0.1278, red, 60, 30},
	{"Tokyo", "Buenos Aires", 35.6762, 139.6503, -34.6037, -58.3816, blue, 80, 80},
	{"Moscow", "Sydney", 55.7558, 37.6173, -33.8688, 151.2093, green, 70, 60},
	{"Mexico City", "Delhi", 19.4326, -99.1332, 28.6139, 77.2090, orange, 65, 45},
}

// hubHeights holds the peak height of each city's arc into the hub. Nearby
// cities get low arcs.
var hubHeights = map[string]float64{
	"Tokyo": 85, "Delhi": 42, "Shanghai": 67, "São Paulo": 38,
	"Mexico City": 15, "Cairo": 73, "Mumbai": 55, "Beijing": 91,
	"Dhaka": 29, "Osaka": 78, "New York": 22, "Karachi": 46,
	"Buenos Aires": 51, "Istanbul": 64, "Kolkata": 33, "Lagos": 58,
	"London": 82, "Los Angeles": 8, "Manila": 76, "Rio de Janeiro": 44,
	"Tianjin": 89, "Kinshasa": 61, "Paris": 75, "Shenzhen": 68,
	"Jakarta": 72, "Bangalore": 37, "Moscow": 94, "Chennai": 41,
	"Lima": 26, "Bangkok": 53, "Seoul": 83, "Hyderabad": 35,
	"Chengdu": 69, "Singapore": 77, "Ho Chi Minh City": 48, "Toronto": 18,
	"Sydney": 95, "Johannesburg": 62, "Chicago": 12, "Taipei": 71,
}

// HubRoutes connects every catalogue city to hub in cyan, 50 segments each.
// Cities without a tabulated height use the arc default.
func HubRoutes(hub City) []Route {
	routes := make([]Route, 0, len(Cities))
	for _, c := range Cities {
		if c.Name == hub.Name {
			continue
		}
		h, ok := hubHeights[c.Name]
		if !ok {
			h = arc.DefaultPeakHeight
		}
		routes = append(routes, Route{
			From: c.Name, To: hub.Name,
			FromLat: c.Lat, FromLon: c.Lon,
			ToLat: hub.Lat, ToLon: hub.Lon,
			Color: cyan, Segments: 50, PeakHeight: h,
		})
	}
	return routes
}

// AllRoutes returns the example routes followed by the Austin hub routes.
func AllRoutes() []Route {
	return append(append([]Route{}, ExampleRoutes...), HubRoutes(Austin)...)
}

// Specs converts routes to arc specs, stopping at the first invalid route.
func Specs(routes []Route) ([]arc.Spec, error) {
	out := make([]arc.Spec, 0, len(routes))
	for _, r := range routes {
		s, err := r.Spec()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
