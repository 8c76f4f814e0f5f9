// Package catalog holds the built-in scene data: major cities with their
// populations, the population marker rule, and the stock arc routes.
package catalog

import (
	"strings"

	"github.com/couchcryptid/globe-mesh/internal/geodesy"
)

// City is a named place with its metro population in millions.
type City struct {
	Name       string
	Lat        float64
	Lon        float64
	Population float64
}

// Coordinate returns the city's validated position.
func (c City) Coordinate() (geodesy.Coordinate, error) {
	return geodesy.FromDegrees(c.Lat, c.Lon)
}

// Cities lists the 40 largest metro areas, most populous first.
var Cities = []City{
	{"Tokyo", 35.6762, 139.6503, 37.4},
	{"Delhi", 28.6139, 77.2090, 32.9},
	{"Shanghai", 31.2304, 121.4737, 28.5},
	{"São Paulo", -23.5505, -46.6333, 22.4},
	{"Mexico City", 19.4326, -99.1332, 22.2},
	{"Cairo", 30.0444, 31.2357, 21.3},
	{"Mumbai", 19.0760, 72.8777, 20.7},
	{"Beijing", 39.9042, 116.4074, 20.5},
	{"Dhaka", 23.8103, 90.4125, 19.6},
	{"Osaka", 34.6937, 135.5023, 19.2},
	{"New York", 40.7128, -74.0060, 18.8},
	{"Karachi", 24.8607, 67.0011, 16.5},
	{"Buenos Aires", -34.6037, -58.3816, 15.2},
	{"Istanbul", 41.0082, 28.9784, 15.1},
	{"Kolkata", 22.5726, 88.3639, 14.9},
	{"Lagos", 6.5244, 3.3792, 14.8},
	{"London", 51.5074, -0.1278, 14.3},
	{"Los Angeles", 34.0522, -118.2437, 13.2},
	{"Manila", 14.5995, 120.9842, 13.1},
	{"Rio de Janeiro", -22.9068, -43.1729, 13.0},
	{"Tianjin", 39.3434, 117.3616, 12.8},
	{"Kinshasa", -4.4419, 15.2663, 12.6},
	{"Paris", 48.8566, 2.3522, 11.1},
	{"Shenzhen", 22.5431, 114.0579, 10.6},
	{"Jakarta", -6.2088, 106.8456, 10.6},
	{"Bangalore", 12.9716, 77.5946, 10.5},
	{"Moscow", 55.7558, 37.6173, 10.5},
	{"Chennai", 13.0827, 80.2707, 10.0},
	{"Lima", -12.0464, -77.0428, 9.7},
	{"Bangkok", 13.7563, 100.5018, 9.6},
	{"Seoul", 37.5665, 126.9780, 9.5},
	{"Hyderabad", 17.3850, 78.4867, 9.5},
	{"Chengdu", 30.5728, 104.0668, 9.3},
	{"Singapore", 1.3521, 103.8198, 5.7},
	{"Ho Chi Minh City", 10.8231, 106.6297, 9.1},
	{"Toronto", 43.6532, -79.3832, 6.4},
	{"Sydney", -33.8688, 151.2093, 5.3},
	{"Johannesburg", -26.2041, 28.0473, 5.9},
	{"Chicago", 41.8781, -87.6298, 8.9},
	{"Taipei", 25.0330, 121.5654, 7.4},
}

// Austin is the hub of the HubRoutes table.
var Austin = City{Name: "Austin", Lat: 30.2672, Lon: -97.7431}

var byName = func() map[string]City {
	m := make(map[string]City, len(Cities)+1)
	for _, c := range append([]City{Austin}, Cities...) {
		m[normalize(c.Name)] = c
	}
	return m
}()

// Lookup finds a catalogue city by name, ignoring case and surrounding space.
func Lookup(name string) (City, bool) {
	c, ok := byName[normalize(name)]
	return c, ok
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
