// Command validate builds a complete globe and the arc catalogue and checks
// the mesh invariants end to end: coordinate round trips, UV boundaries,
// tile counts and index ranges, displacement, seam patches, arc heights,
// ribbon counts, and the wire encodings.
//
// Usage:
//
//	go run ./cmd/validate -resolution 32
//	go run ./cmd/validate -elevation data/etopo1.tif -resolution 64
//	go run ./cmd/validate -synthetic
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/globe-mesh/internal/adapter/gdalraster"
	"github.com/couchcryptid/globe-mesh/internal/arc"
	"github.com/couchcryptid/globe-mesh/internal/catalog"
	"github.com/couchcryptid/globe-mesh/internal/cubesphere"
	"github.com/couchcryptid/globe-mesh/internal/elevation"
	"github.com/couchcryptid/globe-mesh/internal/geodesy"
	"github.com/couchcryptid/globe-mesh/internal/globe"
	"github.com/couchcryptid/globe-mesh/internal/mesh"
	"github.com/couchcryptid/globe-mesh/internal/observability"
)

const maxErrorsPerPhase = 25

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	dropped int
}

func (p *phase) errorf(format string, args ...any) {
	if len(p.errors) >= maxErrorsPerPhase {
		p.dropped++
		return
	}
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type options struct {
	elevationPath string
	synthetic     bool
	resolution    int
	params        cubesphere.Params
}

func main() {
	opts := options{params: cubesphere.DefaultParams()}
	flag.StringVar(&opts.elevationPath, "elevation", "", "path to a GDAL elevation raster (optional)")
	flag.BoolVar(&opts.synthetic, "synthetic", false, "use a synthetic 1° terrain grid instead of a raster")
	flag.IntVar(&opts.resolution, "resolution", 32, "vertices per tile edge")
	flag.Float64Var(&opts.params.Radius, "radius", opts.params.Radius, "planet radius in scene units")
	flag.Float64Var(&opts.params.ExaggerationDivisor, "divisor", opts.params.ExaggerationDivisor, "elevation exaggeration divisor")
	flag.Parse()

	if opts.elevationPath != "" && opts.synthetic {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(opts); code != 0 {
		os.Exit(code)
	}
}

func run(opts options) int {
	fmt.Println("=== Globe Mesh Validation ===")
	fmt.Println()

	source, closeSource, err := openSource(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open elevation source: %v\n", err)
		return 1
	}
	defer closeSource()

	gen, err := cubesphere.NewGenerator(opts.params, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	store := globe.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	builder := globe.NewBuilder(gen, opts.resolution, store, observability.NewMetricsForTesting(), logger)
	if err := builder.Build(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: build globe: %v\n", err)
		return 1
	}

	routes := catalog.AllRoutes()
	specs, err := catalog.Specs(routes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: catalogue: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateGeodesy(),
		validateTiles(store, opts),
		validateSeams(store),
		validateArcs(specs, opts.params.Radius),
		validateGeoJSON(specs),
		validateMarkers(opts.params.Radius),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors)+p.dropped)
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Tiles: %d at resolution %d, %d arcs, %d markers\n",
		store.Len(), opts.resolution, len(specs), len(catalog.Cities))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		if p.dropped > 0 {
			fmt.Printf("  ... and %d more\n", p.dropped)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func openSource(opts options) (elevation.Source, func(), error) {
	switch {
	case opts.synthetic:
		g, err := elevation.GlobalGrid(360, 180, syntheticTerrain)
		if err != nil {
			return nil, nil, err
		}
		src, err := elevation.NewRasterSource(g)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil

	case opts.elevationPath != "":
		ds, err := gdalraster.Open(opts.elevationPath)
		if err != nil {
			return nil, nil, err
		}
		src, err := elevation.NewRasterSource(ds)
		if err != nil {
			_ = ds.Close()
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	}
	return nil, func() {}, nil
}

// syntheticTerrain is a smooth landmass pattern with oceans below zero.
func syntheticTerrain(lat, lon float64) float64 {
	return 3000 * math.Sin(lat*math.Pi/45) * math.Cos(lon*math.Pi/60)
}

// ── Phase: geodesy ──

func validateGeodesy() *phase {
	p := &phase{name: "Geodesy round trip and UV boundaries"}

	for lat := -89.0; lat <= 89; lat += 0.5 {
		for lon := -179.0; lon <= 179; lon += 7 {
			c, err := geodesy.FromDegrees(lat, lon)
			if err != nil {
				p.errorf("FromDegrees(%v, %v): %v", lat, lon, err)
				continue
			}
			gotLat, gotLon := geodesy.FromSpherePoint(c.SpherePoint(geodesy.DefaultRadius)).Degrees()
			if math.Abs(gotLat-lat) > 1e-4 || math.Abs(gotLon-lon) > 1e-4 {
				p.errorf("round trip (%v, %v) -> (%v, %v)", lat, lon, gotLat, gotLon)
			}
		}
	}

	checks := []struct {
		name string
		fn   func(float64) (float64, error)
		in   float64
		want float64
	}{
		{"MapLatitude", geodesy.MapLatitude, 90, 0},
		{"MapLatitude", geodesy.MapLatitude, 0, 0.5},
		{"MapLatitude", geodesy.MapLatitude, -90, 1},
		{"MapLongitude", geodesy.MapLongitude, -180, 0},
		{"MapLongitude", geodesy.MapLongitude, 0, 0.5},
		{"MapLongitude", geodesy.MapLongitude, 180, 1},
	}
	for _, c := range checks {
		got, err := c.fn(c.in)
		if err != nil || got != c.want {
			p.errorf("%s(%v) = %v, %v; want %v", c.name, c.in, got, err, c.want)
		}
	}

	if _, err := geodesy.FromDegrees(91, 0); err == nil {
		p.errorf("FromDegrees(91, 0) accepted")
	}
	if _, err := geodesy.FromDegrees(0, 181); err == nil {
		p.errorf("FromDegrees(0, 181) accepted")
	}
	return p
}

// ── Phase: tiles ──

func validateTiles(store *globe.Store, opts options) *phase {
	p := &phase{name: "Tile counts, indices and radii"}
	r := opts.resolution
	wantVerts, wantIdx := r*r, 6*(r-1)*(r-1)
	radius := opts.params.Radius

	if store.Len() != globe.TileCount {
		p.errorf("built %d tiles, want %d", store.Len(), globe.TileCount)
	}

	for _, key := range store.Keys() {
		tile, err := store.Get(key.Face, key.Quadrant)
		if err != nil {
			p.errorf("%s: %v", key, err)
			continue
		}
		var payload globe.TilePayload
		if err := cbor.Unmarshal(tile.Data, &payload); err != nil {
			p.errorf("%s: decode: %v", key, err)
			continue
		}
		b := payload.Mesh
		if err := b.Validate(); err != nil {
			p.errorf("%s: %v", key, err)
		}
		if b.VertexCount() != wantVerts || len(b.Indices) != wantIdx {
			p.errorf("%s: %d vertices / %d indices, want %d / %d",
				key, b.VertexCount(), len(b.Indices), wantVerts, wantIdx)
		}
		for i := range b.Positions {
			length := float64(b.Positions[i].Length())
			if length < radius-1e-3 {
				p.errorf("%s: vertex %d below base radius (%.4f)", key, i, length)
			}
			if tile.Stats.Displaced == 0 && math.Abs(length-radius) > 1e-3 {
				p.errorf("%s: vertex %d off the sphere with no displacement (%.4f)", key, i, length)
			}
			u, v := b.UVs[i][0], b.UVs[i][1]
			if u < 0 || u > 1 || v < 0 || v > 1 {
				p.errorf("%s: vertex %d uv (%v, %v) outside [0,1]", key, i, u, v)
			}
		}
		if tile.Stats.Errors > 0 {
			p.errorf("%s: %d elevation read errors (first: %v)", key, tile.Stats.Errors, tile.Stats.FirstError)
		}
	}
	return p
}

// ── Phase: seams ──

func validateSeams(store *globe.Store) *phase {
	p := &phase{name: "Seam patches"}

	corrected := 0
	for _, key := range store.Keys() {
		tile, err := store.Get(key.Face, key.Quadrant)
		if err != nil {
			p.errorf("%s: %v", key, err)
			continue
		}
		corrected += tile.Stats.SeamCorrected
	}
	if corrected == 0 {
		p.errorf("no vertex had its u patched; the antimeridian seam is uncorrected")
	}
	return p
}

// ── Phase: arcs ──

func validateArcs(specs []arc.Spec, radius float64) *phase {
	p := &phase{name: "Arc heights and ribbon counts"}

	for _, s := range specs {
		label := fmt.Sprintf("%s -> %s", s.From, s.To)
		pts := s.Points(radius)
		if len(pts) == 2 {
			continue
		}
		if len(pts) != s.Segments+1 {
			p.errorf("%s: %d points, want %d", label, len(pts), s.Segments+1)
			continue
		}
		if d := math.Abs(pts[0].Norm() - radius); d > 1e-6 {
			p.errorf("%s: start off radius by %v", label, d)
		}
		if d := math.Abs(pts[len(pts)-1].Norm() - radius); d > 1e-6 {
			p.errorf("%s: end off radius by %v", label, d)
		}
		if s.Segments%2 == 0 {
			mid := pts[s.Segments/2].Norm()
			if d := math.Abs(mid - (radius + s.PeakHeight)); d > 1e-6 {
				p.errorf("%s: midpoint radius %v, want %v", label, mid, radius+s.PeakHeight)
			}
		}

		ribbon := s.Mesh(radius)
		k := len(pts)
		if ribbon.VertexCount() != 8*(k-1) || len(ribbon.Indices) != 12*(k-1) {
			p.errorf("%s: ribbon %d vertices / %d indices, want %d / %d",
				label, ribbon.VertexCount(), len(ribbon.Indices), 8*(k-1), 12*(k-1))
		}
		data, err := mesh.Encode(ribbon)
		if err != nil {
			p.errorf("%s: encode: %v", label, err)
			continue
		}
		if _, err := mesh.Decode(data); err != nil {
			p.errorf("%s: decode: %v", label, err)
		}
	}
	return p
}

// ── Phase: GeoJSON ──

func validateGeoJSON(specs []arc.Spec) *phase {
	p := &phase{name: "GeoJSON export"}

	data, err := arc.FeatureCollection(specs).MarshalJSON()
	if err != nil {
		p.errorf("marshal: %v", err)
		return p
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		p.errorf("unmarshal: %v", err)
		return p
	}
	if len(fc.Features) != len(specs) {
		p.errorf("%d features, want %d", len(fc.Features), len(specs))
	}
	for i, f := range fc.Features {
		if f.Geometry == nil {
			p.errorf("feature %d has no geometry", i)
			continue
		}
		if !f.Geometry.Bound().IsEmpty() && (f.Geometry.Bound().Min.Lon() < -180 || f.Geometry.Bound().Max.Lon() > 180) {
			p.errorf("feature %d leaves [-180, 180]: %v", i, f.Geometry.Bound())
		}
	}
	return p
}

// ── Phase: markers ──

func validateMarkers(radius float64) *phase {
	p := &phase{name: "Population markers"}

	markers := catalog.Markers(radius)
	if len(markers) != len(catalog.Cities) {
		p.errorf("%d markers, want %d", len(markers), len(catalog.Cities))
	}
	for _, m := range markers {
		if d := math.Abs(m.Position.Norm() - radius); d > 1e-6 {
			p.errorf("%s: marker off the sphere by %v", m.City.Name, d)
		}
		if !(m.Size > 0) {
			p.errorf("%s: marker size %v", m.City.Name, m.Size)
		}
		if m.Color.R != 255 || m.Color.A != 255 {
			p.errorf("%s: marker color %v", m.City.Name, m.Color)
		}
	}
	return p
}
