// Command genarcs writes arc request fixtures from the built-in route
// catalogue. Each line of the output is one ArcRequest as published on the
// source topic, so the file can be piped straight into a Kafka producer.
//
// Usage:
//
//	go run ./cmd/genarcs -out data/mock/arc_requests.jsonl
//	go run ./cmd/genarcs -hub Tokyo -coords -out -
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/globe-mesh/internal/arc"
	"github.com/couchcryptid/globe-mesh/internal/catalog"
	"github.com/couchcryptid/globe-mesh/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", `output path for the JSON lines fixture ("-" for stdout)`)
	hubName := flag.String("hub", catalog.Austin.Name, "hub city for the hub routes")
	coords := flag.Bool("coords", false, "emit endpoint coordinates instead of place names")
	examples := flag.Bool("examples", true, "include the four example routes")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	hub, ok := catalog.Lookup(*hubName)
	if !ok {
		return fmt.Errorf("unknown hub city %q", *hubName)
	}

	var routes []catalog.Route
	if *examples {
		routes = append(routes, catalog.ExampleRoutes...)
	}
	routes = append(routes, catalog.HubRoutes(hub)...)

	reqs := make([]domain.ArcRequest, 0, len(routes))
	for _, r := range routes {
		// Validate before writing anything.
		if _, err := r.Spec(); err != nil {
			return err
		}
		reqs = append(reqs, toRequest(r, *coords))
	}

	if *out == "-" {
		return writeLines(os.Stdout, reqs)
	}
	if err := writeFile(*out, reqs); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d arc requests (hub %s): %s", len(reqs), hub.Name, *out)
	return nil
}

func toRequest(r catalog.Route, coords bool) domain.ArcRequest {
	segments, peak := r.Segments, r.PeakHeight
	req := domain.ArcRequest{
		Segments:   &segments,
		PeakHeight: &peak,
		Color:      arc.FormatColor(r.Color),
	}
	if coords {
		fromLat, fromLon, toLat, toLon := r.FromLat, r.FromLon, r.ToLat, r.ToLon
		req.From = domain.Endpoint{Lat: &fromLat, Lon: &fromLon, Place: r.From}
		req.To = domain.Endpoint{Lat: &toLat, Lon: &toLon, Place: r.To}
	} else {
		req.From = domain.Endpoint{Place: r.From}
		req.To = domain.Endpoint{Place: r.To}
	}
	return req
}

func writeFile(path string, reqs []domain.ArcRequest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := writeLines(f, reqs); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeLines(w io.Writer, reqs []domain.ArcRequest) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, r := range reqs {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return bw.Flush()
}
