package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/globe-mesh/internal/arc"
	"github.com/couchcryptid/globe-mesh/internal/geodesy"
	"github.com/couchcryptid/globe-mesh/internal/mesh"
)

// ErrInvalidRequest marks a message that can never be turned into an arc.
var ErrInvalidRequest = errors.New("invalid arc request")

// BuildOptions carries the scene settings applied to every request.
type BuildOptions struct {
	Radius           float64
	DefaultThickness float64
}

// ParseArcRequest deserializes a RawEvent's value into an ArcRequest and
// assigns a deterministic ID when the request has none.
func ParseArcRequest(raw RawEvent) (ArcRequest, error) {
	var req ArcRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return ArcRequest{}, fmt.Errorf("%w: parse: %w", ErrInvalidRequest, err)
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		req.ID = generateID(req)
	}
	return req, nil
}

// generateID hashes the request's endpoints and styling. Equal requests get
// equal IDs.
func generateID(req ArcRequest) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		endpointKey(req.From), endpointKey(req.To),
		optInt(req.Segments), optFloat(req.PeakHeight), optFloat(req.Thickness),
		strings.ToLower(strings.TrimSpace(req.Color)))
	hash := sha256.Sum256([]byte(input))
	return "arc-" + hex.EncodeToString(hash[:8])
}

func endpointKey(e Endpoint) string {
	if e.Lat != nil && e.Lon != nil {
		return fmt.Sprintf("%.6f,%.6f", *e.Lat, *e.Lon)
	}
	return strings.ToLower(strings.Join(strings.Fields(e.Place), " "))
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}

// BuildArcMesh resolves both endpoints, applies the request's styling over the
// defaults, and generates the ribbon. Failures wrap ErrInvalidRequest except
// geocoder errors, which may succeed on a later attempt.
func BuildArcMesh(ctx context.Context, req ArcRequest, opts BuildOptions, geocoder Geocoder, logger *slog.Logger) (ArcMesh, error) {
	from, fromCoord, err := ResolveEndpoint(ctx, req.From, geocoder, logger)
	if err != nil {
		return ArcMesh{}, fmt.Errorf("%s origin: %w", req.ID, err)
	}
	to, toCoord, err := ResolveEndpoint(ctx, req.To, geocoder, logger)
	if err != nil {
		return ArcMesh{}, fmt.Errorf("%s destination: %w", req.ID, err)
	}

	spec, err := applyStyle(arc.Between(fromCoord, toCoord), req, opts)
	if err != nil {
		return ArcMesh{}, fmt.Errorf("%s: %w", req.ID, err)
	}

	radius := opts.Radius
	if radius <= 0 {
		radius = geodesy.DefaultRadius
	}

	return ArcMesh{
		ID:          req.ID,
		From:        from,
		To:          to,
		Segments:    spec.Segments,
		PeakHeight:  spec.PeakHeight,
		Thickness:   spec.Thickness,
		Material:    arc.Material(spec),
		Mesh:        spec.Mesh(radius),
		ProcessedAt: clock.Now().UTC(),
	}, nil
}

func applyStyle(spec arc.Spec, req ArcRequest, opts BuildOptions) (arc.Spec, error) {
	if opts.DefaultThickness > 0 {
		spec = spec.WithThickness(opts.DefaultThickness)
	}
	if req.Segments != nil {
		spec = spec.WithSegments(*req.Segments)
	}
	if req.PeakHeight != nil {
		spec = spec.WithPeakHeight(*req.PeakHeight)
	}
	if req.Thickness != nil {
		spec = spec.WithThickness(*req.Thickness)
	}
	if req.Color != "" {
		c, err := arc.ParseColor(req.Color)
		if err != nil {
			return arc.Spec{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		spec = spec.WithColor(c)
	}
	if err := spec.Validate(); err != nil {
		return arc.Spec{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return spec, nil
}

// SerializeArcMesh encodes m for the sink topic, keyed by its ID.
func SerializeArcMesh(m ArcMesh) (OutputEvent, error) {
	data, err := mesh.Marshal(m)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize arc mesh: %w", err)
	}
	return OutputEvent{
		Key:   []byte(m.ID),
		Value: data,
		Headers: map[string]string{
			"arc_id":       m.ID,
			"content_type": mesh.ContentType,
			"processed_at": m.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
