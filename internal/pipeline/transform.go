package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/globe-mesh/internal/domain"
)

// ArcTransformer implements Transformer: it parses an arc request, resolves
// its endpoints, builds the ribbon mesh, and encodes it for the sink.
type ArcTransformer struct {
	geocoder domain.Geocoder
	opts     domain.BuildOptions
	logger   *slog.Logger
}

// NewTransformer creates an ArcTransformer. Pass a nil geocoder to resolve
// place names from the built-in catalogue only.
func NewTransformer(geocoder domain.Geocoder, opts domain.BuildOptions, logger *slog.Logger) *ArcTransformer {
	return &ArcTransformer{
		geocoder: geocoder,
		opts:     opts,
		logger:   logger,
	}
}

func (t *ArcTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseArcRequest(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	m, err := domain.BuildArcMesh(ctx, req, t.opts, t.geocoder, t.logger)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	t.logger.Debug("arc built",
		"arc_id", m.ID,
		"from", m.From.Place,
		"to", m.To.Place,
		"vertices", m.Mesh.VertexCount(),
	)
	return domain.SerializeArcMesh(m)
}
