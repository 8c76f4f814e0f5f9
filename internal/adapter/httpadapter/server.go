// Package httpadapter serves health, metrics, globe tiles, picking, and the
// arc catalogue over HTTP.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/golang/geo/r3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/globe-mesh/internal/cubesphere"
	"github.com/couchcryptid/globe-mesh/internal/domain"
	"github.com/couchcryptid/globe-mesh/internal/globe"
	"github.com/couchcryptid/globe-mesh/internal/mesh"
)

// TileSource looks up encoded tiles.
type TileSource interface {
	Get(face string, quadrant int) (globe.Tile, error)
}

// Deps are the collaborators behind the API routes. Geocoder may be nil.
type Deps struct {
	Ready    sharedobs.ReadinessChecker
	Tiles    TileSource
	Geocoder domain.Geocoder
	// Arcs is the pre-rendered GeoJSON served at /arcs.
	Arcs []byte
}

// Server exposes health, readiness, metrics, and the globe API.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /tiles/{face}/{quadrant}, /pick, and /arcs routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /tiles/{face}/{quadrant}", s.handleTile)
	mux.HandleFunc("GET /pick", s.handlePick)
	mux.HandleFunc("GET /arcs", s.handleArcs)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	face, ok := cubesphere.FaceByName(r.PathValue("face"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown face "+strconv.Quote(r.PathValue("face")))
		return
	}
	q, err := strconv.Atoi(r.PathValue("quadrant"))
	if err != nil || q < 0 || q >= len(cubesphere.Quadrants) {
		writeError(w, http.StatusBadRequest, "quadrant must be 0-3")
		return
	}

	tile, err := s.deps.Tiles.Get(face.Name, q)
	if errors.Is(err, globe.ErrTileNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("tile lookup failed", "face", face.Name, "quadrant", q, "error", err)
		writeError(w, http.StatusInternalServerError, "tile lookup failed")
		return
	}

	w.Header().Set("Content-Type", mesh.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(tile.Data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(tile.Data)
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	var v r3.Vector
	for _, p := range []struct {
		name string
		dst  *float64
	}{{"x", &v.X}, {"y", &v.Y}, {"z", &v.Z}} {
		f, err := strconv.ParseFloat(r.URL.Query().Get(p.name), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			writeError(w, http.StatusBadRequest, "query parameters x, y and z must be finite numbers")
			return
		}
		*p.dst = f
	}

	res, err := domain.Pick(r.Context(), v, s.deps.Geocoder, s.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleArcs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.deps.Arcs)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
