package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/globe-mesh/internal/adapter/gdalraster"
	"github.com/couchcryptid/globe-mesh/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/globe-mesh/internal/adapter/kafka"
	"github.com/couchcryptid/globe-mesh/internal/adapter/mapbox"
	"github.com/couchcryptid/globe-mesh/internal/arc"
	"github.com/couchcryptid/globe-mesh/internal/catalog"
	"github.com/couchcryptid/globe-mesh/internal/config"
	"github.com/couchcryptid/globe-mesh/internal/cubesphere"
	"github.com/couchcryptid/globe-mesh/internal/domain"
	"github.com/couchcryptid/globe-mesh/internal/elevation"
	"github.com/couchcryptid/globe-mesh/internal/globe"
	"github.com/couchcryptid/globe-mesh/internal/observability"
	"github.com/couchcryptid/globe-mesh/internal/pipeline"
)

func main() {
	os.Exit(run())
}

// run wires the service and blocks until shutdown. It returns the process
// exit code.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Elevation raster. A configured path that cannot be opened is fatal.
	source, closer, err := openElevation(cfg, logger)
	if err != nil {
		logger.Error("failed to open elevation raster", "path", cfg.ElevationPath, "error", err)
		return 1
	}

	gen, err := cubesphere.NewGenerator(generatorParams(cfg), source)
	if err != nil {
		logger.Error("invalid globe parameters", "error", err)
		return 1
	}
	store := globe.NewStore()
	builder := globe.NewBuilder(gen, cfg.FaceResolution, store, metrics, logger)

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	arcs, err := catalogGeoJSON()
	if err != nil {
		logger.Error("failed to render arc catalogue", "error", err)
		return 1
	}

	ready := httpadapter.AllReady{store}
	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Ready:    ready,
		Tiles:    store,
		Geocoder: geocoder,
		Arcs:     arcs,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server. /readyz reports 503 until the globe is built.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Build the globe. A failed build shuts the service down.
	buildErr := startBuild(ctx, builder, stop, logger)

	// Start arc pipeline.
	var closers []io.Closer
	if cfg.ArcPipelineEnabled {
		reader := kafkaadapter.NewReader(cfg, logger)
		writer := kafkaadapter.NewWriter(cfg, logger)
		closers = append(closers, reader, writer)

		transformer := pipeline.NewTransformer(geocoder, domain.BuildOptions{
			Radius:           cfg.PlanetRadius,
			DefaultThickness: cfg.ArcDefaultThickness,
		}, logger)
		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("arc pipeline disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	// Wait for the builder before the raster it samples is closed.
	var buildFailed bool
	select {
	case err := <-buildErr:
		buildFailed = err != nil
	case <-shutdownCtx.Done():
		logger.Warn("globe build still running at shutdown")
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}
	if closer != nil {
		if err := closer.Close(); err != nil {
			logger.Error("elevation raster close error", "error", err)
		}
	}

	if buildFailed {
		logger.Error("shutdown complete after globe build failure")
		return 1
	}
	logger.Info("shutdown complete")
	return 0
}

type globeBuilder interface {
	Build(ctx context.Context) error
}

// startBuild runs b in the background. On failure it calls stop so the
// service shuts down. The channel receives the build error, or nil when the
// build finished or was cancelled.
func startBuild(ctx context.Context, b globeBuilder, stop context.CancelFunc, logger *slog.Logger) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := b.Build(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("globe build failed", "error", err)
			done <- err
			stop()
			return
		}
		done <- nil
	}()
	return done
}

// openElevation returns a nil source when no raster is configured, which
// builds a smooth sphere.
func openElevation(cfg *config.Config, logger *slog.Logger) (elevation.Source, io.Closer, error) {
	if cfg.ElevationPath == "" {
		logger.Info("no elevation raster configured, building a smooth globe")
		return nil, nil, nil
	}
	ds, err := gdalraster.Open(cfg.ElevationPath)
	if err != nil {
		return nil, nil, err
	}
	src, err := elevation.NewRasterSource(ds)
	if err != nil {
		_ = ds.Close()
		return nil, nil, err
	}
	w, h := ds.Size()
	logger.Info("elevation raster opened", "path", cfg.ElevationPath, "width", w, "height", h)
	return src, src, nil
}

func generatorParams(cfg *config.Config) cubesphere.Params {
	return cubesphere.Params{
		Radius:              cfg.PlanetRadius,
		ExaggerationDivisor: cfg.ElevationDivisor,
		Seam: cubesphere.SeamPolicy{
			MidLatitude:   cfg.SeamMidLatitude,
			SouthLatitude: cfg.SeamSouthLatitude,
			Disabled:      !cfg.SeamCorrection,
		},
	}
}

func catalogGeoJSON() ([]byte, error) {
	specs, err := catalog.Specs(catalog.AllRoutes())
	if err != nil {
		return nil, err
	}
	return arc.FeatureCollection(specs).MarshalJSON()
}
