package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/n4hy/VisibleEphemeris/internal/api"
	"github.com/n4hy/VisibleEphemeris/internal/catalog"
	"github.com/n4hy/VisibleEphemeris/internal/config"
	"github.com/n4hy/VisibleEphemeris/internal/engine"
	"github.com/n4hy/VisibleEphemeris/internal/ephem"
	"github.com/n4hy/VisibleEphemeris/internal/metrics"
	"github.com/n4hy/VisibleEphemeris/internal/sink"
	"github.com/n4hy/VisibleEphemeris/internal/stream"
	"github.com/n4hy/VisibleEphemeris/internal/transform"
	"github.com/n4hy/VisibleEphemeris/internal/visibility"
	"github.com/n4hy/VisibleEphemeris/web"
)

func main() {
	configPath := flag.String("config", os.Getenv("VISEPHEM_CONFIG"), "path to YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("could not load configuration", "error", err)
		os.Exit(1)
	}
	cfg.ApplyEnv(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dataset, err := catalog.Load(ctx, catalog.LoadConfig{
		SourceURL:   cfg.Catalog.TLEURL,
		Group:       cfg.Catalog.Group,
		CacheDir:    cfg.Catalog.CacheDir,
		MaxFiles:    cfg.Catalog.MaxFiles,
		RefreshAge:  time.Duration(cfg.Catalog.RefreshHours * float64(time.Hour)),
		MaxApogeeKm: cfg.MaxApogeeKm,
	}, logger)
	if err != nil {
		logger.Error("could not load catalog", "error", err)
		os.Exit(1)
	}
	metrics.SetCatalogObjects(len(dataset.Objects))

	obs := transform.NewObserverPosition(cfg.Observer.Lat, cfg.Observer.Lon, cfg.Observer.ElevM)

	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	providers := ephem.NewProviders(dataset.Objects, logger)
	computer := ephem.NewComputer(providers, workers, logger)

	twilightDeg := cfg.TwilightThresholdDeg()
	filter := visibility.NewFilter(visibility.Config{
		MinElevationDeg: cfg.MinElevationDeg,
		Include:         cfg.IncludeMasks(),
		Exclude:         cfg.ExcludeMasks(),
		VisibleOnly:     cfg.VisibleOnlyEnabled(),
		TwilightDeg:     twilightDeg,
		MaxSat:          cfg.MaxSat,
	}, dataset.Objects)
	builder := visibility.NewBuilder(twilightDeg)

	var sinks []sink.Sink
	if cfg.ConsoleEnabled() {
		sinks = append(sinks, sink.NewConsoleSink(os.Stdout, true, cfg.VisibleOnlyEnabled(), 0))
	}
	if cfg.UDP != "" {
		udp, err := sink.NewUDPSink(cfg.UDP, cfg.UDPSnapshotMax)
		if err != nil {
			logger.Error("could not open UDP sink", "target", cfg.UDP, "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, udp)
	}

	var srv *api.Server
	if cfg.Web != "" {
		pub := stream.NewPublisher()
		streamHandler := stream.NewHandler(pub, stream.Config{
			MaxRows: cfg.MaxSat,
		}, logger)
		srv = api.NewServer(cfg.Web, logger, streamHandler, web.Content)
		sinks = append(sinks, sink.NewWebSink(pub))

		go func() {
			logger.Info("starting web server", "addr", cfg.Web)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server listen error", "error", err)
				os.Exit(1)
			}
		}()
	}

	dist := sink.NewDistributor(logger, sinks...)

	sched := engine.NewScheduler(computer, filter, builder, dist, obs, cfg.Interval(), logger)

	// A bare "q" on stdin quits, same as SIGINT. Useful when the console
	// sink owns the terminal.
	go watchStdin(stop, logger)

	logger.Info("visible ephemeris monitor started",
		"objects", len(dataset.Objects),
		"source", dataset.Source,
		"interval", cfg.Interval().String(),
		"twilight_deg", twilightDeg,
		"visible_only", cfg.VisibleOnlyEnabled(),
	)

	sched.Run(ctx)

	if err := dist.Close(); err != nil {
		logger.Warn("sink close error", "error", err)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("stopped")
}

// watchStdin cancels the run when the user types "q". Reaching EOF (e.g.
// stdin redirected from /dev/null) just ends the watcher.
func watchStdin(stop func(), logger *slog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if strings.TrimSpace(strings.ToLower(scanner.Text())) == "q" {
			logger.Info("quit requested from stdin")
			stop()
			return
		}
	}
}

func logLevel() slog.Level {
	switch strings.ToLower(os.Getenv("VISEPHEM_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
