// visephem-once runs a single compute tick and prints the table, useful
// for checking a site/catalog combination without starting the monitor.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/n4hy/VisibleEphemeris/internal/catalog"
	"github.com/n4hy/VisibleEphemeris/internal/config"
	"github.com/n4hy/VisibleEphemeris/internal/engine"
	"github.com/n4hy/VisibleEphemeris/internal/ephem"
	"github.com/n4hy/VisibleEphemeris/internal/sink"
	"github.com/n4hy/VisibleEphemeris/internal/transform"
	"github.com/n4hy/VisibleEphemeris/internal/visibility"
)

func main() {
	configPath := flag.String("config", os.Getenv("VISEPHEM_CONFIG"), "path to YAML config file")
	at := flag.String("at", "", "compute for this RFC3339 instant instead of now")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Println("ERROR loading config:", err)
		os.Exit(1)
	}
	cfg.ApplyEnv(logger)
	if err := cfg.Validate(); err != nil {
		fmt.Println("ERROR invalid config:", err)
		os.Exit(1)
	}

	epoch := time.Now().UTC()
	if *at != "" {
		epoch, err = time.Parse(time.RFC3339, *at)
		if err != nil {
			fmt.Println("ERROR parsing -at:", err)
			os.Exit(1)
		}
	}

	dataset, err := catalog.Load(context.Background(), catalog.LoadConfig{
		SourceURL:   cfg.Catalog.TLEURL,
		Group:       cfg.Catalog.Group,
		CacheDir:    cfg.Catalog.CacheDir,
		MaxFiles:    cfg.Catalog.MaxFiles,
		RefreshAge:  time.Duration(cfg.Catalog.RefreshHours * float64(time.Hour)),
		MaxApogeeKm: cfg.MaxApogeeKm,
	}, logger)
	if err != nil {
		fmt.Println("ERROR loading catalog:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d objects from %s\n\n", len(dataset.Objects), dataset.Source)

	obs := transform.NewObserverPosition(cfg.Observer.Lat, cfg.Observer.Lon, cfg.Observer.ElevM)

	providers := ephem.NewProviders(dataset.Objects, logger)
	computer := ephem.NewComputer(providers, runtime.NumCPU(), logger)

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

	console := sink.NewConsoleSink(os.Stdout, false, cfg.VisibleOnlyEnabled(), 0)
	dist := sink.NewDistributor(logger, console)

	sched := engine.NewScheduler(computer, filter, builder, dist, obs, cfg.Interval(), logger)
	snap := sched.Tick(epoch)

	fmt.Printf("\nGeneration %d, %d rows, night=%v\n", snap.Generation, len(snap.Rows), snap.Night)
}
