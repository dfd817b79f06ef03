package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// LoadConfig controls catalog acquisition.
type LoadConfig struct {
	SourceURL  string        // explicit source URL; overrides Group
	Group      string        // named Celestrak group when SourceURL is empty
	CacheDir   string        // disk cache location
	MaxFiles   int           // cached files retained
	RefreshAge time.Duration // refetch when the newest cache file is older

	MaxApogeeKm float64 // validation ceiling applied by Filter
}

// Load acquires the raw catalog, preferring a fresh fetch when the cache
// is stale, falling back to the newest cached copy when the fetch fails.
// It fails only when neither source yields any data — the one hard abort
// in the startup path.
func Load(ctx context.Context, cfg LoadConfig, logger *slog.Logger) (*Dataset, error) {
	sourceURL := cfg.SourceURL
	if sourceURL == "" {
		if url, ok := Groups[cfg.Group]; ok {
			sourceURL = url
		}
	}
	fetcher := NewFetcher(sourceURL, logger)
	cache := NewCache(cfg.CacheDir, cfg.MaxFiles)

	var (
		data      []byte
		fetchedAt time.Time
		source    string
	)

	if cache.Stale(cfg.RefreshAge) {
		logger.Info("fetching catalog", "url", fetcher.SourceURL())
		fetched, err := fetcher.Fetch(ctx)
		if err != nil {
			logger.Warn("catalog fetch failed, trying disk cache", "error", err)
		} else {
			data = fetched
			fetchedAt = time.Now().UTC()
			source = fetcher.SourceURL()
			if err := cache.Write(fetched, fetchedAt); err != nil {
				logger.Warn("could not write catalog cache", "error", err)
			}
		}
	}

	if data == nil {
		cached, ts, err := cache.LoadLatest()
		if err != nil {
			return nil, fmt.Errorf("no catalog available: fetch failed and %w", err)
		}
		data = cached
		fetchedAt = ts
		source = "cache"
		logger.Info("using cached catalog", "cached_at", ts.UTC().Format(time.RFC3339))
	}

	records, err := Parse(bytes.NewReader(data), logger)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog from %s contains no parseable records", source)
	}

	objects := Filter(records, cfg.MaxApogeeKm, logger)
	logger.Info("catalog loaded",
		"source", source,
		"records", len(records),
		"retained", len(objects),
		"max_apogee_km", cfg.MaxApogeeKm,
	)
	if len(objects) == 0 {
		return nil, fmt.Errorf("no objects survive validation (max apogee %.0f km)", cfg.MaxApogeeKm)
	}

	return &Dataset{
		Source:    source,
		FetchedAt: fetchedAt,
		Objects:   objects,
	}, nil
}
