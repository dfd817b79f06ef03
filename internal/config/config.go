// Package config is the consumed configuration surface: a YAML file
// merged with VISEPHEM_* environment overrides, validated once before
// the tick loop starts. Invalid configuration fails fast at startup,
// never mid-run.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Twilight preset thresholds in degrees below the horizon.
var twilightPresets = map[string]float64{
	"civil":        6.0,
	"nautical":     12.0,
	"astronomical": 18.0,
}

// Observer is the fixed ground location.
type Observer struct {
	Lat   float64 `yaml:"lat"`
	Lon   float64 `yaml:"lon"`
	ElevM float64 `yaml:"elev_m"`
}

// Catalog controls catalog acquisition.
type Catalog struct {
	Group        string  `yaml:"group"`
	TLEURL       string  `yaml:"tle_url"`
	CacheDir     string  `yaml:"cache_dir"`
	MaxFiles     int     `yaml:"max_cache_files"`
	RefreshHours float64 `yaml:"refresh_hours"`
}

// Config is the full configuration surface.
type Config struct {
	Observer Observer `yaml:"observer"`
	Catalog  Catalog  `yaml:"catalog"`

	IntervalSeconds float64 `yaml:"interval_seconds"`
	MinElevationDeg float64 `yaml:"min_elevation_deg"`
	MaxSat          int     `yaml:"maxsat"`
	MaxApogeeKm     float64 `yaml:"max_apogee_km"`
	Workers         int     `yaml:"workers"` // 0: one per CPU

	VisibleOnly *bool    `yaml:"visible_only"` // default true
	Twilight    string   `yaml:"twilight"`     // civil|nautical|astronomical|custom
	TwilightDeg *float64 `yaml:"twilight_deg"` // required (and negative) for custom

	MaskInclude string `yaml:"mask_include"` // comma-separated substrings
	MaskExclude string `yaml:"mask_exclude"`

	Console        *bool  `yaml:"console"` // default true
	UDP            string `yaml:"udp"`     // "host:port"; empty disables
	UDPSnapshotMax int    `yaml:"udp_snapshot_max"`
	Web            string `yaml:"web"` // listen addr; empty disables
}

// Default returns the configuration used when no file or override is given.
func Default() Config {
	return Config{
		Catalog: Catalog{
			Group:        "active",
			CacheDir:     "/tmp/visephem/tle",
			MaxFiles:     5,
			RefreshHours: 24.0,
		},
		IntervalSeconds: 10.0,
		MinElevationDeg: 0.0,
		MaxSat:          40,
		MaxApogeeKm:     500.0,
		Twilight:        "civil",
		UDPSnapshotMax:  50,
	}
}

// Load reads the YAML file at path into the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays VISEPHEM_* environment variables onto the config.
// Unparseable values are logged and ignored, matching the file defaults.
func (c *Config) ApplyEnv(logger *slog.Logger) {
	envFloat(logger, "VISEPHEM_LAT", &c.Observer.Lat)
	envFloat(logger, "VISEPHEM_LON", &c.Observer.Lon)
	envFloat(logger, "VISEPHEM_ELEV", &c.Observer.ElevM)
	envFloat(logger, "VISEPHEM_INTERVAL", &c.IntervalSeconds)
	envFloat(logger, "VISEPHEM_MIN_EL", &c.MinElevationDeg)
	envInt(logger, "VISEPHEM_MAXSAT", &c.MaxSat)
	envFloat(logger, "VISEPHEM_MAX_APOGEE", &c.MaxApogeeKm)
	envInt(logger, "VISEPHEM_WORKERS", &c.Workers)
	envString("VISEPHEM_TWILIGHT", &c.Twilight)
	envString("VISEPHEM_MASK_INCLUDE", &c.MaskInclude)
	envString("VISEPHEM_MASK_EXCLUDE", &c.MaskExclude)
	envString("VISEPHEM_GROUP", &c.Catalog.Group)
	envString("VISEPHEM_TLE_URL", &c.Catalog.TLEURL)
	envString("VISEPHEM_CACHE_DIR", &c.Catalog.CacheDir)
	envFloat(logger, "VISEPHEM_REFRESH_HOURS", &c.Catalog.RefreshHours)
	envString("VISEPHEM_UDP", &c.UDP)
	envInt(logger, "VISEPHEM_UDP_SNAPSHOT_MAX", &c.UDPSnapshotMax)
	envString("VISEPHEM_WEB", &c.Web)

	if v := os.Getenv("VISEPHEM_TWILIGHT_DEG"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			logger.Warn("invalid VISEPHEM_TWILIGHT_DEG value, ignoring", "value", v)
		} else {
			c.TwilightDeg = &f
		}
	}
	if v := os.Getenv("VISEPHEM_VISIBLE_ONLY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid VISEPHEM_VISIBLE_ONLY value, ignoring", "value", v)
		} else {
			c.VisibleOnly = &b
		}
	}
	if v := os.Getenv("VISEPHEM_CONSOLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid VISEPHEM_CONSOLE value, ignoring", "value", v)
		} else {
			c.Console = &b
		}
	}
}

// Validate checks the configuration before the loop starts.
func (c *Config) Validate() error {
	if c.Observer.Lat < -90 || c.Observer.Lat > 90 {
		return fmt.Errorf("observer latitude %g out of range [-90,90]", c.Observer.Lat)
	}
	if c.Observer.Lon < -180 || c.Observer.Lon > 180 {
		return fmt.Errorf("observer longitude %g out of range [-180,180]", c.Observer.Lon)
	}
	if c.IntervalSeconds <= 0 {
		return fmt.Errorf("interval_seconds must be positive, got %g", c.IntervalSeconds)
	}
	if c.MaxSat < 1 {
		return fmt.Errorf("maxsat must be at least 1, got %d", c.MaxSat)
	}
	if c.MaxApogeeKm <= 0 {
		return fmt.Errorf("max_apogee_km must be positive, got %g", c.MaxApogeeKm)
	}
	if c.UDPSnapshotMax < 1 {
		return fmt.Errorf("udp_snapshot_max must be at least 1, got %d", c.UDPSnapshotMax)
	}

	switch c.Twilight {
	case "civil", "nautical", "astronomical":
	case "custom":
		if c.TwilightDeg == nil {
			return fmt.Errorf("twilight custom requires twilight_deg")
		}
		if *c.TwilightDeg >= 0 {
			return fmt.Errorf("twilight custom requires twilight_deg < 0, got %g", *c.TwilightDeg)
		}
	default:
		return fmt.Errorf("unknown twilight mode %q", c.Twilight)
	}

	return nil
}

// TwilightThresholdDeg resolves the twilight mode to a solar altitude
// threshold in degrees (always negative). Call only after Validate.
func (c *Config) TwilightThresholdDeg() float64 {
	if c.Twilight == "custom" && c.TwilightDeg != nil {
		return *c.TwilightDeg
	}
	return -twilightPresets[c.Twilight]
}

// Interval returns the tick interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds * float64(time.Second))
}

// VisibleOnlyEnabled defaults to true when unset, matching the monitor's
// purpose of showing naked-eye candidates.
func (c *Config) VisibleOnlyEnabled() bool {
	return c.VisibleOnly == nil || *c.VisibleOnly
}

// ConsoleEnabled defaults to true when unset.
func (c *Config) ConsoleEnabled() bool {
	return c.Console == nil || *c.Console
}

// IncludeMasks returns the include substrings, nil when none configured.
func (c *Config) IncludeMasks() []string {
	return splitMasks(c.MaskInclude)
}

// ExcludeMasks returns the exclude substrings, nil when none configured.
func (c *Config) ExcludeMasks() []string {
	return splitMasks(c.MaskExclude)
}

func splitMasks(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envFloat(logger *slog.Logger, key string, dst *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn("invalid float env value, ignoring", "key", key, "value", v)
		return
	}
	*dst = f
}

func envInt(logger *slog.Logger, key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("invalid int env value, ignoring", "key", key, "value", v)
		return
	}
	*dst = n
}
