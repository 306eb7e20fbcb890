// Package config loads application configuration from config.yaml and the
// SEPOMEX_ environment, and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input    InputConfig    `yaml:"input" mapstructure:"input"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
	Resume   ResumeConfig   `yaml:"resume" mapstructure:"resume"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// InputConfig configures registry loading and row selection.
type InputConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	Sheet     string `yaml:"sheet" mapstructure:"sheet"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	Latin1    bool   `yaml:"latin1" mapstructure:"latin1"`
	State     string `yaml:"state" mapstructure:"state"`
	Offset    int    `yaml:"offset" mapstructure:"offset"`
	Limit     int    `yaml:"limit" mapstructure:"limit"`
}

// OutputConfig configures the two output streams.
type OutputConfig struct {
	ResultsPath string `yaml:"results_path" mapstructure:"results_path"`
	MissesPath  string `yaml:"misses_path" mapstructure:"misses_path"`
}

// GeocoderConfig configures the Nominatim client and query context.
type GeocoderConfig struct {
	BaseURL     string    `yaml:"base_url" mapstructure:"base_url"`
	Contact     string    `yaml:"contact" mapstructure:"contact"`
	Country     string    `yaml:"country" mapstructure:"country"`
	IntervalMS  int       `yaml:"interval_ms" mapstructure:"interval_ms"`
	MaxRetries  int       `yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSecs int       `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Viewbox     []float64 `yaml:"viewbox" mapstructure:"viewbox"` // min lon, min lat, max lon, max lat
}

// Interval returns the minimum spacing between outbound requests.
func (g GeocoderConfig) Interval() time.Duration {
	return time.Duration(g.IntervalMS) * time.Millisecond
}

// Timeout returns the per-call HTTP timeout.
func (g GeocoderConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// Bounds returns the configured viewbox, or nil when unset.
func (g GeocoderConfig) Bounds() (*geom.Bounds, error) {
	if len(g.Viewbox) == 0 {
		return nil, nil
	}
	if len(g.Viewbox) != 4 {
		return nil, eris.Errorf("config: viewbox needs 4 values (min lon, min lat, max lon, max lat), got %d", len(g.Viewbox))
	}
	return geom.NewBounds(geom.XY).SetCoords(
		geom.Coord{g.Viewbox[0], g.Viewbox[1]},
		geom.Coord{g.Viewbox[2], g.Viewbox[3]},
	), nil
}

// ResumeConfig configures completed-row detection.
type ResumeConfig struct {
	KeyFields []string `yaml:"key_fields" mapstructure:"key_fields"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SEPOMEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range Defaults() {
		v.SetDefault(key, val)
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Defaults returns the default configuration values. Jalisco is the target
// state; the default viewbox is its bounding box.
func Defaults() map[string]any {
	return map[string]any{
		"input.delimiter":       "|",
		"input.latin1":          false,
		"input.state":           "Jalisco",
		"output.results_path":   "geocoded.csv",
		"output.misses_path":    "geocoded_misses.csv",
		"geocoder.base_url":     "https://nominatim.openstreetmap.org/search",
		"geocoder.country":      "Mexico",
		"geocoder.interval_ms":  1000,
		"geocoder.max_retries":  5,
		"geocoder.timeout_secs": 10,
		"geocoder.viewbox":      []float64{-105.70, 18.92, -101.50, 22.75},
		"resume.key_fields":     []string{"postal_code", "settlement", "municipality", "settlement_id"},
		"log.level":             "info",
		"log.format":            "console",
	}
}

// Validate checks the settings the enrich run cannot start without.
func (c *Config) Validate() error {
	if c.Input.Path == "" {
		return eris.New("config: input.path is required")
	}
	if c.Geocoder.Contact == "" {
		return eris.New("config: geocoder.contact is required (the provider's usage policy requires an identifying contact)")
	}
	if c.Output.ResultsPath == "" || c.Output.MissesPath == "" {
		return eris.New("config: output.results_path and output.misses_path are required")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
