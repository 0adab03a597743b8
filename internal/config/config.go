// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input        InputConfig        `yaml:"input" mapstructure:"input"`
	Contiguity   ContiguityConfig   `yaml:"contiguity" mapstructure:"contiguity"`
	Weights      WeightsConfig      `yaml:"weights" mapstructure:"weights"`
	Significance SignificanceConfig `yaml:"significance" mapstructure:"significance"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Publish      PublishConfig      `yaml:"publish" mapstructure:"publish"`
	Fetch        FetchConfig        `yaml:"fetch" mapstructure:"fetch"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// InputConfig describes the default shapefile and attribute layout.
type InputConfig struct {
	Shapefile string `yaml:"shapefile" mapstructure:"shapefile"`
	IDField   string `yaml:"id_field" mapstructure:"id_field"`
	NameField string `yaml:"name_field" mapstructure:"name_field"`
	Variables string `yaml:"variables" mapstructure:"variables"` // path to variables YAML
}

// ContiguityConfig configures neighbor graph construction.
type ContiguityConfig struct {
	Mode          string  `yaml:"mode" mapstructure:"mode"` // queen or rook
	SnapTolerance float64 `yaml:"snap_tolerance" mapstructure:"snap_tolerance"`
}

// WeightsConfig configures spatial weight derivation.
type WeightsConfig struct {
	Style      string `yaml:"style" mapstructure:"style"`             // only "W" (row-standardized)
	ZeroPolicy string `yaml:"zero_policy" mapstructure:"zero_policy"` // fail-on-island or tolerate-island
}

// SignificanceConfig configures inference for both Moran engines.
type SignificanceConfig struct {
	Alpha        float64 `yaml:"alpha" mapstructure:"alpha"`
	Method       string  `yaml:"method" mapstructure:"method"`         // analytic or permutation
	Assumption   string  `yaml:"assumption" mapstructure:"assumption"` // randomization or normality
	Permutations int     `yaml:"permutations" mapstructure:"permutations"`
	Seed         uint64  `yaml:"seed" mapstructure:"seed"`
}

// StoreConfig configures the local run history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PublishConfig configures the optional PostGIS result publisher.
type PublishConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FetchConfig configures boundary archive downloads.
type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	DestDir     string  `yaml:"dest_dir" mapstructure:"dest_dir"`
}

// ServerConfig configures the results API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("LISA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("contiguity.mode", "queen")
	v.SetDefault("contiguity.snap_tolerance", 0.001)
	v.SetDefault("weights.style", "W")
	v.SetDefault("weights.zero_policy", "tolerate-island")
	v.SetDefault("significance.alpha", 0.05)
	v.SetDefault("significance.method", "analytic")
	v.SetDefault("significance.assumption", "randomization")
	v.SetDefault("significance.permutations", 999)
	v.SetDefault("significance.seed", 12345)
	v.SetDefault("store.path", "lisa.db")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.rate_per_sec", 2)
	v.SetDefault("fetch.dest_dir", "data")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
