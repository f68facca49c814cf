// Package config loads relinkctl settings from flags, environment and a
// config file.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/meigma/relink"
	"github.com/meigma/relink/internal/archive"
)

// EnvPrefix prefixes environment variables, e.g. RELINK_LOG_LEVEL.
const EnvPrefix = "RELINK"

// Config holds relinkctl configuration.
type Config struct {
	// GameDir is the game installation holding data.i and the data directory.
	GameDir string `mapstructure:"game_dir"`

	// StateDir holds the cache registry and produced files. Empty means
	// <game_dir>/.relink.
	StateDir string `mapstructure:"state_dir"`

	AutoUpgradeModelInfo bool `mapstructure:"auto_upgrade_model_info"`
	ConvertJSONToMsgPack bool `mapstructure:"convert_json_to_msgpack"`
	ConvertXMLToBXM      bool `mapstructure:"convert_xml_to_bxm"`
	PrintRedirectedFiles bool `mapstructure:"print_redirected_files"`
	Verbose              bool `mapstructure:"verbose"`

	// IgnorePatterns are doublestar globs matched against paths inside
	// override folders.
	IgnorePatterns []string `mapstructure:"ignore"`

	ChunkCacheSize int `mapstructure:"chunk_cache_size"`

	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("game_dir", "")
	v.SetDefault("state_dir", "")
	v.SetDefault("auto_upgrade_model_info", true)
	v.SetDefault("convert_json_to_msgpack", true)
	v.SetDefault("convert_xml_to_bxm", true)
	v.SetDefault("print_redirected_files", false)
	v.SetDefault("verbose", false)
	v.SetDefault("ignore", []string{"**/.git/**", "**/.DS_Store"})
	v.SetDefault("chunk_cache_size", archive.DefaultChunkCacheSize)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
}

// Load unmarshals v into a Config after applying defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.ChunkCacheSize < 0 {
		return nil, fmt.Errorf("invalid config: chunk_cache_size must not be negative, got %d", cfg.ChunkCacheSize)
	}
	return cfg, nil
}

// EngineOptions maps the configuration to engine options.
func (c *Config) EngineOptions() []relink.Option {
	opts := []relink.Option{
		relink.WithModelInfoUpgrade(c.AutoUpgradeModelInfo),
		relink.WithJSONToMsgPack(c.ConvertJSONToMsgPack),
		relink.WithXMLToBXM(c.ConvertXMLToBXM),
		relink.WithPrintRedirects(c.PrintRedirectedFiles),
		relink.WithVerbose(c.Verbose),
		relink.WithChunkCacheSize(c.ChunkCacheSize),
	}
	if c.StateDir != "" {
		opts = append(opts, relink.WithStateDir(c.StateDir))
	}
	if len(c.IgnorePatterns) > 0 {
		opts = append(opts, relink.WithIgnorePatterns(c.IgnorePatterns...))
	}
	return opts
}
