package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the matcher and its daemon
type Config struct {
	CSL           CSLConfig
	Debug         DebugConfig
	MatchCacheTTL time.Duration
	HTTPAddr      string
	// MatchRateLimit is the per-client request rate of /api/match, per second.
	MatchRateLimit float64
	MatchBurst     int
	BeastAddr      string
	DBPath         string
	RegistryCSV    []string
	BatchSize      int
	BatchTimeout   int
	Log            LogConfig
}

// CSLConfig locates the model packages and reference documents
type CSLConfig struct {
	PackageRoots   []string
	RelatedFile    string
	Doc8643File    string
	DefaultICAO    string
	SimVersion     int
	SystemPath     string
	RescanInterval time.Duration
}

// DebugConfig holds the host debug preferences
type DebugConfig struct {
	ModelMatching bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// Load loads configuration from config file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("csl.package_roots", []string{"CSL"})
	v.SetDefault("csl.related_file", "related.txt")
	v.SetDefault("csl.doc8643_file", "Doc8643.txt")
	v.SetDefault("csl.default_icao", "A320")
	v.SetDefault("csl.sim_version", 12000)
	v.SetDefault("csl.system_path", "")
	v.SetDefault("csl.rescan_interval", "0s")
	v.SetDefault("debug.model_matching", false)
	v.SetDefault("match_cache_ttl", "5m")
	v.SetDefault("http_addr", "localhost:8080")
	v.SetDefault("match_rate_limit", 10.0)
	v.SetDefault("match_burst", 20)
	v.SetDefault("beast_addr", "")
	v.SetDefault("db_path", "csl_trmnl.db")
	v.SetDefault("registry_csv", []string{})
	v.SetDefault("batch_size", 100)
	v.SetDefault("batch_timeout", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/csl_trmnl")
	v.AddConfigPath(".")

	if configPath := os.Getenv("CSL_TRMNL_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK - defaults + env vars apply
	}

	v.SetEnvPrefix("CSL_TRMNL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		CSL: CSLConfig{
			PackageRoots:   v.GetStringSlice("csl.package_roots"),
			RelatedFile:    v.GetString("csl.related_file"),
			Doc8643File:    v.GetString("csl.doc8643_file"),
			DefaultICAO:    v.GetString("csl.default_icao"),
			SimVersion:     v.GetInt("csl.sim_version"),
			SystemPath:     v.GetString("csl.system_path"),
			RescanInterval: v.GetDuration("csl.rescan_interval"),
		},
		Debug: DebugConfig{
			ModelMatching: v.GetBool("debug.model_matching"),
		},
		MatchCacheTTL:  v.GetDuration("match_cache_ttl"),
		HTTPAddr:       v.GetString("http_addr"),
		MatchRateLimit: v.GetFloat64("match_rate_limit"),
		MatchBurst:     v.GetInt("match_burst"),
		BeastAddr:      v.GetString("beast_addr"),
		DBPath:         v.GetString("db_path"),
		RegistryCSV:    v.GetStringSlice("registry_csv"),
		BatchSize:      v.GetInt("batch_size"),
		BatchTimeout:   v.GetInt("batch_timeout"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			File:   v.GetString("log.file"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate validates the configuration values
func validate(cfg *Config) error {
	if len(cfg.CSL.PackageRoots) == 0 {
		return fmt.Errorf("csl.package_roots is required")
	}

	if cfg.CSL.RescanInterval < 0 {
		return fmt.Errorf("csl.rescan_interval must not be negative")
	}

	if cfg.MatchCacheTTL <= 0 {
		return fmt.Errorf("match_cache_ttl must be greater than 0")
	}

	if cfg.MatchRateLimit <= 0 || cfg.MatchBurst <= 0 {
		return fmt.Errorf("match_rate_limit and match_burst must be greater than 0")
	}

	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be greater than 0")
	}

	if cfg.BatchTimeout <= 0 {
		return fmt.Errorf("batch_timeout must be greater than 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
