// Package config loads diagramkit settings for the CLI and the API server.
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults ([Default])
//  2. An optional file, TOML (.toml) or YAML (.yaml, .yml)
//  3. Environment variables prefixed with DIAGRAMKIT_
//
// A minimal TOML file:
//
//	[log]
//	level = "debug"
//
//	[render.packet]
//	bit_width = 24
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
// The same cache settings from the environment:
//
//	DIAGRAMKIT_CACHE_BACKEND=redis
//	DIAGRAMKIT_CACHE_REDIS_URL=redis://localhost:6379/0
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/render/packetsvg"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DIAGRAMKIT_"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreMongo  = "mongo"
)

// Config holds all diagramkit configuration.
type Config struct {
	Log    LogConfig    `toml:"log" yaml:"log" envPrefix:"LOG_"`
	Render RenderConfig `toml:"render" yaml:"render" envPrefix:"RENDER_"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache" envPrefix:"CACHE_"`
	Server ServerConfig `toml:"server" yaml:"server" envPrefix:"SERVER_"`
	Store  StoreConfig  `toml:"store" yaml:"store" envPrefix:"STORE_"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level" env:"LEVEL"`    // debug, info, warn, error
	Format string `toml:"format" yaml:"format" env:"FORMAT"` // text, json, logfmt
}

// RenderConfig holds rendering defaults.
type RenderConfig struct {
	BitsPerRow int              `toml:"bits_per_row" yaml:"bits_per_row" env:"BITS_PER_ROW"`
	Look       string           `toml:"look" yaml:"look" env:"LOOK"`
	BatchLimit int              `toml:"batch_limit" yaml:"batch_limit" env:"BATCH_LIMIT"`
	Packet     packetsvg.Config `toml:"packet" yaml:"packet" envPrefix:"PACKET_"`
}

// CacheConfig selects and configures the render cache.
type CacheConfig struct {
	Backend  string `toml:"backend" yaml:"backend" env:"BACKEND"`
	Dir      string `toml:"dir" yaml:"dir" env:"DIR"` // Empty uses the XDG cache dir
	RedisURL string `toml:"redis_url" yaml:"redis_url" env:"REDIS_URL"`
	Prefix   string `toml:"prefix" yaml:"prefix" env:"PREFIX"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `toml:"addr" yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `toml:"read_timeout" yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `toml:"write_timeout" yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	MaxBodyBytes    int64         `toml:"max_body_bytes" yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
}

// StoreConfig selects and configures diagram storage.
type StoreConfig struct {
	Backend    string `toml:"backend" yaml:"backend" env:"BACKEND"`
	Dir        string `toml:"dir" yaml:"dir" env:"DIR"` // File backend, empty uses ~/.config/diagramkit/diagrams
	MongoURI   string `toml:"mongo_uri" yaml:"mongo_uri" env:"MONGO_URI"`
	Database   string `toml:"database" yaml:"database" env:"DATABASE"`
	Collection string `toml:"collection" yaml:"collection" env:"COLLECTION"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Render: RenderConfig{
			BitsPerRow: 32,
			Look:       "classic",
			BatchLimit: 4,
			Packet:     packetsvg.DefaultConfig(),
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			Prefix:  "diagramkit:",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    2 << 20,
		},
		Store: StoreConfig{
			Backend:    StoreMemory,
			Database:   "diagramkit",
			Collection: "diagrams",
		},
	}
}

// Load builds the configuration from defaults, the file at path and the
// environment. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}
	return nil
}

// Validate checks that every setting has a usable value.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "log.level")
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "log.format must be text, json or logfmt, got %q", c.Log.Format)
	}

	if c.Render.BitsPerRow <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "render.bits_per_row must be positive")
	}
	if c.Render.Packet.RowHeight <= 0 || c.Render.Packet.BitWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "render.packet row_height and bit_width must be positive")
	}
	if c.Render.Look != "classic" && c.Render.Look != "handDrawn" {
		return errors.New(errors.ErrCodeInvalidInput, "render.look must be classic or handDrawn, got %q", c.Render.Look)
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis_url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}

	switch c.Store.Backend {
	case StoreMemory, StoreFile:
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.mongo_uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// NewLogger creates a logger writing to w with the configured level and
// format. Timestamps are formatted as "HH:MM:SS.ms".
func (c LogConfig) NewLogger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	formatter := log.TextFormatter
	switch c.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Formatter:       formatter,
	}), nil
}

// DefaultPath returns the per-user config file location,
// $XDG_CONFIG_HOME/diagramkit/config.toml or its platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "diagramkit", "config.toml"), nil
}
