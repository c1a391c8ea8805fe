package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Environment variables overriding the configuration file.
const (
	EnvAPIURL   = "ARCHVIZ_API_URL"
	EnvStorage  = "ARCHVIZ_STORAGE"
	EnvLogLevel = "ARCHVIZ_LOG_LEVEL"
	EnvConfig   = "ARCHVIZ_CONFIG"
)

// Config holds archviz configuration.
type Config struct {
	API     APIConfig    `toml:"api"`
	Storage Storage      `toml:"storage"`
	Layout  LayoutConfig `toml:"layout"`
	Log     LogConfig    `toml:"log"`
}

// APIConfig locates the inference service.
type APIConfig struct {
	BaseURL    string   `toml:"base_url" validate:"required,url"`
	Timeout    Duration `toml:"timeout"`
	MaxRetries int      `toml:"max_retries" validate:"min=0,max=10"`
}

// Storage selects and configures the persisted-state backend.
type Storage struct {
	Backend  string   `toml:"backend" validate:"oneof=memory file redis sqlite postgres"`
	Key      string   `toml:"key" validate:"required"`
	Path     string   `toml:"path"`     // file directory or sqlite database
	Compress bool     `toml:"compress"` // zstd-compress file documents
	Addr     string   `toml:"addr"`     // redis
	Password string   `toml:"password"` // redis
	DB       int      `toml:"db"`       // redis
	DSN      string   `toml:"dsn"`      // postgres
	Table    string   `toml:"table"`    // sqlite and postgres
	TTL      Duration `toml:"ttl"`      // redis, 0 keeps forever
}

// LayoutConfig tunes the force layout.
type LayoutConfig struct {
	Width          float64  `toml:"width" validate:"gt=0"`
	Height         float64  `toml:"height" validate:"gt=0"`
	LinkDistance   float64  `toml:"link_distance" validate:"gt=0"`
	Charge         float64  `toml:"charge"`
	CenterStrength float64  `toml:"center_strength" validate:"gte=0,lte=1"`
	CollideRadius  float64  `toml:"collide_radius" validate:"gte=0"`
	MinZoom        float64  `toml:"min_zoom" validate:"gt=0"`
	MaxZoom        float64  `toml:"max_zoom" validate:"gtefield=MinZoom"`
	FrameInterval  Duration `toml:"frame_interval"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level   string `toml:"level" validate:"oneof=debug info warn warning error none off"`
	Backend string `toml:"backend" validate:"oneof=std golog zap"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8000",
			Timeout:    Duration(2 * time.Minute),
			MaxRetries: 3,
		},
		Storage: Storage{
			Backend: "file",
			Key:     "archviz-storage",
			Path:    filepath.Join(DataDir(), "state"),
			Addr:    "localhost:6379",
			Table:   "archviz_state",
		},
		Layout: LayoutConfig{
			Width:          1200,
			Height:         800,
			LinkDistance:   200,
			Charge:         -1500,
			CenterStrength: 0.05,
			CollideRadius:  40,
			MinZoom:        0.1,
			MaxZoom:        4,
			FrameInterval:  Duration(16 * time.Millisecond),
		},
		Log: LogConfig{
			Level:   "info",
			Backend: "golog",
		},
	}
}

// ConfigDir returns the archviz config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "archviz")
}

// DataDir returns the directory for persisted state.
func DataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "archviz")
}

// DefaultPath returns the config file path, honoring ARCHVIZ_CONFIG.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file at path over the defaults and applies the
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvStorage); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Save(path, Default())
}
