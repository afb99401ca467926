package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/bunchhieng/coursetree/internal/logger"
)

const appName = "coursetree"

// Store backend types.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreHTTP   = "http"
)

// Config is the coursetree configuration file.
type Config struct {
	DataDir      string       `toml:"data_dir"`
	LogLevel     string       `toml:"log_level"`
	PrettyLog    bool         `toml:"pretty_log"`
	Debounce     Duration     `toml:"debounce"`
	ShareBaseURL string       `toml:"share_base_url"`
	Store        StoreConfig  `toml:"store"`
	Server       ServerConfig `toml:"server"`
}

// StoreConfig selects the document store. Type decides which other fields
// are relevant.
type StoreConfig struct {
	Type          string `toml:"type"` // "sqlite", "redis" or "http"
	SQLitePath    string `toml:"sqlite_path,omitempty"`
	RedisAddr     string `toml:"redis_addr,omitempty"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db,omitempty"`
	ServerURL     string `toml:"server_url,omitempty"`
}

// ServerConfig configures `coursetree serve`.
type ServerConfig struct {
	Listen string `toml:"listen"`
	// AllowedOrigins lists CORS origins. Empty allows any.
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
}

// Duration is a time.Duration written as a string such as "500ms".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// DefaultDir returns <UserConfigDir>/coursetree.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns the configuration used when no file exists, rooted at
// dataDir.
func Default(dataDir string) *Config {
	return &Config{
		DataDir:      dataDir,
		LogLevel:     "warn",
		Debounce:     Duration{500 * time.Millisecond},
		ShareBaseURL: "http://localhost:5173",
		Store: StoreConfig{
			Type:       StoreSQLite,
			SQLitePath: filepath.Join(dataDir, "trees.db"),
			RedisAddr:  "localhost:6379",
			ServerURL:  "http://localhost:8080",
		},
		Server: ServerConfig{Listen: ":8080"},
	}
}

// RegistryDir is where the local registry database lives.
func (c *Config) RegistryDir() string {
	return filepath.Join(c.DataDir, "registry")
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.Debounce.Duration <= 0 {
		return fmt.Errorf("debounce must be positive, got %s", c.Debounce)
	}
	switch c.Store.Type {
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite store")
		}
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr is required for the redis store")
		}
	case StoreHTTP:
		if c.Store.ServerURL == "" {
			return errors.New("store.server_url is required for the http store")
		}
	default:
		return fmt.Errorf("unknown store.type %q", c.Store.Type)
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from r on top of base, so absent keys keep their
// base values.
func (m *Manager) Read(r io.Reader, base *Config) (*Config, error) {
	cfg := *base
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to w.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Load reads the config at path over the defaults for dataDir. A missing
// file is not an error.
func Load(path, dataDir string) (*Config, error) {
	base := Default(dataDir)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return base, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f, base)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
