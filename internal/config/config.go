// ABOUTME: Workwell configuration management with backend selection.
// ABOUTME: JSON file at the XDG config path, WORKWELL_* overrides, and factories.

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harperreed/workwell/internal/aggregate"
	"github.com/harperreed/workwell/internal/cache"
	"github.com/harperreed/workwell/internal/logging"
	"github.com/harperreed/workwell/internal/storage"
)

// DefaultAddr is the HTTP listen address when none is configured.
const DefaultAddr = ":8080"

// Config stores workwell configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default) or "postgres".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for data storage. SQLite puts
	// workwell.db here. Supports ~ expansion. Defaults to
	// ~/.local/share/workwell.
	DataDir string `json:"data_dir,omitempty"`

	// DSN is the PostgreSQL connection string for the postgres backend.
	DSN string `json:"dsn,omitempty"`

	// Addr is the HTTP listen address for serve.
	Addr string `json:"addr,omitempty"`

	LogLevel    string `json:"log_level,omitempty"`
	LogEncoding string `json:"log_encoding,omitempty"`

	Cache CacheConfig `json:"cache,omitempty"`

	// IngestWorkers bounds concurrent file parsing during ingest.
	IngestWorkers int `json:"ingest_workers,omitempty"`
}

// CacheConfig configures the read-through result cache.
type CacheConfig struct {
	// Backend is "none" (default), "badger" or "redis".
	Backend   string `json:"backend,omitempty"`
	TTL       string `json:"ttl,omitempty"`
	RedisAddr string `json:"redis_addr,omitempty"`
	RedisDB   int    `json:"redis_db,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return string(storage.DialectSQLite)
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetAddr returns the listen address, defaulting to DefaultAddr.
func (c *Config) GetAddr() string {
	if c.Addr == "" {
		return DefaultAddr
	}
	return c.Addr
}

// GetCacheTTL parses the cache TTL, defaulting to aggregate.DefaultCacheTTL.
func (c *Config) GetCacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return aggregate.DefaultCacheTTL, nil
	}
	ttl, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("parse cache ttl %q: %w", c.Cache.TTL, err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL)
	}
	return ttl, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// ApplyEnv overlays WORKWELL_* environment variables onto the config.
func (c *Config) ApplyEnv() {
	c.Backend = env("WORKWELL_BACKEND", c.Backend)
	c.DataDir = env("WORKWELL_DATA_DIR", c.DataDir)
	c.DSN = env("WORKWELL_DSN", c.DSN)
	c.Addr = env("WORKWELL_ADDR", c.Addr)
	c.LogLevel = env("WORKWELL_LOG_LEVEL", c.LogLevel)
	c.LogEncoding = env("WORKWELL_LOG_ENCODING", c.LogEncoding)
	c.Cache.Backend = env("WORKWELL_CACHE", c.Cache.Backend)
	c.Cache.TTL = env("WORKWELL_CACHE_TTL", c.Cache.TTL)
	c.Cache.RedisAddr = env("WORKWELL_REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisDB = envInt("WORKWELL_REDIS_DB", c.Cache.RedisDB)
	c.IngestWorkers = envInt("WORKWELL_INGEST_WORKERS", c.IngestWorkers)
}

func env(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

// OpenStorage opens the configured backend and applies pending migrations.
func (c *Config) OpenStorage(ctx context.Context) (*storage.DB, error) {
	switch storage.Dialect(c.GetBackend()) {
	case storage.DialectSQLite:
		return storage.Open(filepath.Join(c.GetDataDir(), "workwell.db"))
	case storage.DialectPostgres:
		if c.DSN == "" {
			return nil, fmt.Errorf("postgres backend requires dsn")
		}
		return storage.OpenPostgres(ctx, c.DSN)
	default:
		return nil, fmt.Errorf("unknown backend: %q", c.Backend)
	}
}

// NewLogger builds the zap logger for the configured level and encoding.
func (c *Config) NewLogger(outputs ...string) (*zap.Logger, error) {
	return logging.New(c.LogLevel, c.LogEncoding, outputs...)
}

// NewEngine wires an aggregation engine over src with the configured cache.
// The returned cache must be closed by the caller.
func (c *Config) NewEngine(ctx context.Context, src aggregate.Source, logger *zap.Logger) (*aggregate.Engine, cache.Cache, error) {
	ttl, err := c.GetCacheTTL()
	if err != nil {
		return nil, nil, err
	}
	cc, err := cache.New(ctx, cache.Options{
		Backend:   c.Cache.Backend,
		RedisAddr: c.Cache.RedisAddr,
		RedisDB:   c.Cache.RedisDB,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	engine := aggregate.NewEngine(src, aggregate.WithCache(cc, ttl), aggregate.WithLogger(logger))
	return engine, cc, nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "workwell", "config.json")
}

// Load reads config from disk and applies environment overrides.
func Load() (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(GetConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
