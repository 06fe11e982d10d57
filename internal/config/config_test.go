// ABOUTME: Tests for workwell configuration management.
// ABOUTME: Covers load, save, defaults, env overrides, and storage/engine factories.
package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/harperreed/workwell/internal/aggregate"
)

// isolate points the config path at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	for _, k := range []string{
		"WORKWELL_BACKEND", "WORKWELL_DATA_DIR", "WORKWELL_DSN", "WORKWELL_ADDR",
		"WORKWELL_LOG_LEVEL", "WORKWELL_LOG_ENCODING", "WORKWELL_CACHE", "WORKWELL_CACHE_TTL",
		"WORKWELL_REDIS_ADDR", "WORKWELL_REDIS_DB", "WORKWELL_INGEST_WORKERS",
	} {
		t.Setenv(k, "")
	}
	return tmpDir
}

func TestGetBackendDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetBackend(); got != "sqlite" {
		t.Errorf("GetBackend() = %q, want %q", got, "sqlite")
	}
}

func TestGetBackendExplicit(t *testing.T) {
	cfg := &Config{Backend: "postgres"}
	if got := cfg.GetBackend(); got != "postgres" {
		t.Errorf("GetBackend() = %q, want %q", got, "postgres")
	}
}

func TestGetDataDirDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetDataDir(); got == "" {
		t.Error("GetDataDir() returned empty string")
	}
}

func TestGetDataDirExpandsTilde(t *testing.T) {
	home, _ := os.UserHomeDir()

	cfg := &Config{DataDir: "~/workwell-data"}
	want := filepath.Join(home, "workwell-data")
	if got := cfg.GetDataDir(); got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
}

func TestGetAddrDefault(t *testing.T) {
	if got := (&Config{}).GetAddr(); got != DefaultAddr {
		t.Errorf("GetAddr() = %q, want %q", got, DefaultAddr)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/tmp/foo", "/tmp/foo"},
		{"~", home},
		{"~/data/workwell", filepath.Join(home, "data/workwell")},
		{"data/workwell", "data/workwell"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetCacheTTL(t *testing.T) {
	tests := []struct {
		ttl     string
		want    time.Duration
		wantErr bool
	}{
		{"", aggregate.DefaultCacheTTL, false},
		{"30s", 30 * time.Second, false},
		{"soon", 0, true},
		{"-1m", 0, true},
	}
	for _, tt := range tests {
		cfg := &Config{Cache: CacheConfig{TTL: tt.ttl}}
		got, err := cfg.GetCacheTTL()
		if (err != nil) != tt.wantErr {
			t.Errorf("GetCacheTTL(%q) err = %v, wantErr %v", tt.ttl, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("GetCacheTTL(%q) = %v, want %v", tt.ttl, got, tt.want)
		}
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg.Backend != "" || cfg.DataDir != "" {
		t.Errorf("Expected empty defaults, got %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	isolate(t)

	cfg := &Config{
		Backend: "postgres",
		DSN:     "postgres://localhost/workwell?sslmode=disable",
		Cache:   CacheConfig{Backend: "badger", TTL: "1m"},
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Backend != "postgres" || loaded.DSN != cfg.DSN {
		t.Errorf("storage settings mismatch: %+v", loaded)
	}
	if loaded.Cache.Backend != "badger" || loaded.Cache.TTL != "1m" {
		t.Errorf("cache settings mismatch: %+v", loaded.Cache)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	isolate(t)
	if err := (&Config{Backend: "sqlite", Addr: ":9000"}).Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	t.Setenv("WORKWELL_ADDR", ":9999")
	t.Setenv("WORKWELL_CACHE", "redis")
	t.Setenv("WORKWELL_REDIS_DB", "3")
	t.Setenv("WORKWELL_INGEST_WORKERS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q, want env override", cfg.Addr)
	}
	if cfg.Backend != "sqlite" {
		t.Errorf("Backend = %q, want file value", cfg.Backend)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisDB != 3 {
		t.Errorf("cache overrides not applied: %+v", cfg.Cache)
	}
	if cfg.IngestWorkers != 0 {
		t.Errorf("invalid int override should be ignored, got %d", cfg.IngestWorkers)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tmpDir := isolate(t)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "nonexistent"))

	if err := (&Config{Backend: "sqlite"}).Save(); err != nil {
		t.Fatalf("Save() should create directory: %v", err)
	}
	configDir := filepath.Join(tmpDir, "nonexistent", "workwell")
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		t.Error("Expected config directory to be created")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := isolate(t)

	configDir := filepath.Join(tmpDir, "workwell")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte("invalid json"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid JSON config")
	}
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := isolate(t)

	want := filepath.Join(tmpDir, "workwell", "config.json")
	if got := GetConfigPath(); got != want {
		t.Errorf("GetConfigPath() = %q, want %q", got, want)
	}
}

func TestOpenStorageSQLite(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{Backend: "sqlite", DataDir: tmpDir}

	repo, err := cfg.OpenStorage(context.Background())
	if err != nil {
		t.Fatalf("OpenStorage() for sqlite failed: %v", err)
	}
	defer repo.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, "workwell.db")); os.IsNotExist(err) {
		t.Error("Expected workwell.db to be created")
	}
}

func TestOpenStoragePostgresRequiresDSN(t *testing.T) {
	cfg := &Config{Backend: "postgres"}
	if _, err := cfg.OpenStorage(context.Background()); err == nil {
		t.Error("Expected error for postgres without dsn")
	}
}

func TestOpenStorageInvalidBackend(t *testing.T) {
	cfg := &Config{Backend: "invalid", DataDir: t.TempDir()}
	if _, err := cfg.OpenStorage(context.Background()); err == nil {
		t.Error("Expected error for invalid backend")
	}
}

func TestNewEngineWithBadgerCache(t *testing.T) {
	cfg := &Config{DataDir: t.TempDir(), Cache: CacheConfig{Backend: "badger", TTL: "1m"}}
	ctx := context.Background()

	repo, err := cfg.OpenStorage(ctx)
	if err != nil {
		t.Fatalf("OpenStorage() failed: %v", err)
	}
	defer repo.Close()

	engine, cc, err := cfg.NewEngine(ctx, repo, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	defer cc.Close()

	pids, err := engine.Participants(ctx)
	if err != nil {
		t.Fatalf("Participants() failed: %v", err)
	}
	if len(pids) != 0 {
		t.Errorf("expected empty store, got %v", pids)
	}
}

func TestNewEngineUnknownCache(t *testing.T) {
	cfg := &Config{Cache: CacheConfig{Backend: "memcached"}}
	if _, _, err := cfg.NewEngine(context.Background(), nil, zap.NewNop()); err == nil {
		t.Error("Expected error for unknown cache backend")
	}
}

func TestConfigJSONSerialization(t *testing.T) {
	cfg := &Config{
		Backend:       "sqlite",
		DataDir:       "~/workwell-data",
		IngestWorkers: 8,
		Cache:         CacheConfig{Backend: "redis", RedisAddr: "localhost:6379", RedisDB: 2},
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if loaded != *cfg {
		t.Errorf("round trip mismatch: got %+v, want %+v", loaded, *cfg)
	}
}
