package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/plotdeck/plotdeck/internal/api"
)

func TestDefaultServeConfig(t *testing.T) {
	cfg := defaultServeConfig()

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if time.Duration(cfg.Documents.TTL) != api.DefaultDocTTL {
		t.Errorf("TTL = %v", time.Duration(cfg.Documents.TTL))
	}
	if cfg.Store.Backend != "memory" || cfg.Cache.Backend != "memory" {
		t.Errorf("backends = %q/%q", cfg.Store.Backend, cfg.Cache.Backend)
	}
}

func TestLoadServeConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plotdeck.toml")
	content := `
addr = ":9090"

[documents]
ttl = "1h"
cleanup = "10m"

[store]
backend = "mongo"
uri = "mongodb://localhost:27017"
database = "plots"

[cache]
backend = "redis"
addr = "localhost:6379"
db = 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadServeConfig(path)
	if err != nil {
		t.Fatalf("loadServeConfig() error: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if time.Duration(cfg.Documents.TTL) != time.Hour {
		t.Errorf("TTL = %v, want 1h", time.Duration(cfg.Documents.TTL))
	}
	if time.Duration(cfg.Documents.Cleanup) != 10*time.Minute {
		t.Errorf("Cleanup = %v, want 10m", time.Duration(cfg.Documents.Cleanup))
	}
	if cfg.Store.Backend != "mongo" || cfg.Store.Database != "plots" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.DB != 2 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestLoadServeConfigPartial(t *testing.T) {
	// Values absent from the file keep their defaults.
	path := filepath.Join(t.TempDir(), "plotdeck.toml")
	if err := os.WriteFile(path, []byte(`addr = ":3000"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadServeConfig(path)
	if err != nil {
		t.Fatalf("loadServeConfig() error: %v", err)
	}
	if cfg.Addr != ":3000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want default memory", cfg.Store.Backend)
	}
	if time.Duration(cfg.Documents.TTL) != api.DefaultDocTTL {
		t.Errorf("TTL = %v, want default", time.Duration(cfg.Documents.TTL))
	}
}

func TestLoadServeConfigMissingFile(t *testing.T) {
	if _, err := loadServeConfig("/nonexistent/plotdeck.toml"); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestBuildServeCache(t *testing.T) {
	tests := []struct {
		name    string
		cfg     cacheConfig
		wantErr bool
	}{
		{"default", cacheConfig{}, false},
		{"memory", cacheConfig{Backend: "memory"}, false},
		{"none", cacheConfig{Backend: "none"}, false},
		{"file", cacheConfig{Backend: "file", Dir: t.TempDir()}, false},
		{"unknown", cacheConfig{Backend: "sqlite"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := buildServeCache(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildServeCache() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				_ = c.Close()
			}
		})
	}
}

func TestBuildPersister(t *testing.T) {
	ctx := context.Background()

	p, err := buildPersister(ctx, storeConfig{Backend: "memory"})
	if err != nil || p != nil {
		t.Errorf("memory backend = %v, %v; want nil persister", p, err)
	}

	if _, err := buildPersister(ctx, storeConfig{Backend: "mongo"}); err == nil {
		t.Error("mongo without a uri should fail")
	}

	if _, err := buildPersister(ctx, storeConfig{Backend: "postgres"}); err == nil {
		t.Error("unknown backend should fail")
	}
}
