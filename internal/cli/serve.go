package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/plotdeck/plotdeck/internal/api"
	"github.com/plotdeck/plotdeck/pkg/cache"
	"github.com/plotdeck/plotdeck/pkg/pipeline"
)

// =============================================================================
// Configuration
// =============================================================================

// duration wraps time.Duration so TOML config files can write "30m".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// serveConfig is the TOML configuration of the document service.
type serveConfig struct {
	Addr      string          `toml:"addr"`
	Documents documentsConfig `toml:"documents"`
	Store     storeConfig     `toml:"store"`
	Cache     cacheConfig     `toml:"cache"`
}

type documentsConfig struct {
	TTL     duration `toml:"ttl"`     // idle time before a working copy is evicted
	Cleanup duration `toml:"cleanup"` // eviction sweep interval
}

type storeConfig struct {
	Backend  string `toml:"backend"` // "memory" or "mongo"
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

type cacheConfig struct {
	Backend  string `toml:"backend"` // "memory", "file", "redis", or "none"
	Dir      string `toml:"dir"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// defaultServeConfig returns the configuration used when no file is
// given: in-memory documents and render cache on :8080.
func defaultServeConfig() serveConfig {
	return serveConfig{
		Addr: ":8080",
		Documents: documentsConfig{
			TTL:     duration(api.DefaultDocTTL),
			Cleanup: duration(api.DefaultCleanupEvery),
		},
		Store: storeConfig{Backend: "memory"},
		Cache: cacheConfig{Backend: "memory"},
	}
}

// loadServeConfig reads the TOML config file over the defaults.
func loadServeConfig(path string) (serveConfig, error) {
	cfg := defaultServeConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// =============================================================================
// Command
// =============================================================================

// serveCommand creates the serve command for the HTTP document service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP document service",
		Long: `Run the HTTP document service.

The service exposes documents as resources under /v1/documents:
commands apply over POST, undo and redo step the history, and exports
render pages on demand. Working copies are held in memory and evicted
after an idle period; with a mongo store backend, documents survive
restarts as replayable scripts.

Configuration is read from a TOML file (--config); flags override it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

// runServe assembles the service from the config and runs it until
// the context is cancelled.
func (c *CLI) runServe(ctx context.Context, cfg serveConfig) error {
	renderCache, err := buildServeCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}

	persist, err := buildPersister(ctx, cfg.Store)
	if err != nil {
		return err
	}

	store := api.NewDocStore(time.Duration(cfg.Documents.TTL), persist, c.Logger)
	runner := pipeline.NewRunner(renderCache, nil, nil, c.Logger)
	server := api.NewServer(store, runner, c.Logger)

	go store.CleanupEvery(ctx, time.Duration(cfg.Documents.Cleanup))

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	c.Logger.Info("serving documents",
		"addr", cfg.Addr,
		"store", cfg.Store.Backend,
		"cache", cfg.Cache.Backend)

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutCtx); err != nil {
			c.Logger.Error("shutdown failed", "error", err)
		}
		<-errCh
		if err := store.Close(shutCtx); err != nil {
			c.Logger.Error("closing document store", "error", err)
		}
		_ = runner.Close()
		return nil
	case err := <-errCh:
		_ = store.Close(context.Background())
		_ = runner.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildServeCache constructs the render cache backend from config.
func buildServeCache(cfg cacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "", "memory":
		return cache.NewMemoryCache(), nil
	case "file":
		dir := cfg.Dir
		if dir == "" {
			var err error
			if dir, err = cacheDir(); err != nil {
				return nil, err
			}
		}
		return cache.NewFileCache(dir)
	case "redis":
		return cache.NewRedisCache(cfg.Addr, cfg.Password, cfg.DB)
	case "none":
		return cache.NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (must be memory, file, redis, or none)", cfg.Backend)
	}
}

// buildPersister constructs the document store backend from config.
// A nil persister means documents live in memory only.
func buildPersister(ctx context.Context, cfg storeConfig) (api.Persister, error) {
	switch cfg.Backend {
	case "", "memory":
		return nil, nil
	case "mongo":
		if cfg.URI == "" {
			return nil, fmt.Errorf("store backend mongo requires a uri")
		}
		return api.NewMongoPersister(ctx, cfg.URI, cfg.Database)
	default:
		return nil, fmt.Errorf("unknown store backend %q (must be memory or mongo)", cfg.Backend)
	}
}
