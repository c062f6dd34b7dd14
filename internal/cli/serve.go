package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lockrisk/internal/config"
	"github.com/matzehuels/lockrisk/internal/server"
	"github.com/matzehuels/lockrisk/pkg/cache"
	"github.com/matzehuels/lockrisk/pkg/observability"
	"github.com/matzehuels/lockrisk/pkg/pipeline"
	"github.com/matzehuels/lockrisk/pkg/session"
)

// redisKeyPrefix namespaces every key lockrisk writes to a shared Redis.
const redisKeyPrefix = appName + ":"

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		redisAddr string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve runs the lockrisk HTTP API. Each uploaded lockfile becomes an
analysis with its own ID that later requests refer to; analyses expire
after the configured session TTL.

Analyses are kept in memory unless a Redis address is configured, in
which case they are stored in Redis and shared by every instance
pointing at it. Rendered SVGs are cached in the same place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config.Server
			cfg.Addr = flagOr(cmd, "addr", addr, cfg.Addr)
			cfg.RedisAddr = flagOr(cmd, "redis", redisAddr, cfg.RedisAddr)
			return c.runServe(cmd.Context(), cfg, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (env: "+config.EnvAddr+")")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address or URL for shared sessions (env: "+config.EnvRedisAddr+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg config.ServerConfig, noCache bool) error {
	hooks := observability.NewLogHooks(c.Logger)
	observability.SetAnalysisHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	renderCache, store, closeFn, err := c.serveBackends(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer closeFn()

	srv := server.New(server.Config{
		Addr:           cfg.Addr,
		MaxUploadBytes: cfg.MaxUploadBytes,
		SessionTTL:     cfg.SessionTTL.Duration,
		TopN:           c.Config.Analysis.TopN,
		DisplayLimit:   c.Config.Analysis.DisplayLimit,
		IncludeDev:     c.Config.Analysis.IncludeDev,
		Detailed:       c.Config.Render.Detailed,
	}, pipeline.NewRunner(renderCache, nil, c.Logger), store, c.Logger)

	return srv.ListenAndServe(ctx)
}

// serveBackends picks the render cache and session store. With Redis both
// live there under one key prefix; otherwise sessions stay in memory and
// renders use the local file cache.
func (c *CLI) serveBackends(ctx context.Context, cfg config.ServerConfig, noCache bool) (cache.Cache, session.Store, func() error, error) {
	if cfg.RedisAddr == "" {
		rc, err := newCache(noCache)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open cache: %w", err)
		}
		c.Logger.Info("session store", "backend", "memory")
		return rc, session.NewMemoryStore(), rc.Close, nil
	}

	redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	shared := cache.Prefixed(redisCache, redisKeyPrefix)
	c.Logger.Info("session store", "backend", "redis")

	var rc cache.Cache = shared
	if noCache {
		rc = cache.NewNullCache()
	}
	return rc, session.NewCacheStore(shared, nil), shared.Close, nil
}
