package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsparse/tsparse/internal/compiler/cache"
	"github.com/tsparse/tsparse/internal/watch"
	"github.com/tsparse/tsparse/internal/web/api"
	webcache "github.com/tsparse/tsparse/internal/web/cache"
	"github.com/tsparse/tsparse/internal/web/metrics"
	"github.com/tsparse/tsparse/internal/web/server"
)

// cacheSweep is how often the in-memory response cache drops expired entries
const cacheSweep = time.Minute

func newServeCommand(e *env) *cobra.Command {
	var (
		grammarPath string
		addr        string
		redisAddr   string
		sqlitePath  string
		noMetrics   bool
		watchPaths  []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the parser over HTTP",
		Long: `Start an HTTP service that parses expressions on request.

Endpoints:
  POST   /v1/parse          parse a JSON {"source": "..."} or text/plain body
  GET    /v1/grammar        the grammar text
  GET    /v1/grammar/rules  the categories the grammar produces
  DELETE /v1/cache          drop cached parses
  GET    /v1/events         websocket stream of watch results
  GET    /metrics           Prometheus metrics (unless serve.metrics is false)
  GET    /healthz           liveness

Successful parses are cached in memory, in Redis when serve.redis.addr is
set, or in a SQLite file when serve.sqlite.path is set. Expired SQLite rows
are pruned on the serve.sqlite.prune_schedule cron schedule. With --watch the given paths are re-parsed on change and the
results are pushed to /v1/events subscribers.`,
		Example: `  tsparse serve --addr :8080
  tsparse serve --redis localhost:6379 --watch src/
  tsparse serve --sqlite parses.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cmd.Flags().Changed("addr") {
				e.cfg.Serve.Addr = addr
			}
			if cmd.Flags().Changed("redis") {
				e.cfg.Serve.Redis.Addr = redisAddr
			}
			if cmd.Flags().Changed("sqlite") {
				e.cfg.Serve.SQLite.Path = sqlitePath
			}
			if noMetrics {
				e.cfg.Serve.Metrics = false
			}
			if err := e.cfg.Validate(); err != nil {
				return err
			}
			sc := e.cfg.Serve

			p, err := e.newParser(grammarPath)
			if err != nil {
				return err
			}

			responses, err := e.openCache(ctx)
			if err != nil {
				return err
			}
			defer responses.Close()

			var collector *metrics.Collector
			if sc.Metrics {
				collector = metrics.NewCollector(nil)
			}

			hub := watch.NewHub(e.logger)
			defer hub.Close()

			if len(watchPaths) > 0 {
				opts, initial, err := e.watchOptions(watchPaths)
				if err != nil {
					return err
				}
				session, err := watch.NewSession(cache.NewCoordinator(p), opts, hub, nil)
				if err != nil {
					return err
				}
				if err := session.Start(initial); err != nil {
					return err
				}
				defer session.Stop()
			}

			svc := api.New(api.Config{
				Parser:         p,
				Cache:          responses,
				CacheTTL:       sc.CacheTTL,
				Hub:            hub,
				Metrics:        collector,
				MaxSourceBytes: sc.MaxSourceBytes,
				Logger:         e.logger,
			})

			srvConfig := server.DefaultConfig(svc.Router())
			srvConfig.Address = sc.Addr
			srv, err := server.New(srvConfig, e.logger)
			if err != nil {
				return err
			}
			if err := srv.Listen(); err != nil {
				return err
			}

			color.New(color.FgCyan, color.Bold).Fprintf(cmd.ErrOrStderr(),
				"Listening on http://%s, press Ctrl+C to stop\n", srv.Addr())

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&grammarPath, "grammar", "", "grammar file to parse with instead of the configured one")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from serve.addr)")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for the response cache (default from serve.redis.addr)")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite file for the response cache (default from serve.sqlite.path)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not serve /metrics")
	cmd.Flags().StringSliceVar(&watchPaths, "watch", nil, "files or directories to watch and stream to /v1/events")

	return cmd
}

// openCache opens the configured response cache. A SQLite cache gets a
// prune scheduler that stops with ctx.
func (e *env) openCache(ctx context.Context) (webcache.Cache, error) {
	sc := e.cfg.Serve
	cacheConfig := webcache.Config{DefaultTTL: sc.CacheTTL, Prefix: webcache.DefaultConfig().Prefix}

	switch {
	case sc.Redis.Addr != "":
		c, err := webcache.NewRedisCache(ctx, webcache.RedisConfig{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
			Config:   cacheConfig,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", sc.Redis.Addr, err)
		}
		e.logger.Info("using redis cache", zap.String("addr", sc.Redis.Addr))
		return c, nil

	case sc.SQLite.Path != "":
		c, err := webcache.NewSQLiteCache(ctx, webcache.SQLiteConfig{Path: sc.SQLite.Path, Config: cacheConfig})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
		}
		if err := webcache.NewPruneScheduler(c, e.logger).Start(ctx, sc.SQLite.PruneSchedule); err != nil {
			c.Close()
			return nil, err
		}
		e.logger.Info("using sqlite cache", zap.String("path", sc.SQLite.Path))
		return c, nil

	default:
		return webcache.NewMemoryCache(cacheConfig, cacheSweep), nil
	}
}
