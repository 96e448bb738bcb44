package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aklos/scryer-sub000/internal/server"
	"github.com/aklos/scryer-sub000/pkg/cache"
	"github.com/aklos/scryer-sub000/pkg/layout/solver/fdp"
	"github.com/aklos/scryer-sub000/pkg/pipeline"
)

// defaultKeyPrefix namespaces shared cache keys in Redis.
const defaultKeyPrefix = "scryer:layout:"

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		redisURL   string
		keyPrefix  string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP layout service",
		Long: `Run the HTTP layout service.

Endpoints:
  POST /v1/layout   diagram JSON in, layout result out (?mode=tidy)
  POST /v1/route    diagram JSON in, handle assignments out
  GET  /healthz     liveness and build information

With --redis-url, results are shared between instances through Redis.
Without it, nothing is cached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, redisURL, keyPrefix, configPath)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "Redis URL for the shared result cache (e.g. redis://localhost:6379/0)")
	cmd.Flags().StringVar(&keyPrefix, "key-prefix", defaultKeyPrefix, "prefix for Redis cache keys")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "tuning file (TOML)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, redisURL, keyPrefix, configPath string) error {
	tuning, err := loadTuning(configPath)
	if err != nil {
		return err
	}

	var (
		store cache.Cache = cache.NewNullCache()
		keyer             = cache.NewDefaultKeyer()
	)
	if redisURL != "" {
		rc, err := cache.NewRedisCache(ctx, redisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		store = rc
		keyer = cache.NewScopedKeyer(keyer, keyPrefix)
		c.Logger.Info("using redis cache", "prefix", keyPrefix)
	}

	runner := pipeline.NewRunner(fdp.New(), store, keyer, c.Logger)
	defer runner.Close()

	return server.New(runner, tuning, c.Logger).ListenAndServe(ctx, addr)
}
