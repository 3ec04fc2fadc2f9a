package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"project-tracker/internal/cache"
	"project-tracker/internal/config"
	"project-tracker/internal/database"
	"project-tracker/internal/monitoring"
	"project-tracker/internal/router"
	"project-tracker/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 10 * time.Second

type options struct {
	envFile     string
	migrate     bool
	migrateOnly bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("project-tracker: %v", err)
	}
}

func parseFlags(args []string) (*options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("project-tracker", pflag.ContinueOnError)
	flagSet.StringVar(&opts.envFile, "env-file", "", "load environment variables from this .env file")
	flagSet.BoolVar(&opts.migrate, "migrate", true, "migrate the database schema on startup")
	flagSet.BoolVar(&opts.migrateOnly, "migrate-only", false, "migrate the database schema and exit")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return &opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if opts.envFile != "" {
		if err := config.LoadEnvFile(opts.envFile); err != nil {
			return err
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := database.NewDatabasePool(poolConfig(cfg))
	if err != nil {
		return err
	}
	defer pool.Close()

	if opts.migrate || opts.migrateOnly {
		log.Println("Running database migrations...")
		if err := pool.Migrate(); err != nil {
			return err
		}
		log.Println("Database migrations completed")
	}
	if opts.migrateOnly {
		return nil
	}

	feedCache := buildCache(cfg)
	if feedCache != nil {
		defer feedCache.Close()
	}

	engine := router.Setup(router.Dependencies{
		Config:  cfg,
		Pool:    pool,
		Cache:   feedCache,
		Monitor: monitoring.NewMonitor(),
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, srv)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Println("Server exited")
	return nil
}

func poolConfig(cfg *config.Config) *database.PoolConfig {
	level := logger.Warn
	switch {
	case cfg.IsProduction():
		level = logger.Error
	case cfg.Server.Environment == "development":
		level = logger.Info
	case cfg.IsTest():
		level = logger.Silent
	}

	return &database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        level,
	}
}

// buildCache returns nil when caching is disabled. Redis backs the cache only
// when it is enabled and answers a ping; otherwise the in-process level runs
// alone. With Redis, personal feeds skip the in-process level so every
// instance sees the same invalidations.
func buildCache(cfg *config.Config) *cache.MultiLevelCache {
	if !cfg.Cache.Enabled {
		log.Println("Project feed cache disabled")
		return nil
	}
	if !cfg.Cache.RedisEnabled {
		log.Println("Project feed cache running in-process only")
		return cache.NewMultiLevelCache(nil, nil)
	}

	redisCache := cache.NewRedisCache(&cache.CacheConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		KeyPrefix:    cfg.Cache.KeyPrefix,
	})
	if err := redisCache.Health(); err != nil {
		log.Printf("Redis unavailable at %s: %v (continuing with in-process cache)", cfg.GetRedisAddr(), err)
		redisCache.Close()
		return cache.NewMultiLevelCache(nil, nil)
	}

	log.Printf("Redis cache enabled at %s", cfg.GetRedisAddr())
	breaker := cache.NewCircuitBreaker(cache.DefaultCircuitBreakerConfig())
	return cache.NewMultiLevelCache(redisCache, breaker).BypassLocal(services.MyProjectsKeyPattern)
}
