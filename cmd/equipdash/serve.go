package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/spektr-org/equipdash/archive"
	"github.com/spektr-org/equipdash/config"
	"github.com/spektr-org/equipdash/server"
	"github.com/spektr-org/equipdash/service"
	"github.com/spektr-org/equipdash/store"
)

// ============================================================================
// SERVE — Wires config → store → archive → service → gin router
// ============================================================================

func runServe(args []string) error {
	var (
		common  commonFlags
		addr    string
		release bool
	)
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.StringVar(&common.configPath, "config", "", "Path to YAML config file")
	fs.StringVar(&common.envFile, "env-file", "", "Path to .env file (default: .env)")
	fs.StringVar(&addr, "addr", "", "Listen address (overrides config)")
	fs.BoolVar(&release, "release", false, "Run gin in release mode")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if release {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, redisClient, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ar, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}

	dashboard := service.New(st, ar,
		service.WithEngineOptions(cfg.EngineOptions()...),
		service.WithParseOptions(cfg.ParseOptions()),
		service.WithURLExpiry(cfg.Archive.URLExpiry),
	)

	routerCfg := server.Config{
		AllowOrigins:   cfg.Server.CORSOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		RedisClient:    redisClient,
		RateLimit:      cfg.Server.RateLimit,
		RateWindow:     cfg.Server.RateWindow,
	}
	if cfg.Server.RateLimit > 0 && redisClient == nil {
		log.Printf("⚠️ Rate limit configured but store driver is %s; rate limiting needs redis", cfg.Store.Driver)
	}

	handler := server.NewHandler(dashboard, server.WithDefaultView(cfg.DefaultViewState()))
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewRouter(routerCfg, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("🚀 equipdash %s listening on %s (store: %s, archive: %t)",
			version, cfg.Server.Addr, cfg.Store.Driver, cfg.Archive.Enabled())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("🛑 Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore connects the configured store. The redis client is returned
// for the rate limiter; it is nil for other drivers.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, *redis.Client, error) {
	opts := cfg.StoreOptions()
	switch cfg.Store.Driver {
	case config.DriverRedis:
		client, err := store.NewRedisClient(ctx, store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(client, opts...), client, nil
	case config.DriverPostgres:
		pool, err := store.NewPostgresPool(ctx, cfg.Store.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgresStore(pool, opts...)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pg, nil, nil
	default:
		log.Printf("💾 Using in-memory store (keeps %d uploads)", cfg.Store.Keep)
		return store.NewMemoryStore(opts...), nil, nil
	}
}

func openArchive(ctx context.Context, cfg *config.Config) (archive.Archiver, error) {
	if !cfg.Archive.Enabled() {
		return archive.Nop{}, nil
	}
	return archive.NewMinioArchiver(ctx, archive.MinioConfig{
		Endpoint:  cfg.Archive.Endpoint,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
		Bucket:    cfg.Archive.Bucket,
		Secure:    cfg.Archive.Secure,
	})
}
