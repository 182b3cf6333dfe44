// Command server runs the narrator HTTP API.
//
//	@title			Narrator API
//	@version		1.0
//	@description	LLM-narrated interactive fiction sessions: scene navigation, element dice and player boards.
//	@BasePath		/api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-narrator-backend/internal/config"
	"github.com/tbourn/go-narrator-backend/internal/events"
	httpapi "github.com/tbourn/go-narrator-backend/internal/http"
	"github.com/tbourn/go-narrator-backend/internal/llm"
	"github.com/tbourn/go-narrator-backend/internal/lock"
	"github.com/tbourn/go-narrator-backend/internal/observability"
	"github.com/tbourn/go-narrator-backend/internal/repo"
	"github.com/tbourn/go-narrator-backend/internal/sysutil"
)

// version is overwritten at build time using -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := sysutil.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup")
	}

	db, err := repo.Open(cfg.DB.Driver, cfg.DB.Target())
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	deps := httpapi.Deps{LLMs: llm.DefaultRegistry(), Log: logger}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis ping")
		}
		deps.Locker = lock.NewRedis(rdb, cfg.Lock.TTL)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("session locks in redis")
	} else {
		deps.Locker = lock.NewLocal()
	}
	if cfg.WSEnabled {
		deps.Hub = events.NewHub(16)
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("db", cfg.DB.Driver).Str("version", version).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("otel shutdown")
	}
	logger.Info().Msg("server exited")
}
