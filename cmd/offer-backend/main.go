package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/salon-offers/internal/config"
	"github.com/fairyhunter13/salon-offers/internal/repository"
	"github.com/fairyhunter13/salon-offers/internal/server"
	"github.com/fairyhunter13/salon-offers/internal/service"
	"github.com/fairyhunter13/salon-offers/pkg/cache"
	"github.com/fairyhunter13/salon-offers/pkg/database"
	"github.com/fairyhunter13/salon-offers/pkg/logger"
	"github.com/fairyhunter13/salon-offers/pkg/storage"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(cfg.Log.Level, cfg.Log.Pretty)

	// Tokens signed with a missing or guessable secret would pass RequireJWT
	if err := cfg.Auth.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid auth configuration")
	}

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), cfg.DB.MaxRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.ApplySchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	// Optional collaborators stay nil interfaces when not configured
	var publicCache service.PublicOfferCache
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		publicCache = repository.NewOfferCache(rdb, cfg.Redis.TTL)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, public offer cache disabled")
	}

	var images service.ImageStore
	if cfg.Storage.Enabled() {
		store, err := storage.NewImageStore(ctx, storage.Config{
			Endpoint:      cfg.Storage.Endpoint,
			Region:        cfg.Storage.Region,
			Bucket:        cfg.Storage.Bucket,
			AccessKey:     cfg.Storage.AccessKey,
			SecretKey:     cfg.Storage.SecretKey,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure image storage")
		}
		images = store
	} else {
		log.Warn().Msg("S3_BUCKET not set, image uploads disabled")
	}

	// Layered architecture: repository -> service -> handler
	offerService := service.NewOfferService(repository.NewOfferRepository(pool), publicCache, images)

	app := server.NewBackendApp(server.BackendDeps{
		Offers:       offerService,
		DB:           pool,
		JWTSecret:    []byte(cfg.Auth.JWTSecret),
		ManagerRoles: cfg.Auth.ManagerRoles,
		BodyLimit:    cfg.Server.BodyLimitMB << 20,
		AccessLog:    true,
	})

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting offers backend")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close connections AFTER server shutdown (even if shutdown timed out)
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis client")
		}
	}
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}
