package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/salon-offers/internal/client"
	"github.com/fairyhunter13/salon-offers/internal/config"
	"github.com/fairyhunter13/salon-offers/internal/server"
	"github.com/fairyhunter13/salon-offers/pkg/logger"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(cfg.Log.Level, cfg.Log.Pretty)

	// One client serves every request; auth travels per call
	offers := client.NewOfferClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)

	app := server.NewProxyApp(server.ProxyDeps{
		Offers:          offers,
		Upstream:        offers,
		UpstreamBaseURL: cfg.Upstream.BaseURL,
		Resources:       cfg.Proxy.Resources,
		BodyLimit:       cfg.Server.BodyLimitMB << 20,
		AccessLog:       true,
	})

	// Start server with graceful shutdown
	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("upstream", cfg.Upstream.BaseURL).
			Msg("starting dashboard api")
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

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	log.Info().Msg("server stopped")
}
