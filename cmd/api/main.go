package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/recordhub/server/internal/config"
	"github.com/recordhub/server/internal/credential"
	httphandler "github.com/recordhub/server/internal/http"
	"github.com/recordhub/server/internal/http/handlers"
	"github.com/recordhub/server/internal/logger"
	"github.com/recordhub/server/internal/metrics"
	"github.com/recordhub/server/internal/store"
)

func main() {
	// Load .env from CWD if present (env vars override)
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(cfg.EnvName)

	st, err := store.New(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("failed to open record store")
	}

	hasher, err := credential.NewHasher(cfg.HashKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize credential hasher")
	}

	collector := metrics.NewCollector()

	userHandler := handlers.NewUserHandler(st, hasher)
	tokenHandler := handlers.NewTokenHandler(st, hasher)

	router := httphandler.NewRouter(userHandler, tokenHandler, st, collector)

	httpSrv := newServer(":"+cfg.HTTPPort, router)
	go func() {
		log.Info().Str("env", cfg.EnvName).Str("port", cfg.HTTPPort).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	var httpsSrv *http.Server
	if cfg.TLSEnabled() {
		httpsSrv = newServer(":"+cfg.HTTPSPort, router)
		go func() {
			log.Info().Str("env", cfg.EnvName).Str("port", cfg.HTTPSPort).Msg("HTTPS server listening")
			if err := httpsSrv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("HTTPS server failed")
			}
		}()
	}

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server forced to shutdown")
	}
	if httpsSrv != nil {
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTPS server forced to shutdown")
		}
	}

	log.Info().Msg("server exited")
}

// newServer builds an http.Server with the shared timeouts.
func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
