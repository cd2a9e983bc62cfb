// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

// Package main is the entry point for the Movie Night server.
//
// Movie Night is a small web app for the "what should we watch" problem: it
// signs a household in with Plex, lets them set a few filters (genre, rating,
// decade, playlist), and picks random movies from their own library.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority
// wins):
//   - Environment variables (SESSION_SECRET, SERVER_PORT, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// SESSION_SECRET is the only required setting; it signs the session cookie.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops accepting
// new connections and waits up to 10 seconds for in-flight requests.
//
// # Example Usage
//
//	export SESSION_SECRET=$(openssl rand -base64 32)
//	export SERVER_BASE_URL=https://movies.example.com
//	./movienight
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/movienight-dev/movienight/internal/auth"
	"github.com/movienight-dev/movienight/internal/cache"
	"github.com/movienight-dev/movienight/internal/config"
	"github.com/movienight-dev/movienight/internal/logging"
	"github.com/movienight-dev/movienight/internal/picker"
	"github.com/movienight-dev/movienight/internal/plex"
	"github.com/movienight-dev/movienight/internal/session"
	"github.com/movienight-dev/movienight/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors happen before the configured logger exists.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("base_url", cfg.Server.BaseURL).
		Dur("filter_cache_ttl", cfg.Cache.FilterTTL).
		Msg("Starting Movie Night")

	account := plex.NewAccount(plex.AccountConfig{
		ClientID: cfg.Plex.ClientID,
		Product:  cfg.Plex.Product,
		Version:  cfg.Plex.Version,
		Timeout:  cfg.Plex.Timeout,
	})

	filterCache := cache.New(cfg.Cache.FilterTTL)
	resolver := auth.NewResolver(cfg.Plex.Timeout)

	handler := web.NewHandler(
		account,
		resolver,
		picker.New(),
		picker.NewFilters(filterCache),
		cfg.Server.BaseURL,
	)

	sessions := session.NewMiddleware(
		session.NewCodec(cfg.Session.Secret),
		session.MiddlewareConfig{
			CookieName: cfg.Session.CookieName,
			MaxAge:     cfg.Session.MaxAge,
			Secure:     cfg.Session.CookieSecure,
		},
	)

	router := web.NewRouter(handler, sessions, web.RouterConfig{
		CORSOrigins:       cfg.CORS.Origins,
		RateLimitRequests: cfg.Server.RateLimitReqs,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	} else {
		logging.Info().Msg("Application stopped gracefully")
	}
}
