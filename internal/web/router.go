// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/movienight-dev/movienight/internal/middleware"
	"github.com/movienight-dev/movienight/internal/session"
)

// RouterConfig holds the routing-level settings.
type RouterConfig struct {
	// CORSOrigins enables CORS when non-empty. Off by default; the app is
	// same-origin.
	CORSOrigins []string

	// RateLimitRequests / RateLimitWindow bound per-IP requests on the auth
	// routes. Zero requests disables limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter assembles the route tree.
//
// /metrics and /healthz sit outside the session group: scrapers and probes
// get neither cookies nor per-request metrics about themselves.
func NewRouter(h *Handler, sessions *session.Middleware, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", h.Health)
	r.Handle("/static/*", http.FileServer(http.FS(staticFS)))

	r.Group(func(r chi.Router) {
		if len(cfg.CORSOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   cfg.CORSOrigins,
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "HX-Request", "HX-Target"},
				AllowCredentials: true,
				MaxAge:           86400,
			}))
		}
		r.Use(sessions.Handler)
		r.Use(middleware.PrometheusMetrics)

		r.Get("/", h.Home)
		r.Get("/generate", h.Generate)

		r.Route("/auth", func(r chi.Router) {
			if cfg.RateLimitRequests > 0 {
				r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
			}
			r.Get("/login", h.Login)
			r.Get("/callback", h.Callback)
			r.Get("/poll", h.Poll)
			r.Get("/servers", h.Servers)
			r.Post("/select-server", h.SelectServer)
			r.Post("/logout", h.Logout)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/filters", h.Filters)
			r.Post("/generate", h.PickMovies)
			r.Get("/poster/{ratingKey}", h.Poster)
		})
	})

	return r
}
