// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

// Package config provides layered application configuration via Koanf v2.
//
// Loading order (highest priority wins):
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml)
//  3. Environment variables (SESSION_SECRET -> session.secret, etc.)
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Session SessionConfig `koanf:"session"`
	Plex    PlexConfig    `koanf:"plex"`
	Cache   CacheConfig   `koanf:"cache"`
	CORS    CORSConfig    `koanf:"cors"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the listen address.
	Host string `koanf:"host"`

	// Port is the listen port.
	Port int `koanf:"port"`

	// BaseURL is the externally visible base URL used to build the Plex
	// auth forward URL. Derived from the request when empty.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds request read/write on the server.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitReqs and RateLimitWindow bound requests per client IP on the
	// auth endpoints.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// SessionConfig holds signed-cookie session settings.
type SessionConfig struct {
	// Secret signs the session cookie. Required; sessions from a previous
	// process remain valid only while the secret is stable.
	Secret string `koanf:"secret"`

	// CookieName is the session cookie name.
	CookieName string `koanf:"cookie_name"`

	// MaxAge is the cookie lifetime. Freshness is enforced by this cookie
	// attribute alone; the signed token itself carries no expiry.
	MaxAge time.Duration `koanf:"max_age"`

	// CookieSecure sets the Secure flag on the session cookie. Leave false
	// only behind TLS-terminating proxies during development.
	CookieSecure bool `koanf:"cookie_secure"`
}

// PlexConfig identifies this application to plex.tv and bounds remote calls.
type PlexConfig struct {
	// ClientID is the X-Plex-Client-Identifier sent on every plex.tv call.
	ClientID string `koanf:"client_id"`

	// Product is the application name shown on the Plex authorization page.
	Product string `koanf:"product"`

	// Version is the application version reported to Plex.
	Version string `koanf:"version"`

	// Timeout bounds every outbound Plex request.
	Timeout time.Duration `koanf:"timeout"`
}

// CacheConfig holds the filter-option cache settings.
type CacheConfig struct {
	// FilterTTL is how long per-server filter option sets are cached.
	FilterTTL time.Duration `koanf:"filter_ttl"`
}

// CORSConfig holds cross-origin settings for the API routes.
type CORSConfig struct {
	Origins []string `koanf:"origins"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return errors.New("session.secret is required (set SESSION_SECRET)")
	}
	if len(c.Session.Secret) < 16 {
		return errors.New("session.secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.BaseURL != "" {
		if _, err := url.Parse(c.Server.BaseURL); err != nil {
			return fmt.Errorf("server.base_url invalid: %w", err)
		}
	}
	if c.Plex.ClientID == "" {
		return errors.New("plex.client_id is required")
	}
	if c.Cache.FilterTTL <= 0 {
		return errors.New("cache.filter_ttl must be positive")
	}
	return nil
}
