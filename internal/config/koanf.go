// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/movienight/config.yaml",
	"/etc/movienight/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envSections are the top-level koanf keys that environment variables may
// target. Variables outside these prefixes (PATH, HOME, ...) are ignored.
var envSections = []string{"server", "session", "plex", "cache", "cors", "logging"}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			BaseURL:         "", // derived from the request when blank
			Timeout:         30 * time.Second,
			RateLimitReqs:   30,
			RateLimitWindow: 1 * time.Minute,
		},
		Session: SessionConfig{
			Secret:       "",
			CookieName:   "mn_session",
			MaxAge:       7 * 24 * time.Hour,
			CookieSecure: false,
		},
		Plex: PlexConfig{
			ClientID: "movienight-web-app",
			Product:  "Movie Night",
			Version:  "1.0.0",
			Timeout:  10 * time.Second,
		},
		Cache: CacheConfig{
			FilterTTL: 5 * time.Minute,
		},
		CORS: CORSConfig{
			Origins: []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// Layer 2: optional config file
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// SESSION_SECRET -> session.secret, SERVER_BASE_URL -> server.base_url
	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the config file path, or "" when none exists.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps an environment variable name to a koanf path.
// The first underscore-delimited segment selects the section; the remainder
// keeps its underscores: PLEX_CLIENT_ID -> plex.client_id. Variables whose
// first segment is not a known section are dropped.
func envTransform(name string) string {
	lower := strings.ToLower(name)
	section, rest, found := strings.Cut(lower, "_")
	if !found || rest == "" {
		return ""
	}
	for _, s := range envSections {
		if section == s {
			return section + "." + rest
		}
	}
	return ""
}
