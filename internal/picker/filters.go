// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

package picker

import (
	"context"
	"fmt"
	"sort"

	"github.com/movienight-dev/movienight/internal/cache"
	"github.com/movienight-dev/movienight/internal/logging"
	"github.com/movienight-dev/movienight/internal/metrics"
	"github.com/movienight-dev/movienight/internal/plex"
)

// FilterOptions is the set of filter values the library currently offers,
// used to populate the UI's filter controls.
type FilterOptions struct {
	Genres         []string         `json:"genres"`
	ContentRatings []string         `json:"content_ratings"`
	Decades        []string         `json:"decades"`
	Playlists      []PlaylistOption `json:"playlists"`
}

// PlaylistOption is a selectable target playlist.
type PlaylistOption struct {
	Title     string `json:"title"`
	RatingKey string `json:"rating_key"`
}

// Filters serves per-server filter option sets through a short-TTL cache.
// Enumerating filter choices costs several round trips, and the values change
// rarely, so entries are reused for the cache's TTL without refresh.
type Filters struct {
	cache *cache.Cache
}

// NewFilters creates the filter-option service around an injected cache.
func NewFilters(c *cache.Cache) *Filters {
	return &Filters{cache: c}
}

// Options returns the library's filter options, cached per server base URL.
// An account without a movie library yields empty options, uncached, so the
// UI recovers as soon as a library appears.
func (f *Filters) Options(ctx context.Context, srv *plex.Server) (FilterOptions, error) {
	key := srv.BaseURL()
	if cached, ok := f.cache.Get(key); ok {
		if opts, ok := cached.(FilterOptions); ok {
			metrics.RecordFilterCacheLookup(true)
			return opts, nil
		}
	}
	metrics.RecordFilterCacheLookup(false)

	section, err := movieSection(ctx, srv)
	if err != nil {
		return FilterOptions{}, err
	}
	if section == nil {
		return FilterOptions{}, nil
	}

	opts := FilterOptions{}
	if opts.Genres, err = choiceTitles(ctx, srv, section.Key, "genre"); err != nil {
		return FilterOptions{}, err
	}
	if opts.ContentRatings, err = choiceTitles(ctx, srv, section.Key, "contentRating"); err != nil {
		return FilterOptions{}, err
	}
	if opts.Decades, err = choiceTitles(ctx, srv, section.Key, "decade"); err != nil {
		return FilterOptions{}, err
	}

	playlists, err := srv.Playlists(ctx)
	if err != nil {
		return FilterOptions{}, fmt.Errorf("list playlists: %w", err)
	}
	for _, pl := range playlists {
		if pl.PlaylistType == "video" {
			opts.Playlists = append(opts.Playlists, PlaylistOption{
				Title:     pl.Title,
				RatingKey: pl.RatingKey,
			})
		}
	}

	f.cache.Set(key, opts)
	metrics.FilterCacheEntries.Set(float64(f.cache.GetStats().TotalKeys))
	logging.Ctx(ctx).Debug().
		Str("server", key).
		Int("genres", len(opts.Genres)).
		Int("playlists", len(opts.Playlists)).
		Msg("filter options refreshed")
	return opts, nil
}

// choiceTitles fetches one filter field's distinct values, sorted.
func choiceTitles(ctx context.Context, srv *plex.Server, sectionKey, field string) ([]string, error) {
	choices, err := srv.FilterChoices(ctx, sectionKey, field)
	if err != nil {
		return nil, fmt.Errorf("list %s choices: %w", field, err)
	}
	titles := make([]string, 0, len(choices))
	for _, c := range choices {
		titles = append(titles, c.Title)
	}
	sort.Strings(titles)
	return titles, nil
}
