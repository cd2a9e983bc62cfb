// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

// Package picker plans and executes randomized movie selection against a
// media server.
//
// Two strategies exist. Library-scoped selection pushes the filters down to
// the server and asks it for random ordering, trading perfect uniformity for
// never fetching a large library. Playlist-scoped selection fetches the
// playlist (playlists cannot filter server-side), filters client-side, and
// samples uniformly without replacement.
package picker

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"net/url"
	"strconv"
	"time"

	"github.com/movienight-dev/movienight/internal/logging"
	"github.com/movienight-dev/movienight/internal/metrics"
	"github.com/movienight-dev/movienight/internal/plex"
)

// Movie is the projection of a catalog item handed to the presentation
// layer. Derived per request, never cached.
type Movie struct {
	Title           string   `json:"title"`
	Year            int      `json:"year"`
	RatingKey       string   `json:"rating_key"`
	Summary         string   `json:"summary"`
	AudienceRating  float64  `json:"audience_rating"`
	ContentRating   string   `json:"content_rating"`
	DurationMinutes int      `json:"duration_minutes"`
	Genres          []string `json:"genres"`
	HasThumb        bool     `json:"has_thumb"`
}

// Picker selects random movies matching a set of criteria.
type Picker struct{}

// New creates a Picker.
func New() *Picker {
	return &Picker{}
}

// Pick returns up to criteria.Count movies matching the criteria, in random
// order. An empty result is a valid outcome of over-constrained filters, not
// an error.
func (p *Picker) Pick(ctx context.Context, srv *plex.Server, criteria Criteria) ([]Movie, error) {
	if criteria.count() == 0 {
		return []Movie{}, nil
	}

	scope := "library"
	if criteria.PlaylistKey != "" {
		scope = "playlist"
	}

	start := time.Now()
	var movies []Movie
	var err error
	if scope == "playlist" {
		movies, err = p.pickFromPlaylist(ctx, srv, criteria)
	} else {
		movies, err = p.pickFromLibrary(ctx, srv, criteria)
	}
	metrics.RecordPick(scope, len(movies), time.Since(start), err)
	return movies, err
}

// pickFromPlaylist fetches the playlist's full item list, filters
// client-side, and samples uniformly without replacement.
func (p *Picker) pickFromPlaylist(ctx context.Context, srv *plex.Server, criteria Criteria) ([]Movie, error) {
	items, err := srv.PlaylistItems(ctx, criteria.PlaylistKey)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}

	var candidates []plex.Metadata
	for i := range items {
		if !items[i].IsMovie() {
			continue
		}
		if criteria.matches(&items[i]) {
			candidates = append(candidates, items[i])
		}
	}

	n := criteria.count()
	if n > len(candidates) {
		n = len(candidates)
	}

	movies := make([]Movie, 0, n)
	for _, idx := range rand.Perm(len(candidates))[:n] {
		movies = append(movies, summarize(&candidates[idx]))
	}
	return movies, nil
}

// pickFromLibrary pushes the filters down to the movie section and delegates
// randomization to the server's random sort. The result cap is twice the
// requested count because the server's result set may contain non-movie
// items.
func (p *Picker) pickFromLibrary(ctx context.Context, srv *plex.Server, criteria Criteria) ([]Movie, error) {
	section, err := movieSection(ctx, srv)
	if err != nil {
		return nil, err
	}
	if section == nil {
		// Account has no movie library; degrade to empty.
		return []Movie{}, nil
	}

	filters := url.Values{}
	filters.Set("sort", "random")
	if criteria.Genre != "" {
		filters.Set("genre", criteria.Genre)
	}
	if criteria.ContentRating != "" {
		filters.Set("contentRating", criteria.ContentRating)
	}
	if criteria.Decade != "" {
		filters.Set("decade", criteria.Decade)
	}
	if criteria.MinRating > 0 {
		filters.Set("audienceRating>>", strconv.FormatFloat(criteria.MinRating, 'f', -1, 64))
	}

	count := criteria.count()
	items, err := srv.SectionItems(ctx, section.Key, filters, 2*count)
	if err != nil {
		return nil, fmt.Errorf("query library: %w", err)
	}

	movies := make([]Movie, 0, count)
	for i := range items {
		if !items[i].IsMovie() {
			logging.Ctx(ctx).Debug().
				Str("rating_key", items[i].RatingKey).
				Str("type", items[i].Type).
				Msg("dropping non-movie item from library results")
			continue
		}
		// The server already filtered, but the predicate is re-applied so
		// both paths share one filter definition.
		if !criteria.matches(&items[i]) {
			continue
		}
		movies = append(movies, summarize(&items[i]))
		if len(movies) == count {
			break
		}
	}
	return movies, nil
}

// movieSection returns the first library section of type "movie", or nil
// when the account has none.
func movieSection(ctx context.Context, srv *plex.Server) (*plex.LibrarySection, error) {
	sections, err := srv.Sections(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve movie section: %w", err)
	}
	for i := range sections {
		if sections[i].Type == "movie" {
			return &sections[i], nil
		}
	}
	return nil, nil
}

// summarize projects a catalog item to the presentation shape. Duration is
// rounded from milliseconds to minutes; missing optional fields default to
// empty values.
func summarize(m *plex.Metadata) Movie {
	minutes := 0
	if m.Duration > 0 {
		minutes = int(math.Round(float64(m.Duration) / 60000.0))
	}
	return Movie{
		Title:           m.Title,
		Year:            m.Year,
		RatingKey:       m.RatingKey,
		Summary:         m.Summary,
		AudienceRating:  m.AudienceRating,
		ContentRating:   m.ContentRating,
		DurationMinutes: minutes,
		Genres:          m.GenreTags(),
		HasThumb:        m.Thumb != "",
	}
}
