// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

package picker

import (
	"strconv"

	"github.com/movienight-dev/movienight/internal/plex"
)

// DefaultCount is the sample size when the user does not choose one.
const DefaultCount = 3

// Criteria is the user's filter selection for one pick request. All fields
// are optional; the zero value means "any movie from the library".
type Criteria struct {
	// Genre requires the genre tag to be present on the item.
	Genre string

	// ContentRating requires an exact content-rating label match.
	ContentRating string

	// Decade is a numeric string label (e.g. "1990") denoting the year
	// window [decade, decade+10).
	Decade string

	// MinRating requires audienceRating >= MinRating. Items without a
	// rating fail the filter.
	MinRating float64

	// PlaylistKey scopes selection to a playlist instead of the library.
	// Playlists do not support server-side filtered search, so setting this
	// switches to client-side filtering.
	PlaylistKey string

	// Count is the requested sample size.
	Count int
}

// count returns the effective sample size, clamping negatives to zero.
func (c *Criteria) count() int {
	if c.Count < 0 {
		return 0
	}
	return c.Count
}

// matches is the canonical filter predicate, applied identically on both
// selection paths.
func (c *Criteria) matches(m *plex.Metadata) bool {
	if c.Genre != "" && !hasTag(m.GenreTags(), c.Genre) {
		return false
	}
	if c.ContentRating != "" && m.ContentRating != c.ContentRating {
		return false
	}
	if c.Decade != "" {
		start, err := strconv.Atoi(c.Decade)
		if err != nil {
			return false
		}
		if m.Year < start || m.Year >= start+10 {
			return false
		}
	}
	if c.MinRating > 0 && m.AudienceRating < c.MinRating {
		return false
	}
	return true
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
