// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

package picker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/movienight-dev/movienight/internal/plex"
)

// fakeCatalog is a minimal media-server stub. Handlers are keyed by URL path;
// lastQuery records the query values of the most recent request per path, and
// hits counts every served request.
type fakeCatalog struct {
	t         *testing.T
	server    *httptest.Server
	responses map[string]string
	lastQuery map[string]url.Values
	hits      atomic.Int64
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	t.Helper()
	fc := &fakeCatalog{
		t:         t,
		responses: make(map[string]string),
		lastQuery: make(map[string]url.Values),
	}
	fc.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := fc.responses[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fc.hits.Add(1)
		fc.lastQuery[r.URL.Path] = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fc.server.Close)
	return fc
}

func (fc *fakeCatalog) plexServer() *plex.Server {
	return plex.NewServer(fc.server.URL, "test-token", plex.ServerOptions{})
}

const movieSectionJSON = `{"MediaContainer":{"size":2,"Directory":[
	{"key":"2","uuid":"u2","title":"TV Shows","type":"show"},
	{"key":"1","uuid":"u1","title":"Movies","type":"movie"}
]}}`

func TestCriteriaMatches(t *testing.T) {
	movie := &plex.Metadata{
		Type:           "movie",
		Title:          "Heat",
		Year:           1995,
		ContentRating:  "R",
		AudienceRating: 8.7,
		Genre:          []plex.Tag{{Tag: "Crime"}, {Tag: "Thriller"}},
	}

	tests := []struct {
		name     string
		criteria Criteria
		want     bool
	}{
		{"zero criteria matches anything", Criteria{}, true},
		{"genre present", Criteria{Genre: "Crime"}, true},
		{"genre absent", Criteria{Genre: "Comedy"}, false},
		{"content rating exact", Criteria{ContentRating: "R"}, true},
		{"content rating mismatch", Criteria{ContentRating: "PG-13"}, false},
		{"decade start inclusive", Criteria{Decade: "1990"}, true},
		{"decade end exclusive", Criteria{Decade: "1985"}, false},
		{"wrong decade", Criteria{Decade: "2000"}, false},
		{"unparseable decade", Criteria{Decade: "nineties"}, false},
		{"rating at threshold", Criteria{MinRating: 8.7}, true},
		{"rating below threshold", Criteria{MinRating: 9.0}, false},
		{"all filters combined", Criteria{Genre: "Thriller", ContentRating: "R", Decade: "1990", MinRating: 8.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.criteria.matches(movie); got != tt.want {
				t.Errorf("matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCriteriaMatchesMissingRating(t *testing.T) {
	unrated := &plex.Metadata{Type: "movie", Title: "Obscure", Year: 1991}
	c := Criteria{MinRating: 5.0}
	if c.matches(unrated) {
		t.Error("An item without an audience rating must fail a MinRating filter")
	}
}

func TestDecadeEndExclusive(t *testing.T) {
	// 1990 belongs to the 1990 decade; 2000 does not.
	c := Criteria{Decade: "1990"}
	if !c.matches(&plex.Metadata{Type: "movie", Year: 1990}) {
		t.Error("Year 1990 must match decade 1990")
	}
	if c.matches(&plex.Metadata{Type: "movie", Year: 2000}) {
		t.Error("Year 2000 must not match decade 1990")
	}
}

func TestPickZeroCount(t *testing.T) {
	fc := newFakeCatalog(t)
	p := New()

	for _, count := range []int{0, -1} {
		movies, err := p.Pick(context.Background(), fc.plexServer(), Criteria{Count: count})
		if err != nil {
			t.Fatalf("Pick with count %d failed: %v", count, err)
		}
		if len(movies) != 0 {
			t.Errorf("Expected empty result for count %d, got %d movies", count, len(movies))
		}
	}
}

func TestPickFromPlaylist(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.responses["/playlists/42/items"] = `{"MediaContainer":{"size":5,"Metadata":[
		{"ratingKey":"1","type":"movie","title":"Airplane!","year":1980,"Genre":[{"tag":"Comedy"}]},
		{"ratingKey":"2","type":"movie","title":"Alien","year":1979,"Genre":[{"tag":"Horror"}]},
		{"ratingKey":"3","type":"episode","title":"Pilot","year":2008},
		{"ratingKey":"4","type":"movie","title":"Clue","year":1985,"Genre":[{"tag":"Comedy"}]},
		{"ratingKey":"5","type":"movie","title":"Jaws","year":1975,"Genre":[{"tag":"Thriller"}]}
	]}}`

	p := New()
	movies, err := p.Pick(context.Background(), fc.plexServer(), Criteria{
		PlaylistKey: "42",
		Genre:       "Comedy",
		Count:       3,
	})
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}

	// Only two comedies exist, so the sample caps at two.
	if len(movies) != 2 {
		t.Fatalf("Expected 2 movies, got %d", len(movies))
	}
	seen := make(map[string]bool)
	for _, m := range movies {
		if seen[m.RatingKey] {
			t.Errorf("Duplicate movie %s in sample", m.Title)
		}
		seen[m.RatingKey] = true
		if m.RatingKey != "1" && m.RatingKey != "4" {
			t.Errorf("Unexpected movie %s (%s) in Comedy sample", m.Title, m.RatingKey)
		}
	}
}

func TestPickFromPlaylistSkipsNonMovies(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.responses["/playlists/9/items"] = `{"MediaContainer":{"size":2,"Metadata":[
		{"ratingKey":"1","type":"episode","title":"Pilot"},
		{"ratingKey":"2","type":"episode","title":"Finale"}
	]}}`

	movies, err := New().Pick(context.Background(), fc.plexServer(), Criteria{PlaylistKey: "9", Count: 3})
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if len(movies) != 0 {
		t.Errorf("Expected no movies from an episode-only playlist, got %d", len(movies))
	}
}

func TestPickFromLibraryPushesFiltersDown(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.responses["/library/sections"] = movieSectionJSON
	fc.responses["/library/sections/1/all"] = `{"MediaContainer":{"size":3,"Metadata":[
		{"ratingKey":"10","type":"movie","title":"Goodfellas","year":1990,"audienceRating":9.0,"Genre":[{"tag":"Crime"}]},
		{"ratingKey":"11","type":"movie","title":"Casino","year":1995,"audienceRating":8.5,"Genre":[{"tag":"Crime"}]},
		{"ratingKey":"12","type":"movie","title":"Heat","year":1995,"audienceRating":8.7,"Genre":[{"tag":"Crime"}]}
	]}}`

	p := New()
	movies, err := p.Pick(context.Background(), fc.plexServer(), Criteria{
		Genre:     "Crime",
		Decade:    "1990",
		MinRating: 8.0,
		Count:     3,
	})
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if len(movies) != 3 {
		t.Errorf("Expected 3 movies, got %d", len(movies))
	}

	q := fc.lastQuery["/library/sections/1/all"]
	if q.Get("sort") != "random" {
		t.Errorf("Expected sort=random, got %q", q.Get("sort"))
	}
	if q.Get("genre") != "Crime" {
		t.Errorf("Expected genre=Crime, got %q", q.Get("genre"))
	}
	if q.Get("decade") != "1990" {
		t.Errorf("Expected decade=1990, got %q", q.Get("decade"))
	}
	if q.Get("audienceRating>>") != "8" {
		t.Errorf("Expected audienceRating>>=8, got %q", q.Get("audienceRating>>"))
	}
	if q.Get("X-Plex-Container-Size") != "6" {
		t.Errorf("Expected container size 2x count, got %q", q.Get("X-Plex-Container-Size"))
	}
}

func TestPickFromLibraryReappliesFilters(t *testing.T) {
	// The server is trusted to filter, but the shared predicate still runs:
	// a result set with items outside the criteria must be trimmed.
	fc := newFakeCatalog(t)
	fc.responses["/library/sections"] = movieSectionJSON
	fc.responses["/library/sections/1/all"] = `{"MediaContainer":{"size":4,"Metadata":[
		{"ratingKey":"1","type":"movie","title":"A","year":1991,"audienceRating":8.1},
		{"ratingKey":"2","type":"movie","title":"B","year":1985,"audienceRating":9.0},
		{"ratingKey":"3","type":"movie","title":"C","year":1995,"audienceRating":6.5},
		{"ratingKey":"4","type":"movie","title":"D","year":1999,"audienceRating":7.5}
	]}}`

	movies, err := New().Pick(context.Background(), fc.plexServer(), Criteria{
		Decade:    "1990",
		MinRating: 7.0,
		Count:     2,
	})
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}

	// Eligible set: 1991/8.1 and 1999/7.5. Exactly those two, any order.
	if len(movies) != 2 {
		t.Fatalf("Expected exactly 2 movies, got %d", len(movies))
	}
	got := map[string]bool{}
	for _, m := range movies {
		got[m.RatingKey] = true
	}
	if !got["1"] || !got["4"] {
		t.Errorf("Expected movies 1 and 4, got %v", got)
	}
}

func TestPickFromLibrarySkipsNonMovies(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.responses["/library/sections"] = movieSectionJSON
	fc.responses["/library/sections/1/all"] = `{"MediaContainer":{"size":3,"Metadata":[
		{"ratingKey":"1","type":"movie","title":"A","year":2001},
		{"ratingKey":"2","type":"collection","title":"Marathon"},
		{"ratingKey":"3","type":"movie","title":"B","year":2003}
	]}}`

	movies, err := New().Pick(context.Background(), fc.plexServer(), Criteria{Count: 3})
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if len(movies) != 2 {
		t.Errorf("Expected the collection item dropped, got %d movies", len(movies))
	}
}

func TestPickFromLibraryNoMovieSection(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.responses["/library/sections"] = `{"MediaContainer":{"size":1,"Directory":[
		{"key":"2","uuid":"u2","title":"Music","type":"artist"}
	]}}`

	movies, err := New().Pick(context.Background(), fc.plexServer(), Criteria{Count: 3})
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if len(movies) != 0 {
		t.Errorf("Expected empty result without a movie library, got %d", len(movies))
	}
}

func TestSummarize(t *testing.T) {
	m := &plex.Metadata{
		RatingKey:      "7",
		Type:           "movie",
		Title:          "Heat",
		Year:           1995,
		Summary:        "A heist crew and a detective.",
		AudienceRating: 8.7,
		ContentRating:  "R",
		Duration:       10200000, // 170 minutes
		Thumb:          "/library/metadata/7/thumb/123",
		Genre:          []plex.Tag{{Tag: "Crime"}},
	}

	got := summarize(m)
	if got.DurationMinutes != 170 {
		t.Errorf("Expected 170 minutes, got %d", got.DurationMinutes)
	}
	if !got.HasThumb {
		t.Error("Expected HasThumb for an item with a thumb path")
	}
	if len(got.Genres) != 1 || got.Genres[0] != "Crime" {
		t.Errorf("Expected genres [Crime], got %v", got.Genres)
	}

	bare := summarize(&plex.Metadata{RatingKey: "8", Type: "movie", Title: "Bare"})
	if bare.HasThumb {
		t.Error("Expected HasThumb false without a thumb path")
	}
	if bare.DurationMinutes != 0 {
		t.Errorf("Expected 0 minutes without a duration, got %d", bare.DurationMinutes)
	}
}
