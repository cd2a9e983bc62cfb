// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

package picker

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/movienight-dev/movienight/internal/cache"
)

func populateFilterEndpoints(fc *fakeCatalog) {
	fc.responses["/library/sections"] = movieSectionJSON
	fc.responses["/library/sections/1/genre"] = `{"MediaContainer":{"size":3,"Directory":[
		{"key":"g2","title":"Drama"},
		{"key":"g1","title":"Comedy"},
		{"key":"g3","title":"Thriller"}
	]}}`
	fc.responses["/library/sections/1/contentRating"] = `{"MediaContainer":{"size":2,"Directory":[
		{"key":"r1","title":"R"},
		{"key":"r2","title":"PG-13"}
	]}}`
	fc.responses["/library/sections/1/decade"] = `{"MediaContainer":{"size":2,"Directory":[
		{"key":"d2","title":"2000"},
		{"key":"d1","title":"1990"}
	]}}`
	fc.responses["/playlists"] = `{"MediaContainer":{"size":3,"Metadata":[
		{"ratingKey":"100","title":"Movie Night","playlistType":"video","leafCount":12},
		{"ratingKey":"101","title":"Road Trip","playlistType":"audio","leafCount":40},
		{"ratingKey":"102","title":"Halloween","playlistType":"video","leafCount":7}
	]}}`
}

func TestFilterOptions(t *testing.T) {
	fc := newFakeCatalog(t)
	populateFilterEndpoints(fc)

	f := NewFilters(cache.New(time.Minute))
	opts, err := f.Options(context.Background(), fc.plexServer())
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}

	if want := []string{"Comedy", "Drama", "Thriller"}; !reflect.DeepEqual(opts.Genres, want) {
		t.Errorf("Expected sorted genres %v, got %v", want, opts.Genres)
	}
	if want := []string{"PG-13", "R"}; !reflect.DeepEqual(opts.ContentRatings, want) {
		t.Errorf("Expected sorted content ratings %v, got %v", want, opts.ContentRatings)
	}
	if want := []string{"1990", "2000"}; !reflect.DeepEqual(opts.Decades, want) {
		t.Errorf("Expected sorted decades %v, got %v", want, opts.Decades)
	}

	// Only video playlists are offered.
	if len(opts.Playlists) != 2 {
		t.Fatalf("Expected 2 video playlists, got %d", len(opts.Playlists))
	}
	for _, pl := range opts.Playlists {
		if pl.RatingKey != "100" && pl.RatingKey != "102" {
			t.Errorf("Unexpected playlist %s (%s)", pl.Title, pl.RatingKey)
		}
	}
}

func TestFilterOptionsCached(t *testing.T) {
	fc := newFakeCatalog(t)
	populateFilterEndpoints(fc)

	f := NewFilters(cache.New(time.Minute))
	srv := fc.plexServer()

	first, err := f.Options(context.Background(), srv)
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	afterFirst := fc.hits.Load()

	second, err := f.Options(context.Background(), srv)
	if err != nil {
		t.Fatalf("Second Options failed: %v", err)
	}

	if fc.hits.Load() != afterFirst {
		t.Errorf("Expected a fresh cache entry to serve the second call, got %d extra requests", fc.hits.Load()-afterFirst)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Cached options must match the originally computed options")
	}
}

func TestFilterOptionsStaleRecomputes(t *testing.T) {
	fc := newFakeCatalog(t)
	populateFilterEndpoints(fc)

	f := NewFilters(cache.New(20 * time.Millisecond))
	srv := fc.plexServer()

	if _, err := f.Options(context.Background(), srv); err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	afterFirst := fc.hits.Load()

	time.Sleep(40 * time.Millisecond)

	if _, err := f.Options(context.Background(), srv); err != nil {
		t.Fatalf("Options after expiry failed: %v", err)
	}
	if fc.hits.Load() == afterFirst {
		t.Error("Expected a stale entry to trigger recomputation")
	}
}

func TestFilterOptionsNoMovieSection(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.responses["/library/sections"] = `{"MediaContainer":{"size":1,"Directory":[
		{"key":"2","uuid":"u2","title":"Music","type":"artist"}
	]}}`

	f := NewFilters(cache.New(time.Minute))
	srv := fc.plexServer()

	opts, err := f.Options(context.Background(), srv)
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	if len(opts.Genres)+len(opts.ContentRatings)+len(opts.Decades)+len(opts.Playlists) != 0 {
		t.Errorf("Expected empty options without a movie library, got %+v", opts)
	}

	// The empty result is not cached: once a movie library appears the next
	// call must see it.
	populateFilterEndpoints(fc)
	opts, err = f.Options(context.Background(), srv)
	if err != nil {
		t.Fatalf("Options after library appeared failed: %v", err)
	}
	if len(opts.Genres) == 0 {
		t.Error("Expected options once a movie library exists; empty result must not have been cached")
	}
}

func TestFilterOptionsKeyedPerServer(t *testing.T) {
	fc1 := newFakeCatalog(t)
	populateFilterEndpoints(fc1)

	fc2 := newFakeCatalog(t)
	fc2.responses["/library/sections"] = movieSectionJSON
	fc2.responses["/library/sections/1/genre"] = `{"MediaContainer":{"size":1,"Directory":[{"key":"g9","title":"Western"}]}}`
	fc2.responses["/library/sections/1/contentRating"] = `{"MediaContainer":{"size":0}}`
	fc2.responses["/library/sections/1/decade"] = `{"MediaContainer":{"size":0}}`
	fc2.responses["/playlists"] = `{"MediaContainer":{"size":0}}`

	f := NewFilters(cache.New(time.Minute))

	opts1, err := f.Options(context.Background(), fc1.plexServer())
	if err != nil {
		t.Fatalf("Options for first server failed: %v", err)
	}
	opts2, err := f.Options(context.Background(), fc2.plexServer())
	if err != nil {
		t.Fatalf("Options for second server failed: %v", err)
	}

	if reflect.DeepEqual(opts1.Genres, opts2.Genres) {
		t.Error("Expected per-server cache keys to keep option sets distinct")
	}
}
