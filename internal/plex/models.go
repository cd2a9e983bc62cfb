// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

package plex

// Plex Media Server REST API models.
// Documentation: https://plexapi.dev and https://www.plexopedia.com/plex-media-server/api/

// sectionsResponse represents the response from GET /library/sections.
type sectionsResponse struct {
	MediaContainer struct {
		Size      int              `json:"size"`
		Directory []LibrarySection `json:"Directory,omitempty"`
	} `json:"MediaContainer"`
}

// LibrarySection is a single library section (Movies, TV Shows, ...).
type LibrarySection struct {
	Key   string `json:"key"`   // Section key, used in /library/sections/{key} URLs
	UUID  string `json:"uuid"`  // Unique section UUID
	Title string `json:"title"` // Section name (e.g. "Movies")
	Type  string `json:"type"`  // Section type: "movie", "show", "artist", "photo"
}

// itemsResponse represents the response from GET /library/sections/{key}/all
// and GET /playlists/{key}/items.
type itemsResponse struct {
	MediaContainer struct {
		Size     int        `json:"size"`
		Metadata []Metadata `json:"Metadata,omitempty"`
	} `json:"MediaContainer"`
}

// Metadata is a media item. Result sets are heterogeneous (a playlist may mix
// movies and episodes), so callers must check Type before treating an item as
// a movie.
type Metadata struct {
	RatingKey      string  `json:"ratingKey"`                // Stable item identifier
	Key            string  `json:"key"`                      // API path to the item
	Type           string  `json:"type"`                     // "movie", "show", "episode", ...
	Title          string  `json:"title"`                    //
	ContentRating  string  `json:"contentRating,omitempty"`  // Age rating label (PG-13, TV-MA)
	Summary        string  `json:"summary,omitempty"`        //
	AudienceRating float64 `json:"audienceRating,omitempty"` //
	Year           int     `json:"year,omitempty"`           // Release year
	Thumb          string  `json:"thumb,omitempty"`          // Poster path, empty when absent
	Duration       int64   `json:"duration,omitempty"`       // Duration in milliseconds
	Genre          []Tag   `json:"Genre,omitempty"`          //
}

// IsMovie reports whether the item is a movie. The Plex API's result sets are
// not strictly typed, so every consumer filters on this.
func (m *Metadata) IsMovie() bool {
	return m.Type == "movie"
}

// GenreTags returns the item's genre labels.
func (m *Metadata) GenreTags() []string {
	tags := make([]string, 0, len(m.Genre))
	for _, g := range m.Genre {
		tags = append(tags, g.Tag)
	}
	return tags
}

// Tag is a label attached to a media item (genre, director, ...).
type Tag struct {
	Tag string `json:"tag"`
}

// playlistsResponse represents the response from GET /playlists.
type playlistsResponse struct {
	MediaContainer struct {
		Size     int        `json:"size"`
		Metadata []Playlist `json:"Metadata,omitempty"`
	} `json:"MediaContainer"`
}

// Playlist is a named, ordered sub-list of items. Playlists do not support
// server-side filtered search.
type Playlist struct {
	RatingKey    string `json:"ratingKey"`    // Stable playlist identifier
	Title        string `json:"title"`        //
	PlaylistType string `json:"playlistType"` // "video", "audio", "photo"
	LeafCount    int    `json:"leafCount"`    // Number of items
}

// choicesResponse represents the response from
// GET /library/sections/{key}/{field} (genre, contentRating, decade).
type choicesResponse struct {
	MediaContainer struct {
		Size      int            `json:"size"`
		Directory []FilterChoice `json:"Directory,omitempty"`
	} `json:"MediaContainer"`
}

// FilterChoice is one distinct value a library offers for a filter field.
type FilterChoice struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}
