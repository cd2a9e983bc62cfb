// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

// Package plex is the remote catalog collaborator: an HTTP client for a Plex
// Media Server (libraries, playlists, filter choices, posters) and for the
// plex.tv account API (PIN authorization, server resources).
package plex

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/movienight-dev/movienight/internal/metrics"
)

// DefaultTimeout bounds every media-server request. Connection failures must
// degrade to a reported error rather than hang.
const DefaultTimeout = 10 * time.Second

// Server is a connection handle to one Plex Media Server.
type Server struct {
	baseURL string
	token   string
	client  *http.Client
}

// ServerOptions configures a Server connection.
type ServerOptions struct {
	// Timeout bounds each request. Default: DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the constructed client (tests).
	HTTPClient *http.Client
}

// NewServer creates a connection handle for the given base URL and token.
// It performs no I/O; use Connect to verify reachability.
func NewServer(baseURL, token string, opts ServerOptions) *Server {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	client := opts.HTTPClient
	if client == nil {
		transport := http.DefaultTransport
		if skipVerifyHost(hostname(baseURL)) {
			transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // see skipVerifyHost
			}
		}
		client = &http.Client{
			Timeout:   timeout,
			Transport: transport,
		}
	}

	return &Server{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

// BaseURL returns the server's base connection URL. Used as the identity key
// for per-server caches.
func (s *Server) BaseURL() string {
	return s.baseURL
}

// Connect verifies the server is reachable and the token accepted by
// requesting the server identity. Any failure here is a connection failure;
// the caller decides whether it is transient.
func (s *Server) Connect(ctx context.Context) error {
	var resp struct {
		MediaContainer struct {
			MachineIdentifier string `json:"machineIdentifier"`
		} `json:"MediaContainer"`
	}
	if err := s.get(ctx, "identity", "/identity", nil, &resp); err != nil {
		return fmt.Errorf("connect to %s: %w", s.baseURL, err)
	}
	return nil
}

// Sections lists the server's library sections.
func (s *Server) Sections(ctx context.Context) ([]LibrarySection, error) {
	var resp sectionsResponse
	if err := s.get(ctx, "sections", "/library/sections", nil, &resp); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return resp.MediaContainer.Directory, nil
}

// SectionItems queries a library section with the given filter parameters,
// returning at most limit items. The caller owns the filter vocabulary
// (genre, contentRating, decade, audienceRating>>, sort).
func (s *Server) SectionItems(ctx context.Context, sectionKey string, filters url.Values, limit int) ([]Metadata, error) {
	params := url.Values{}
	for k, vs := range filters {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	if limit > 0 {
		params.Set("X-Plex-Container-Start", "0")
		params.Set("X-Plex-Container-Size", strconv.Itoa(limit))
	}

	var resp itemsResponse
	path := "/library/sections/" + url.PathEscape(sectionKey) + "/all"
	if err := s.get(ctx, "section_items", path, params, &resp); err != nil {
		return nil, fmt.Errorf("query section %s: %w", sectionKey, err)
	}
	return resp.MediaContainer.Metadata, nil
}

// Playlists lists the server's playlists.
func (s *Server) Playlists(ctx context.Context) ([]Playlist, error) {
	var resp playlistsResponse
	if err := s.get(ctx, "playlists", "/playlists", nil, &resp); err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	return resp.MediaContainer.Metadata, nil
}

// PlaylistItems fetches the full item list of a playlist by rating key.
func (s *Server) PlaylistItems(ctx context.Context, ratingKey string) ([]Metadata, error) {
	var resp itemsResponse
	path := "/playlists/" + url.PathEscape(ratingKey) + "/items"
	if err := s.get(ctx, "playlist_items", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("playlist %s items: %w", ratingKey, err)
	}
	return resp.MediaContainer.Metadata, nil
}

// FilterChoices lists the distinct values a section offers for a filter
// field ("genre", "contentRating", "decade").
func (s *Server) FilterChoices(ctx context.Context, sectionKey, field string) ([]FilterChoice, error) {
	var resp choicesResponse
	path := "/library/sections/" + url.PathEscape(sectionKey) + "/" + url.PathEscape(field)
	if err := s.get(ctx, "filter_choices", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("filter choices %s/%s: %w", sectionKey, field, err)
	}
	return resp.MediaContainer.Directory, nil
}

// Thumb fetches an item's poster image. The caller must close the response
// body. A non-200 status is returned as-is so the proxy can map it to 404.
func (s *Server) Thumb(ctx context.Context, ratingKey string) (*http.Response, error) {
	u := s.baseURL + "/library/metadata/" + url.PathEscape(ratingKey) + "/thumb"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create thumb request: %w", err)
	}
	req.Header.Set("X-Plex-Token", s.token)

	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.RecordPlexRequest("thumb", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("fetch thumb %s: %w", ratingKey, err)
	}
	return resp, nil
}

// get performs a JSON GET against the media server, recording the call under
// the given operation label.
func (s *Server) get(ctx context.Context, op, path string, params url.Values, out interface{}) (err error) {
	start := time.Now()
	defer func() { metrics.RecordPlexRequest(op, time.Since(start), err) }()

	u := s.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 512))
		if readErr != nil {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// skipVerifyHost reports whether certificate verification should be disabled
// for the host. Plex auto-discovered endpoints (*.plex.direct, raw IPs) carry
// certificates that are not expected to validate against the literal
// hostname; everything else keeps full verification.
func skipVerifyHost(host string) bool {
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	return strings.HasSuffix(host, ".plex.direct")
}

// hostname extracts the hostname from a connection URL, or "".
func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
