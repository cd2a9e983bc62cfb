// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

// Package session implements the signed-cookie session for Movie Night.
//
// All user state lives in a single tamper-evident cookie: there is no
// server-side session store, so sessions survive process restarts and need no
// server affinity. A fixed-shape record plus a static projection to the
// persistable fields guarantees nothing outside the allow list ever reaches
// the cookie.
package session

import (
	"context"
	"strconv"

	"github.com/movienight-dev/movienight/internal/plex"
)

// Claim keys persisted in the session cookie. These five keys are the entire
// allow list; anything else set during a request is dropped on persist.
const (
	claimToken      = "plex_token"
	claimServerURL  = "server_url"
	claimServerName = "server_name"
	claimPINID      = "pin_id"
	claimPINCode    = "pin_code"
)

// Session is one user's authentication and server-selection state, decoded
// from the request cookie and re-issued on every response.
type Session struct {
	// Token is the Plex credential obtained via the PIN flow.
	Token string

	// ServerURL and ServerName identify the selected media server.
	ServerURL  string
	ServerName string

	// PINID and PINCode track an in-flight PIN authorization.
	PINID   int
	PINCode string

	// server caches the live connection for the duration of one request.
	// Transient: never serialized.
	server *plex.Server
}

// FromClaims builds a Session from decoded cookie claims. Unknown claims are
// ignored; a malformed pin_id degrades to zero.
func FromClaims(claims map[string]string) *Session {
	s := &Session{
		Token:      claims[claimToken],
		ServerURL:  claims[claimServerURL],
		ServerName: claims[claimServerName],
		PINCode:    claims[claimPINCode],
	}
	if raw := claims[claimPINID]; raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			s.PINID = id
		}
	}
	return s
}

// persistClaims projects the session onto the persistable subset. Zero-value
// fields are omitted so an empty session serializes to an empty claim set.
func (s *Session) persistClaims() map[string]string {
	claims := map[string]string{}
	if s.Token != "" {
		claims[claimToken] = s.Token
	}
	if s.ServerURL != "" {
		claims[claimServerURL] = s.ServerURL
	}
	if s.ServerName != "" {
		claims[claimServerName] = s.ServerName
	}
	if s.PINID != 0 {
		claims[claimPINID] = strconv.Itoa(s.PINID)
	}
	if s.PINCode != "" {
		claims[claimPINCode] = s.PINCode
	}
	return claims
}

// Empty reports whether the session holds no persistable state.
func (s *Session) Empty() bool {
	return len(s.persistClaims()) == 0
}

// SignedIn reports whether the session can produce a catalog connection.
func (s *Session) SignedIn() bool {
	return s.Token != "" && s.ServerURL != ""
}

// ClearPIN drops the in-flight authorization state.
func (s *Session) ClearPIN() {
	s.PINID = 0
	s.PINCode = ""
}

// Clear resets the session to empty, including the transient handle.
func (s *Session) Clear() {
	*s = Session{}
}

// Server returns the cached connection handle, or nil.
func (s *Session) Server() *plex.Server {
	return s.server
}

// SetServer caches a connection handle for the rest of the request.
func (s *Session) SetServer(srv *plex.Server) {
	s.server = srv
}

// DropServer discards the cached connection handle, forcing a reconnect on
// the next resolve. Used when the user switches servers.
func (s *Session) DropServer() {
	s.server = nil
}

type contextKey struct{}

// NewContext returns a context carrying the session.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by the middleware. Handlers
// outside the middleware get a throwaway empty session rather than a nil.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKey{}).(*Session); ok {
		return s
	}
	return &Session{}
}
