// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

// Package auth resolves a session into a live media-server connection.
//
// The two failure kinds matter to the boundary and stay distinguishable all
// the way up: ErrAuthRequired sends the user to login, RemoteUnavailableError
// offers a retry with the session intact.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/movienight-dev/movienight/internal/logging"
	"github.com/movienight-dev/movienight/internal/plex"
	"github.com/movienight-dev/movienight/internal/session"
)

// ErrAuthRequired indicates the session lacks the credential token or the
// server URL. Not a connectivity problem; the user must sign in.
var ErrAuthRequired = errors.New("authentication required")

// RemoteUnavailableError indicates establishing a connection to the media
// server failed. Possibly transient: credentials are deliberately left in
// place so the user can retry.
type RemoteUnavailableError struct {
	URL string
	Err error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("media server %s unreachable: %v", e.URL, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error {
	return e.Err
}

// Resolver turns a validated session into a connection handle.
type Resolver struct {
	timeout time.Duration
}

// NewResolver creates a resolver whose connections use the given timeout.
func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{timeout: timeout}
}

// Resolve returns a live connection for the session.
//
// Missing credential or server URL fails with ErrAuthRequired before any
// network I/O. A handle already cached in the session's transient slot is
// returned without reconnecting. Otherwise a new connection is established
// and verified; failure yields a RemoteUnavailableError and leaves the
// session's fields untouched.
func (r *Resolver) Resolve(ctx context.Context, sess *session.Session) (*plex.Server, error) {
	if !sess.SignedIn() {
		return nil, ErrAuthRequired
	}

	if srv := sess.Server(); srv != nil {
		return srv, nil
	}

	srv := plex.NewServer(sess.ServerURL, sess.Token, plex.ServerOptions{Timeout: r.timeout})

	logging.Ctx(ctx).Debug().Str("server", sess.ServerName).Str("url", sess.ServerURL).Msg("connecting to media server")
	if err := srv.Connect(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("url", sess.ServerURL).Msg("media server connection failed")
		return nil, &RemoteUnavailableError{URL: sess.ServerURL, Err: err}
	}

	sess.SetServer(srv)
	return srv, nil
}
