// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

package session

import (
	"net/http"
	"time"

	"github.com/movienight-dev/movienight/internal/logging"
	"github.com/movienight-dev/movienight/internal/metrics"
)

// Middleware loads the session cookie before each request and re-issues it
// after, regardless of how the handler finishes.
type Middleware struct {
	codec      *Codec
	cookieName string
	maxAge     time.Duration
	secure     bool
}

// MiddlewareConfig configures the session middleware.
type MiddlewareConfig struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// NewMiddleware creates the session middleware.
func NewMiddleware(codec *Codec, cfg MiddlewareConfig) *Middleware {
	if cfg.CookieName == "" {
		cfg.CookieName = "mn_session"
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 7 * 24 * time.Hour
	}
	return &Middleware{
		codec:      codec,
		cookieName: cfg.CookieName,
		maxAge:     cfg.MaxAge,
		secure:     cfg.Secure,
	}
}

// Handler is a chi-compatible middleware. It decodes the incoming cookie
// into a mutable Session on the request context, and persists the
// allow-listed projection back to the cookie. Because Set-Cookie must precede
// the response body, the ResponseWriter is wrapped so the cookie is written
// immediately before the first byte goes out; this also covers error
// responses written by downstream recovery middleware.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := m.cookieValue(r)
		sess := FromClaims(m.codec.Decode(raw))
		if raw != "" && sess.Empty() {
			// Tampered, expired-format, or foreign-secret cookie. The blank
			// session replaces it at persist time.
			metrics.SessionsRejected.Inc()
		}

		sw := &savingWriter{
			ResponseWriter: w,
			persist:        func() { m.writeCookie(w, r, sess) },
		}

		// Deferred so the session persists for handlers that write nothing
		// and for panics that unwind past this layer to an outer recoverer:
		// the Set-Cookie header lands before the recoverer writes its 500.
		defer sw.ensurePersisted()

		next.ServeHTTP(sw, r.WithContext(NewContext(r.Context(), sess)))
	})
}

// cookieValue returns the raw session cookie value, or "".
func (m *Middleware) cookieValue(r *http.Request) string {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// writeCookie encodes the persistable session fields and sets the cookie.
// An emptied session deletes the cookie instead of re-issuing a blank one,
// but a visitor who never had a cookie is left without Set-Cookie entirely.
func (m *Middleware) writeCookie(w http.ResponseWriter, r *http.Request, sess *Session) {
	if sess.Empty() {
		if m.cookieValue(r) != "" {
			http.SetCookie(w, &http.Cookie{
				Name:     m.cookieName,
				Value:    "",
				Path:     "/",
				MaxAge:   -1,
				HttpOnly: true,
				Secure:   m.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		return
	}

	token, err := m.codec.Encode(sess.persistClaims())
	if err != nil {
		// Losing one re-issue is recoverable; the prior cookie stays valid.
		logging.Ctx(r.Context()).Error().Err(err).Msg("session encode failed, cookie not re-issued")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	metrics.SessionsIssued.Inc()
}

// savingWriter defers the Set-Cookie header until the response commits.
type savingWriter struct {
	http.ResponseWriter
	persist   func()
	persisted bool
}

func (sw *savingWriter) WriteHeader(code int) {
	sw.ensurePersisted()
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *savingWriter) Write(b []byte) (int, error) {
	sw.ensurePersisted()
	return sw.ResponseWriter.Write(b)
}

func (sw *savingWriter) ensurePersisted() {
	if !sw.persisted {
		sw.persisted = true
		sw.persist()
	}
}

// Unwrap supports http.ResponseController passthrough.
func (sw *savingWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
