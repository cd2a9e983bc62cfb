// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

package web

import (
	"errors"
	"net/http"

	"github.com/movienight-dev/movienight/internal/auth"
)

// errorData feeds the error fragment and page.
type errorData struct {
	Message   string
	LoginLink bool
}

// isHTMX reports whether the request came from an htmx swap.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends the browser to a new location: HX-Redirect for htmx
// requests (a 302 would get swapped into the fragment target), a real 302
// otherwise.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, location string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", location)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, location, http.StatusFound)
}

// resolveError maps connection-resolution failures. Missing credentials go
// back to sign-in; an unreachable server keeps the session and offers a
// retry.
func (h *Handler) resolveError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, auth.ErrAuthRequired) {
		h.redirect(w, r, "/")
		return
	}

	var unavailable *auth.RemoteUnavailableError
	if errors.As(err, &unavailable) {
		if !isHTMX(r) {
			w.WriteHeader(http.StatusBadGateway)
		}
		render(w, r, "retry", nil)
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	render(w, r, "error", errorData{Message: "Something went wrong."})
}

// errorPage renders a full error page.
func (h *Handler) errorPage(w http.ResponseWriter, r *http.Request, status int, message string, loginLink bool) {
	w.WriteHeader(status)
	render(w, r, "errorpage", errorData{Message: message, LoginLink: loginLink})
}
