// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

// Package web is the HTTP surface: routing, handlers, and the HTML views.
// Pages are full documents; interactive pieces (filters, results, PIN
// polling) are fragments swapped in by htmx.
package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/movienight-dev/movienight/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// render executes a named template. A failed render after headers are out is
// only loggable; before that it becomes a 500.
func render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("template render failed")
	}
}
