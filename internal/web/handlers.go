// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

package web

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/movienight-dev/movienight/internal/auth"
	"github.com/movienight-dev/movienight/internal/logging"
	"github.com/movienight-dev/movienight/internal/picker"
	"github.com/movienight-dev/movienight/internal/plex"
	"github.com/movienight-dev/movienight/internal/session"
)

// Handler carries the collaborators the HTTP handlers need.
type Handler struct {
	account  *plex.Account
	resolver *auth.Resolver
	picker   *picker.Picker
	filters  *picker.Filters

	// baseURL is the externally visible origin, used to build the plex.tv
	// forward URL. Empty means derive from the request.
	baseURL string
}

// NewHandler creates the handler set.
func NewHandler(account *plex.Account, resolver *auth.Resolver, p *picker.Picker, filters *picker.Filters, baseURL string) *Handler {
	return &Handler{
		account:  account,
		resolver: resolver,
		picker:   p,
		filters:  filters,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Home renders the sign-in page, or sends a signed-in visitor to the picker.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).SignedIn() {
		http.Redirect(w, r, "/generate", http.StatusFound)
		return
	}
	render(w, r, "login", nil)
}

// Generate renders the picker page.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !sess.SignedIn() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	render(w, r, "picker", struct{ ServerName string }{ServerName: sess.ServerName})
}

// Login starts the plex.tv PIN flow and forwards the browser to the
// authorization page.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	pin, err := h.account.RequestPIN(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("PIN request failed")
		h.errorPage(w, r, http.StatusBadGateway, "Could not reach plex.tv to start sign-in. Try again in a moment.", false)
		return
	}

	sess := session.FromContext(r.Context())
	sess.PINID = pin.ID
	sess.PINCode = pin.Code

	forward := h.externalURL(r, "/auth/callback")
	http.Redirect(w, r, h.account.AuthorizationURL(pin, forward), http.StatusFound)
}

// Callback renders the page that polls for PIN approval.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).PINID == 0 {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	render(w, r, "callback", nil)
}

// Poll checks whether the pending PIN has been approved. Unclaimed keeps the
// waiting fragment; claimed stores the token and moves on to server
// selection.
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess.PINID == 0 {
		h.redirect(w, r, "/")
		return
	}

	token, err := h.account.CheckPIN(r.Context(), sess.PINID)
	if err != nil {
		sess.ClearPIN()
		logging.Ctx(r.Context()).Warn().Err(err).Msg("PIN check failed")
		render(w, r, "error", errorData{Message: "The sign-in request expired.", LoginLink: true})
		return
	}
	if token == "" {
		render(w, r, "waiting", nil)
		return
	}

	sess.Token = token
	sess.ClearPIN()
	h.redirect(w, r, "/auth/servers")
}

// serverChoice is one selectable server with its preferred connection.
type serverChoice struct {
	Name string
	URL  string
}

// Servers lists the account's media servers. A single server is selected
// automatically using the preferred connection unless the user asked to pick
// (?pick=1).
func (h *Handler) Servers(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess.Token == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	servers, err := h.account.Servers(r.Context(), sess.Token)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("server list failed")
		h.errorPage(w, r, http.StatusBadGateway, "Could not list your Plex servers. Try again in a moment.", false)
		return
	}
	if len(servers) == 0 {
		h.errorPage(w, r, http.StatusOK, "Your Plex account has no media servers.", true)
		return
	}

	if len(servers) == 1 && r.URL.Query().Get("pick") != "1" {
		h.selectServer(sess, servers[0].Name, plex.BestConnection(servers[0].Connections))
		http.Redirect(w, r, "/generate", http.StatusFound)
		return
	}

	choices := make([]serverChoice, 0, len(servers))
	for _, s := range servers {
		choices = append(choices, serverChoice{
			Name: s.Name,
			URL:  plex.BestConnection(s.Connections),
		})
	}
	render(w, r, "servers", struct{ Servers []serverChoice }{Servers: choices})
}

// SelectServer stores the chosen server in the session.
func (h *Handler) SelectServer(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess.Token == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	serverURL := r.FormValue("server_url")
	if serverURL == "" {
		http.Redirect(w, r, "/auth/servers?pick=1", http.StatusFound)
		return
	}
	h.selectServer(sess, r.FormValue("server_name"), serverURL)
	http.Redirect(w, r, "/generate", http.StatusFound)
}

func (h *Handler) selectServer(sess *session.Session, name, serverURL string) {
	sess.ServerName = name
	sess.ServerURL = serverURL
	sess.DropServer()
}

// Logout clears the session; the middleware expires the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).Clear()
	http.Redirect(w, r, "/", http.StatusFound)
}

// Filters renders the filter form fragment from the library's current
// options.
func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	srv, err := h.resolver.Resolve(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		h.resolveError(w, r, err)
		return
	}

	opts, err := h.filters.Options(r.Context(), srv)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("filter options failed")
		render(w, r, "error", errorData{Message: "Could not load the library's filters."})
		return
	}
	render(w, r, "filters", opts)
}

// PickMovies parses the submitted criteria, runs the selection, and renders
// the result cards.
func (h *Handler) PickMovies(w http.ResponseWriter, r *http.Request) {
	srv, err := h.resolver.Resolve(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		h.resolveError(w, r, err)
		return
	}

	criteria := criteriaFromForm(r)
	movies, err := h.picker.Pick(r.Context(), srv, criteria)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("pick failed")
		render(w, r, "retry", nil)
		return
	}
	render(w, r, "movies", struct{ Movies []picker.Movie }{Movies: movies})
}

// criteriaFromForm maps the filter form to selection criteria. Unparseable
// numeric fields fall back to their zero value; count defaults and is capped
// to keep one request from fetching half the library.
func criteriaFromForm(r *http.Request) picker.Criteria {
	c := picker.Criteria{
		Genre:         r.FormValue("genre"),
		ContentRating: r.FormValue("content_rating"),
		Decade:        r.FormValue("decade"),
		PlaylistKey:   r.FormValue("playlist"),
		Count:         picker.DefaultCount,
	}
	if v := r.FormValue("min_rating"); v != "" {
		if rating, err := strconv.ParseFloat(v, 64); err == nil && rating > 0 {
			c.MinRating = rating
		}
	}
	if v := r.FormValue("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Count = n
		}
	}
	if c.Count > 10 {
		c.Count = 10
	}
	return c
}

// Poster proxies an item's poster image so the browser never sees the Plex
// token. Upstream failures of any kind become a 404.
func (h *Handler) Poster(w http.ResponseWriter, r *http.Request) {
	srv, err := h.resolver.Resolve(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	resp, err := srv.Thumb(r.Context(), chi.URLParam(r, "ratingKey"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		http.NotFound(w, r)
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = io.Copy(w, resp.Body)
}

// Health is the liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// externalURL builds an absolute URL for the given path, preferring the
// configured base URL over the request's host.
func (h *Handler) externalURL(r *http.Request, path string) string {
	if h.baseURL != "" {
		return h.baseURL + path
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + path
}
