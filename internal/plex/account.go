// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

package plex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// plex.tv API endpoints.
const (
	PINEndpoint       = "https://plex.tv/api/v2/pins"
	ResourcesEndpoint = "https://plex.tv/api/v2/resources"
	AuthBaseURL       = "https://app.plex.tv/auth#"
)

// Account errors.
var (
	// ErrPINNotFound indicates the PIN was not found or expired.
	ErrPINNotFound = errors.New("PIN not found or expired")

	// ErrAccountAPIFailed indicates a plex.tv API call failed.
	ErrAccountAPIFailed = errors.New("plex.tv API request failed")
)

// AccountConfig identifies this application to plex.tv.
type AccountConfig struct {
	// ClientID is the X-Plex-Client-Identifier sent on every call.
	ClientID string

	// Product is the application name shown on the authorization page.
	Product string

	// Version is the application version.
	Version string

	// Timeout bounds each request.
	Timeout time.Duration

	// HTTPClient overrides the constructed client (tests).
	HTTPClient *http.Client
}

// Account is a client for the plex.tv account API: device PIN authorization
// and the user's server resources.
type Account struct {
	config AccountConfig
	client *http.Client

	// Endpoints, overridable for testing.
	pinEndpoint       string
	resourcesEndpoint string
}

// NewAccount creates a plex.tv account client.
func NewAccount(cfg AccountConfig) *Account {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Account{
		config:            cfg,
		client:            client,
		pinEndpoint:       PINEndpoint,
		resourcesEndpoint: ResourcesEndpoint,
	}
}

// SetPINEndpoint overrides the PIN endpoint (tests).
func (a *Account) SetPINEndpoint(url string) {
	a.pinEndpoint = url
}

// SetResourcesEndpoint overrides the resources endpoint (tests).
func (a *Account) SetResourcesEndpoint(url string) {
	a.resourcesEndpoint = url
}

// PIN is a device authorization PIN.
type PIN struct {
	ID   int
	Code string
}

// RequestPIN creates a new authorization PIN.
func (a *Account) RequestPIN(ctx context.Context) (*PIN, error) {
	u := a.pinEndpoint + "?strong=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create PIN request: %w", err)
	}
	a.setHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("PIN request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp)
	}

	var pinResp struct {
		ID   int    `json:"id"`
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pinResp); err != nil {
		return nil, fmt.Errorf("decode PIN response: %w", err)
	}

	return &PIN{ID: pinResp.ID, Code: pinResp.Code}, nil
}

// CheckPIN reports whether the PIN has been claimed. The returned token is
// empty while the user has not yet approved the PIN.
func (a *Account) CheckPIN(ctx context.Context, pinID int) (string, error) {
	u := a.pinEndpoint + "/" + strconv.Itoa(pinID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create PIN check request: %w", err)
	}
	a.setHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("PIN check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrPINNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}

	var pinResp struct {
		ID        int     `json:"id"`
		Code      string  `json:"code"`
		AuthToken *string `json:"authToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pinResp); err != nil {
		return "", fmt.Errorf("decode PIN check response: %w", err)
	}

	if pinResp.AuthToken == nil {
		return "", nil
	}
	return *pinResp.AuthToken, nil
}

// AuthorizationURL builds the app.plex.tv URL where the user approves a PIN.
// forwardURL is where Plex sends the browser afterwards.
func (a *Account) AuthorizationURL(pin *PIN, forwardURL string) string {
	params := url.Values{}
	params.Set("clientID", a.config.ClientID)
	params.Set("code", pin.Code)
	params.Set("context[device][product]", a.config.Product)
	if forwardURL != "" {
		params.Set("forwardUrl", forwardURL)
	}
	return AuthBaseURL + "?" + params.Encode()
}

// Resource is one device attached to the account.
type Resource struct {
	Name        string       `json:"name"`
	Provides    string       `json:"provides"` // Comma-separated capability list
	Connections []Connection `json:"connections"`
}

// Connection is one candidate endpoint for reaching a resource.
type Connection struct {
	URI   string `json:"uri"`
	Local bool   `json:"local"`
}

// MediaServer is a server resource with its candidate connection URLs.
type MediaServer struct {
	Name        string
	Connections []Connection
}

// Servers lists the media servers the account can reach, with their
// candidate connections (includeHttps resources).
func (a *Account) Servers(ctx context.Context, token string) ([]MediaServer, error) {
	u := a.resourcesEndpoint + "?includeHttps=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create resources request: %w", err)
	}
	a.setHeaders(req)
	req.Header.Set("X-Plex-Token", token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resources request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var resources []Resource
	if err := json.NewDecoder(resp.Body).Decode(&resources); err != nil {
		return nil, fmt.Errorf("decode resources response: %w", err)
	}

	var servers []MediaServer
	for _, r := range resources {
		if !providesServer(r.Provides) {
			continue
		}
		conns := make([]Connection, 0, len(r.Connections))
		for _, c := range r.Connections {
			if c.URI != "" {
				conns = append(conns, c)
			}
		}
		if len(conns) > 0 {
			servers = append(servers, MediaServer{Name: r.Name, Connections: conns})
		}
	}
	return servers, nil
}

// BestConnection picks the preferred endpoint for a server: a remote
// connection on the standard HTTPS port (reverse proxy, proper certificate),
// then any remote, then local. Policy, not correctness; callers may let the
// user pick explicitly instead.
func BestConnection(conns []Connection) string {
	var remote, local []Connection
	for _, c := range conns {
		if c.Local {
			local = append(local, c)
		} else {
			remote = append(remote, c)
		}
	}
	for _, c := range remote {
		if u, err := url.Parse(c.URI); err == nil {
			if port := u.Port(); port == "" || port == "443" {
				return c.URI
			}
		}
	}
	if len(remote) > 0 {
		return remote[0].URI
	}
	if len(local) > 0 {
		return local[0].URI
	}
	if len(conns) > 0 {
		return conns[0].URI
	}
	return ""
}

// providesServer reports whether a resource's capability list includes
// "server".
func providesServer(provides string) bool {
	for _, p := range strings.Split(provides, ",") {
		if strings.TrimSpace(p) == "server" {
			return true
		}
	}
	return false
}

// setHeaders sets the required X-Plex identification headers.
func (a *Account) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Client-Identifier", a.config.ClientID)
	req.Header.Set("X-Plex-Product", a.config.Product)
	if a.config.Version != "" {
		req.Header.Set("X-Plex-Version", a.config.Version)
	}
}

// apiError reads a short error detail from a non-OK plex.tv response.
func apiError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil || len(body) == 0 {
		return fmt.Errorf("%w: status %d", ErrAccountAPIFailed, resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d: %s", ErrAccountAPIFailed, resp.StatusCode, string(body))
}
