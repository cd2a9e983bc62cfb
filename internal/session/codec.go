// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Codec signs and verifies the session cookie payload.
//
// The token is an HS256-signed JWT whose claims are exactly the persisted
// session fields. It carries no embedded expiry; freshness is enforced by the
// cookie's Max-Age attribute alone. The signature makes the cookie
// tamper-evident, not confidential: field values are readable by the client
// but cannot be forged without the server secret.
type Codec struct {
	secret []byte
}

// NewCodec creates a codec signing with the given secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode serializes the claim map into a signed token.
func (c *Codec) Encode(claims map[string]string) (string, error) {
	mapClaims := jwt.MapClaims{}
	for k, v := range claims {
		mapClaims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Decode verifies the token and returns its claims. An absent, malformed, or
// tampered token yields an empty map, never an error: a bad cookie degrades
// to "no session".
func (c *Codec) Decode(token string) map[string]string {
	claims := map[string]string{}
	if token == "" {
		return claims
	}

	parsed, err := jwt.Parse(token,
		func(t *jwt.Token) (interface{}, error) {
			// Pin the algorithm to prevent signing-method confusion.
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil || !parsed.Valid {
		return claims
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return claims
	}

	for k, v := range mapClaims {
		if s, ok := v.(string); ok {
			claims[k] = s
		}
	}
	return claims
}
