// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

package session

import (
	"reflect"
	"strings"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret-at-least-16-chars")

	tests := []struct {
		name   string
		claims map[string]string
	}{
		{"empty", map[string]string{}},
		{"token only", map[string]string{"plex_token": "abc123"}},
		{"full session", map[string]string{
			"plex_token":  "abc123",
			"server_url":  "https://10-0-0-5.abcdef.plex.direct:32400",
			"server_name": "Home Theater",
			"pin_id":      "991234",
			"pin_code":    "ABCD",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := codec.Encode(tt.claims)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			got := codec.Decode(token)
			if !reflect.DeepEqual(got, tt.claims) {
				t.Errorf("Decode(Encode(m)) = %v, want %v", got, tt.claims)
			}
		})
	}
}

func TestCodecDecodeRejectsInvalidTokens(t *testing.T) {
	codec := NewCodec("test-secret-at-least-16-chars")

	valid, err := codec.Encode(map[string]string{"plex_token": "abc"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	flipped := byte('A')
	if valid[len(valid)-1] == 'A' {
		flipped = 'B'
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage", "not-a-token"},
		{"truncated", valid[:len(valid)/2]},
		{"tampered signature", valid[:len(valid)-1] + string(flipped)},
		{"none algorithm", "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJwbGV4X3Rva2VuIjoiZm9yZ2VkIn0."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := codec.Decode(tt.token)
			if len(got) != 0 {
				t.Errorf("Decode(%q) = %v, want empty map", tt.token, got)
			}
		})
	}
}

func TestCodecDecodeRejectsWrongSecret(t *testing.T) {
	token, err := NewCodec("secret-one-at-least-16-chars").Encode(map[string]string{"plex_token": "abc"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got := NewCodec("secret-two-at-least-16-chars").Decode(token)
	if len(got) != 0 {
		t.Errorf("Decode with wrong secret = %v, want empty map", got)
	}
}

func TestCodecTamperedPayload(t *testing.T) {
	codec := NewCodec("test-secret-at-least-16-chars")

	token, err := codec.Encode(map[string]string{"plex_token": "abc"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Swap the payload segment while keeping header and signature.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("Expected 3 token segments, got %d", len(parts))
	}
	forged, err := codec.Encode(map[string]string{"plex_token": "forged"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	forgedParts := strings.Split(forged, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	if got := codec.Decode(tampered); len(got) != 0 {
		t.Errorf("Decode of spliced token = %v, want empty map", got)
	}
}
