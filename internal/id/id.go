// Package id provides utilities for generating URL-safe identifiers.
//
// Identifiers are generated using UUIDv4 bytes encoded as base32 (RFC 4648)
// with no padding. The resulting strings are lowercase and safe for use in
// record keys and URL paths.
package id

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// New returns a 26-character lowercase identifier.
func New() string {
	u := uuid.New()
	return strings.ToLower(encoding.EncodeToString(u[:]))
}

// Fragment returns the first n characters of a fresh identifier.
// It is used for short, human-scannable key segments. n values outside
// (0, 26] return a full identifier.
func Fragment(n int) string {
	value := New()
	if n <= 0 || n > len(value) {
		return value
	}
	return value[:n]
}

// Slug normalizes a display name into a key-safe segment: spaces removed,
// lowercased. The original casing and interior punctuation of the name are
// otherwise preserved, so distinct names can still collide after
// normalization; callers that need uniqueness must check it themselves.
func Slug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}
