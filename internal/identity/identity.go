// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package identity provides pluggable user and video id resolvers.
// A resolver returning "" means "no identity": the controller then skips
// every remote call.
package identity

import (
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Resolver returns the current identifier, or "" when none is available.
type Resolver func() string

// Normalize trims surrounding whitespace and converts the id to Unicode NFC so
// that the same visible id always addresses the same remote record.
func Normalize(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}

// Static always resolves to id.
func Static(id string) Resolver {
	id = Normalize(id)
	return func() string { return id }
}

// None never resolves an identity.
func None() Resolver {
	return func() string { return "" }
}

// Func adapts an arbitrary lookup, normalizing its result on every call.
func Func(fn func() string) Resolver {
	if fn == nil {
		return None()
	}
	return func() string { return Normalize(fn()) }
}

// Env resolves the value of an environment variable at call time.
func Env(key string) Resolver {
	return func() string { return Normalize(os.Getenv(key)) }
}

// FirstOf returns the first non-empty identity among resolvers.
func FirstOf(resolvers ...Resolver) Resolver {
	return func() string {
		for _, r := range resolvers {
			if r == nil {
				continue
			}
			if id := r(); id != "" {
				return id
			}
		}
		return ""
	}
}
