// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package controller

import (
	"math"
	"strconv"
	"strings"
)

// parseLeadingInt parses the integer prefix of s the way browsers parse
// integers out of free text: leading whitespace and an optional sign are
// accepted, parsing stops at the first non-digit. ok is false when no digit
// was found.
func parseLeadingInt(s string) (n float64, ok bool) {
	s = strings.TrimLeft(s, " \t\r\n\f\v")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return math.NaN(), false
	}
	if neg {
		v = -v
	}
	return v, true
}

// parseOffset interprets a raw stored offset. marker is its integer part,
// compared against the media duration; target is the full-precision seek
// target. ok is false for values that carry no position at all.
func parseOffset(raw string) (target, marker float64, ok bool) {
	marker, ok = parseLeadingInt(raw)
	if !ok {
		return 0, 0, false
	}
	target, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsInf(target, 0) || math.IsNaN(target) {
		target = marker
	}
	return target, marker, true
}
