// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package controller

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLeadingInt(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"87", 87, true},
		{"  87\n", 87, true},
		{"87.9", 87, true},
		{"12abc", 12, true},
		{"-4", -4, true},
		{"+9", 9, true},
		{"0", 0, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"-", 0, false},
		{".5", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseLeadingInt(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		} else {
			assert.True(t, math.IsNaN(got), "input %q", tt.in)
		}
	}
}

func TestParseOffset(t *testing.T) {
	target, marker, ok := parseOffset("87.5")
	assert.True(t, ok)
	assert.Equal(t, 87.5, target)
	assert.Equal(t, 87.0, marker)

	target, marker, ok = parseOffset("42 seconds")
	assert.True(t, ok)
	assert.Equal(t, 42.0, target)
	assert.Equal(t, 42.0, marker)

	_, _, ok = parseOffset("none")
	assert.False(t, ok)
}
