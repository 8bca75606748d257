// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestStoreAttributes(t *testing.T) {
	m := attrMap(StoreAttributes("save", "http://store", "alice", "v1"))
	assert.Equal(t, "save", m[StoreOpKey].AsString())
	assert.True(t, m[UserPresentKey].AsBool())
	assert.Equal(t, "v1", m[VideoIDKey].AsString())
	assert.Equal(t, "http://store", m[StoreEndpointKey].AsString())

	for _, v := range m {
		assert.NotEqual(t, "alice", v.Emit(), "user id must not leak into span attributes")
	}
}

func TestStoreAttributes_OmitsEmpty(t *testing.T) {
	m := attrMap(StoreAttributes("fetch", "", "", ""))
	assert.Len(t, m, 2)
	assert.False(t, m[UserPresentKey].AsBool())
}

func TestErrorAttributes(t *testing.T) {
	m := attrMap(ErrorAttributes("timeout"))
	assert.True(t, m[ErrorKey].AsBool())
	assert.Equal(t, "timeout", m[ErrorTypeKey].AsString())
	assert.Equal(t, 12.5, PositionAttribute(12.5).Value.AsFloat64())
}
