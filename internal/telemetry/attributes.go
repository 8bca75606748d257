// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by client and server spans.
const (
	StoreOpKey       = "teleport.store.op"
	StoreEndpointKey = "teleport.store.endpoint"
	StoreResultKey   = "teleport.store.result"
	UserPresentKey   = "teleport.user.present"
	VideoIDKey       = "teleport.video_id"
	PositionKey      = "teleport.position"
	BackendKey       = "teleport.backend"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// StoreAttributes describes one position store operation. The user id is
// deliberately reduced to a presence flag.
func StoreAttributes(op, endpoint, userID, videoID string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(StoreOpKey, op),
		attribute.Bool(UserPresentKey, userID != ""),
	}
	if endpoint != "" {
		attrs = append(attrs, attribute.String(StoreEndpointKey, endpoint))
	}
	if videoID != "" {
		attrs = append(attrs, attribute.String(VideoIDKey, videoID))
	}
	return attrs
}

// PositionAttribute records an offset in seconds.
func PositionAttribute(pos float64) attribute.KeyValue {
	return attribute.Float64(PositionKey, pos)
}

// ErrorAttributes marks a span as failed with a classification.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
