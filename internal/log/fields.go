// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldUserID        = "user_id"
	FieldVideoID       = "video_id"
	FieldCycleID       = "cycle_id"
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldTrigger   = "trigger"
	FieldOp        = "op"

	// Playback fields
	FieldPosition = "position"
	FieldDuration = "duration"
	FieldTarget   = "target"
	FieldOutcome  = "outcome"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Network fields
	FieldBaseURL = "base_url"
	FieldStatus  = "status"
	FieldBackend = "backend"
	FieldPath    = "path"
)
