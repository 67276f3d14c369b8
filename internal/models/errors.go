package models

import "errors"

// Error kinds surfaced to callers. Handlers map these onto HTTP status
// codes; everything else wraps them with context via fmt.Errorf and %w.
var (
	// ErrValidation marks a malformed or incomplete request.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a lookup for a player that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientData marks a player with no usable game history.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrModelUnavailable marks a missing, unreachable or corrupt model
	// artifact.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrPipeline marks a failed ingestion, training or publish step.
	ErrPipeline = errors.New("pipeline failure")

	// ErrSchemaMismatch marks a raw row missing required columns. Emitted
	// by the cleaner so bad feeds fail at the boundary instead of
	// propagating empty keys downstream.
	ErrSchemaMismatch = errors.New("schema mismatch")
)
