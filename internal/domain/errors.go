package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidDirection is returned when a study direction is not valid.
	ErrInvalidDirection = errors.New("invalid study direction")

	// ErrInvalidInteractionType is returned when an interaction type is not valid.
	ErrInvalidInteractionType = errors.New("invalid interaction type")

	// ErrSessionAlreadyEnded is returned when an operation requires an active
	// session but the session has already been finalized.
	ErrSessionAlreadyEnded = errors.New("study session already ended")
)
