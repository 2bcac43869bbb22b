package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hanzistudy/hanzi-api/internal/api/shared"
	"github.com/hanzistudy/hanzi-api/internal/service/deck"
	"github.com/hanzistudy/hanzi-api/internal/service/study"
	"github.com/hanzistudy/hanzi-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authorization errors
	case errors.Is(err, study.ErrDeckNotOwned),
		errors.Is(err, study.ErrSessionNotOwned),
		errors.Is(err, deck.ErrDeckNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, study.ErrDeckNotFound),
		errors.Is(err, study.ErrSessionNotFound),
		errors.Is(err, study.ErrCardNotFound),
		errors.Is(err, deck.ErrDeckNotFound),
		errors.Is(err, deck.ErrCardNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, study.ErrSessionEnded):
		return http.StatusConflict

	case errors.Is(err, deck.ErrDeckNameTaken),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, study.ErrCardNotInDeck),
		errors.Is(err, study.ErrInvalidDirection),
		errors.Is(err, study.ErrInvalidDuration),
		errors.Is(err, deck.ErrNoCards),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, study.ErrDeckNotOwned),
		errors.Is(err, deck.ErrDeckNotOwned):
		return "You do not own this deck"

	case errors.Is(err, study.ErrSessionNotOwned):
		return "You do not own this session"

	case errors.Is(err, study.ErrDeckNotFound),
		errors.Is(err, deck.ErrDeckNotFound):
		return "Deck not found"

	case errors.Is(err, study.ErrSessionNotFound):
		return "Study session not found"

	case errors.Is(err, study.ErrCardNotFound),
		errors.Is(err, deck.ErrCardNotFound):
		return "Card not found"

	case errors.Is(err, study.ErrSessionEnded):
		return "Study session has already ended"

	case errors.Is(err, study.ErrCardNotInDeck):
		return "Card does not belong to this deck"

	case errors.Is(err, study.ErrInvalidDirection):
		return "Invalid study direction"

	case errors.Is(err, study.ErrInvalidDuration):
		return "Invalid session duration"

	case errors.Is(err, deck.ErrDeckNameTaken):
		return "You already have a deck with this name"

	case errors.Is(err, deck.ErrNoCards):
		return "At least one card is required"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleServiceError writes the standard sanitized error response for an
// error bubbling out of a service call.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// validator message format:
	// "Key: 'Req.Field' Error:Field validation for 'Field' failed on the 'tag' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gte":
		return "value too small"
	case "lte":
		return "value too large"
	default:
		return "validation failed"
	}
}
