// Package study implements the session flow for studying a deck: starting a
// session, serving card batches and quiz questions, recording interactions,
// and finalizing with deck-level study time accounting.
package study

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
	"github.com/hanzistudy/hanzi-api/internal/domain/scheduler"
)

// AnswerResult is the outcome of grading one submitted quiz answer.
type AnswerResult struct {
	// Correct reports whether the submitted answer matched.
	Correct bool `json:"correct"`

	// CorrectAnswer is the expected answer, regenerated from the card.
	CorrectAnswer string `json:"correct_answer"`

	// Explanation is feedback for an incorrect answer; empty when correct.
	Explanation string `json:"explanation,omitempty"`

	// Progress is the card progress after applying the answer.
	Progress *domain.CardProgress `json:"progress"`

	// Session is the session after its counters advanced.
	Session *domain.StudySession `json:"session"`
}

// SessionStatistics summarizes one session from its interaction log. The log
// is the source of truth, so the quiz counts and accuracy here are computed
// from interactions rather than the session counters.
type SessionStatistics struct {
	Session               *domain.StudySession `json:"session"`
	TotalInteractions     int                  `json:"total_interactions"`
	FlipCount             int                  `json:"flip_count"`
	QuizCount             int                  `json:"quiz_count"`
	CorrectCount          int                  `json:"correct_count"`
	Accuracy              float64              `json:"accuracy"`
	UniqueCards           int                  `json:"unique_cards"`
	AverageResponseTimeMs float64              `json:"average_response_time_ms"`
}

// DeckStatistics summarizes a user's standing on a whole deck. Cards without
// a progress record count as new.
type DeckStatistics struct {
	DeckID                uuid.UUID      `json:"deck_id"`
	TotalCards            int            `json:"total_cards"`
	MasteryCounts         map[string]int `json:"mastery_counts"`
	AverageDifficulty     float64        `json:"average_difficulty"`
	Accuracy              float64        `json:"accuracy"`
	DueCount              int            `json:"due_count"`
	TotalStudyTimeSeconds int64          `json:"total_study_time_seconds"`
}

// StudyService coordinates study sessions over a deck. All operations verify
// that the caller owns the entities they touch; progress mutations run inside
// a single transaction together with their interaction log entry.
type StudyService interface {
	// StartSession creates a new active session for the user on the deck.
	// Returns ErrDeckNotFound or ErrDeckNotOwned if the deck is unavailable,
	// and ErrInvalidDirection for an unknown direction.
	StartSession(
		ctx context.Context,
		userID, deckID uuid.UUID,
		direction domain.StudyDirection,
	) (*domain.StudySession, error)

	// NextBatch selects the next cards to study in the session, ordered by
	// the scheduler's priority. An empty deck yields an empty batch.
	// Returns ErrSessionEnded if the session was already finalized.
	NextBatch(ctx context.Context, userID, sessionID uuid.UUID) ([]*domain.Card, error)

	// RecordFlip records a passive card flip and returns the updated
	// progress. Flips never change difficulty, mastery, or scheduling.
	// Returns ErrCardNotInDeck if the card belongs to another deck.
	RecordFlip(
		ctx context.Context,
		userID, sessionID, cardID uuid.UUID,
		responseTimeMs int,
	) (*domain.CardProgress, error)

	// AskQuestion builds a multiple-choice question for the card in the
	// session's direction, using the deck's other cards as distractors.
	AskQuestion(
		ctx context.Context,
		userID, sessionID, cardID uuid.UUID,
	) (*scheduler.QuizQuestion, error)

	// SubmitAnswer grades the submitted answer, applies the result to the
	// card's progress, logs the interaction, and advances the session
	// counters, all within one transaction.
	SubmitAnswer(
		ctx context.Context,
		userID, sessionID, cardID uuid.UUID,
		answer string,
		responseTimeMs int,
	) (*AnswerResult, error)

	// EndSession finalizes the session with its total duration and adds the
	// time to the deck's cumulative study time. A session can be ended only
	// once; ErrSessionEnded is returned afterwards.
	EndSession(
		ctx context.Context,
		userID, sessionID uuid.UUID,
		durationMinutes int,
	) (*domain.StudySession, error)

	// ListSessions returns the user's past sessions for a deck, most recent
	// first, with limit/offset pagination.
	ListSessions(
		ctx context.Context,
		userID, deckID uuid.UUID,
		limit, offset int,
	) ([]*domain.StudySession, error)

	// SessionStatistics summarizes a session and its interaction log.
	SessionStatistics(
		ctx context.Context,
		userID, sessionID uuid.UUID,
	) (*SessionStatistics, error)

	// DeckStatistics summarizes the user's mastery across a whole deck.
	DeckStatistics(ctx context.Context, userID, deckID uuid.UUID) (*DeckStatistics, error)
}

// Common error types for StudyService
var (
	// ErrDeckNotFound indicates that the deck does not exist.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrDeckNotOwned indicates that the user does not own the deck.
	ErrDeckNotOwned = errors.New("unauthorized access: deck not owned by user")

	// ErrSessionNotFound indicates that the study session does not exist.
	ErrSessionNotFound = errors.New("study session not found")

	// ErrSessionNotOwned indicates that the user does not own the session.
	ErrSessionNotOwned = errors.New("unauthorized access: session not owned by user")

	// ErrSessionEnded indicates the session was already finalized.
	ErrSessionEnded = errors.New("study session already ended")

	// ErrCardNotFound indicates that the card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrCardNotInDeck indicates the card belongs to a different deck than
	// the session is studying.
	ErrCardNotInDeck = errors.New("card does not belong to the session's deck")

	// ErrInvalidDirection indicates an unknown study direction was provided.
	ErrInvalidDirection = errors.New("invalid study direction")

	// ErrInvalidDuration indicates a negative session duration was provided.
	ErrInvalidDuration = errors.New("invalid session duration")
)

// ServiceError wraps errors from the study service with additional context.
// This allows consumers to differentiate between different types of service
// errors using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "start_session")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError for the given operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
