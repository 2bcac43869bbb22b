package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// StudyDirection is the quiz orientation for a study session.
type StudyDirection string

// Possible study directions.
const (
	DirectionChineseToEnglish StudyDirection = "chinese_to_english"
	DirectionEnglishToChinese StudyDirection = "english_to_chinese"
)

// IsValid reports whether the direction is one of the known values.
func (d StudyDirection) IsValid() bool {
	switch d {
	case DirectionChineseToEnglish, DirectionEnglishToChinese:
		return true
	default:
		return false
	}
}

// Common validation errors for StudySession
var (
	ErrEmptySessionID     = errors.New("study session ID cannot be empty")
	ErrEmptySessionUserID = errors.New("study session user ID cannot be empty")
	ErrEmptySessionDeckID = errors.New("study session deck ID cannot be empty")
	ErrNegativeCounters   = errors.New("session counters cannot be negative")
	ErrNegativeDuration   = errors.New("session duration cannot be negative")
)

// StudySession identifies one sitting of a user studying a deck in a fixed
// direction. Counters accumulate as answers are recorded; the session is
// finalized exactly once with a duration and never reopened.
type StudySession struct {
	ID                     uuid.UUID      `json:"id"`
	UserID                 uuid.UUID      `json:"user_id"`
	DeckID                 uuid.UUID      `json:"deck_id"`
	Direction              StudyDirection `json:"direction"`
	CardsStudied           int            `json:"cards_studied"`
	CorrectAnswers         int            `json:"correct_answers"`
	SessionDurationMinutes int            `json:"session_duration"`
	EndedAt                time.Time      `json:"ended_at"`
	CreatedAt              time.Time      `json:"created_at"`
}

// NewStudySession creates a new active session with zeroed counters.
// Returns an error if validation fails.
func NewStudySession(userID, deckID uuid.UUID, direction StudyDirection) (*StudySession, error) {
	session := &StudySession{
		ID:        uuid.New(),
		UserID:    userID,
		DeckID:    deckID,
		Direction: direction,
		CreatedAt: time.Now().UTC(),
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the StudySession has valid data.
// Returns an error if any field fails validation.
func (s *StudySession) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptySessionID
	}

	if s.UserID == uuid.Nil {
		return ErrEmptySessionUserID
	}

	if s.DeckID == uuid.Nil {
		return ErrEmptySessionDeckID
	}

	if !s.Direction.IsValid() {
		return ErrInvalidDirection
	}

	if s.CardsStudied < 0 || s.CorrectAnswers < 0 {
		return ErrNegativeCounters
	}

	if s.SessionDurationMinutes < 0 {
		return ErrNegativeDuration
	}

	return nil
}

// IsEnded reports whether the session has been finalized.
func (s *StudySession) IsEnded() bool {
	return !s.EndedAt.IsZero()
}

// WithAnswer returns a copy of the session with the answer counters advanced.
// CardsStudied always increments; CorrectAnswers increments only when the
// answer was correct.
func (s *StudySession) WithAnswer(correct bool) *StudySession {
	next := *s
	next.CardsStudied++
	if correct {
		next.CorrectAnswers++
	}
	return &next
}

// WithEnd returns a finalized copy of the session carrying the total duration.
// Returns ErrSessionAlreadyEnded if the session was already finalized; a
// session never transitions out of the ended state.
func (s *StudySession) WithEnd(durationMinutes int, now time.Time) (*StudySession, error) {
	if s.IsEnded() {
		return nil, ErrSessionAlreadyEnded
	}

	if durationMinutes < 0 {
		return nil, ErrNegativeDuration
	}

	next := *s
	next.SessionDurationMinutes = durationMinutes
	next.EndedAt = now
	return &next, nil
}
