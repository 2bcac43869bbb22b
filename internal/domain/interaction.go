package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// InteractionType identifies what the user did with a card.
type InteractionType string

// Possible interaction types.
const (
	// InteractionFlip is a passive exposure: the user turned the card over.
	InteractionFlip InteractionType = "flip"

	// InteractionQuizCorrect records a correctly answered quiz question.
	InteractionQuizCorrect InteractionType = "quiz_correct"

	// InteractionQuizIncorrect records an incorrectly answered quiz question.
	InteractionQuizIncorrect InteractionType = "quiz_incorrect"
)

// IsValid reports whether the interaction type is one of the known values.
func (t InteractionType) IsValid() bool {
	switch t {
	case InteractionFlip, InteractionQuizCorrect, InteractionQuizIncorrect:
		return true
	default:
		return false
	}
}

// IsQuiz reports whether the interaction is a quiz answer rather than a flip.
func (t InteractionType) IsQuiz() bool {
	return t == InteractionQuizCorrect || t == InteractionQuizIncorrect
}

// Common validation errors for CardInteraction
var (
	ErrEmptyInteractionID        = errors.New("interaction ID cannot be empty")
	ErrEmptyInteractionSessionID = errors.New("interaction session ID cannot be empty")
	ErrEmptyInteractionUserID    = errors.New("interaction user ID cannot be empty")
	ErrEmptyInteractionCardID    = errors.New("interaction card ID cannot be empty")
	ErrNegativeResponseTime      = errors.New("response time cannot be negative")
)

// CardInteraction is an immutable, append-only event recording one study
// interaction. It is the source of truth for progress updates: progress can
// be replayed from the interaction log.
type CardInteraction struct {
	ID             uuid.UUID       `json:"id"`
	SessionID      uuid.UUID       `json:"session_id"`
	UserID         uuid.UUID       `json:"user_id"`
	CardID         uuid.UUID       `json:"card_id"`
	Type           InteractionType `json:"interaction_type"`
	Direction      StudyDirection  `json:"direction,omitempty"`
	ResponseTimeMs int             `json:"response_time_ms,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewCardInteraction creates a new interaction event stamped with the given time.
// Returns an error if validation fails.
func NewCardInteraction(
	sessionID, userID, cardID uuid.UUID,
	interactionType InteractionType,
	direction StudyDirection,
	responseTimeMs int,
	now time.Time,
) (*CardInteraction, error) {
	interaction := &CardInteraction{
		ID:             uuid.New(),
		SessionID:      sessionID,
		UserID:         userID,
		CardID:         cardID,
		Type:           interactionType,
		Direction:      direction,
		ResponseTimeMs: responseTimeMs,
		CreatedAt:      now,
	}

	if err := interaction.Validate(); err != nil {
		return nil, err
	}

	return interaction, nil
}

// Validate checks if the CardInteraction has valid data.
// Returns an error if any field fails validation.
func (i *CardInteraction) Validate() error {
	if i.ID == uuid.Nil {
		return ErrEmptyInteractionID
	}

	if i.SessionID == uuid.Nil {
		return ErrEmptyInteractionSessionID
	}

	if i.UserID == uuid.Nil {
		return ErrEmptyInteractionUserID
	}

	if i.CardID == uuid.Nil {
		return ErrEmptyInteractionCardID
	}

	if !i.Type.IsValid() {
		return ErrInvalidInteractionType
	}

	if i.Direction != "" && !i.Direction.IsValid() {
		return ErrInvalidDirection
	}

	if i.ResponseTimeMs < 0 {
		return ErrNegativeResponseTime
	}

	return nil
}
