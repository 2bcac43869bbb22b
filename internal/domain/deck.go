package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Deck-specific validation errors
var (
	// ErrDeckIDEmpty is returned when a deck ID is empty or nil.
	ErrDeckIDEmpty = errors.New("deck ID cannot be empty")

	// ErrDeckUserIDEmpty is returned when a deck's user ID is empty or nil.
	ErrDeckUserIDEmpty = errors.New("deck user ID cannot be empty")

	// ErrDeckNameEmpty is returned when a deck's name is empty.
	ErrDeckNameEmpty = errors.New("deck name cannot be empty")
)

// Deck is a named collection of cards owned by a user.
// TotalStudyTimeSeconds is an aggregate maintained by the study service:
// every finalized study session adds its duration here.
type Deck struct {
	ID                    uuid.UUID `json:"id"`
	UserID                uuid.UUID `json:"user_id"`
	Name                  string    `json:"name"`
	Description           string    `json:"description,omitempty"`
	TotalStudyTimeSeconds int64     `json:"total_study_time_seconds"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// NewDeck creates a new Deck owned by the given user.
// Returns an error if validation fails.
func NewDeck(userID uuid.UUID, name, description string) (*Deck, error) {
	now := time.Now().UTC()
	deck := &Deck{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
// Returns an error if any field fails validation.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if d.UserID == uuid.Nil {
		return ErrDeckUserIDEmpty
	}

	if d.Name == "" {
		return ErrDeckNameEmpty
	}

	return nil
}
