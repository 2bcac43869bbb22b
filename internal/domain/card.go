package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardHanziEmpty is returned when a card's hanzi field is empty.
	ErrCardHanziEmpty = errors.New("card hanzi cannot be empty")

	// ErrCardEnglishEmpty is returned when a card's english field is empty.
	ErrCardEnglishEmpty = errors.New("card english cannot be empty")
)

// Card represents a single vocabulary flashcard in a deck.
// The front of the card is the hanzi/pinyin pair, the back is the English
// meaning; which side is the prompt depends on the study direction.
type Card struct {
	ID        uuid.UUID `json:"id"`
	DeckID    uuid.UUID `json:"deck_id"`
	Hanzi     string    `json:"hanzi"`
	Pinyin    string    `json:"pinyin"`
	English   string    `json:"english"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCard creates a new Card in the given deck.
// It generates a new UUID for the card ID and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewCard(deckID uuid.UUID, hanzi, pinyin, english string) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:        uuid.New(),
		DeckID:    deckID,
		Hanzi:     hanzi,
		Pinyin:    pinyin,
		English:   english,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if c.Hanzi == "" {
		return ErrCardHanziEmpty
	}

	if c.English == "" {
		return ErrCardEnglishEmpty
	}

	return nil
}

// Chinese returns the card's Chinese rendering in the canonical
// "hanzi (pinyin)" form used for quiz answers and explanations.
func (c *Card) Chinese() string {
	return fmt.Sprintf("%s (%s)", c.Hanzi, c.Pinyin)
}
