package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
)

// DeckStore defines the interface for deck data persistence.
type DeckStore interface {
	// Create saves a new deck to the store.
	// It handles domain validation internally.
	// Returns ErrDeckNameExists if the user already has a deck with the same name.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID retrieves a deck by its unique ID.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// ListByUser retrieves all decks owned by the given user, ordered by
	// creation time. Returns an empty slice if the user has no decks.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error)

	// AddStudyTime atomically adds the given number of seconds to the deck's
	// cumulative study time.
	// Returns ErrDeckNotFound if the deck does not exist.
	AddStudyTime(ctx context.Context, id uuid.UUID, seconds int64) error

	// Delete removes a deck and, via ON DELETE CASCADE, its cards, progress,
	// and sessions.
	// Returns ErrDeckNotFound if the deck does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new DeckStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) DeckStore
}
