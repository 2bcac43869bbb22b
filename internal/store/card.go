package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
)

// CardStore defines the interface for card data persistence.
type CardStore interface {
	// Create saves a new card to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain Card if data is invalid.
	// Returns ErrInvalidEntity if the referenced deck does not exist.
	Create(ctx context.Context, card *domain.Card) error

	// CreateMultiple saves multiple cards to the store.
	// This method should be run within a transaction so a failed insert does
	// not leave a partially imported deck; use WithTx together with
	// store.RunInTransaction.
	CreateMultiple(ctx context.Context, cards []*domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByDeck retrieves all cards belonging to the given deck, ordered by
	// creation time. Returns an empty slice if the deck has no cards.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// Delete removes a card from the store by its ID.
	// Returns ErrCardNotFound if the card does not exist.
	// Associated progress and interaction rows are removed by the schema's
	// ON DELETE CASCADE constraints.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new CardStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) CardStore
}
