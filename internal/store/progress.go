package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
)

// CardProgressStore defines the interface for per-user card progress
// persistence. Progress rows are keyed by (user_id, card_id); a missing row
// means the user has never interacted with the card.
type CardProgressStore interface {
	// Get retrieves the progress record for a user and card pair.
	// Returns ErrProgressNotFound if no record exists yet.
	Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardProgress, error)

	// Upsert inserts the progress record, or replaces the existing row for
	// the same (user_id, card_id) pair. The scheduler always produces the
	// full next state, so a blind upsert is safe here.
	// Returns validation errors if the progress data is invalid.
	Upsert(ctx context.Context, progress *domain.CardProgress) error

	// ListByUserAndDeck retrieves the user's progress records for every card
	// in the given deck. Cards the user has never touched have no record and
	// are simply absent from the result.
	ListByUserAndDeck(ctx context.Context, userID, deckID uuid.UUID) ([]*domain.CardProgress, error)

	// WithTx returns a new CardProgressStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) CardProgressStore
}
