package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
)

// CardInteractionStore defines the interface for the append-only card
// interaction log. Interactions are never updated or deleted; the log is the
// ground truth the progress counters can be replayed from.
type CardInteractionStore interface {
	// Create appends a new interaction to the log.
	// It handles domain validation internally.
	// Returns ErrInvalidEntity if the referenced session or card does not exist.
	Create(ctx context.Context, interaction *domain.CardInteraction) error

	// ListBySession retrieves all interactions recorded for a session in
	// chronological order. Returns an empty slice if the session has none.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.CardInteraction, error)

	// WithTx returns a new CardInteractionStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) CardInteractionStore
}
