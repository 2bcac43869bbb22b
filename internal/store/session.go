package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
)

// StudySessionStore defines the interface for study session persistence.
type StudySessionStore interface {
	// Create saves a new study session to the store.
	// It handles domain validation internally.
	// Returns ErrInvalidEntity if the referenced deck does not exist.
	Create(ctx context.Context, session *domain.StudySession) error

	// GetByID retrieves a session by its unique ID.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)

	// Update saves changes to an existing session's counters, duration, and
	// ended timestamp. Identity fields (user, deck, direction) never change.
	// Returns ErrSessionNotFound if the session does not exist.
	Update(ctx context.Context, session *domain.StudySession) error

	// ListByUserAndDeck retrieves the user's sessions for a deck, most recent
	// first. Returns an empty slice if no sessions match.
	// Can limit the number of results and paginate through offset.
	ListByUserAndDeck(
		ctx context.Context,
		userID, deckID uuid.UUID,
		limit, offset int,
	) ([]*domain.StudySession, error)

	// WithTx returns a new StudySessionStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) StudySessionStore
}
