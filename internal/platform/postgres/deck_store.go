package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
	"github.com/hanzistudy/hanzi-api/internal/platform/logger"
	"github.com/hanzistudy/hanzi-api/internal/store"
)

// PostgresDeckStore implements the store.DeckStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDeckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDeckStore creates a new PostgreSQL implementation of the DeckStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDeckStore(db store.DBTX, logger *slog.Logger) *PostgresDeckStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDeckStore{
		db:     db,
		logger: logger.With(slog.String("component", "deck_store")),
	}
}

// Ensure PostgresDeckStore implements store.DeckStore interface
var _ store.DeckStore = (*PostgresDeckStore)(nil)

// Create implements store.DeckStore.Create
// It saves a new deck to the database, handling domain validation.
// Returns store.ErrDeckNameExists if the user already has a deck with the same name.
func (s *PostgresDeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		log.Warn("deck validation failed during create",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return err
	}

	query := `
		INSERT INTO decks (id, user_id, name, description, total_study_time_seconds, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		deck.ID,
		deck.UserID,
		deck.Name,
		deck.Description,
		deck.TotalStudyTimeSeconds,
		deck.CreatedAt,
		deck.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate deck name",
				slog.String("deck_id", deck.ID.String()),
				slog.String("user_id", deck.UserID.String()))
			return fmt.Errorf("%w: %q", store.ErrDeckNameExists, deck.Name)
		}

		log.Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()),
			slog.String("user_id", deck.UserID.String()))
		return err
	}

	log.Info("deck created successfully",
		slog.String("deck_id", deck.ID.String()),
		slog.String("user_id", deck.UserID.String()))
	return nil
}

// GetByID implements store.DeckStore.GetByID
// It retrieves a deck by its unique ID.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, description, total_study_time_seconds, created_at, updated_at
		FROM decks
		WHERE id = $1
	`

	var deck domain.Deck

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&deck.ID,
		&deck.UserID,
		&deck.Name,
		&deck.Description,
		&deck.TotalStudyTimeSeconds,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("deck not found", slog.String("deck_id", id.String()))
			return nil, store.ErrDeckNotFound
		}
		log.Error("failed to get deck by ID",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return nil, err
	}

	return &deck, nil
}

// ListByUser implements store.DeckStore.ListByUser
// It retrieves all decks owned by a user, ordered by creation time.
// Returns an empty slice if the user has no decks.
func (s *PostgresDeckStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, description, total_study_time_seconds, created_at, updated_at
		FROM decks
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query decks by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var decks []*domain.Deck
	for rows.Next() {
		var deck domain.Deck
		err := rows.Scan(
			&deck.ID,
			&deck.UserID,
			&deck.Name,
			&deck.Description,
			&deck.TotalStudyTimeSeconds,
			&deck.CreatedAt,
			&deck.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan deck row",
				slog.String("error", err.Error()))
			return nil, err
		}
		decks = append(decks, &deck)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if decks == nil {
		decks = []*domain.Deck{}
	}

	log.Debug("found decks by user",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(decks)))
	return decks, nil
}

// AddStudyTime implements store.DeckStore.AddStudyTime
// It atomically adds seconds to the deck's cumulative study time.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) AddStudyTime(ctx context.Context, id uuid.UUID, seconds int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE decks
		SET total_study_time_seconds = total_study_time_seconds + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := s.db.ExecContext(ctx, query, seconds, id)
	if err != nil {
		log.Error("failed to add deck study time",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()),
			slog.Int64("seconds", seconds))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("deck not found for study time update",
			slog.String("deck_id", id.String()))
		return store.ErrDeckNotFound
	}

	log.Debug("deck study time updated",
		slog.String("deck_id", id.String()),
		slog.Int64("seconds", seconds))
	return nil
}

// Delete implements store.DeckStore.Delete
// It removes a deck and, via ON DELETE CASCADE, its cards, progress, and sessions.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM decks WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("deck not found for delete", slog.String("deck_id", id.String()))
		return store.ErrDeckNotFound
	}

	log.Info("deck deleted successfully", slog.String("deck_id", id.String()))
	return nil
}

// WithTx implements store.DeckStore.WithTx
// It returns a new DeckStore instance that uses the provided transaction.
func (s *PostgresDeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &PostgresDeckStore{
		db:     tx,
		logger: s.logger,
	}
}
