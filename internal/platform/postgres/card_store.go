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

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// Create implements store.CardStore.Create
// It saves a new card to the database, handling domain validation.
// Returns store.ErrInvalidEntity if the deck ID doesn't exist (foreign key violation).
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	query := `
		INSERT INTO cards (id, deck_id, hanzi, pinyin, english, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.DeckID,
		card.Hanzi,
		card.Pinyin,
		card.English,
		card.CreatedAt,
		card.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during card creation",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()),
				slog.String("deck_id", card.DeckID.String()))
			return fmt.Errorf("%w: deck with ID %s not found",
				store.ErrInvalidEntity, card.DeckID)
		}

		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()),
			slog.String("deck_id", card.DeckID.String()))
		return err
	}

	log.Debug("card created successfully",
		slog.String("card_id", card.ID.String()),
		slog.String("deck_id", card.DeckID.String()))
	return nil
}

// CreateMultiple implements store.CardStore.CreateMultiple
// It saves multiple cards to the database. Run this within a transaction so a
// failing insert rolls back the whole batch.
func (s *PostgresCardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("card validation failed during batch create",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return err
		}
	}

	query := `
		INSERT INTO cards (id, deck_id, hanzi, pinyin, english, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, card := range cards {
		_, err := s.db.ExecContext(
			ctx,
			query,
			card.ID,
			card.DeckID,
			card.Hanzi,
			card.Pinyin,
			card.English,
			card.CreatedAt,
			card.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to create card in batch",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return MapError(err)
		}
	}

	log.Debug("cards created successfully", slog.Int("count", len(cards)))
	return nil
}

// GetByID implements store.CardStore.GetByID
// It retrieves a card by its unique ID.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, deck_id, hanzi, pinyin, english, created_at, updated_at
		FROM cards
		WHERE id = $1
	`

	var card domain.Card

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&card.ID,
		&card.DeckID,
		&card.Hanzi,
		&card.Pinyin,
		&card.English,
		&card.CreatedAt,
		&card.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card by ID",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, err
	}

	return &card, nil
}

// ListByDeck implements store.CardStore.ListByDeck
// It retrieves all cards belonging to a deck, ordered by creation time.
// Returns an empty slice if the deck has no cards.
func (s *PostgresCardStore) ListByDeck(
	ctx context.Context,
	deckID uuid.UUID,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, deck_id, hanzi, pinyin, english, created_at, updated_at
		FROM cards
		WHERE deck_id = $1
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, deckID)
	if err != nil {
		log.Error("failed to query cards by deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var cards []*domain.Card
	for rows.Next() {
		var card domain.Card
		err := rows.Scan(
			&card.ID,
			&card.DeckID,
			&card.Hanzi,
			&card.Pinyin,
			&card.English,
			&card.CreatedAt,
			&card.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan card row",
				slog.String("error", err.Error()))
			return nil, err
		}
		cards = append(cards, &card)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil if no cards found
	if cards == nil {
		cards = []*domain.Card{}
	}

	log.Debug("found cards by deck",
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(cards)))
	return cards, nil
}

// Delete implements store.CardStore.Delete
// It removes a card from the database by its ID. Associated progress and
// interaction rows are removed by ON DELETE CASCADE.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM cards WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("card not found for delete", slog.String("card_id", id.String()))
		return store.ErrCardNotFound
	}

	log.Info("card deleted successfully", slog.String("card_id", id.String()))
	return nil
}

// WithTx implements store.CardStore.WithTx
// It returns a new CardStore instance that uses the provided transaction.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}
