package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/domain"
	"github.com/hanzistudy/hanzi-api/internal/platform/logger"
	"github.com/hanzistudy/hanzi-api/internal/store"
)

// PostgresCardInteractionStore implements the store.CardInteractionStore
// interface using a PostgreSQL database as the storage backend. The
// interactions table is append-only.
type PostgresCardInteractionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardInteractionStore creates a new PostgreSQL implementation of
// the CardInteractionStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardInteractionStore(
	db store.DBTX,
	logger *slog.Logger,
) *PostgresCardInteractionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardInteractionStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_interaction_store")),
	}
}

// Ensure PostgresCardInteractionStore implements store.CardInteractionStore interface
var _ store.CardInteractionStore = (*PostgresCardInteractionStore)(nil)

// Create implements store.CardInteractionStore.Create
// It appends a new interaction to the log, handling domain validation.
// Returns store.ErrInvalidEntity if the session or card doesn't exist (foreign key violation).
func (s *PostgresCardInteractionStore) Create(
	ctx context.Context,
	interaction *domain.CardInteraction,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := interaction.Validate(); err != nil {
		log.Warn("interaction validation failed during create",
			slog.String("error", err.Error()),
			slog.String("interaction_id", interaction.ID.String()))
		return err
	}

	query := `
		INSERT INTO card_interactions
			(id, session_id, user_id, card_id, interaction_type, direction,
			 response_time_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		interaction.ID,
		interaction.SessionID,
		interaction.UserID,
		interaction.CardID,
		string(interaction.Type),
		string(interaction.Direction),
		interaction.ResponseTimeMs,
		interaction.CreatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during interaction creation",
				slog.String("error", err.Error()),
				slog.String("interaction_id", interaction.ID.String()),
				slog.String("session_id", interaction.SessionID.String()),
				slog.String("card_id", interaction.CardID.String()))
			return fmt.Errorf("%w: session %s or card %s not found",
				store.ErrInvalidEntity, interaction.SessionID, interaction.CardID)
		}

		log.Error("failed to create card interaction",
			slog.String("error", err.Error()),
			slog.String("interaction_id", interaction.ID.String()))
		return err
	}

	log.Debug("card interaction recorded",
		slog.String("interaction_id", interaction.ID.String()),
		slog.String("session_id", interaction.SessionID.String()),
		slog.String("type", string(interaction.Type)))
	return nil
}

// ListBySession implements store.CardInteractionStore.ListBySession
// It retrieves all interactions for a session in chronological order.
// Returns an empty slice if the session has none.
func (s *PostgresCardInteractionStore) ListBySession(
	ctx context.Context,
	sessionID uuid.UUID,
) ([]*domain.CardInteraction, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, session_id, user_id, card_id, interaction_type, direction,
		       response_time_ms, created_at
		FROM card_interactions
		WHERE session_id = $1
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		log.Error("failed to query interactions by session",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var interactions []*domain.CardInteraction
	for rows.Next() {
		var interaction domain.CardInteraction
		var interactionType, direction string

		err := rows.Scan(
			&interaction.ID,
			&interaction.SessionID,
			&interaction.UserID,
			&interaction.CardID,
			&interactionType,
			&direction,
			&interaction.ResponseTimeMs,
			&interaction.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan interaction row",
				slog.String("error", err.Error()))
			return nil, err
		}

		interaction.Type = domain.InteractionType(interactionType)
		interaction.Direction = domain.StudyDirection(direction)
		interactions = append(interactions, &interaction)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if interactions == nil {
		interactions = []*domain.CardInteraction{}
	}

	log.Debug("found interactions by session",
		slog.String("session_id", sessionID.String()),
		slog.Int("count", len(interactions)))
	return interactions, nil
}

// WithTx implements store.CardInteractionStore.WithTx
// It returns a new CardInteractionStore instance that uses the provided transaction.
func (s *PostgresCardInteractionStore) WithTx(tx *sql.Tx) store.CardInteractionStore {
	return &PostgresCardInteractionStore{
		db:     tx,
		logger: s.logger,
	}
}
