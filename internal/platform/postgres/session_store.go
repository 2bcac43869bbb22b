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

// PostgresStudySessionStore implements the store.StudySessionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresStudySessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStudySessionStore creates a new PostgreSQL implementation of the
// StudySessionStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresStudySessionStore(db store.DBTX, logger *slog.Logger) *PostgresStudySessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStudySessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "study_session_store")),
	}
}

// Ensure PostgresStudySessionStore implements store.StudySessionStore interface
var _ store.StudySessionStore = (*PostgresStudySessionStore)(nil)

// Create implements store.StudySessionStore.Create
// It saves a new study session to the database, handling domain validation.
// Returns store.ErrInvalidEntity if the deck ID doesn't exist (foreign key violation).
func (s *PostgresStudySessionStore) Create(
	ctx context.Context,
	session *domain.StudySession,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	query := `
		INSERT INTO study_sessions
			(id, user_id, deck_id, direction, cards_studied, correct_answers,
			 session_duration_minutes, ended_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.DeckID,
		string(session.Direction),
		session.CardsStudied,
		session.CorrectAnswers,
		session.SessionDurationMinutes,
		nullableTime(session.EndedAt),
		session.CreatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during session creation",
				slog.String("error", err.Error()),
				slog.String("session_id", session.ID.String()),
				slog.String("deck_id", session.DeckID.String()))
			return fmt.Errorf("%w: deck with ID %s not found",
				store.ErrInvalidEntity, session.DeckID)
		}

		log.Error("failed to create study session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	log.Info("study session created",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", session.UserID.String()),
		slog.String("deck_id", session.DeckID.String()),
		slog.String("direction", string(session.Direction)))
	return nil
}

// scanSession reads one session row into a domain value.
func scanSession(row interface{ Scan(dest ...any) error }) (*domain.StudySession, error) {
	var session domain.StudySession
	var direction string
	var endedAt sql.NullTime

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.DeckID,
		&direction,
		&session.CardsStudied,
		&session.CorrectAnswers,
		&session.SessionDurationMinutes,
		&endedAt,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Direction = domain.StudyDirection(direction)
	session.EndedAt = endedAt.Time

	return &session, nil
}

// GetByID implements store.StudySessionStore.GetByID
// It retrieves a session by its unique ID.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresStudySessionStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, deck_id, direction, cards_studied, correct_answers,
		       session_duration_minutes, ended_at, created_at
		FROM study_sessions
		WHERE id = $1
	`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("study session not found", slog.String("session_id", id.String()))
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get study session by ID",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return nil, err
	}

	return session, nil
}

// Update implements store.StudySessionStore.Update
// It saves changes to the session's counters, duration, and ended timestamp.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresStudySessionStore) Update(
	ctx context.Context,
	session *domain.StudySession,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during update",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	query := `
		UPDATE study_sessions
		SET cards_studied = $1, correct_answers = $2,
		    session_duration_minutes = $3, ended_at = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		session.CardsStudied,
		session.CorrectAnswers,
		session.SessionDurationMinutes,
		nullableTime(session.EndedAt),
		session.ID,
	)

	if err != nil {
		log.Error("failed to update study session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("study session not found for update",
			slog.String("session_id", session.ID.String()))
		return store.ErrSessionNotFound
	}

	log.Debug("study session updated",
		slog.String("session_id", session.ID.String()),
		slog.Int("cards_studied", session.CardsStudied))
	return nil
}

// ListByUserAndDeck implements store.StudySessionStore.ListByUserAndDeck
// It retrieves the user's sessions for a deck, most recent first.
// Returns an empty slice if no sessions match.
func (s *PostgresStudySessionStore) ListByUserAndDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
	limit, offset int,
) ([]*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate limit and offset
	if limit <= 0 {
		limit = 20 // Default limit
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, user_id, deck_id, direction, cards_studied, correct_answers,
		       session_duration_minutes, ended_at, created_at
		FROM study_sessions
		WHERE user_id = $1 AND deck_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := s.db.QueryContext(ctx, query, userID, deckID, limit, offset)
	if err != nil {
		log.Error("failed to query study sessions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("deck_id", deckID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var sessions []*domain.StudySession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			log.Error("failed to scan study session row",
				slog.String("error", err.Error()))
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if sessions == nil {
		sessions = []*domain.StudySession{}
	}

	log.Debug("found study sessions",
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(sessions)))
	return sessions, nil
}

// WithTx implements store.StudySessionStore.WithTx
// It returns a new StudySessionStore instance that uses the provided transaction.
func (s *PostgresStudySessionStore) WithTx(tx *sql.Tx) store.StudySessionStore {
	return &PostgresStudySessionStore{
		db:     tx,
		logger: s.logger,
	}
}
