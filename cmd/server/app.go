package main

import (
	"database/sql"
	"log/slog"

	"github.com/hanzistudy/hanzi-api/internal/config"
	"github.com/hanzistudy/hanzi-api/internal/domain/scheduler"
	"github.com/hanzistudy/hanzi-api/internal/platform/postgres"
	"github.com/hanzistudy/hanzi-api/internal/service/deck"
	"github.com/hanzistudy/hanzi-api/internal/service/study"
	"github.com/hanzistudy/hanzi-api/internal/store"
)

// application holds the wired dependency graph for the server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	deckService  deck.DeckService
	studyService study.StudyService
}

// newApplication builds the full dependency graph: database, stores, the
// scheduler with configured parameters, and the services the handlers use.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := openDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	deckStore := postgres.NewPostgresDeckStore(db, logger)
	cardStore := postgres.NewPostgresCardStore(db, logger)
	progressStore := postgres.NewPostgresCardProgressStore(db, logger)
	sessionStore := postgres.NewPostgresStudySessionStore(db, logger)
	interactionStore := postgres.NewPostgresCardInteractionStore(db, logger)

	txRunner := store.NewSQLTxRunner(db)
	params := schedulerParams(cfg.Study.Scheduler)

	deckService := deck.NewDeckService(txRunner, deckStore, cardStore, logger)
	studyService := study.NewStudyService(study.ServiceParams{
		TxRunner:     txRunner,
		Decks:        deckStore,
		Cards:        cardStore,
		Progress:     progressStore,
		Sessions:     sessionStore,
		Interactions: interactionStore,
		Scheduler:    scheduler.NewServiceWithParams(params),
		Selector:     scheduler.NewSelector(params, nil),
		Quizzes:      scheduler.NewQuizGenerator(nil),
		BatchSize:    cfg.Study.BatchSize,
		Logger:       logger,
	})

	return &application{
		config:       cfg,
		logger:       logger,
		db:           db,
		deckService:  deckService,
		studyService: studyService,
	}, nil
}

// schedulerParams maps configuration overrides onto scheduler parameters.
// Zero-valued fields keep their defaults.
func schedulerParams(cfg config.SchedulerConfig) *scheduler.Params {
	return scheduler.NewParams(scheduler.ParamsConfig{
		DifficultyIncreaseFactor: cfg.DifficultyIncreaseFactor,
		DifficultyDecreaseFactor: cfg.DifficultyDecreaseFactor,
		StreakBonusFactor:        cfg.StreakBonusFactor,
		StreakBonusThreshold:     cfg.StreakBonusThreshold,
		MinDifficulty:            cfg.MinDifficulty,
		MaxDifficulty:            cfg.MaxDifficulty,

		MasteredMinAttempts: cfg.MasteredMinAttempts,
		MasteredMinAccuracy: cfg.MasteredMinAccuracy,
		ReviewMinAttempts:   cfg.ReviewMinAttempts,
		ReviewMinAccuracy:   cfg.ReviewMinAccuracy,
		LearningMinAttempts: cfg.LearningMinAttempts,
		LearningMinAccuracy: cfg.LearningMinAccuracy,

		NewCardIntervalHours:      cfg.NewCardIntervalHours,
		LearningBaseIntervalHours: cfg.LearningBaseIntervalHours,
		ReviewBaseIntervalHours:   cfg.ReviewBaseIntervalHours,
		MasteredBaseIntervalHours: cfg.MasteredBaseIntervalHours,

		IncorrectIntervalFactor: cfg.IncorrectIntervalFactor,
		MinIntervalHours:        cfg.MinIntervalHours,
		MaxIntervalHours:        cfg.MaxIntervalHours,

		NewCardWeight:  cfg.NewCardWeight,
		LearningWeight: cfg.LearningWeight,
		ReviewWeight:   cfg.ReviewWeight,
		MasteredWeight: cfg.MasteredWeight,
		UnseenBoost:    cfg.UnseenBoost,

		OverdueWeight:   cfg.OverdueWeight,
		OverdueBoostCap: cfg.OverdueBoostCap,

		CandidatePoolFactor: cfg.CandidatePoolFactor,
	})
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}
}
