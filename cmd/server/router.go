package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hanzistudy/hanzi-api/internal/api"
	apiMiddleware "github.com/hanzistudy/hanzi-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	deckHandler := api.NewDeckHandler(app.deckService, app.logger)
	studyHandler := api.NewStudyHandler(app.studyService, app.logger)

	r.Route("/api", func(r chi.Router) {
		// The caller's identity arrives as an X-User-ID header; everything
		// under /api requires it.
		r.Use(apiMiddleware.UserContextMiddleware)

		// Deck management
		r.Post("/decks", deckHandler.CreateDeck)
		r.Get("/decks", deckHandler.ListDecks)
		r.Get("/decks/{deckID}", deckHandler.GetDeck)
		r.Delete("/decks/{deckID}", deckHandler.DeleteDeck)
		r.Post("/decks/{deckID}/cards", deckHandler.AddCards)
		r.Get("/decks/{deckID}/cards", deckHandler.ListCards)
		r.Delete("/cards/{cardID}", deckHandler.DeleteCard)

		// Study sessions
		r.Post("/decks/{deckID}/sessions", studyHandler.StartSession)
		r.Get("/decks/{deckID}/sessions", studyHandler.ListSessions)
		r.Get("/decks/{deckID}/stats", studyHandler.DeckStatistics)
		r.Get("/sessions/{sessionID}/batch", studyHandler.NextBatch)
		r.Post("/sessions/{sessionID}/flips", studyHandler.RecordFlip)
		r.Get("/sessions/{sessionID}/cards/{cardID}/question", studyHandler.AskQuestion)
		r.Post("/sessions/{sessionID}/answers", studyHandler.SubmitAnswer)
		r.Post("/sessions/{sessionID}/end", studyHandler.EndSession)
		r.Get("/sessions/{sessionID}/stats", studyHandler.SessionStatistics)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
