package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/hanzistudy/hanzi-api/internal/api/shared"
)

// UserIDHeader carries the caller's identity. Authentication happens upstream
// of this service; the header value is trusted as an opaque user ID.
const UserIDHeader = "X-User-ID"

// UserContextMiddleware extracts the user ID from the X-User-ID header,
// validates it as a UUID, and stores it in the request context for handlers.
// Requests without a valid user ID are rejected with 401.
func UserContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(UserIDHeader)
		if header == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Missing user ID")
			return
		}

		userID, err := uuid.Parse(header)
		if err != nil || userID == uuid.Nil {
			slog.Debug("rejecting request with malformed user ID",
				slog.String("path", r.URL.Path))
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid user ID")
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
