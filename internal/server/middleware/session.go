package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/information-sharing-networks/dbc-connect/internal/logger"
	"github.com/information-sharing-networks/dbc-connect/internal/server/response"
	"github.com/information-sharing-networks/dbc-connect/internal/session"
)

type sessionKey struct{}

// RequireSession loads the session named by the cookie and rejects the request with a 401 when
// there is none. Handlers read the session with ContextSession.
func RequireSession(store session.Store, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				response.RespondWithErrorResponse(w, r, response.NewUnauthenticatedError("sign in to use this endpoint"))
				return
			}

			id, err := uuid.Parse(cookie.Value)
			if err != nil {
				response.RespondWithErrorResponse(w, r, response.NewUnauthenticatedError("session cookie is invalid"))
				return
			}

			st, err := store.Get(r.Context(), id)
			if err != nil {
				if errors.Is(err, session.ErrNotFound) {
					response.RespondWithErrorResponse(w, r, err)
					return
				}
				response.RespondWithErrorResponse(w, r, response.WrapInternalError(err, "failed to load session"))
				return
			}

			logger.ContextWithLogAttrs(r.Context(), slog.String("abn", st.ABN))

			ctx := context.WithValue(r.Context(), sessionKey{}, st)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextSession returns the session loaded by RequireSession
func ContextSession(ctx context.Context) (*session.State, bool) {
	st, ok := ctx.Value(sessionKey{}).(*session.State)
	return st, ok
}

// WithSession returns a copy of ctx carrying st
func WithSession(ctx context.Context, st *session.State) context.Context {
	return context.WithValue(ctx, sessionKey{}, st)
}
