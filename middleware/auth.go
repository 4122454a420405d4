package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const actorContextKey contextKey = "actor_user_id"

const actorHeader = "X-Actor-User-Id"

// TokenParser validates a bearer token and yields the user id it carries.
type TokenParser interface {
	ParseToken(token string) (uuid.UUID, error)
}

// Actor resolves the acting user from the trusted X-Actor-User-Id header or,
// failing that, from a Bearer token. Resolution never rejects by itself;
// RequireActor guards the routes that need an identity.
func Actor(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := r.Header.Get(actorHeader); raw != "" {
				if id, err := uuid.Parse(raw); err == nil {
					next.ServeHTTP(w, r.WithContext(withActor(r.Context(), id)))
					return
				}
			}

			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				token := strings.TrimPrefix(auth, "Bearer ")
				if id, err := parser.ParseToken(token); err == nil {
					next.ServeHTTP(w, r.WithContext(withActor(r.Context(), id)))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ActorFromContext(r.Context()); !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withActor(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, actorContextKey, id)
}

func ActorFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(actorContextKey).(uuid.UUID)
	return id, ok
}
