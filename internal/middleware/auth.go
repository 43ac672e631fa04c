package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/platesplit/platesplit/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// LedgerIDKey is the context key for the authenticated ledger session ID.
const LedgerIDKey contextKey = "ledger_id"

// GetLedgerID extracts the authenticated ledger ID from the context.
// Returns empty string if not found.
func GetLedgerID(ctx context.Context) string {
	ledgerID, _ := ctx.Value(LedgerIDKey).(string)
	return ledgerID
}

// TokenValidator checks bearer tokens and returns their session claims.
type TokenValidator interface {
	Validate(tokenString string) (*auth.Claims, error)
}

// RequireSession validates the Bearer token and checks that its ledger claim
// matches the session ID in the route. A valid token for some other session
// is refused: tokens are scoped to exactly one ledger.
func RequireSession(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, auth.ErrMissingToken.Error(), http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Validate(parts[1])
			if err != nil {
				http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			if sessionID := chi.URLParam(r, "sessionID"); sessionID != claims.LedgerID {
				http.Error(w, "token not valid for this session", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), LedgerIDKey, claims.LedgerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
