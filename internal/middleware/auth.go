package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/recordhub/server/internal/model"
	"github.com/recordhub/server/internal/store"
)

type contextKey string

const tokenKey contextKey = "token"

// RequireToken validates the caller's bearer token against the tokens
// collection and attaches it to the request context. The token id is read
// from the Authorization header ("Bearer <id>") with a fallback to the bare
// "token" header. Missing, unknown, or expired tokens are rejected; matching
// the token to the resource being touched is the handler's job.
func RequireToken(st *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := tokenID(r)
			if id == "" {
				respondWithError(w, http.StatusForbidden, "missing token")
				return
			}

			var token model.Token
			err := st.Read(r.Context(), store.CollectionTokens, id, &token)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidKey) {
					respondWithError(w, http.StatusForbidden, "invalid token")
					return
				}
				log.Error().Err(err).Msg("token lookup failed")
				respondWithError(w, http.StatusInternalServerError, "internal error")
				return
			}

			if !token.Valid(time.Now()) {
				respondWithError(w, http.StatusForbidden, "token expired")
				return
			}

			ctx := context.WithValue(r.Context(), tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetToken returns the token attached to the request context by RequireToken.
func GetToken(ctx context.Context) (model.Token, bool) {
	t, ok := ctx.Value(tokenKey).(model.Token)
	return t, ok
}

// tokenID extracts the token id from the request headers.
func tokenID(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(r.Header.Get("token"))
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
