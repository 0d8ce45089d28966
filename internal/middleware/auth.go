package middleware

import (
	"context"
	"net/http"
	"strings"

	"coursehub/internal/model"
	"coursehub/internal/util"

	"github.com/rs/zerolog"
)

// Injected key type to avoid context collisions
type contextKey string

const (
	UserContextKey    = contextKey("user")
	EmailContextKey   = contextKey("email")
	ProfileContextKey = contextKey("profile")
)

// AuthMiddleware validates the bearer token issued by the identity provider
// and stores its subject and email in the request context.
func AuthMiddleware(keyMaterial string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug().Msg("Authorization header missing")
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Debug().Msg("Invalid authorization header")
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}
			claims, err := util.ValidateJWT(parts[1], keyMaterial)
			if err != nil {
				logger.Warn().Err(err).Msg("Invalid token")
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, claims.Subject)
			ctx = context.WithValue(ctx, EmailContextKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProfileLoader looks up the profile of an authenticated subject.
type ProfileLoader interface {
	GetProfileByID(ctx context.Context, id string) (*model.Profile, error)
}

// ProfileMiddleware attaches the caller's profile (role and organization)
// to the context. A subject without a profile passes through with none;
// handlers that need one reject the request.
func ProfileMiddleware(loader ProfileLoader, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := r.Context().Value(UserContextKey).(string)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}
			profile, err := loader.GetProfileByID(r.Context(), userID)
			if err != nil {
				logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load profile")
				http.Error(w, "Failed to load profile", http.StatusInternalServerError)
				return
			}
			if profile != nil {
				r = r.WithContext(context.WithValue(r.Context(), ProfileContextKey, profile))
			}
			next.ServeHTTP(w, r)
		})
	}
}
