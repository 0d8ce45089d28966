package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/idtoken"
)

// tokenValidator matches idtoken.Validate.
type tokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// PushAuth guards the dead-letter push endpoint. Every push carries a Google
// ID token minted for audience; its email claim must name serviceAccount.
// skip turns the check off for the local emulator, which sends no token.
func PushAuth(skip bool, audience, serviceAccount string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return pushAuth(pushCheck{skip: skip, audience: audience, serviceAccount: serviceAccount, validate: idtoken.Validate}, logger)
}

type pushCheck struct {
	skip           bool
	audience       string
	serviceAccount string
	validate       tokenValidator
}

// verify returns the response status for a rejected push, or 0.
func (c pushCheck) verify(r *http.Request) (int, error) {
	if c.audience == "" || c.serviceAccount == "" {
		return http.StatusInternalServerError, errors.New("push audience or service account not configured")
	}
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return http.StatusUnauthorized, errors.New("no bearer token on push")
	}
	payload, err := c.validate(r.Context(), token, c.audience)
	if err != nil {
		return http.StatusUnauthorized, fmt.Errorf("push token: %w", err)
	}
	if email, _ := payload.Claims["email"].(string); email != c.serviceAccount {
		return http.StatusForbidden, fmt.Errorf("push token issued to %q, want %q", email, c.serviceAccount)
	}
	return 0, nil
}

func pushAuth(c pushCheck, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !c.skip {
				if status, err := c.verify(r); err != nil {
					event := logger.Warn()
					if status >= 500 {
						event = logger.Error()
					}
					event.Err(err).Int("status", status).Msg("Dead-letter push rejected")
					http.Error(w, http.StatusText(status), status)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
