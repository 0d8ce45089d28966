package handler

import (
	"context"
	"errors"
	"net/http"

	"coursehub/internal/deletion"
	"coursehub/internal/middleware"
	"coursehub/internal/model"
	"coursehub/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Helper to extract user ID from context (injected by auth middleware)
func getUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		return "", huma.Error401Unauthorized("User ID not found in context")
	}
	return userID, nil
}

func getEmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(middleware.EmailContextKey).(string)
	return email
}

// getProfileFromContext returns the caller's profile, or nil when the
// subject has not created one yet. Services reject a nil actor.
func getProfileFromContext(ctx context.Context) (*model.Profile, error) {
	if _, err := getUserIDFromContext(ctx); err != nil {
		return nil, err
	}
	profile, _ := ctx.Value(middleware.ProfileContextKey).(*model.Profile)
	return profile, nil
}

func validateBody(v *validator.Validate, body any) error {
	if err := v.Struct(body); err != nil {
		return huma.Error400BadRequest(err.Error())
	}
	return nil
}

// toHTTPError converts service and deletion errors into Huma errors.
// Unexpected errors are logged and reported as a bare 500.
func toHTTPError(logger zerolog.Logger, err error, msg string) error {
	switch {
	case errors.Is(err, service.ErrProfileMissing):
		return huma.Error404NotFound("Profile not found, create it with POST /users/me")
	case errors.Is(err, deletion.ErrBlocked):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, deletion.ErrConfirmationRequired):
		return huma.NewError(http.StatusPreconditionRequired, err.Error())
	case errors.Is(err, deletion.ErrConfirmationMismatch),
		errors.Is(err, deletion.ErrCriticalNotAcknowledged):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, service.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, service.ErrForbidden):
		return huma.Error403Forbidden(err.Error())
	case errors.Is(err, service.ErrConflict):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	}
	logger.Error().Err(err).Msg(msg)
	return huma.Error500InternalServerError(msg)
}
