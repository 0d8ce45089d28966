package service

import (
	"errors"
	"fmt"

	"coursehub/internal/model"
	"coursehub/internal/repository"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInvalidInput   = errors.New("invalid input")
	ErrProfileMissing = errors.New("profile not found")
)

// translate maps repository sentinels onto service sentinels, keeping the
// message for context.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	case errors.Is(err, repository.ErrReference):
		return fmt.Errorf("%w: %s references a missing record", ErrInvalidInput, what)
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func notFound(what, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func requireProfile(actor *model.Profile) error {
	if actor == nil {
		return ErrProfileMissing
	}
	return nil
}

func requireAdmin(actor *model.Profile) error {
	if err := requireProfile(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}
