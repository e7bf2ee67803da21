package services

import (
	"errors"

	"gymtrack_app_echo/internal/store"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("already exists")
	ErrAlreadyCheckedIn   = errors.New("already checked in")
	ErrNotCheckedIn       = errors.New("not checked in")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrUserInactive       = errors.New("account is deactivated")
	ErrTokenExpired       = errors.New("verification link expired")
)

// translate maps store sentinels onto the service ones; other errors pass through
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrDuplicate):
		return ErrDuplicate
	default:
		return err
	}
}
