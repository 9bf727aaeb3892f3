package core

import (
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCaptcha     = errors.New("invalid captcha")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrEventNotFound      = errors.New("attendance event not found")
	ErrDuplicateKind      = errors.New("repeated attendance kind")
	ErrInvalidToken       = errors.New("invalid token")
)

// ValidationError names the rejected field. It unwraps to ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// CredentialsError is a failed login that has not locked the account yet.
type CredentialsError struct {
	Remaining int
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempt(s) left", e.Remaining)
}

func (e *CredentialsError) Unwrap() error { return ErrInvalidCredentials }

// LockedError reports a locked identifier. JustLocked is set when the
// failure being reported is the one that triggered the lock.
type LockedError struct {
	RetryAfter time.Duration
	JustLocked bool
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked for %s", e.RetryAfter)
}

func (e *LockedError) Unwrap() error { return ErrAccountLocked }

// DuplicateKindError is returned when a user repeats their last event kind.
type DuplicateKindError struct {
	Kind model.EventKind
}

func (e *DuplicateKindError) Error() string {
	return fmt.Sprintf("last event is already %q", e.Kind)
}

func (e *DuplicateKindError) Unwrap() error { return ErrDuplicateKind }
