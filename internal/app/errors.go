package app

import "errors"

var (
	// ErrInvalidCredentials indicates that the provided email or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken indicates that an account already uses the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidToken indicates that a bearer or state token could not be verified.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrTokenExpired indicates that the token was valid but has expired.
	ErrTokenExpired = errors.New("token expired")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrForbidden indicates that the caller's role does not allow the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates that a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition indicates a disallowed appointment status change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrFitnessNotLinked indicates that the user never connected a fitness account.
	ErrFitnessNotLinked = errors.New("missing Google access token")
	// ErrModelFailed wraps failures of the chat model. Its message is safe to
	// show to the caller.
	ErrModelFailed = errors.New("chat processing failed")
	// ErrUnavailable indicates that an optional integration is not configured.
	ErrUnavailable = errors.New("service not configured")
)

// ValidationError reports bad caller input. It maps to HTTP 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }
