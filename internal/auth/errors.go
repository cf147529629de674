package auth

import "errors"

// Internal failure reasons. The HTTP layer collapses all of these into one
// generic response; they stay distinct here for logs and metrics.
var (
	ErrInvalidOrExpiredPin = errors.New("invalid or expired pin")
	ErrTooManyAttempts     = errors.New("too many verification attempts")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// AuthFailure reports whether err is one of the authentication failure
// sentinels, as opposed to an infrastructure error.
func AuthFailure(err error) bool {
	return errors.Is(err, ErrInvalidOrExpiredPin) ||
		errors.Is(err, ErrTooManyAttempts) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrInvalidCredentials)
}
