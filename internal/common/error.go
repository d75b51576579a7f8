package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// Validation errors: the caller can fix the request and resubmit.
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPasswordTooLong    = errors.New("password too long")

	// Authentication errors. Unknown email, passwordless account and wrong
	// password all collapse into ErrInvalidCredentials.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Conflict errors.
	ErrDuplicateAccount = errors.New("account already exists")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// IsValidation reports whether err belongs to the validation class.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrPasswordTooLong)
}

// IsNoSession reports whether err means that a token does not carry a
// usable session.
func IsNoSession(err error) bool {
	return errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenExpired)
}
