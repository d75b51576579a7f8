// Package common contains shared constants and sentinel errors used across
// rxauth components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// session token on inbound requests.
const AccessTokenHeaderName = "access_token"

// User-visible messages. They are part of the external contract and must
// stay stable across releases.
const (
	MessageMissingCredentials = "Please enter your email and password"
	MessageInvalidCredentials = "Invalid email or password"
	MessageFieldsRequired     = "All fields are required"
	MessagePasswordTooLong    = "Password is too long"
	MessageDoctorExists       = "Doctor already exists"
	MessageInternal           = "Internal Server Error"
	MessageUnauthorized       = "Unauthorized"
	MessageProfileNotFound    = "Profile not found"
)
