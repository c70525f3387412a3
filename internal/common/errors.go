// Package common defines shared constants and sentinel errors used across
// the server, the transports and the CLI client. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound         = errors.New("not found")
	ErrConstraintViolated = errors.New("constraint violated")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrInvalidInput = errors.New("invalid input")

	// Credential errors. A missing account and a wrong password both yield
	// ErrInvalidCredentials.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")

	// Two-factor errors.
	ErrTwoFactorRequired    = errors.New("2FA code required")
	ErrInvalidTwoFactorCode = errors.New("invalid 2FA code")
	ErrTwoFactorNotSetUp    = errors.New("2FA not set up for this account")
	ErrTwoFactorNotEnabled  = errors.New("2FA is not enabled")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
