package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField       = errors.New("username and password are required")
	ErrMissingToken       = errors.New("token is required")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

// Token verification failures. Each one also matches ErrUnauthorized.
var (
	ErrInvalidSignature = fmt.Errorf("%w: invalid signature", ErrUnauthorized)
	ErrMalformedToken   = fmt.Errorf("%w: malformed token", ErrUnauthorized)
	ErrTokenExpired     = fmt.Errorf("%w: token expired", ErrUnauthorized)
)
