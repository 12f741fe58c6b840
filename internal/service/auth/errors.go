// Package auth defines operator token errors.
package auth

import "errors"

var (
	ErrWeakSecret   = errors.New("operator secret must be at least 32 bytes")
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid operator token")
	ErrEmptySubject = errors.New("token subject is required")
)
