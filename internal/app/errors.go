package app

import "errors"

var (
	ErrRoutesMounted   = errors.New("app: middleware must be installed before routes are mounted")
	ErrInvalidPrefix   = errors.New("app: mount prefix must start with '/' and must not end with '/'")
	ErrDuplicatePrefix = errors.New("app: prefix already mounted")
	ErrNilGroup        = errors.New("app: route group must not be nil")
)
