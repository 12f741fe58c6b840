package cors

import (
	"errors"
	"fmt"
)

var (
	ErrNoOrigins           = errors.New("cors: no allowed origins configured")
	ErrWildcardCredentials = errors.New("cors: wildcard origin cannot be combined with credentials")
	ErrInvalidOrigin       = errors.New("cors: invalid origin")
)

// OriginError reports an allowed-origin entry that is not a bare origin.
type OriginError struct {
	Origin string
	Reason string
}

func (e *OriginError) Error() string {
	return fmt.Sprintf("cors: invalid origin %q: %s", e.Origin, e.Reason)
}

func (e *OriginError) Unwrap() error { return ErrInvalidOrigin }
