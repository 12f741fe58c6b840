// Package health defines health-check errors.
package health

import "errors"

var (
	ErrNotReady     = errors.New("one or more dependencies are not ready")
	ErrCheckTimeout = errors.New("health check timed out")
)
