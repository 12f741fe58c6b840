// Package health defines the dependency contract for health checks.
package health

import "context"

// Checker checks one dependency of the service.
// Implemented by pg.HealthRepository.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Describer is optionally implemented by a Checker to add component
// details to the operator report.
type Describer interface {
	Describe(ctx context.Context) (map[string]string, error)
}
