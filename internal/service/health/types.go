// Package health defines the domain types of the health route group.
package health

import "time"

// Status values reported by the health endpoints.
const (
	StatusOK          = "ok"
	StatusFailing     = "failing"
	StatusUnavailable = "unavailable"
)

// Liveness is the body of the liveness endpoint.
type Liveness struct {
	Status string `json:"status"`
}

// CheckResult is the outcome of a single Checker run.
type CheckResult struct {
	Name      string            `json:"name"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
	LatencyMS int64             `json:"latency_ms"`
	Details   map[string]string `json:"details,omitempty"`
}

// Report is the body of the readiness endpoint.
type Report struct {
	Status    string        `json:"status"`
	CheckedAt time.Time     `json:"checked_at"`
	Checks    []CheckResult `json:"checks"`
}

// Details is the operator-only report.
type Details struct {
	Report
	Title     string    `json:"title"`
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime"`
	GoVersion string    `json:"go_version"`
}
