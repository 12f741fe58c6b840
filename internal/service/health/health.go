// Package health provides the liveness, readiness and operator reports
// served under /health.
package health

import (
	"context"
	"errors"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds a single Checker run when none is configured.
const DefaultCheckTimeout = 2 * time.Second

// maxParallelChecks caps how many checkers run at once.
const maxParallelChecks = 4

// Service runs the registered checkers.
type Service struct {
	title    string
	checkers []Checker
	timeout  time.Duration
	started  time.Time
	now      func() time.Time
}

// NewService creates a Service. A zero timeout means DefaultCheckTimeout.
func NewService(title string, timeout time.Duration, checkers ...Checker) *Service {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &Service{
		title:    title,
		checkers: checkers,
		timeout:  timeout,
		started:  time.Now(),
		now:      time.Now,
	}
}

// Live reports that the process is up. It never touches dependencies.
func (s *Service) Live() Liveness {
	return Liveness{Status: StatusOK}
}

// Ready runs every checker concurrently. The report is always returned;
// the error is ErrNotReady when at least one check failed.
func (s *Service) Ready(ctx context.Context) (*Report, error) {
	return s.run(ctx, false)
}

// Details runs the checkers like Ready and adds component details and
// process information.
func (s *Service) Details(ctx context.Context) (*Details, error) {
	report, err := s.run(ctx, true)
	now := s.now()
	return &Details{
		Report:    *report,
		Title:     s.title,
		StartedAt: s.started.UTC(),
		Uptime:    now.Sub(s.started).Truncate(time.Second).String(),
		GoVersion: runtime.Version(),
	}, err
}

func (s *Service) run(ctx context.Context, describe bool) (*Report, error) {
	results := make([]CheckResult, len(s.checkers))

	// Checker failures land in results, never in the group error, so one
	// failing dependency does not cancel the others.
	var g errgroup.Group
	g.SetLimit(maxParallelChecks)
	for i, c := range s.checkers {
		i, c := i, c
		g.Go(func() error {
			results[i] = s.check(ctx, c, describe)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{
		Status:    StatusOK,
		CheckedAt: s.now().UTC(),
		Checks:    results,
	}
	for _, r := range results {
		if r.Status != StatusOK {
			report.Status = StatusUnavailable
			return report, ErrNotReady
		}
	}
	return report, nil
}

func (s *Service) check(ctx context.Context, c Checker, describe bool) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := c.Check(ctx)
	res := CheckResult{
		Name:      c.Name(),
		Status:    StatusOK,
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrCheckTimeout
		}
		res.Status = StatusFailing
		res.Error = err.Error()
		return res
	}

	if d, ok := c.(Describer); ok && describe {
		details, err := d.Describe(ctx)
		if err != nil {
			details = map[string]string{"error": err.Error()}
		}
		res.Details = details
	}
	return res
}
