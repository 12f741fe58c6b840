package health

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

type fakeChecker struct {
	name    string
	err     error
	delay   time.Duration
	details map[string]string
}

func (f *fakeChecker) Name() string { return f.name }

func (f *fakeChecker) Check(ctx context.Context) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

type describingChecker struct{ fakeChecker }

func (d *describingChecker) Describe(context.Context) (map[string]string, error) {
	return d.details, nil
}

func TestLive(t *testing.T) {
	svc := NewService("test", 0, &fakeChecker{name: "db", err: errors.New("down")})
	if got := svc.Live().Status; got != StatusOK {
		t.Fatalf("expected %q got %q", StatusOK, got)
	}
}

func TestReady(t *testing.T) {
	t.Run("no checkers", func(t *testing.T) {
		report, err := NewService("test", 0).Ready(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Status != StatusOK || len(report.Checks) != 0 {
			t.Fatalf("unexpected report %+v", report)
		}
	})

	t.Run("all passing", func(t *testing.T) {
		svc := NewService("test", 0, &fakeChecker{name: "a"}, &fakeChecker{name: "b"})
		report, err := svc.Ready(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Status != StatusOK {
			t.Fatalf("expected ok got %q", report.Status)
		}
		if report.Checks[0].Name != "a" || report.Checks[1].Name != "b" {
			t.Fatalf("checks out of order: %+v", report.Checks)
		}
	})

	t.Run("one failing", func(t *testing.T) {
		svc := NewService("test", 0, &fakeChecker{name: "a"}, &fakeChecker{name: "db", err: errors.New("connection refused")})
		report, err := svc.Ready(context.Background())
		if !errors.Is(err, ErrNotReady) {
			t.Fatalf("expected ErrNotReady got %v", err)
		}
		if report.Status != StatusUnavailable {
			t.Fatalf("expected unavailable got %q", report.Status)
		}
		if report.Checks[1].Status != StatusFailing || report.Checks[1].Error != "connection refused" {
			t.Fatalf("unexpected check %+v", report.Checks[1])
		}
		if report.Checks[0].Status != StatusOK {
			t.Fatalf("passing check reported %q", report.Checks[0].Status)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		svc := NewService("test", 20*time.Millisecond, &fakeChecker{name: "slow", delay: time.Second})
		start := time.Now()
		report, err := svc.Ready(context.Background())
		if !errors.Is(err, ErrNotReady) {
			t.Fatalf("expected ErrNotReady got %v", err)
		}
		if time.Since(start) > 500*time.Millisecond {
			t.Fatalf("check was not bounded by timeout")
		}
		if report.Checks[0].Error != ErrCheckTimeout.Error() {
			t.Fatalf("expected timeout error got %q", report.Checks[0].Error)
		}
	})
}

func TestDetails(t *testing.T) {
	db := &describingChecker{fakeChecker{name: "postgres", details: map[string]string{"server_version": "16.2"}}}
	svc := NewService("Handwerksprojekt API", 0, db)
	svc.started = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return svc.started.Add(90 * time.Minute) }

	details, err := svc.Details(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Title != "Handwerksprojekt API" {
		t.Fatalf("unexpected title %q", details.Title)
	}
	if details.Uptime != "1h30m0s" {
		t.Fatalf("unexpected uptime %q", details.Uptime)
	}
	if got := details.Checks[0].Details["server_version"]; got != "16.2" {
		t.Fatalf("expected describer details got %q", got)
	}

	report, _ := svc.Ready(context.Background())
	if report.Checks[0].Details != nil {
		t.Fatalf("readiness must not include details: %+v", report.Checks[0])
	}
}

func TestReadyCanceledIsNotTimeout(t *testing.T) {
	svc := NewService("test", time.Second, &fakeChecker{name: "slow", delay: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.Ready(ctx)
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady got %v", err)
	}
	if got := report.Checks[0].Error; got != context.Canceled.Error() {
		t.Fatalf("expected %q got %q", context.Canceled.Error(), got)
	}
}

type countingChecker struct {
	name     string
	inflight *atomic.Int32
	peak     *atomic.Int32
	runs     *atomic.Int32
}

func (c *countingChecker) Name() string { return c.name }

func (c *countingChecker) Check(context.Context) error {
	n := c.inflight.Add(1)
	defer c.inflight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	c.runs.Add(1)
	time.Sleep(10 * time.Millisecond)
	return nil
}

func TestReadyBoundsParallelChecks(t *testing.T) {
	var inflight, peak, runs atomic.Int32
	checkers := make([]Checker, 12)
	for i := range checkers {
		checkers[i] = &countingChecker{name: fmt.Sprintf("c%d", i), inflight: &inflight, peak: &peak, runs: &runs}
	}

	report, err := NewService("test", time.Second, checkers...).Ready(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := runs.Load(); got != 12 || len(report.Checks) != 12 {
		t.Fatalf("expected 12 checks, ran %d, reported %d", got, len(report.Checks))
	}
	if got := peak.Load(); got > maxParallelChecks {
		t.Fatalf("expected at most %d parallel checks, saw %d", maxParallelChecks, got)
	}
	for i, c := range report.Checks {
		if c.Name != fmt.Sprintf("c%d", i) {
			t.Fatalf("check %d out of order: %q", i, c.Name)
		}
	}
}
