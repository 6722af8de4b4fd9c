// Package health checks that the engine toolchain and optional backends are usable.
package health

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"
	"time"
)

// Checker defines interface for health checking
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// FileChecker verifies that an interpreter, script or directory exists.
type FileChecker struct {
	Path string
	Dir  bool
}

func (c FileChecker) Check(context.Context) error {
	if c.Path == "" {
		return fmt.Errorf("path not configured")
	}
	st, err := os.Stat(c.Path)
	if err != nil {
		return err
	}
	if c.Dir && !st.IsDir() {
		return fmt.Errorf("%s is not a directory", c.Path)
	}
	if !c.Dir && st.IsDir() {
		return fmt.Errorf("%s is a directory", c.Path)
	}
	return nil
}

// DBChecker checks database health
type DBChecker struct {
	DB *sql.DB
}

func (d DBChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.DB.PingContext(ctx)
}

// Report represents the health status
type Report struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

// CheckStatus represents individual check status
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Healthy reports whether every check passed.
func (r Report) Healthy() bool { return r.Status == StatusHealthy }

// Names returns the check names in sorted order.
func (r Report) Names() []string {
	names := make([]string, 0, len(r.Checks))
	for n := range r.Checks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run executes every checker within a shared 5s budget.
func Run(ctx context.Context, checkers map[string]Checker) Report {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	report := Report{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckStatus, len(checkers)),
	}
	for name, checker := range checkers {
		if err := checker.Check(ctx); err != nil {
			report.Status = StatusUnhealthy
			report.Checks[name] = CheckStatus{Status: StatusUnhealthy, Message: err.Error()}
			continue
		}
		report.Checks[name] = CheckStatus{Status: StatusHealthy}
	}
	return report
}
