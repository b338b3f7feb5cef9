// Package cronutil evaluates standard 5-field cron expressions in UTC.
package cronutil

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate reports whether expr is a well-formed 5-field cron expression.
func Validate(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Next returns the next UTC instant strictly after from at which expr fires.
func Next(expr string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	next := sched.Next(from.UTC())
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("unsatisfiable_schedule: %q has no future occurrence", expr)
	}
	return next.UTC(), nil
}
