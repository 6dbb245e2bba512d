package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/aptjitter/aptjitter/internal/jitter"
)

// DefaultAnchor fires the daily trigger at midnight.
const DefaultAnchor = "0 0 * * *"

// ErrInvalidAnchor is returned for anchors that are not valid 5-field cron
// expressions or that never fire.
var ErrInvalidAnchor = errors.New("invalid anchor")

// ValidateAnchor checks that expr is a 5-field cron expression
// (minute hour day-of-month month day-of-week) with at least one occurrence
// within a year.
func ValidateAnchor(expr string) error {
	// gronx.IsValid also accepts 6-field expressions (with seconds).
	if len(strings.Fields(expr)) != 5 || !gronx.IsValid(expr) {
		return fmt.Errorf("%w %q: expected 5-field format (minute hour day-of-month month day-of-week)", ErrInvalidAnchor, expr)
	}
	if !hasOccurrenceWithinYear(expr, time.Now()) {
		return fmt.Errorf("%w %q: no occurrence within a year", ErrInvalidAnchor, expr)
	}
	return nil
}

// NextAnchor returns the next time expr fires strictly after from.
func NextAnchor(expr string, from time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, from, false)
}

// hasOccurrenceWithinYear reports whether expr fires within a year of from.
func hasOccurrenceWithinYear(expr string, from time.Time) bool {
	next, err := gronx.NextTickAfter(expr, from, false)
	if err != nil {
		return false
	}
	return next.Before(from.Add(365 * 24 * time.Hour))
}

// Events returns the first trigger of every job after now. An empty anchor
// means DefaultAnchor.
func Events(jobs []jitter.Job, now time.Time) ([]ScheduleEvent, error) {
	events := make([]ScheduleEvent, 0, len(jobs))
	for _, job := range jobs {
		expr := job.Anchor
		if expr == "" {
			expr = DefaultAnchor
		}
		next, err := NextAnchor(expr, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w %q: %v", job.Name, ErrInvalidAnchor, expr, err)
		}
		events = append(events, ScheduleEvent{Job: job.Name, TriggerAt: next, CronExpr: expr})
	}
	return events, nil
}
