package jitter

import (
	"strconv"
	"time"
)

const (
	// MaxHour is the largest hour an Offset can carry.
	MaxHour = 23
	// MaxMinute is the largest minute an Offset can carry.
	MaxMinute = 59
)

// Offset is the randomized clock time of one cycle. It is drawn fresh on
// every trigger and discarded once submitted.
type Offset struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// Compute draws a new Offset from r. The hour is drawn before the minute.
func Compute(r Rand) Offset {
	h := r.NextInt(0, MaxHour)
	m := r.NextInt(0, MaxMinute)
	return Offset{Hours: h, Minutes: m}
}

// String formats the offset as the at(1) time "H:M" without zero padding.
func (o Offset) String() string {
	return strconv.Itoa(o.Hours) + ":" + strconv.Itoa(o.Minutes)
}

// Valid reports whether both parts of o are within range.
func (o Offset) Valid() bool {
	return o.Hours >= 0 && o.Hours <= MaxHour &&
		o.Minutes >= 0 && o.Minutes <= MaxMinute
}

// clockOn returns the wall-clock time o on the calendar day of t.
func (o Offset) clockOn(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, o.Hours, o.Minutes, 0, 0, t.Location())
}

// Passed reports whether the clock time o on now's day is not after now.
// at(1) defers such times to the following day.
func (o Offset) Passed(now time.Time) bool {
	return !o.clockOn(now).After(now)
}

// NextRun returns the time at(1) is expected to run a job submitted at now
// for o: today at H:M, or tomorrow if that has already passed.
func (o Offset) NextRun(now time.Time) time.Time {
	t := o.clockOn(now)
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
