package jitter

import (
	"context"
	"time"
)

// Job is a target command run once per day at a jittered time.
type Job struct {
	// Name identifies the job in logs, history and RPC calls.
	Name string
	// Command is the shell command line handed to the deferred queue.
	Command string
	// Anchor is the 5-field cron expression of the daily trigger.
	Anchor string
}

// Request is one submission to the deferred-execution facility.
type Request struct {
	// At is the absolute clock time "H:M".
	At string
	// Command is the command line to run at that time.
	Command string
}

// Receipt is what the deferred-execution facility reports back.
// Both fields may be empty if the facility does not report them.
type Receipt struct {
	JobID string
	RunAt string
}

// Submitter is the deferred-execution facility.
type Submitter interface {
	Submit(ctx context.Context, req Request) (Receipt, error)
}

// SubmitFunc adapts a function to the Submitter interface.
type SubmitFunc func(ctx context.Context, req Request) (Receipt, error)

// Submit calls f(ctx, req).
func (f SubmitFunc) Submit(ctx context.Context, req Request) (Receipt, error) {
	return f(ctx, req)
}

// Recorder persists the outcome of a cycle.
type Recorder interface {
	Record(ctx context.Context, s Submission) error
}

// Submission is the outcome of one trigger cycle.
type Submission struct {
	Job         string
	TriggeredAt time.Time
	Offset      Offset
	At          string
	Command     string
	User        string
	Receipt     Receipt
	// Err is the submission error, nil on success.
	Err error
}

// Failed reports whether the submission was rejected.
func (s Submission) Failed() bool {
	return s.Err != nil
}
