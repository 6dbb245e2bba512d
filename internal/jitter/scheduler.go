package jitter

import (
	"context"
	"time"

	"github.com/aptjitter/aptjitter/pkg/logger"
)

// Scheduler runs the jitter cycle for a single Job.
type Scheduler struct {
	job       Job
	rand      Rand
	submitter Submitter
	recorder  Recorder
	log       logger.Logger
	now       func() time.Time
	user      string
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithRecorder sets where submissions are recorded. Nil disables recording.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// WithClock overrides the time source used to stamp triggers.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithUser sets the identity the trigger runs as. It is only recorded.
func WithUser(user string) Option {
	return func(s *Scheduler) { s.user = user }
}

// NewScheduler creates a Scheduler for job drawing offsets from r and
// handing them to sub.
func NewScheduler(job Job, r Rand, sub Submitter, opts ...Option) *Scheduler {
	s := &Scheduler{
		job:       job,
		rand:      r,
		submitter: sub,
		log:       logger.NewNopLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Job returns the job this scheduler runs.
func (s *Scheduler) Job() Job {
	return s.job
}

// Trigger runs one cycle: it draws a fresh Offset and submits the job's
// command exactly once for that clock time. A failed submission is logged
// and returned in Submission.Err. It is never retried.
func (s *Scheduler) Trigger(ctx context.Context) Submission {
	now := s.now()
	off := Compute(s.rand)
	sub := Submission{
		Job:         s.job.Name,
		TriggeredAt: now,
		Offset:      off,
		At:          off.String(),
		Command:     s.job.Command,
		User:        s.user,
	}

	if off.Passed(now) {
		s.log.Warning("%s: %s has already passed today, the queue will run it tomorrow", s.job.Name, sub.At)
	}

	receipt, err := s.submitter.Submit(ctx, Request{At: sub.At, Command: sub.Command})
	if err != nil {
		sub.Err = err
		s.log.Error("%s: submitting %q at %s failed: %v", s.job.Name, sub.Command, sub.At, err)
	} else {
		sub.Receipt = receipt
		if receipt.JobID != "" {
			s.log.Info("%s: queued %q at %s (job %s, %s)", s.job.Name, sub.Command, sub.At, receipt.JobID, receipt.RunAt)
		} else {
			s.log.Info("%s: queued %q at %s", s.job.Name, sub.Command, sub.At)
		}
	}

	if s.recorder != nil {
		if rerr := s.recorder.Record(ctx, sub); rerr != nil {
			s.log.Warning("%s: recording submission: %v", s.job.Name, rerr)
		}
	}
	return sub
}

// Preview draws an Offset and returns it with the time the queue would run
// it if submitted now. Nothing is submitted or recorded.
func (s *Scheduler) Preview() (Offset, time.Time) {
	now := s.now()
	off := Compute(s.rand)
	return off, off.NextRun(now)
}
