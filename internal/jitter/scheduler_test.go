package jitter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aptjitter/aptjitter/pkg/logger"
)

// recordingSubmitter records every request and answers with receipt/err.
type recordingSubmitter struct {
	mu       sync.Mutex
	requests []Request
	receipt  Receipt
	err      error
}

func (r *recordingSubmitter) Submit(_ context.Context, req Request) (Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return r.receipt, r.err
}

type memRecorder struct {
	subs []Submission
	err  error
}

func (m *memRecorder) Record(_ context.Context, s Submission) error {
	m.subs = append(m.subs, s)
	return m.err
}

var aptcron = Job{Name: "aptcron", Command: "aptcron", Anchor: "0 0 * * *"}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTrigger_SubmitsExactString(t *testing.T) {
	sub := &recordingSubmitter{receipt: Receipt{JobID: "12", RunAt: "Fri Oct 16 13:37:00 2026"}}
	midnight := time.Date(2026, 10, 16, 0, 0, 5, 0, time.UTC)
	s := NewScheduler(aptcron, NewSequence(13, 37), sub, WithClock(fixedClock(midnight)), WithUser("root"))

	got := s.Trigger(context.Background())

	if len(sub.requests) != 1 {
		t.Fatalf("expected exactly 1 submission, got %d", len(sub.requests))
	}
	if sub.requests[0].At != "13:37" {
		t.Fatalf("expected at time %q, got %q", "13:37", sub.requests[0].At)
	}
	if sub.requests[0].Command != "aptcron" {
		t.Fatalf("expected command aptcron, got %q", sub.requests[0].Command)
	}
	if got.Failed() {
		t.Fatalf("unexpected failure: %v", got.Err)
	}
	if got.Receipt.JobID != "12" || got.User != "root" || !got.TriggeredAt.Equal(midnight) {
		t.Fatalf("unexpected submission: %+v", got)
	}
}

func TestTrigger_MidnightOffsetIsKept(t *testing.T) {
	sub := &recordingSubmitter{}
	log := logger.NewMockLogger()
	midnight := time.Date(2026, 10, 16, 0, 0, 1, 0, time.UTC)
	s := NewScheduler(aptcron, NewSequence(0, 0), sub, WithClock(fixedClock(midnight)), WithLogger(log))

	got := s.Trigger(context.Background())

	if len(sub.requests) != 1 || sub.requests[0].At != "0:0" {
		t.Fatalf("expected a single 0:0 submission, got %+v", sub.requests)
	}
	if got.At != "0:0" {
		t.Fatalf("expected 0:0 in the submission, got %q", got.At)
	}
	if len(log.WarningCalls) != 1 || !strings.Contains(log.WarningCalls[0], "tomorrow") {
		t.Fatalf("expected a warning about the next-day run, got %v", log.WarningCalls)
	}
}

func TestTrigger_SubmitErrorIsNotRetried(t *testing.T) {
	submitErr := errors.New("cannot open lockfile /var/spool/cron/atjobs/.SEQ")
	sub := &recordingSubmitter{err: submitErr}
	log := logger.NewMockLogger()
	rec := &memRecorder{}
	s := NewScheduler(aptcron, NewSequence(4, 20), sub, WithLogger(log), WithRecorder(rec))

	got := s.Trigger(context.Background())

	if len(sub.requests) != 1 {
		t.Fatalf("expected exactly 1 submission attempt, got %d", len(sub.requests))
	}
	if !errors.Is(got.Err, submitErr) {
		t.Fatalf("expected submit error to be carried, got %v", got.Err)
	}
	if len(log.ErrorCalls) != 1 {
		t.Fatalf("expected 1 error log, got %v", log.ErrorCalls)
	}
	if len(rec.subs) != 1 || !rec.subs[0].Failed() {
		t.Fatalf("expected the failed submission to be recorded, got %+v", rec.subs)
	}
}

func TestTrigger_FreshOffsetEachCycle(t *testing.T) {
	sub := &recordingSubmitter{}
	s := NewScheduler(aptcron, NewSequence(1, 2, 3, 4, 5, 6), sub)

	for i := 0; i < 3; i++ {
		s.Trigger(context.Background())
	}

	want := []string{"1:2", "3:4", "5:6"}
	if len(sub.requests) != len(want) {
		t.Fatalf("expected %d submissions, got %d", len(want), len(sub.requests))
	}
	for i, w := range want {
		if sub.requests[i].At != w {
			t.Errorf("cycle %d: expected %s, got %s", i, w, sub.requests[i].At)
		}
	}
}

func TestTrigger_RecorderErrorOnlyWarns(t *testing.T) {
	sub := &recordingSubmitter{}
	log := logger.NewMockLogger()
	rec := &memRecorder{err: errors.New("database is locked")}
	midnight := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	s := NewScheduler(aptcron, NewSequence(10, 10), sub, WithLogger(log), WithRecorder(rec), WithClock(fixedClock(midnight)))

	got := s.Trigger(context.Background())

	if got.Failed() {
		t.Fatalf("recorder errors must not fail the submission: %v", got.Err)
	}
	if len(log.WarningCalls) != 1 {
		t.Fatalf("expected 1 warning, got %v", log.WarningCalls)
	}
}

func TestTrigger_SubmitFunc(t *testing.T) {
	var calls int
	fn := SubmitFunc(func(_ context.Context, req Request) (Receipt, error) {
		calls++
		return Receipt{JobID: "7"}, nil
	})
	got := NewScheduler(aptcron, NewSequence(2, 3), fn).Trigger(context.Background())
	if calls != 1 || got.Receipt.JobID != "7" {
		t.Fatalf("expected one call with receipt 7, got calls=%d receipt=%+v", calls, got.Receipt)
	}
}

func TestPreview_DoesNotSubmit(t *testing.T) {
	sub := &recordingSubmitter{}
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	s := NewScheduler(aptcron, NewSequence(6, 30), sub, WithClock(fixedClock(now)))

	off, runAt := s.Preview()

	if off.String() != "6:30" {
		t.Fatalf("expected 6:30, got %s", off)
	}
	if !runAt.Equal(time.Date(2026, 10, 16, 6, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected run time %v", runAt)
	}
	if len(sub.requests) != 0 {
		t.Fatalf("preview must not submit, got %d", len(sub.requests))
	}
	if s.Job().Name != "aptcron" {
		t.Fatalf("unexpected job %+v", s.Job())
	}
}
