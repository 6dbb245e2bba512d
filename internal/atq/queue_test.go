package atq

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/aptjitter/aptjitter/internal/jitter"
)

type call struct {
	name  string
	args  []string
	env   []string
	stdin string
}

// fakeRunner records calls and answers with stderr/err.
type fakeRunner struct {
	calls  []call
	stderr string
	err    error
}

func (f *fakeRunner) run(_ context.Context, name string, args, env []string, stdin io.Reader) ([]byte, error) {
	b, _ := io.ReadAll(stdin)
	f.calls = append(f.calls, call{name: name, args: args, env: env, stdin: string(b)})
	return []byte(f.stderr), f.err
}

func newTestQueue(t *testing.T, f *fakeRunner, opts ...Option) *Queue {
	t.Helper()
	base := []Option{
		WithRunner(f.run),
		WithEnviron(func() []string { return []string{"PATH=/usr/bin:/bin", "SHELL=/bin/sh"} }),
	}
	q, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return q
}

func TestSubmit_InvokesAt(t *testing.T) {
	f := &fakeRunner{stderr: "warning: commands will be executed using /bin/sh\njob 12 at Fri Oct 16 13:37:00 2026\n"}
	q := newTestQueue(t, f)

	r, err := q.Submit(context.Background(), jitter.Request{At: "13:37", Command: "aptcron"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(f.calls) != 1 {
		t.Fatalf("expected 1 run, got %d", len(f.calls))
	}
	c := f.calls[0]
	if c.name != "at" {
		t.Errorf("expected binary at, got %q", c.name)
	}
	if !reflect.DeepEqual(c.args, []string{"13:37"}) {
		t.Errorf("unexpected args %v", c.args)
	}
	if c.stdin != "aptcron\n" {
		t.Errorf("unexpected stdin %q", c.stdin)
	}
	if r.JobID != "12" || r.RunAt != "Fri Oct 16 13:37:00 2026" {
		t.Errorf("unexpected receipt %+v", r)
	}
}

func TestSubmit_ForcesShell(t *testing.T) {
	f := &fakeRunner{}
	q := newTestQueue(t, f, WithShell("/bin/bash"))

	if _, err := q.Submit(context.Background(), jitter.Request{At: "0:0", Command: "aptcron"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	var shells []string
	for _, kv := range f.calls[0].env {
		if strings.HasPrefix(kv, "SHELL=") {
			shells = append(shells, kv)
		}
	}
	if !reflect.DeepEqual(shells, []string{"SHELL=/bin/bash"}) {
		t.Fatalf("expected a single SHELL=/bin/bash, got %v", shells)
	}
}

func TestSubmit_QueueAndMailFlags(t *testing.T) {
	f := &fakeRunner{}
	q := newTestQueue(t, f, WithQueue("b"), WithMail(true), WithBinary("/usr/bin/at"))

	if _, err := q.Submit(context.Background(), jitter.Request{At: "9:5", Command: "aptcron --only-new"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	c := f.calls[0]
	if c.name != "/usr/bin/at" {
		t.Errorf("expected /usr/bin/at, got %q", c.name)
	}
	if !reflect.DeepEqual(c.args, []string{"-q", "b", "-m", "9:5"}) {
		t.Errorf("unexpected args %v", c.args)
	}
}

func TestSubmit_FailureWrapsErrSubmit(t *testing.T) {
	f := &fakeRunner{stderr: "Can't open /var/run/atd.pid to signal atd. No atd running?\n", err: errors.New("exit status 1")}
	q := newTestQueue(t, f)

	_, err := q.Submit(context.Background(), jitter.Request{At: "3:14", Command: "aptcron"})
	if !errors.Is(err, ErrSubmit) {
		t.Fatalf("expected ErrSubmit, got %v", err)
	}
	if !strings.Contains(err.Error(), "No atd running") {
		t.Fatalf("expected at's message in error, got %v", err)
	}
	if len(f.calls) != 1 {
		t.Fatalf("expected no retry, got %d calls", len(f.calls))
	}
}

func TestSubmit_MissingBinary(t *testing.T) {
	q, err := New(WithBinary("/nonexistent/at-binary"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = q.Submit(context.Background(), jitter.Request{At: "1:1", Command: "true"})
	if !errors.Is(err, ErrSubmit) {
		t.Fatalf("expected ErrSubmit, got %v", err)
	}
}

func TestSubmit_RejectsEmptyRequest(t *testing.T) {
	f := &fakeRunner{}
	q := newTestQueue(t, f)

	for _, req := range []jitter.Request{{At: "", Command: "aptcron"}, {At: "1:2", Command: "  "}} {
		if _, err := q.Submit(context.Background(), req); !errors.Is(err, ErrSubmit) {
			t.Errorf("expected ErrSubmit for %+v, got %v", req, err)
		}
	}
	if len(f.calls) != 0 {
		t.Fatalf("expected no runs, got %d", len(f.calls))
	}
}

func TestNew_InvalidQueue(t *testing.T) {
	for _, name := range []string{"ab", "1", "="} {
		if _, err := New(WithQueue(name)); err == nil {
			t.Errorf("expected error for queue %q", name)
		}
	}
}

func TestParseReceipt(t *testing.T) {
	tests := []struct {
		out  string
		want jitter.Receipt
	}{
		{"job 3 at Sat Oct 17 00:00:00 2026\n", jitter.Receipt{JobID: "3", RunAt: "Sat Oct 17 00:00:00 2026"}},
		{"warning: commands will be executed using /bin/sh\njob 44 at 2026-10-16 13:37\n", jitter.Receipt{JobID: "44", RunAt: "2026-10-16 13:37"}},
		{"", jitter.Receipt{}},
		{"garbage", jitter.Receipt{}},
	}
	for _, tt := range tests {
		if got := ParseReceipt(tt.out); got != tt.want {
			t.Errorf("ParseReceipt(%q) = %+v, want %+v", tt.out, got, tt.want)
		}
	}
}
