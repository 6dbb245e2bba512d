// Package atq submits one-shot jobs to the at(1) queue.
package atq

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/aptjitter/aptjitter/internal/jitter"
)

const (
	DefaultBinary = "at"
	DefaultShell  = "/bin/bash"
)

// ErrSubmit is returned when at(1) does not accept a job.
var ErrSubmit = errors.New("at submission failed")

// receiptPattern matches the "job 12 at Fri Oct 16 13:37:00 2026" line at
// prints on stderr.
var receiptPattern = regexp.MustCompile(`(?m)^job\s+(\d+)\s+at\s+(.+?)\s*$`)

// validQueue matches the single-letter queue names at accepts.
var validQueue = regexp.MustCompile(`^[a-zA-Z]$`)

// Runner executes name with args, environment env and standard input stdin,
// returning what the process wrote to stderr.
type Runner func(ctx context.Context, name string, args, env []string, stdin io.Reader) (stderr []byte, err error)

func execRunner(ctx context.Context, name string, args, env []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = io.Discard
	err := cmd.Run()
	return stderr.Bytes(), err
}

// Queue submits jobs by running at(1).
type Queue struct {
	binary  string
	shell   string
	queue   string
	mail    bool
	run     Runner
	environ func() []string
}

// Option configures a Queue.
type Option func(*Queue)

// WithBinary sets the path of the at executable.
func WithBinary(path string) Option {
	return func(q *Queue) {
		if path != "" {
			q.binary = path
		}
	}
}

// WithShell sets the interpreter exported as SHELL to at and the job.
func WithShell(shell string) Option {
	return func(q *Queue) {
		if shell != "" {
			q.shell = shell
		}
	}
}

// WithQueue selects an at queue letter (at -q).
func WithQueue(name string) Option {
	return func(q *Queue) { q.queue = name }
}

// WithMail asks at to mail the user even when the job prints nothing (at -m).
func WithMail(mail bool) Option {
	return func(q *Queue) { q.mail = mail }
}

// WithRunner replaces the process runner. Used by tests.
func WithRunner(r Runner) Option {
	return func(q *Queue) { q.run = r }
}

// WithEnviron replaces the base environment passed to at.
func WithEnviron(environ func() []string) Option {
	return func(q *Queue) { q.environ = environ }
}

// New returns a Queue using at from $PATH and /bin/bash unless overridden.
func New(opts ...Option) (*Queue, error) {
	q := &Queue{
		binary:  DefaultBinary,
		shell:   DefaultShell,
		run:     execRunner,
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.queue != "" && !validQueue.MatchString(q.queue) {
		return nil, fmt.Errorf("invalid at queue %q: must be a single letter", q.queue)
	}
	return q, nil
}

// Args returns the at(1) arguments used to submit a job for the clock time at.
func (q *Queue) Args(at string) []string {
	var args []string
	if q.queue != "" {
		args = append(args, "-q", q.queue)
	}
	if q.mail {
		args = append(args, "-m")
	}
	return append(args, at)
}

// Env returns the environment for at with SHELL forced to the configured
// interpreter.
func (q *Queue) Env() []string {
	base := q.environ()
	env := make([]string, 0, len(base)+1)
	for _, kv := range base {
		if strings.HasPrefix(kv, "SHELL=") {
			continue
		}
		env = append(env, kv)
	}
	return append(env, "SHELL="+q.shell)
}

// Submit hands req.Command to at for the clock time req.At. The call is
// made once. Errors wrap ErrSubmit and include what at printed.
func (q *Queue) Submit(ctx context.Context, req jitter.Request) (jitter.Receipt, error) {
	if strings.TrimSpace(req.At) == "" {
		return jitter.Receipt{}, fmt.Errorf("%w: empty time", ErrSubmit)
	}
	if strings.TrimSpace(req.Command) == "" {
		return jitter.Receipt{}, fmt.Errorf("%w: empty command", ErrSubmit)
	}
	script := req.Command
	if !strings.HasSuffix(script, "\n") {
		script += "\n"
	}
	stderr, err := q.run(ctx, q.binary, q.Args(req.At), q.Env(), strings.NewReader(script))
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			return jitter.Receipt{}, fmt.Errorf("%w: %v", ErrSubmit, err)
		}
		return jitter.Receipt{}, fmt.Errorf("%w: %v: %s", ErrSubmit, err, msg)
	}
	return ParseReceipt(string(stderr)), nil
}

// ParseReceipt extracts the job id and run time from at's output. Missing
// information leaves the fields empty.
func ParseReceipt(out string) jitter.Receipt {
	m := receiptPattern.FindStringSubmatch(out)
	if m == nil {
		return jitter.Receipt{}
	}
	return jitter.Receipt{JobID: m[1], RunAt: m[2]}
}

var _ jitter.Submitter = (*Queue)(nil)
