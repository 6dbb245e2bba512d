// Package daemon runs the jitter cycle of every configured job at its
// anchor and serves the RPC socket. It manages start, stop and graceful
// shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aptjitter/aptjitter/internal/config"
	"github.com/aptjitter/aptjitter/internal/jitter"
	"github.com/aptjitter/aptjitter/internal/scheduler"
	"github.com/aptjitter/aptjitter/internal/server"
	"github.com/aptjitter/aptjitter/pkg/logger"
)

// Sentinel errors for the daemon runner.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running daemon.
	ErrAlreadyRunning = errors.New("daemon is already running")

	// ErrNotRunning is returned when Shutdown() is called on a stopped daemon.
	ErrNotRunning = errors.New("daemon is not running")

	// ErrShutdownTimeout is returned when shutdown exceeds the configured timeout.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// Store records submissions and reads them back.
type Store interface {
	jitter.Recorder
	server.History
}

// Config holds the configuration for the daemon runner.
type Config struct {
	// Jobs are triggered at their anchors. At least one is required.
	Jobs []jitter.Job

	// SocketPath is where the RPC socket is created. Empty disables it.
	SocketPath string

	// RPC is reported by system.getVersion.
	RPC *server.RPCConfig

	// ShutdownTimeout bounds each shutdown step: draining the socket
	// server, waiting for Start to return and running ShutdownFunc.
	// A zero value means no timeout.
	ShutdownTimeout time.Duration
}

// Dependencies holds the external dependencies for the daemon runner.
type Dependencies struct {
	// Submitter hands jobs to at. Required.
	Submitter jitter.Submitter

	// Rand draws offsets. If nil, a crypto-seeded source is used.
	Rand jitter.Rand

	// Store records submissions. If nil, history is disabled.
	Store Store

	// Logger receives trigger and lifecycle messages.
	Logger logger.Logger

	// Clock stamps triggers and computes anchors. Defaults to time.Now.
	Clock func() time.Time

	// User is recorded with each submission.
	User string

	// Lock takes the single-instance lock at path. Defaults to an
	// exclusive flock.
	Lock func(path string) (io.Closer, error)

	// ShutdownFunc is called by Shutdown after Start has returned, so no
	// trigger is in flight (e.g. closing the history store).
	// If nil, no cleanup function is called.
	ShutdownFunc func() error
}

// Runner manages the daemon lifecycle.
type Runner struct {
	config     *Config
	deps       *Dependencies
	schedulers map[string]*jitter.Scheduler

	// trigger serializes cycles started by anchors and by RPC.
	trigger sync.Mutex

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	anchors *scheduler.Scheduler
	lock    io.Closer

	// done is closed when Start returns.
	done chan struct{}
}

// New creates a daemon runner for the configured jobs.
func New(cfg *Config, deps *Dependencies) (*Runner, error) {
	if cfg == nil || len(cfg.Jobs) == 0 {
		return nil, errors.New("error: no jobs to run")
	}
	if deps == nil || deps.Submitter == nil {
		return nil, errors.New("error: missing submitter")
	}
	d := applyDependencyDefaults(deps)

	r := &Runner{
		config:     cfg,
		deps:       d,
		schedulers: make(map[string]*jitter.Scheduler, len(cfg.Jobs)),
	}
	for _, job := range cfg.Jobs {
		if _, dup := r.schedulers[job.Name]; dup {
			return nil, fmt.Errorf("error: duplicate job %q", job.Name)
		}
		if err := scheduler.ValidateAnchor(job.Anchor); err != nil {
			return nil, fmt.Errorf("job %s: %w", job.Name, err)
		}
		opts := []jitter.Option{
			jitter.WithLogger(d.Logger),
			jitter.WithClock(d.Clock),
			jitter.WithUser(d.User),
		}
		if d.Store != nil {
			opts = append(opts, jitter.WithRecorder(d.Store))
		}
		r.schedulers[job.Name] = jitter.NewScheduler(job, d.Rand, d.Submitter, opts...)
	}
	return r, nil
}

// applyDependencyDefaults returns Dependencies with default values applied.
func applyDependencyDefaults(deps *Dependencies) *Dependencies {
	d := *deps
	if d.Rand == nil {
		d.Rand = jitter.NewMathRand()
	}
	if d.Logger == nil {
		d.Logger = logger.NewNopLogger()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Lock == nil {
		d.Lock = Lock
	}
	return &d
}

// Jobs returns the configured jobs.
func (r *Runner) Jobs() []jitter.Job {
	jobs := make([]jitter.Job, len(r.config.Jobs))
	copy(jobs, r.config.Jobs)
	return jobs
}

// Trigger runs one jitter cycle for the named job now. The submission
// outcome is in the returned Submission. The error is only set for an
// unknown job.
func (r *Runner) Trigger(ctx context.Context, name string) (jitter.Submission, error) {
	s, ok := r.schedulers[name]
	if !ok {
		return jitter.Submission{}, fmt.Errorf("%w: %s", config.ErrNoSuchJob, name)
	}
	r.trigger.Lock()
	defer r.trigger.Unlock()
	return s.Trigger(ctx), nil
}

// NextAnchor returns when the named job's anchor fires next. While running
// it reports the pending event, otherwise it computes it from the clock.
func (r *Runner) NextAnchor(name string) (time.Time, bool) {
	r.mu.Lock()
	anchors := r.anchors
	r.mu.Unlock()

	if anchors != nil {
		for _, ev := range anchors.Pending() {
			if ev.Job == name {
				return ev.TriggerAt, true
			}
		}
	}
	s, ok := r.schedulers[name]
	if !ok {
		return time.Time{}, false
	}
	next, err := scheduler.NextAnchor(s.Job().Anchor, r.deps.Clock())
	if err != nil {
		return time.Time{}, false
	}
	return next, true
}

// Start takes the instance lock, schedules every job's anchor, serves the
// RPC socket and blocks until the context is canceled.
// Returns ErrAlreadyRunning if the daemon is already started.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}

	if r.config.SocketPath != "" {
		lock, err := r.deps.Lock(r.config.SocketPath + ".lock")
		if err != nil {
			r.mu.Unlock()
			return err
		}
		r.lock = lock
	}

	ctx, r.cancel = context.WithCancel(ctx)

	events, err := scheduler.Events(r.config.Jobs, r.deps.Clock())
	if err != nil {
		r.cancel()
		r.releaseLock()
		r.mu.Unlock()
		return err
	}
	r.anchors = scheduler.New(ctx, func(job string) { r.onAnchor(ctx, job) })
	for _, ev := range events {
		r.anchors.Add(ev)
		r.deps.Logger.Info("%s: next anchor %s", ev.Job, ev.TriggerAt.Format(time.RFC3339))
	}

	r.running = true
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()
	defer close(done)

	serveErr := make(chan error, 1)
	serving := r.config.SocketPath != ""
	if serving {
		srv := server.NewServer(r.deps.Logger, server.NewRPCServer(r.config.RPC, r, r.deps.Store), r.config.SocketPath)
		go func() { serveErr <- srv.Start(ctx) }()
	}

	var result error
	select {
	case <-ctx.Done():
		result = ctx.Err()
	case err := <-serveErr:
		serving = false
		result = err
		if result == nil {
			result = ctx.Err()
		}
	}

	// The server removes the socket file once its context is done.
	r.stop()
	if serving {
		if err, werr := await[error](serveErr, r.config.ShutdownTimeout); werr != nil {
			r.deps.Logger.Warning("socket %s: %v", r.config.SocketPath, werr)
		} else if err != nil {
			r.deps.Logger.Warning("socket %s: %v", r.config.SocketPath, err)
		}
	}

	r.cleanupOnStop()
	return result
}

// onAnchor runs on the anchor loop goroutine.
func (r *Runner) onAnchor(ctx context.Context, job string) {
	if _, err := r.Trigger(ctx, job); err != nil {
		r.deps.Logger.Error("%v", err)
	}
}

// cleanupOnStop performs cleanup when the daemon stops.
func (r *Runner) cleanupOnStop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = false
	if r.cancel != nil {
		r.cancel()
	}
	r.anchors = nil
	r.releaseLock()
}

// releaseLock drops the instance lock. Caller must hold the mutex.
func (r *Runner) releaseLock() {
	if r.lock != nil {
		_ = r.lock.Close()
		r.lock = nil
	}
}

// Shutdown stops the daemon, waits for Start to return and then runs
// ShutdownFunc.
// Returns ErrNotRunning if the daemon is not running.
// Returns ErrShutdownTimeout if either wait exceeds the configured timeout.
func (r *Runner) Shutdown() error {
	done, err := r.validateRunning()
	if err != nil {
		return err
	}
	r.stop()
	if _, err := await(done, r.config.ShutdownTimeout); err != nil {
		return err
	}
	return r.executeShutdownFunc()
}

// validateRunning checks if the daemon is running and returns the channel
// closed when Start returns.
func (r *Runner) validateRunning() (<-chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return nil, ErrNotRunning
	}
	return r.done, nil
}

// executeShutdownFunc runs the shutdown function, bounded by the
// configured timeout.
func (r *Runner) executeShutdownFunc() error {
	if r.deps.ShutdownFunc == nil {
		return nil
	}
	res := make(chan error, 1)
	go func() {
		res <- r.deps.ShutdownFunc()
	}()
	err, werr := await[error](res, r.config.ShutdownTimeout)
	if werr != nil {
		return werr
	}
	return err
}

// await receives from ch. A positive timeout makes it give up with
// ErrShutdownTimeout.
func await[T any](ch <-chan T, timeout time.Duration) (T, error) {
	if timeout <= 0 {
		return <-ch, nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case v := <-ch:
		return v, nil
	case <-t.C:
		var zero T
		return zero, ErrShutdownTimeout
	}
}

// stop cancels the run context. Start performs the remaining cleanup.
func (r *Runner) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
}

// IsRunning returns true if the daemon is currently running.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
