package cmd

import (
	"context"
	"errors"

	"github.com/aptjitter/aptjitter/internal/daemon"
	"github.com/aptjitter/aptjitter/internal/server"
	"github.com/urfave/cli"
)

var shutdownHandler = setupShutdownHandler

// runDaemon triggers every job at its anchor until SIGINT or SIGTERM, then
// shuts the runner down and closes the history store.
func runDaemon(ctx *cli.Context) error {
	env, err := setup(false)
	if err != nil {
		return fail(ctx, "daemon", "load_config", err)
	}
	defer env.close()

	q, err := newQueue(env.cfg)
	if err != nil {
		return fail(ctx, "daemon", "at_queue", err)
	}
	var store daemon.Store
	closeStore := func() error { return nil }
	if h := env.openHistory(); h != nil {
		store = h
		closeStore = h.Close
	}

	runner, err := daemon.New(&daemon.Config{
		Jobs:       env.cfg.JitterJobs(),
		SocketPath: env.cfg.Socket,
		RPC: &server.RPCConfig{
			Version:   buildArgs.Version,
			Commit:    buildArgs.Commit,
			BuildType: buildArgs.BuildType,
		},
		ShutdownTimeout: DEF_SHUTDOWN_TIMEOUT,
	}, &daemon.Dependencies{
		Submitter:    q,
		Rand:         newRand(),
		Store:        store,
		Logger:       env.log,
		Clock:        now,
		User:         lookupUser(),
		ShutdownFunc: closeStore,
	})
	if err != nil {
		_ = closeStore()
		return fail(ctx, "daemon", "new_runner", err)
	}

	sctx, cancel := shutdownHandler()
	defer cancel()

	stopped := make(chan error, 1)
	go func() {
		<-sctx.Done()
		stopped <- runner.Shutdown()
	}()

	env.log.Info("daemon started with %d jobs", len(env.cfg.Jobs))
	err = runner.Start(sctx)
	cancel()
	switch serr := <-stopped; {
	case errors.Is(serr, daemon.ErrNotRunning):
		// Start returned before Shutdown saw it running.
		_ = closeStore()
	case serr != nil:
		env.log.Error("shutdown: %v", serr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fail(ctx, "daemon", "start", err)
	}
	env.log.Info("daemon stopped")
	return nil
}
