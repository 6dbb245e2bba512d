package cmd

import (
	"context"
	"fmt"

	"github.com/aptjitter/aptjitter/internal/jitter"
	"github.com/urfave/cli"
)

// trigger runs one jitter cycle for each selected job. It is the default
// action and what the installed crontab runs. Unless --verbose is given it
// writes nothing on success, so cron only mails failures.
func trigger(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	env, err := setup(!verbose)
	if err != nil {
		return fail(ctx, "trigger", "load_config", err)
	}
	defer env.close()

	jobs, err := env.cfg.SelectJobs(jobName)
	if err != nil {
		return fail(ctx, "trigger", "select_job", err)
	}
	q, err := newQueue(env.cfg)
	if err != nil {
		return fail(ctx, "trigger", "at_queue", err)
	}

	opts := []jitter.Option{
		jitter.WithLogger(env.log),
		jitter.WithUser(lookupUser()),
		jitter.WithClock(now),
	}
	if store := env.openHistory(); store != nil {
		defer store.Close()
		opts = append(opts, jitter.WithRecorder(store))
	}

	r := newRand()
	var failed int
	for _, job := range jobs {
		sub := jitter.NewScheduler(job, r, q, opts...).Trigger(context.Background())
		if sub.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fail(ctx, "trigger", "submit", fmt.Errorf("%d of %d submissions failed", failed, len(jobs)))
	}
	return nil
}
