package cmd

import (
	"fmt"

	"github.com/aptjitter/aptjitter/cmd/common"
	"github.com/aptjitter/aptjitter/internal/jitter"
	"github.com/urfave/cli"
)

const runAtLayout = "Mon Jan 2 15:04 2006"

// offset draws an offset per job like trigger does but only prints it.
func offset(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	env, err := setup(false)
	if err != nil {
		return fail(ctx, "offset", "load_config", err)
	}
	defer env.close()

	jobs, err := env.cfg.SelectJobs(jobName)
	if err != nil {
		return fail(ctx, "offset", "select_job", err)
	}
	r := newRand()
	for _, job := range jobs {
		off, runAt := jitter.NewScheduler(job, r, nil, jitter.WithClock(now)).Preview()
		fmt.Fprintf(common.Stdout, "%s\t%s\t%s\n", job.Name, off, runAt.Format(runAtLayout))
	}
	return nil
}
