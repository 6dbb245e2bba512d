package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/aptjitter/aptjitter/cmd/common"
	shared "github.com/aptjitter/aptjitter/common"
	"github.com/aptjitter/aptjitter/pkg/jittercli"
	"github.com/urfave/cli"
)

var newClient = jittercli.NewClient

// status prints the daemon's view of every job.
func status(ctx *cli.Context) error {
	env, err := setup(false)
	if err != nil {
		return fail(ctx, "status", "load_config", err)
	}
	defer env.close()

	client, err := newClient(env.cfg.Socket)
	if err != nil {
		return fail(ctx, "status", "new_client", err)
	}
	defer client.Close()

	res, err := client.Jobs(context.Background())
	if err != nil {
		return fail(ctx, "status", "job_list", err)
	}
	if len(res.Jobs) == 0 {
		fmt.Fprintln(common.Stdout, "aptjitter: no jobs configured")
		return nil
	}

	txt := "Jobs:"
	txt += "\n\n--------------------------------------------------------------------------"
	txt += "\n|" + common.Beaut("Job", 12) + "|" + common.Beaut("Anchor", 13) + "|" + common.Beaut("Next anchor", 22) + "|" + common.Beaut("Last", 22) + "|"
	txt += "\n|------------|-------------|----------------------|----------------------|"
	for _, job := range res.Jobs {
		next := "-"
		if !job.NextAnchor.IsZero() {
			next = job.NextAnchor.Local().Format(runAtLayout)
		}
		txt += fmt.Sprintf("\n|%s|%s|%s|%s|",
			common.Beaut(job.Name, 12),
			common.Beaut(job.Anchor, 13),
			common.Beaut(next, 22),
			common.Beaut(lastSummary(job.Last), 22),
		)
	}
	txt += "\n--------------------------------------------------------------------------"
	fmt.Fprintln(common.Stdout, txt)
	return nil
}

// lastSummary renders a submission as "13:37 job 12" or "4:20 failed".
func lastSummary(s *shared.SubmissionInfo) string {
	if s == nil {
		return "never"
	}
	var b strings.Builder
	b.WriteString(s.At)
	switch {
	case s.Failed():
		b.WriteString(" failed")
	case s.AtJobID != "":
		b.WriteString(" job " + s.AtJobID)
	}
	return b.String()
}
