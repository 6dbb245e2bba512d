package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/aptjitter/aptjitter/cmd/common"
	"github.com/aptjitter/aptjitter/internal/history"
	"github.com/urfave/cli"
)

var (
	historyLimit int

	historyFlags = []cli.Flag{
		jobFlag,
		cli.IntFlag{
			Name:        "limit, n",
			Usage:       "maximum number of submissions to show",
			Value:       DEF_HISTORY_LIMIT,
			Destination: &historyLimit,
		},
	}
)

// listHistory prints recorded submissions newest first. It reads the database
// directly and does not need the daemon.
func listHistory(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	env, err := setup(false)
	if err != nil {
		return fail(ctx, "history", "load_config", err)
	}
	defer env.close()

	if env.cfg.History == "" {
		return fail(ctx, "history", "open", errors.New("history is disabled in the configuration"))
	}
	if historyLimit <= 0 {
		return fail(ctx, "history", "limit", fmt.Errorf("invalid limit %d", historyLimit))
	}
	store, err := history.Open(env.cfg.History)
	if err != nil {
		return fail(ctx, "history", "open", err)
	}
	defer store.Close()

	subs, err := store.List(context.Background(), jobName, historyLimit)
	if err != nil {
		return fail(ctx, "history", "list", err)
	}
	if len(subs) == 0 {
		fmt.Fprintln(common.Stdout, "aptjitter: no submissions recorded")
		return nil
	}
	for _, s := range subs {
		result := "job " + s.AtJobID
		if s.Failed() {
			result = "error: " + s.Error
		} else if s.AtJobID == "" {
			result = "queued"
		}
		fmt.Fprintf(common.Stdout, "%s\t%s\t%s\t%s\t%s\n",
			s.TriggeredAt.Local().Format("2006-01-02 15:04:05"), s.Job, s.At, s.User, result)
	}
	return nil
}
