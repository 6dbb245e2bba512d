package cmd

import (
	"fmt"
	"os"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/aptjitter/aptjitter/cmd/common"
	"github.com/urfave/cli"
)

var executable = os.Executable

// crontab prints a cron.d fragment with one trigger line per job.
func crontab(ctx *cli.Context) error {
	env, err := setup(false)
	if err != nil {
		return fail(ctx, "crontab", "load_config", err)
	}
	defer env.close()

	bin := ctx.App.Name
	if path, err := executable(); err == nil {
		bin = path
	}
	base := []string{bin}
	if configPath != "" {
		base = append(base, "--config", configPath)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Installed by %s %s. Each line submits the job to at(1)\n", ctx.App.Name, buildArgs.Version)
	fmt.Fprintf(&b, "# at a random time of day.\n")
	fmt.Fprintf(&b, "SHELL=%s\n", env.cfg.Shell)
	for _, job := range env.cfg.JitterJobs() {
		argv := append(append([]string{}, base...), "trigger", "--job", job.Name)
		fmt.Fprintf(&b, "%s %s %s\n", job.Anchor, env.cfg.User, cronEscape(shellescape.QuoteCommand(argv)))
	}
	fmt.Fprint(common.Stdout, b.String())
	return nil
}

// cronEscape escapes %, which cron turns into a newline in the command
// field.
func cronEscape(command string) string {
	return strings.ReplaceAll(command, "%", `\%`)
}
