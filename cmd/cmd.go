// Package cmd implements the aptjitter command line.
package cmd

import (
	"fmt"
	"runtime"

	"github.com/aptjitter/aptjitter/cmd/common"
	"github.com/urfave/cli"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var (
	buildArgs  BuildArgs
	configPath string
	jobName    string
	verbose    bool

	globalFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "read only this config file instead of /etc/aptjitter.yaml and /etc/aptjitter.d",
			EnvVar:      "APTJITTER_CONFIG",
			Destination: &configPath,
		},
	}

	jobFlag = cli.StringFlag{
		Name:        "job, j",
		Usage:       "only act on the named job (default: all jobs)",
		Destination: &jobName,
	}

	verboseFlag = cli.BoolFlag{
		Name:        "verbose, v",
		Usage:       "also log successful submissions and warnings to stderr",
		Destination: &verbose,
	}
)

func Execute(args []string, bArgs BuildArgs) error {
	buildArgs = bArgs
	app := cli.App{
		Name:                  "aptjitter",
		HelpName:              "aptjitter",
		Usage:                 "Run daily jobs at a random time of day.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "aptjitter [--config FILE] <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Commands: []cli.Command{
			{
				Name:               "trigger",
				Aliases:            []string{"t"},
				Usage:              "submit each job to at(1) at a random time today",
				Action:             trigger,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        TriggerDescription,
				Flags:              []cli.Flag{jobFlag, verboseFlag},
			},
			{
				Name:               "offset",
				Aliases:            []string{"o"},
				Usage:              "print a random time of day without submitting",
				Action:             offset,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        OffsetDescription,
				Flags:              []cli.Flag{jobFlag},
			},
			{
				Name:               "crontab",
				Usage:              "print the crontab fragment that installs the trigger",
				UsageText:          " ",
				Action:             crontab,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        CrontabDescription,
			},
			{
				Name:               "daemon",
				Usage:              "trigger jobs at their anchors from a long-running process",
				UsageText:          " ",
				Action:             runDaemon,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        DaemonDescription,
			},
			{
				Name:               "status",
				Aliases:            []string{"s"},
				Usage:              "show the daemon's jobs and their last submission",
				UsageText:          " ",
				Action:             status,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        StatusDescription,
			},
			{
				Name:                   "history",
				Aliases:                []string{"l"},
				Usage:                  "display recorded submissions",
				Action:                 listHistory,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            HistoryDescription,
				UseShortOptionHandling: true,
				Flags:                  historyFlags,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of aptjitter",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:      trigger,
		Flags:       append(globalFlags, jobFlag, verboseFlag),
		HideHelp:    true,
		HideVersion: true,
		Writer:      common.Stdout,
		ErrWriter:   common.Stderr,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
