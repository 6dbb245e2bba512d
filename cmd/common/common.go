// Package common provides shared helpers for the aptjitter CLI commands:
// error reporting, help display and text formatting.
package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli"
)

// VersionCmdStr holds the formatted version string displayed by the version command.
// It is populated at runtime by the Execute function with build-time information
// including version, platform, build date, and commit hash.
var VersionCmdStr string

// Stdout and Stderr are where commands write. Tests replace them.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

var (
	showAppHelpAndExit = cli.ShowAppHelpAndExit
	showCommandHelp    = cli.ShowCommandHelp
)

// Help displays help information for the application or a specific command.
// If no argument is provided or the argument is "help", it displays the
// application-level help and exits. Otherwise, it shows help for the
// specified command name.
func Help(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "" || arg == "help" {
		fmt.Fprintf(Stdout, "%s %s\n", ctx.App.Name, ctx.App.Version)
		showAppHelpAndExit(ctx, 0)
		return nil
	}
	err := showCommandHelp(ctx, arg)
	if err != nil {
		return err
	}
	return nil
}

// GetVersion prints the version string to stdout and returns nil.
func GetVersion(ctx *cli.Context) error {
	fmt.Fprintln(Stdout, VersionCmdStr)
	return nil
}

// PrintRuntimeErr prints a runtime error to stderr, tagged with the
// application name, command name and the failing action. When run from
// cron, stderr is what ends up in the mail to the crontab owner.
func PrintRuntimeErr(ctx *cli.Context, cmd, action string, err error) {
	if err == nil {
		fmt.Fprintln(Stderr, "err is nil", "[", cmd, "|", action, "]")
		return
	}
	var name string
	if ctx != nil && ctx.App != nil {
		name = ctx.App.HelpName
	} else {
		name = os.Args[0]
	}
	fmt.Fprintf(Stderr, "%s: %s[%s]: %s\n", name, cmd, action, err.Error())
}

// PrintErrWithCmdHelp prints the error message followed by the current
// command's help text.
func PrintErrWithCmdHelp(ctx *cli.Context, err error) error {
	return printErrWithCallback(
		ctx,
		err,
		func() {
			err := showCommandHelp(ctx, ctx.Command.Name)
			if err != nil {
				fmt.Fprintln(Stderr, err.Error())
			}
		},
	)
}

// PrintErrWithHelp prints the error message followed by the application-level
// help text and exits with status code 1.
func PrintErrWithHelp(ctx *cli.Context, err error) error {
	return printErrWithCallback(
		ctx,
		err,
		func() {
			showAppHelpAndExit(ctx, 1)
		},
	)
}

func printErrWithCallback(ctx *cli.Context, err error, callback func()) error {
	if err == nil {
		return nil
	}
	estr := strings.ToLower(err.Error())
	if estr == "flag: help requested" {
		return Help(ctx)
	}
	if strings.Contains(estr, "-version") ||
		strings.Contains(estr, "-v") {
		return GetVersion(ctx)
	}
	fmt.Fprintf(Stderr, "%s: %s\n\n", ctx.App.HelpName, err.Error())
	callback()
	return nil
}

// UsageErrorCallback handles usage errors from the CLI framework. It is
// used as the OnUsageError callback for cli.App and cli.Command.
func UsageErrorCallback(ctx *cli.Context, err error, _ bool) error {
	if ctx.Command.Name != "" {
		return PrintErrWithCmdHelp(ctx, err)
	}
	return PrintErrWithHelp(ctx, err)
}

// Beaut centers a string within a field of width n by padding with spaces.
// If n minus the string length is odd, an extra space is appended at the end.
func Beaut(s string, n int) (b string) {
	n1 := len(s)
	x := n - n1
	if x < 0 {
		return s
	}
	x1 := x / 2
	w := string(
		replic(' ', x1),
	)
	b = w
	b += s
	b += w
	if x%2 != 0 {
		b += " "
	}
	return
}

func replic[aT any](v aT, n int) []aT {
	a := make([]aT, n)
	for i := range a {
		a[i] = v
	}
	return a
}
