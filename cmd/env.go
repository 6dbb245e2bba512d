package cmd

import (
	"os/user"
	"strconv"
	"time"

	"github.com/aptjitter/aptjitter/cmd/common"
	"github.com/aptjitter/aptjitter/internal/atq"
	"github.com/aptjitter/aptjitter/internal/config"
	"github.com/aptjitter/aptjitter/internal/history"
	"github.com/aptjitter/aptjitter/internal/jitter"
	"github.com/aptjitter/aptjitter/pkg/logger"
	"github.com/urfave/cli"
	"golang.org/x/sys/unix"
)

// Seams replaced by tests.
var (
	loadConfig  = config.Load
	newRand     = func() jitter.Rand { return jitter.NewMathRand() }
	now         = time.Now
	lookupUser  = currentUser
	queueRunner atq.Runner
	newSyslog   = func(tag string) (logger.Logger, error) {
		l, err := logger.NewSyslogLogger(tag)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
)

// runtimeEnv is what every action starts from.
type runtimeEnv struct {
	cfg *config.Config
	log logger.Logger
}

// setup loads the configuration and builds the logger. When quiet, stderr
// only carries errors.
func setup(quiet bool) (*runtimeEnv, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return &runtimeEnv{cfg: cfg, log: newLogger(cfg, quiet)}, nil
}

func (e *runtimeEnv) close() {
	_ = e.log.Close()
}

// newLogger logs to stderr, and to syslog as well when configured. A quiet
// logger drops everything but errors on stderr. Syslog always gets every
// message.
func newLogger(cfg *config.Config, quiet bool) logger.Logger {
	var std logger.Logger = logger.NewWriterLogger(common.Stderr, "aptjitter: ")
	if quiet {
		std = logger.NewErrorOnlyLogger(std)
	}
	if !cfg.Syslog {
		return std
	}
	sl, err := newSyslog(cfg.SyslogTag())
	if err != nil {
		std.Warning("syslog disabled: %v", err)
		return std
	}
	return logger.NewMultiLogger(std, sl)
}

// newQueue builds the at(1) submitter from the configuration.
func newQueue(cfg *config.Config) (*atq.Queue, error) {
	opts := []atq.Option{
		atq.WithBinary(cfg.AtPath),
		atq.WithShell(cfg.Shell),
		atq.WithQueue(cfg.Queue),
		atq.WithMail(cfg.Mail),
	}
	if queueRunner != nil {
		opts = append(opts, atq.WithRunner(queueRunner))
	}
	return atq.New(opts...)
}

// openHistory opens the submission log. It returns nil when history is
// disabled or cannot be opened, in which case submissions are not
// recorded.
func (e *runtimeEnv) openHistory() *history.Store {
	if e.cfg.History == "" {
		return nil
	}
	store, err := history.Open(e.cfg.History)
	if err != nil {
		e.log.Warning("history disabled: %v", err)
		return nil
	}
	return store
}

// currentUser names the user the trigger runs as, falling back to the
// numeric uid.
func currentUser() string {
	uid := strconv.Itoa(unix.Getuid())
	if u, err := user.LookupId(uid); err == nil {
		return u.Username
	}
	return uid
}

// fail reports err for the action and makes the process exit 1.
func fail(ctx *cli.Context, cmd, action string, err error) error {
	common.PrintRuntimeErr(ctx, cmd, action, err)
	return cli.NewExitError("", 1)
}
