// Package config loads the aptjitter configuration.
//
// Without an explicit file the configuration is layered the same way the
// aptcron configuration is: /etc/aptjitter.yaml first, then every
// /etc/aptjitter.d/*.yaml in lexical order. Missing files are skipped,
// later files override scalar settings, and jobs are merged by name.
// An explicit file (--config or APTJITTER_CONFIG) is read alone and must
// exist. Environment variables are applied last.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"al.essio.dev/pkg/shellescape"
	"github.com/aptjitter/aptjitter/internal/jitter"
	"github.com/aptjitter/aptjitter/internal/scheduler"
)

const (
	DefaultShell   = "/bin/bash"
	DefaultAtPath  = "at"
	DefaultUser    = "root"
	DefaultHistory = "/var/lib/aptjitter/history.db"
	DefaultSocket  = "/run/aptjitter.sock"

	SystemFile = "/etc/aptjitter.yaml"
	DropInGlob = "/etc/aptjitter.d/*.yaml"
	DefaultJob = "aptcron"
	defaultTag = "aptjitter"
)

// ErrNoSuchJob is returned when a job name is not configured.
var ErrNoSuchJob = errors.New("no such job")

var (
	validJobName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	validQueue   = regexp.MustCompile(`^[a-zA-Z]$`)
)

// Config is the aptjitter configuration.
type Config struct {
	// Shell is exported as SHELL to at(1), so the job runs under a known
	// interpreter rather than the queue's default.
	Shell string `yaml:"shell"`

	// AtPath is the at(1) executable.
	AtPath string `yaml:"at_path"`

	// Queue is an optional at queue letter.
	Queue string `yaml:"queue"`

	// Mail makes at mail the user even when the job produces no output.
	Mail bool `yaml:"mail"`

	// User is the crontab user column printed by "aptjitter crontab".
	User string `yaml:"user"`

	// History is the submission log database. Empty disables it.
	History string `yaml:"history"`

	// Socket is the daemon's RPC socket.
	Socket string `yaml:"socket"`

	// Syslog also sends log output to syslog (facility cron).
	Syslog bool `yaml:"syslog"`

	// Jobs lists the jittered jobs.
	Jobs []JobConfig `yaml:"jobs"`

	// Sources lists the files the configuration was read from.
	Sources []string `yaml:"-"`
}

// JobConfig configures one jittered job. Exactly one of Command and Args
// must be set.
type JobConfig struct {
	Name string `yaml:"name"`

	// Command is a shell command line, passed to at as-is.
	Command string `yaml:"command"`

	// Args is an argv, quoted into a command line.
	Args []string `yaml:"args"`

	// Anchor is the daily trigger as a 5-field cron expression.
	// Default: "0 0 * * *".
	Anchor string `yaml:"anchor"`
}

// CommandLine returns the shell command line of the job.
func (j JobConfig) CommandLine() string {
	if j.Command != "" {
		return j.Command
	}
	return shellescape.QuoteCommand(j.Args)
}

// AnchorExpr returns the anchor, defaulting to midnight.
func (j JobConfig) AnchorExpr() string {
	if j.Anchor == "" {
		return scheduler.DefaultAnchor
	}
	return j.Anchor
}

// Default returns the built-in configuration: a single aptcron job at
// midnight run under /bin/bash.
func Default() *Config {
	return &Config{
		Shell:   DefaultShell,
		AtPath:  DefaultAtPath,
		User:    DefaultUser,
		History: DefaultHistory,
		Socket:  DefaultSocket,
	}
}

func defaultJobs() []JobConfig {
	return []JobConfig{{Name: DefaultJob, Command: DefaultJob, Anchor: scheduler.DefaultAnchor}}
}

// SyslogTag is the tag used for syslog output.
func (c *Config) SyslogTag() string {
	return defaultTag
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !filepath.IsAbs(c.Shell) {
		return fmt.Errorf("shell %q must be an absolute path", c.Shell)
	}
	if c.AtPath == "" {
		return errors.New("at_path must not be empty")
	}
	if c.Queue != "" && !validQueue.MatchString(c.Queue) {
		return fmt.Errorf("queue %q must be a single letter", c.Queue)
	}
	if len(c.Jobs) == 0 {
		return errors.New("no jobs configured")
	}
	seen := make(map[string]bool, len(c.Jobs))
	for i, j := range c.Jobs {
		if !validJobName.MatchString(j.Name) {
			return fmt.Errorf("jobs[%d]: invalid name %q", i, j.Name)
		}
		if seen[j.Name] {
			return fmt.Errorf("jobs[%d]: duplicate name %q", i, j.Name)
		}
		seen[j.Name] = true
		switch {
		case j.Command != "" && len(j.Args) > 0:
			return fmt.Errorf("job %s: command and args are mutually exclusive", j.Name)
		case j.Command == "" && len(j.Args) == 0:
			return fmt.Errorf("job %s: command must not be empty", j.Name)
		}
		if err := scheduler.ValidateAnchor(j.AnchorExpr()); err != nil {
			return fmt.Errorf("job %s: %w", j.Name, err)
		}
	}
	return nil
}

// JitterJobs converts the configured jobs.
func (c *Config) JitterJobs() []jitter.Job {
	jobs := make([]jitter.Job, 0, len(c.Jobs))
	for _, j := range c.Jobs {
		jobs = append(jobs, jitter.Job{Name: j.Name, Command: j.CommandLine(), Anchor: j.AnchorExpr()})
	}
	return jobs
}

// Job returns the named job.
func (c *Config) Job(name string) (jitter.Job, error) {
	for _, j := range c.JitterJobs() {
		if j.Name == name {
			return j, nil
		}
	}
	return jitter.Job{}, fmt.Errorf("%w: %s", ErrNoSuchJob, name)
}

// SelectJobs returns the named job, or every job when name is empty.
func (c *Config) SelectJobs(name string) ([]jitter.Job, error) {
	if name == "" {
		return c.JitterJobs(), nil
	}
	j, err := c.Job(name)
	if err != nil {
		return nil, err
	}
	return []jitter.Job{j}, nil
}
