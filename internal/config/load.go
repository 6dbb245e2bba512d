package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/aptjitter/aptjitter/common"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// fileConfig is one config file. Pointers distinguish unset keys from zero
// values so that later files only override what they mention.
type fileConfig struct {
	Shell   *string     `yaml:"shell"`
	AtPath  *string     `yaml:"at_path"`
	Queue   *string     `yaml:"queue"`
	Mail    *bool       `yaml:"mail"`
	User    *string     `yaml:"user"`
	History *string     `yaml:"history"`
	Socket  *string     `yaml:"socket"`
	Syslog  *bool       `yaml:"syslog"`
	Jobs    []JobConfig `yaml:"jobs"`
}

// Loader reads configuration files from Fs.
type Loader struct {
	Fs afero.Fs

	// LookupEnv reads environment overrides. Default: os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// SystemFile and DropInGlob locate the layered configuration.
	SystemFile string
	DropInGlob string
}

// NewLoader returns a Loader over the real filesystem and environment.
func NewLoader() *Loader {
	return &Loader{
		Fs:         afero.NewOsFs(),
		LookupEnv:  os.LookupEnv,
		SystemFile: SystemFile,
		DropInGlob: DropInGlob,
	}
}

// Load reads the configuration. A non-empty explicit path, or
// APTJITTER_CONFIG, replaces the layered discovery.
func Load(explicit string) (*Config, error) {
	return NewLoader().Load(explicit)
}

// Load reads the configuration. See the package documentation.
func (l *Loader) Load(explicit string) (*Config, error) {
	cfg := Default()

	if explicit == "" {
		explicit, _ = l.lookupEnv(common.ConfigEnv)
	}
	if explicit != "" {
		if err := l.apply(cfg, explicit, false); err != nil {
			return nil, err
		}
	} else {
		files, err := l.discover()
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if err := l.apply(cfg, f, true); err != nil {
				return nil, err
			}
		}
	}

	if v, ok := l.lookupEnv(common.ShellEnv); ok && v != "" {
		cfg.Shell = v
	}
	if v, ok := l.lookupEnv(common.SocketPathEnv); ok && v != "" {
		cfg.Socket = v
	}
	if v, ok := l.lookupEnv(common.HistoryEnv); ok {
		cfg.History = v
	}

	if len(cfg.Jobs) == 0 {
		cfg.Jobs = defaultJobs()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (l *Loader) lookupEnv(key string) (string, bool) {
	if l.LookupEnv == nil {
		return "", false
	}
	return l.LookupEnv(key)
}

// discover returns the system file followed by the sorted drop-ins.
func (l *Loader) discover() ([]string, error) {
	files := []string{l.SystemFile}
	dropIns, err := afero.Glob(l.Fs, l.DropInGlob)
	if err != nil {
		return nil, fmt.Errorf("error: bad drop-in pattern %q: %w", l.DropInGlob, err)
	}
	sort.Strings(dropIns)
	return append(files, dropIns...), nil
}

// apply overlays the file at path onto cfg.
func (l *Loader) apply(cfg *Config, path string, optional bool) error {
	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error: cannot read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("error: cannot parse config %s: %w", path, err)
	}
	fc.overlay(cfg)
	cfg.Sources = append(cfg.Sources, path)
	return nil
}

func (fc *fileConfig) overlay(cfg *Config) {
	setString(&cfg.Shell, fc.Shell)
	setString(&cfg.AtPath, fc.AtPath)
	setString(&cfg.Queue, fc.Queue)
	setString(&cfg.User, fc.User)
	setString(&cfg.History, fc.History)
	setString(&cfg.Socket, fc.Socket)
	if fc.Mail != nil {
		cfg.Mail = *fc.Mail
	}
	if fc.Syslog != nil {
		cfg.Syslog = *fc.Syslog
	}
	for _, j := range fc.Jobs {
		replaced := false
		for i := range cfg.Jobs {
			if cfg.Jobs[i].Name == j.Name {
				cfg.Jobs[i] = j
				replaced = true
				break
			}
		}
		if !replaced {
			cfg.Jobs = append(cfg.Jobs, j)
		}
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
