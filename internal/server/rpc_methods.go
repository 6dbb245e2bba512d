package server

import (
	"context"
	"errors"
	"time"

	"github.com/aptjitter/aptjitter/common"
	"github.com/aptjitter/aptjitter/internal/config"
	"github.com/aptjitter/aptjitter/internal/jitter"
	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
)

// Custom JSON-RPC error codes.
const (
	codeJobNotFound     = jrpc2.Code(-32001)
	codeHistoryDisabled = jrpc2.Code(-32002)
	codeInvalidParams   = jrpc2.Code(-32602)
)

// Daemon is the part of the daemon the RPC methods drive.
type Daemon interface {
	Jobs() []jitter.Job
	NextAnchor(job string) (time.Time, bool)
	Trigger(ctx context.Context, job string) (jitter.Submission, error)
}

// History reads recorded submissions.
type History interface {
	List(ctx context.Context, job string, limit int) ([]*common.SubmissionInfo, error)
	Last(ctx context.Context, job string) (*common.SubmissionInfo, error)
}

// RPCConfig holds the build information reported by system.getVersion.
type RPCConfig struct {
	Version   string
	Commit    string
	BuildType string
}

// RPCServer holds the JSON-RPC 2.0 method table.
type RPCServer struct {
	methods   handler.Map
	daemon    Daemon
	history   History
	version   string
	commit    string
	buildType string
}

// NewRPCServer creates the method table. history may be nil, in which case
// history.list fails and job.list omits the last submission.
func NewRPCServer(cfg *RPCConfig, d Daemon, h History) *RPCServer {
	if cfg == nil {
		cfg = &RPCConfig{}
	}
	rs := &RPCServer{
		daemon:    d,
		history:   h,
		version:   cfg.Version,
		commit:    cfg.Commit,
		buildType: cfg.BuildType,
	}
	rs.methods = handler.Map{
		common.MethodVersion:     handler.New(rs.systemGetVersion),
		common.MethodJobList:     handler.New(rs.jobList),
		common.MethodJobTrigger:  handler.New(rs.jobTrigger),
		common.MethodHistoryList: handler.New(rs.historyList),
	}
	return rs
}

// Methods returns the method table for use with jrpc2.NewServer.
func (rs *RPCServer) Methods() handler.Map {
	return rs.methods
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*common.VersionResult, error) {
	return &common.VersionResult{
		Version:   rs.version,
		Commit:    rs.commit,
		BuildType: rs.buildType,
	}, nil
}

// jobList reports every configured job with its next anchor and, when
// history is enabled, its last submission.
func (rs *RPCServer) jobList(ctx context.Context) (*common.JobListResult, error) {
	jobs := rs.daemon.Jobs()
	res := &common.JobListResult{Jobs: make([]*common.JobStatus, 0, len(jobs))}
	for _, j := range jobs {
		st := &common.JobStatus{
			Name:    j.Name,
			Command: j.Command,
			Anchor:  j.Anchor,
		}
		if next, ok := rs.daemon.NextAnchor(j.Name); ok {
			st.NextAnchor = next
		}
		if rs.history != nil {
			last, err := rs.history.Last(ctx, j.Name)
			if err != nil {
				return nil, err
			}
			st.Last = last
		}
		res.Jobs = append(res.Jobs, st)
	}
	return res, nil
}

// jobTrigger runs one cycle for the named job. A rejected submission is
// reported in the result's Error field, not as an RPC error.
func (rs *RPCServer) jobTrigger(ctx context.Context, p *common.JobParams) (*common.SubmissionInfo, error) {
	if p.Name == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: name"}
	}
	sub, err := rs.daemon.Trigger(ctx, p.Name)
	if errors.Is(err, config.ErrNoSuchJob) {
		return nil, &jrpc2.Error{Code: codeJobNotFound, Message: "job not found: " + p.Name}
	}
	if err != nil {
		return nil, err
	}
	return SubmissionInfo(sub), nil
}

func (rs *RPCServer) historyList(ctx context.Context, p *common.HistoryParams) (*common.HistoryResult, error) {
	if p.Limit < 0 {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "limit must not be negative"}
	}
	if rs.history == nil {
		return nil, &jrpc2.Error{Code: codeHistoryDisabled, Message: "history is disabled"}
	}
	if p.Job != "" && !rs.hasJob(p.Job) {
		return nil, &jrpc2.Error{Code: codeJobNotFound, Message: "job not found: " + p.Job}
	}
	subs, err := rs.history.List(ctx, p.Job, p.Limit)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []*common.SubmissionInfo{}
	}
	return &common.HistoryResult{Submissions: subs}, nil
}

func (rs *RPCServer) hasJob(name string) bool {
	for _, j := range rs.daemon.Jobs() {
		if j.Name == name {
			return true
		}
	}
	return false
}

// SubmissionInfo converts a trigger cycle into its wire form.
func SubmissionInfo(sub jitter.Submission) *common.SubmissionInfo {
	info := &common.SubmissionInfo{
		Job:         sub.Job,
		TriggeredAt: sub.TriggeredAt,
		At:          sub.At,
		Command:     sub.Command,
		User:        sub.User,
		AtJobID:     sub.Receipt.JobID,
		RunAt:       sub.Receipt.RunAt,
	}
	if sub.Err != nil {
		info.Error = sub.Err.Error()
	}
	return info
}
