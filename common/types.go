package common

import "time"

// VersionResult is the response for system.getVersion.
type VersionResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"build_type,omitempty"`
}

// JobParams selects a job by name.
type JobParams struct {
	Name string `json:"name"`
}

// HistoryParams is the input for history.list. An empty Job lists all jobs.
type HistoryParams struct {
	Job   string `json:"job,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// SubmissionInfo is one recorded trigger cycle.
type SubmissionInfo struct {
	ID          int64     `json:"id,omitempty"`
	Job         string    `json:"job"`
	TriggeredAt time.Time `json:"triggered_at"`
	At          string    `json:"at"`
	Command     string    `json:"command"`
	User        string    `json:"user,omitempty"`
	AtJobID     string    `json:"at_job_id,omitempty"`
	RunAt       string    `json:"run_at,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Failed reports whether the submission was rejected.
func (s *SubmissionInfo) Failed() bool {
	return s.Error != ""
}

// JobStatus is one entry of the job.list response.
type JobStatus struct {
	Name       string          `json:"name"`
	Command    string          `json:"command"`
	Anchor     string          `json:"anchor"`
	NextAnchor time.Time       `json:"next_anchor"`
	Last       *SubmissionInfo `json:"last,omitempty"`
}

// JobListResult is the response for job.list.
type JobListResult struct {
	Jobs []*JobStatus `json:"jobs"`
}

// HistoryResult is the response for history.list.
type HistoryResult struct {
	Submissions []*SubmissionInfo `json:"submissions"`
}
