package jittercli

import (
	"context"

	"github.com/aptjitter/aptjitter/common"
)

// CodeJobNotFound is returned by the daemon for an unknown job name.
const CodeJobNotFound = -32001

func (c *Client) Version(ctx context.Context) (*common.VersionResult, error) {
	return invoke[common.VersionResult](ctx, c, common.MethodVersion, nil)
}

// Jobs lists the daemon's jobs with their next anchor and last submission.
func (c *Client) Jobs(ctx context.Context) (*common.JobListResult, error) {
	return invoke[common.JobListResult](ctx, c, common.MethodJobList, nil)
}

// Trigger runs one cycle of the named job in the daemon. A rejected
// submission is reported through the result's Error field.
func (c *Client) Trigger(ctx context.Context, job string) (*common.SubmissionInfo, error) {
	return invoke[common.SubmissionInfo](ctx, c, common.MethodJobTrigger, &common.JobParams{Name: job})
}

func (c *Client) History(ctx context.Context, job string, limit int) (*common.HistoryResult, error) {
	return invoke[common.HistoryResult](ctx, c, common.MethodHistoryList, &common.HistoryParams{Job: job, Limit: limit})
}
