package scheduler

import "time"

// ScheduleEvent is the next daily trigger of one job.
type ScheduleEvent struct {
	// Job is the name of the job to trigger when TriggerAt is reached.
	Job string
	// TriggerAt is the wall-clock time of the trigger.
	TriggerAt time.Time
	// CronExpr is the anchor expression used to compute the next TriggerAt.
	CronExpr string
}
