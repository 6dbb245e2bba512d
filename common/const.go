package common

// JSON-RPC method names served by the daemon.
const (
	MethodVersion     = "system.getVersion"
	MethodJobList     = "job.list"
	MethodJobTrigger  = "job.trigger"
	MethodHistoryList = "history.list"
)

// DefaultHistoryLimit is the number of history rows returned when no limit
// is given.
const DefaultHistoryLimit = 20
