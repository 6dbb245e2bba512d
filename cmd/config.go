package cmd

import "time"

const (
	DEF_HISTORY_LIMIT    = 20
	DEF_SHUTDOWN_TIMEOUT = 10 * time.Second
)

const DESCRIPTION = `
aptjitter spreads a daily job over the day. Each time it is triggered
it picks a random time of day and hands the job to at(1) for that time,
so a fleet of hosts does not hit the same mirror at midnight.
`

const (
	TriggerDescription = `The trigger command draws a random time of day for
each selected job and submits the job to at(1) for that time.
It is what cron runs. On success it prints nothing, so cron only
mails failures. Failed submissions are reported on stderr and make
the command exit 1. Nothing is retried. With --verbose, successful
submissions and warnings are logged to stderr as well. Syslog, when
enabled, always gets every message.

Example:
        aptjitter trigger --job aptcron

`
	OffsetDescription = `The offset command draws a time of day like trigger
does and prints it together with the expected run time,
without submitting anything.

Example:
        aptjitter offset

`
	CrontabDescription = `The crontab command prints the crontab fragment that
triggers every configured job at its anchor. Install it
as /etc/cron.d/aptjitter.

Example:
        aptjitter crontab > /etc/cron.d/aptjitter

`
	DaemonDescription = `The daemon command triggers every configured job at
its anchor from a long-running process instead of cron, and
serves the status socket used by "aptjitter status".

Example:
        aptjitter daemon

`
	StatusDescription = `The status command asks the running daemon for its
jobs, their next anchor and their last submission.

Example:
        aptjitter status

`
	HistoryDescription = `The history command prints recorded submissions,
newest first.

Example:
        aptjitter history --job aptcron --limit 5

`
)
