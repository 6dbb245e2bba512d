// Package scheduler is the in-process replacement for the cron line that
// fires the daily trigger. It keeps one recurring event per job in a
// min-heap ordered by trigger time and runs a single goroutine that sleeps
// until the earliest anchor, capped at 60 seconds so that NTP steps, DST
// transitions and suspend/resume do not delay a trigger by more than a
// minute.
//
// Anchors are 5-field cron expressions evaluated with gronx. After an event
// fires, the next occurrence of its anchor is pushed back onto the heap.
// Nothing is persisted: the heap is rebuilt from the configured jobs when
// the daemon starts.
package scheduler
