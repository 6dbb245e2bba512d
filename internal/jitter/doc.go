// Package jitter implements the daily jitter cycle for aptjitter.
//
// A cycle is started by an external daily trigger (cron at a fixed anchor
// such as midnight, or the in-process anchor loop of the daemon). It draws a
// uniformly random Offset of hours in [0,23] and minutes in [0,59] and
// submits the target command exactly once to a deferred-execution facility
// for the absolute clock time "H:M". Machines running the same entry thus
// spread their runs across the day.
//
// The two stages are kept apart: Compute is a pure function of an injected
// Rand, and the submission goes through an injected Submitter. Neither stage
// retries. A failed submission is logged and recorded, and the next daily
// trigger tries again.
//
// When the offset is 0:0 and the trigger fires at midnight, the clock time
// has already passed by the time at(1) parses it, so the job runs roughly a
// day later than intended. This quirk is kept as-is.
package jitter
