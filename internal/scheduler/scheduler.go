package scheduler

import (
	"container/heap"
	"context"
	"sort"
	"time"
)

const maxSleepCap = 60 * time.Second

// Scheduler fires the daily anchor of each job. It runs a background
// goroutine that sleeps until the earliest anchor, calls onTrigger with the
// job name and pushes the job's next anchor back onto the heap.
type Scheduler struct {
	addChan     chan ScheduleEvent
	pendingChan chan chan []ScheduleEvent
	ctx         context.Context
	now         func() time.Time
}

// New creates and starts a Scheduler. onTrigger is called from the
// scheduler goroutine, one job at a time. The goroutine exits when ctx is
// cancelled.
func New(ctx context.Context, onTrigger func(job string)) *Scheduler {
	s := &Scheduler{
		addChan:     make(chan ScheduleEvent, 64),
		pendingChan: make(chan chan []ScheduleEvent),
		ctx:         ctx,
		now:         time.Now,
	}
	go s.run(onTrigger)
	return s
}

// Add enqueues a schedule event.
func (s *Scheduler) Add(event ScheduleEvent) {
	select {
	case s.addChan <- event:
	case <-s.ctx.Done():
	}
}

// Pending returns a snapshot of the pending events sorted by trigger time.
// It returns nil once the scheduler has stopped.
func (s *Scheduler) Pending() []ScheduleEvent {
	reply := make(chan []ScheduleEvent, 1)
	select {
	case s.pendingChan <- reply:
	case <-s.ctx.Done():
		return nil
	}
	select {
	case events := <-reply:
		return events
	case <-s.ctx.Done():
		return nil
	}
}

// run is the scheduler goroutine. It owns the heap.
func (s *Scheduler) run(onTrigger func(string)) {
	h := &scheduleHeap{}
	heap.Init(h)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			// Nothing scheduled, wait on the channels only.
			return nil
		}
		dur := (*h)[0].TriggerAt.Sub(s.now())
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	timerCh := resetTimer()

	for {
		select {
		case <-s.ctx.Done():
			return

		case event := <-s.addChan:
			heapPush(h, event)
			timerCh = resetTimer()

		case reply := <-s.pendingChan:
			snapshot := make([]ScheduleEvent, h.Len())
			copy(snapshot, *h)
			sort.Slice(snapshot, func(i, j int) bool {
				return snapshot[i].TriggerAt.Before(snapshot[j].TriggerAt)
			})
			reply <- snapshot

		case <-timerCh:
			now := s.now()
			for h.Len() > 0 && !(*h)[0].TriggerAt.After(now) {
				event := heapPop(h)
				onTrigger(event.Job)
				if event.CronExpr == "" {
					continue
				}
				next, err := NextAnchor(event.CronExpr, s.now())
				if err == nil {
					heapPush(h, ScheduleEvent{
						Job:       event.Job,
						TriggerAt: next,
						CronExpr:  event.CronExpr,
					})
				}
			}
			timerCh = resetTimer()
		}
	}
}
