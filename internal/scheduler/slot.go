package scheduler

import (
	"sync"
	"time"
)

// Slot holds at most one live timer. Scheduling through a slot cancels the
// timer it held before, so a room can never have two ticking countdowns.
type Slot struct {
	mu      sync.Mutex
	sched   *Scheduler
	current *Handle
}

func (s *Scheduler) NewSlot() *Slot {
	return &Slot{sched: s}
}

func (sl *Slot) Every(period time.Duration, task Task) *Handle {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.current.Cancel()
	sl.current = sl.sched.Every(period, task)
	return sl.current
}

func (sl *Slot) After(delay time.Duration, task Task) *Handle {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.current.Cancel()
	sl.current = sl.sched.After(delay, task)
	return sl.current
}

func (sl *Slot) Stop() {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.current.Cancel()
	sl.current = nil
}

// Owns reports whether h is the slot's live timer.
func (sl *Slot) Owns(h *Handle) bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return h != nil && h == sl.current && h.Live()
}

func (sl *Slot) Active() bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.current.Live()
}
