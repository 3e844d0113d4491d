// Package scheduler runs every room's countdowns on a small shared pool of
// workers. Ticks are delivered approximately on time: under load a tick can
// be delayed while it waits for a free worker.
package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anchal00/gameroom/internal/logger"
)

// Task is run on a pool worker. The handle that fired it is passed so the
// task can check, under its own lock, that it has not been cancelled since it
// was queued.
type Task func(h *Handle)

type Scheduler struct {
	queue  chan func()
	quit   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	closed atomic.Bool
	Logger logger.Logger
}

func New(workers, queueSize int, log logger.Logger) *Scheduler {
	s := &Scheduler{
		queue:  make(chan func(), queueSize),
		quit:   make(chan struct{}),
		Logger: log,
	}
	for range workers {
		s.wg.Add(1)
		go s.work()
	}
	return s
}

func (s *Scheduler) work() {
	defer s.wg.Done()
	for {
		select {
		case <-s.quit:
			return
		case run := <-s.queue:
			s.safeRun(run)
		}
	}
}

func (s *Scheduler) safeRun(run func()) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("Timer task panicked", fmt.Errorf("panic: %v", r))
		}
	}()
	run()
}

// enqueue hands the task to the pool, giving up if the handle is cancelled
// or the scheduler closes while waiting for room in the queue.
func (s *Scheduler) enqueue(h *Handle, task Task) {
	run := func() {
		if h.Live() {
			task(h)
		}
	}
	select {
	case s.queue <- run:
	case <-h.stop:
	case <-s.quit:
	}
}

// After runs task once after delay.
func (s *Scheduler) After(delay time.Duration, task Task) *Handle {
	h := newHandle()
	if s.closed.Load() {
		h.Cancel()
		return h
	}
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			s.enqueue(h, task)
		case <-h.stop:
		case <-s.quit:
		}
	}()
	return h
}

// Every runs task every period until the handle is cancelled.
func (s *Scheduler) Every(period time.Duration, task Task) *Handle {
	h := newHandle()
	if s.closed.Load() {
		h.Cancel()
		return h
	}
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.enqueue(h, task)
			case <-h.stop:
				return
			case <-s.quit:
				return
			}
		}
	}()
	return h
}

// Close stops every worker and pending timer. Tasks already running finish.
func (s *Scheduler) Close() {
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.quit)
	})
	s.wg.Wait()
	s.Logger.Info("Timer pool stopped")
}

type Handle struct {
	stop      chan struct{}
	once      sync.Once
	cancelled atomic.Bool
}

func newHandle() *Handle {
	return &Handle{stop: make(chan struct{})}
}

// Cancel is idempotent. A task that was already queued will see Live() ==
// false when it runs and skip itself.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.cancelled.Store(true)
		close(h.stop)
	})
}

func (h *Handle) Live() bool {
	return h != nil && !h.cancelled.Load()
}
