// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_schedule

import (
	"sync"
	"time"
)

// Clock is an injectable time source. Components that measure elapsed time
// take a Clock so tests can advance time deterministically.
type Clock func() time.Time

// CancelFunc stops a scheduled repeating task. Idempotent.
type CancelFunc func()

// Scheduler runs a function repeatedly at a fixed cadence until cancelled.
// The level monitor and the per-slot timers run on a Scheduler rather than on
// raw tickers so cancellation and the "fires after stop" guard are testable
// without real time.
type Scheduler interface {
	Every(interval time.Duration, fn func()) CancelFunc
}

// ============================================================================
// tickerScheduler — production scheduler backed by time.Ticker
// ============================================================================

type tickerScheduler struct{}

// NewTickerScheduler returns the production scheduler. Each task runs on its
// own goroutine; Cancel stops the ticker and exits the goroutine.
func NewTickerScheduler() Scheduler {
	return &tickerScheduler{}
}

func (s *tickerScheduler) Every(interval time.Duration, fn func()) CancelFunc {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}

// ============================================================================
// ManualScheduler — deterministic scheduler for tests
// ============================================================================

// ManualScheduler collects scheduled tasks and fires them only when told to.
// Cancelled tasks are dropped; firing after cancel is a no-op, which lets
// tests assert the dangling-callback guarantee.
type ManualScheduler struct {
	mu     sync.Mutex
	nextID int
	tasks  map[int]func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{tasks: make(map[int]func())}
}

func (s *ManualScheduler) Every(interval time.Duration, fn func()) CancelFunc {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.tasks[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.tasks, id)
			s.mu.Unlock()
		})
	}
}

// Fire invokes every still-scheduled task once.
func (s *ManualScheduler) Fire() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.tasks))
	for _, fn := range s.tasks {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Pending reports how many tasks are still scheduled.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
