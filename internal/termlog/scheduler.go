package termlog

import (
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// TimerScheduler schedules on the runtime timer heap. Callbacks run on their
// own goroutine.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// ManualScheduler fires callbacks only when its clock is advanced, on the
// goroutine that advances it. The UI frame loop and tests drive it.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	s       *ManualScheduler
	at      time.Time
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
}

func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of scheduled, not yet fired, callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &manualTimer{s: s, at: s.now.Add(d), seq: s.seq, fn: fn}
	s.pending = append(s.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	for i, p := range s.pending {
		if p == t {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
	return true
}

// Advance moves the clock forward by d and fires every callback due by then.
func (s *ManualScheduler) Advance(d time.Duration) int {
	return s.AdvanceTo(s.Now().Add(d))
}

// AdvanceTo fires due callbacks in deadline order, including callbacks
// scheduled by earlier callbacks that fall due before target. The clock never
// moves backwards.
func (s *ManualScheduler) AdvanceTo(target time.Time) int {
	fired := 0
	for {
		s.mu.Lock()
		idx := -1
		for i, p := range s.pending {
			if p.at.After(target) {
				continue
			}
			if idx < 0 || p.at.Before(s.pending[idx].at) || (p.at.Equal(s.pending[idx].at) && p.seq < s.pending[idx].seq) {
				idx = i
			}
		}
		if idx < 0 {
			if target.After(s.now) {
				s.now = target
			}
			s.mu.Unlock()
			return fired
		}
		next := s.pending[idx]
		s.pending = append(s.pending[:idx], s.pending[idx+1:]...)
		next.fired = true
		if next.at.After(s.now) {
			s.now = next.at
		}
		s.mu.Unlock()

		next.fn()
		fired++
	}
}
