// Package termlog is the terminal output surface: an append-only feed of
// lines bounded to a fixed window, where ephemeral lines fade out and are
// removed on their own.
//
// Each line moves through visible -> fading_out -> removed. Capacity
// eviction and Clear skip the fade. Every removal path checks the line's
// current state first, so a timer that fires after its line is gone does
// nothing.
package termlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Option func(*Log)

// WithCapacity bounds how many lines are retained at once.
func WithCapacity(n int) Option {
	return func(l *Log) {
		if n < 1 {
			n = 1
		}
		l.capacity = n
	}
}

// WithFade sets the delay between fade start and physical removal.
func WithFade(d time.Duration) Option {
	return func(l *Log) {
		if d < 0 {
			d = 0
		}
		l.fade = d
	}
}

// WithClock sets the time source used to stamp lines.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// WithObserver registers a callback invoked after every change to the
// retained lines, outside the log's lock.
func WithObserver(fn func()) Option {
	return func(l *Log) {
		l.observer = fn
	}
}

type Log struct {
	mu       sync.Mutex
	sched    Scheduler
	now      func() time.Time
	capacity int
	fade     time.Duration
	observer func()

	lines  []*Line
	index  map[LineRef]*Line
	timers map[LineRef]Timer
}

func New(sched Scheduler, opts ...Option) *Log {
	if sched == nil {
		sched = TimerScheduler{}
	}
	l := &Log{
		sched:    sched,
		now:      time.Now,
		capacity: DefaultCapacity,
		fade:     DefaultFade,
		index:    make(map[LineRef]*Line),
		timers:   make(map[LineRef]Timer),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append adds a line at the tail. A positive ttl schedules the line's
// expiry; otherwise it stays until evicted or cleared.
func (l *Log) Append(text string, sev Severity, ttl time.Duration) LineRef {
	l.mu.Lock()
	ref := LineRef(uuid.NewString())
	if ttl < 0 {
		ttl = 0
	}
	line := &Line{
		ID:        ref,
		Text:      text,
		Severity:  sev,
		CreatedAt: l.now(),
		TTL:       ttl,
		State:     StateVisible,
	}
	l.lines = append(l.lines, line)
	l.index[ref] = line
	if ttl > 0 {
		l.timers[ref] = l.sched.AfterFunc(ttl, func() { l.Expire(ref) })
	}
	l.evictLocked()
	l.mu.Unlock()
	l.notify()
	return ref
}

// EvictOverCapacity drops the oldest lines until the capacity bound holds.
func (l *Log) EvictOverCapacity() {
	l.mu.Lock()
	n := l.evictLocked()
	l.mu.Unlock()
	if n > 0 {
		l.notify()
	}
}

// Expire starts the fade of a visible line and schedules its removal. Lines
// that are already fading or gone are left alone.
func (l *Log) Expire(ref LineRef) {
	l.mu.Lock()
	line, ok := l.index[ref]
	if !ok || line.State != StateVisible {
		l.mu.Unlock()
		return
	}
	l.stopTimerLocked(ref)
	line.State = StateFadingOut
	if l.fade <= 0 {
		l.removeLocked(ref)
		l.evictLocked()
	} else {
		l.timers[ref] = l.sched.AfterFunc(l.fade, func() { l.Remove(ref) })
	}
	l.mu.Unlock()
	l.notify()
}

// Remove drops a line immediately. It reports whether the line was present.
func (l *Log) Remove(ref LineRef) bool {
	l.mu.Lock()
	removed := l.removeLocked(ref)
	if removed {
		l.evictLocked()
	}
	l.mu.Unlock()
	if removed {
		l.notify()
	}
	return removed
}

// Clear removes every line and cancels all pending timers.
func (l *Log) Clear() {
	l.mu.Lock()
	for ref, t := range l.timers {
		t.Stop()
		delete(l.timers, ref)
	}
	for _, line := range l.lines {
		line.State = StateRemoved
	}
	l.lines = nil
	l.index = make(map[LineRef]*Line)
	l.mu.Unlock()
	l.notify()
}

// Lines returns a snapshot of the retained lines in arrival order, fading
// lines included.
func (l *Log) Lines() []Line {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Line, 0, len(l.lines))
	for _, line := range l.lines {
		out = append(out, *line)
	}
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

func (l *Log) Capacity() int {
	return l.capacity
}

func (l *Log) Get(ref LineRef) (Line, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line, ok := l.index[ref]
	if !ok {
		return Line{}, false
	}
	return *line, true
}

// State reports the line's current state. Unknown refs are removed.
func (l *Log) State(ref LineRef) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if line, ok := l.index[ref]; ok {
		return line.State
	}
	return StateRemoved
}

func (l *Log) evictLocked() int {
	n := 0
	for len(l.lines) > l.capacity {
		l.removeLocked(l.lines[0].ID)
		n++
	}
	return n
}

func (l *Log) removeLocked(ref LineRef) bool {
	line, ok := l.index[ref]
	if !ok || !CanTransition(line.State, StateRemoved) {
		return false
	}
	l.stopTimerLocked(ref)
	line.State = StateRemoved
	delete(l.index, ref)
	for i, candidate := range l.lines {
		if candidate == line {
			l.lines = append(l.lines[:i], l.lines[i+1:]...)
			break
		}
	}
	return true
}

func (l *Log) stopTimerLocked(ref LineRef) {
	if t, ok := l.timers[ref]; ok {
		t.Stop()
		delete(l.timers, ref)
	}
}

func (l *Log) notify() {
	if l.observer != nil {
		l.observer()
	}
}
