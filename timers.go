// timers.go: named repeating timers.
//
// Each timer is one goroutine around a time.Ticker. The state machine is
// Stopped -> Running -> {Paused <-> Running} -> Stopped; pause keeps the
// goroutine alive but skips fires, so the fire counter survives
// pause/resume. The counter is atomic and counts dispatched fires: a fire
// already dispatched when pause lands is still counted, and no increment
// is ever lost. Introspection never fails for an unknown name; it
// returns sentinels, because timer names are script-managed strings and
// absence is a normal condition.
package ebscript

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// TimerInfo is the bookkeeping for one named timer.
type TimerInfo struct {
	Name      string
	PeriodMs  int64
	Callback  string
	CreatedAt time.Time
	Source    string // owning screen, "" for plain script timers

	fireCount atomic.Int64
	paused    atomic.Bool
	stopOnce  sync.Once
	stopped   chan struct{}
}

// FireCount returns the number of dispatched fires so far.
func (t *TimerInfo) FireCount() int64 { return t.fireCount.Load() }

// Paused reports whether the timer is currently paused.
func (t *TimerInfo) Paused() bool { return t.paused.Load() }

// TimerManager owns all named timers of one Runtime.
type TimerManager struct {
	rt     *Runtime
	mu     sync.Mutex
	timers map[string]*TimerInfo
}

func newTimerManager(rt *Runtime) *TimerManager {
	return &TimerManager{rt: rt, timers: make(map[string]*TimerInfo)}
}

// Start creates and schedules a named timer. An active timer with the
// same name is a DuplicateNameError.
func (m *TimerManager) Start(name string, periodMs int64, callback, source string) error {
	if periodMs <= 0 {
		return argErrf("thread.timerstart", "period must be positive, got %d", periodMs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, active := m.timers[name]; active {
		return &DuplicateNameError{Name: name}
	}
	t := &TimerInfo{
		Name:      name,
		PeriodMs:  periodMs,
		Callback:  callback,
		CreatedAt: time.Now(),
		Source:    source,
		stopped:   make(chan struct{}),
	}
	m.timers[name] = t
	go m.loop(t)
	return nil
}

func (m *TimerManager) loop(t *TimerInfo) {
	ticker := time.NewTicker(time.Duration(t.PeriodMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopped:
			return
		case <-ticker.C:
			if t.paused.Load() {
				continue
			}
			t.fireCount.Add(1)
			m.fire(t)
		}
	}
}

// fire runs the callback, serialized onto the owning screen's worker when
// the timer was started by a screen. An uncaught error is logged and
// never disturbs sibling timers.
func (m *TimerManager) fire(t *TimerInfo) {
	run := func() {
		if err := m.rt.callFunctionByName(t.Callback, t.Source); err != nil {
			m.rt.logger.Error("timer callback failed",
				"timer", t.Name, "callback", t.Callback, "err", err)
		}
	}
	if t.Source != "" {
		if m.rt.screens.RunFunc(t.Source, run) == nil {
			return
		}
		// screen already gone; fall through and run inline
	}
	run()
}

// Stop cancels the next scheduled fire and removes the bookkeeping. A
// fire already in progress is not interrupted. Returns false for an
// unknown name.
func (m *TimerManager) Stop(name string) bool {
	m.mu.Lock()
	t, ok := m.timers[name]
	if ok {
		delete(m.timers, name)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	t.stopOnce.Do(func() { close(t.stopped) })
	return true
}

// Pause suspends firing. Returns false when the timer is absent or
// already paused.
func (m *TimerManager) Pause(name string) bool {
	m.mu.Lock()
	t, ok := m.timers[name]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return t.paused.CompareAndSwap(false, true)
}

// Resume continues a paused timer with its counter intact. Returns false
// when the timer is absent or not paused.
func (m *TimerManager) Resume(name string) bool {
	m.mu.Lock()
	t, ok := m.timers[name]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return t.paused.CompareAndSwap(true, false)
}

// IsRunning reports whether the timer exists and is not paused.
func (m *TimerManager) IsRunning(name string) bool {
	m.mu.Lock()
	t, ok := m.timers[name]
	m.mu.Unlock()
	return ok && !t.paused.Load()
}

// IsPaused reports whether the timer exists and is paused.
func (m *TimerManager) IsPaused(name string) bool {
	m.mu.Lock()
	t, ok := m.timers[name]
	m.mu.Unlock()
	return ok && t.paused.Load()
}

// List returns the active timer names, sorted.
func (m *TimerManager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.timers))
	for n := range m.timers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of active timers.
func (m *TimerManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Get returns the bookkeeping for a named timer, or nil.
func (m *TimerManager) Get(name string) *TimerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timers[name]
}

// GetPeriod returns the period in milliseconds, or -1 for an unknown name.
func (m *TimerManager) GetPeriod(name string) int64 {
	if t := m.Get(name); t != nil {
		return t.PeriodMs
	}
	return -1
}

// GetFireCount returns the dispatched-fire count, or -1 for an unknown
// name.
func (m *TimerManager) GetFireCount(name string) int64 {
	if t := m.Get(name); t != nil {
		return t.FireCount()
	}
	return -1
}

// StopAll stops every timer.
func (m *TimerManager) StopAll() {
	for _, n := range m.List() {
		m.Stop(n)
	}
}

// StopForSource stops every timer started by the named screen; called on
// screen close.
func (m *TimerManager) StopForSource(source string) {
	m.mu.Lock()
	var doomed []string
	for n, t := range m.timers {
		if t.Source == source {
			doomed = append(doomed, n)
		}
	}
	m.mu.Unlock()
	for _, n := range doomed {
		m.Stop(n)
	}
}
