// builtin_timer.go: the timer.* category, named stopwatches. These
// measure elapsed time under script control and are unrelated to the
// repeating thread.timer* timers. Unknown names read as sentinels (-1,
// false), matching the introspection rule for script-managed names.
package ebscript

import (
	"sort"
	"sync"
	"time"
)

type stopwatch struct {
	startedAt   time.Time
	accumulated time.Duration
	running     bool
}

func (w *stopwatch) elapsed() time.Duration {
	if w.running {
		return w.accumulated + time.Since(w.startedAt)
	}
	return w.accumulated
}

type stopwatchSet struct {
	mu sync.Mutex
	m  map[string]*stopwatch
}

func newStopwatchSet() *stopwatchSet {
	return &stopwatchSet{m: make(map[string]*stopwatch)}
}

func registerStopwatchBuiltins(reg *Registry) {
	def(reg, "timer.start", "Start (or restart from zero) a named stopwatch.", KindBool,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			ws := ip.rt.watches
			ws.mu.Lock()
			defer ws.mu.Unlock()
			ws.m[args[0].asString()] = &stopwatch{startedAt: time.Now(), running: true}
			return BoolVal(true), nil
		})

	def(reg, "timer.stop", "Pause a stopwatch and return elapsed milliseconds; -1 for an unknown name.", KindLong,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			ws := ip.rt.watches
			ws.mu.Lock()
			defer ws.mu.Unlock()
			w, ok := ws.m[args[0].asString()]
			if !ok {
				return LongVal(-1), nil
			}
			if w.running {
				w.accumulated += time.Since(w.startedAt)
				w.running = false
			}
			return LongVal(w.accumulated.Milliseconds()), nil
		})

	def(reg, "timer.continue", "Resume a paused stopwatch; false for an unknown name.", KindBool,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			ws := ip.rt.watches
			ws.mu.Lock()
			defer ws.mu.Unlock()
			w, ok := ws.m[args[0].asString()]
			if !ok {
				return BoolVal(false), nil
			}
			if !w.running {
				w.startedAt = time.Now()
				w.running = true
			}
			return BoolVal(true), nil
		})

	def(reg, "timer.reset", "Zero a stopwatch without changing its running state.", KindBool,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			ws := ip.rt.watches
			ws.mu.Lock()
			defer ws.mu.Unlock()
			w, ok := ws.m[args[0].asString()]
			if !ok {
				return BoolVal(false), nil
			}
			w.accumulated = 0
			w.startedAt = time.Now()
			return BoolVal(true), nil
		})

	def(reg, "timer.getperiod", "Elapsed milliseconds so far; -1 for an unknown name.", KindLong,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			ws := ip.rt.watches
			ws.mu.Lock()
			defer ws.mu.Unlock()
			w, ok := ws.m[args[0].asString()]
			if !ok {
				return LongVal(-1), nil
			}
			return LongVal(w.elapsed().Milliseconds()), nil
		})

	def(reg, "timer.isrunning", "Whether a stopwatch is running; false for an unknown name.", KindBool,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			ws := ip.rt.watches
			ws.mu.Lock()
			defer ws.mu.Unlock()
			w, ok := ws.m[args[0].asString()]
			return BoolVal(ok && w.running), nil
		})

	def(reg, "timer.remove", "Discard a stopwatch; false for an unknown name.", KindBool,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			ws := ip.rt.watches
			ws.mu.Lock()
			defer ws.mu.Unlock()
			if _, ok := ws.m[args[0].asString()]; !ok {
				return BoolVal(false), nil
			}
			delete(ws.m, args[0].asString())
			return BoolVal(true), nil
		})

	def(reg, "timer.list", "The stopwatch names, sorted.", KindArray, nil,
		func(ip *Interp, args []Value) (Value, error) {
			ws := ip.rt.watches
			ws.mu.Lock()
			names := make([]string, 0, len(ws.m))
			for n := range ws.m {
				names = append(names, n)
			}
			ws.mu.Unlock()
			sort.Strings(names)
			a := NewArray(&TypeSpec{Kind: KindString, Length: -1})
			for _, n := range names {
				a.Items = append(a.Items, StringVal(n))
			}
			return Value{Kind: KindArray, Data: a}, nil
		})
}
