// builtin_thread.go: the thread.* category, sleep plus the named
// repeating timers (start, stop, pause, resume, isRunning, isPaused,
// list, getInfo, getPeriod, getFireCount, count).
// A timer started while a screen's code is executing is owned by that
// screen and is stopped automatically when the screen closes.
package ebscript

import (
	"time"
)

func registerThreadBuiltins(reg *Registry) {
	def(reg, "thread.sleep", "Block the calling execution thread for the given milliseconds.", KindBool,
		[]ParamSpec{reqParam("millis", KindLong)},
		func(ip *Interp, args []Value) (Value, error) {
			ms := args[0].asLong()
			if ms < 0 {
				return Null, argErrf("thread.sleep", "millis must not be negative, got %d", ms)
			}
			time.Sleep(time.Duration(ms) * time.Millisecond)
			return BoolVal(true), nil
		})

	def(reg, "thread.timerstart", "Start a named repeating timer firing a callback function; DuplicateNameError when the name is active.", KindBool,
		[]ParamSpec{reqParam("name", KindString), reqParam("periodms", KindLong), reqParam("callback", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			err := ip.rt.timers.Start(args[0].asString(), args[1].asLong(), args[2].asString(), ip.screen)
			if err != nil {
				return Null, err
			}
			return BoolVal(true), nil
		})

	def(reg, "thread.timerstop", "Stop and remove a named timer; false for an unknown name.", KindBool,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return BoolVal(ip.rt.timers.Stop(args[0].asString())), nil
		})

	def(reg, "thread.timerpause", "Pause a timer; false when absent or already paused.", KindBool,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return BoolVal(ip.rt.timers.Pause(args[0].asString())), nil
		})

	def(reg, "thread.timerresume", "Resume a paused timer with its fire count intact; false when absent or not paused.", KindBool,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return BoolVal(ip.rt.timers.Resume(args[0].asString())), nil
		})

	def(reg, "thread.timerisrunning", "Whether a timer exists and is not paused.", KindBool,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return BoolVal(ip.rt.timers.IsRunning(args[0].asString())), nil
		})

	def(reg, "thread.timerispaused", "Whether a timer exists and is paused.", KindBool,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return BoolVal(ip.rt.timers.IsPaused(args[0].asString())), nil
		})

	def(reg, "thread.timerlist", "The active timer names, sorted.", KindArray, nil,
		func(ip *Interp, args []Value) (Value, error) {
			a := NewArray(&TypeSpec{Kind: KindString, Length: -1})
			for _, n := range ip.rt.timers.List() {
				a.Items = append(a.Items, StringVal(n))
			}
			return Value{Kind: KindArray, Data: a}, nil
		})

	def(reg, "thread.timercount", "The number of active timers.", KindInt, nil,
		func(ip *Interp, args []Value) (Value, error) {
			return IntVal(int32(ip.rt.timers.Count())), nil
		})

	def(reg, "thread.timergetperiod", "A timer's period in milliseconds; -1 for an unknown name.", KindLong,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return LongVal(ip.rt.timers.GetPeriod(args[0].asString())), nil
		})

	def(reg, "thread.timergetfirecount", "Dispatched fires so far; -1 for an unknown name.", KindLong,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return LongVal(ip.rt.timers.GetFireCount(args[0].asString())), nil
		})

	def(reg, "thread.timergetinfo", "Timer bookkeeping as a json object; null for an unknown name.", KindJSON,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			t := ip.rt.timers.Get(args[0].asString())
			if t == nil {
				return Null, nil
			}
			source := t.Source
			if source == "" {
				source = "script"
			}
			return JSONVal(map[string]interface{}{
				"name":      t.Name,
				"periodms":  float64(t.PeriodMs),
				"callback":  t.Callback,
				"createdat": t.CreatedAt.Format("2006-01-02 15:04:05"),
				"firecount": float64(t.FireCount()),
				"paused":    t.Paused(),
				"source":    source,
			}), nil
		})
}
