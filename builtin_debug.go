// builtin_debug.go: the debug.* category, structured logging, assertions,
// and environment inspection for script authors.
package ebscript

import (
	"sort"
	"strings"
)

func registerDebugBuiltins(reg *Registry) {
	def(reg, "debug.log", "Emit a structured log line at a level (debug, info, warn, error).", KindBool,
		[]ParamSpec{reqParam("message", KindString), optParam("level", KindString, StringVal("info"))},
		func(ip *Interp, args []Value) (Value, error) {
			msg := args[0].asString()
			l := ip.rt.logger
			switch strings.ToLower(args[1].asString()) {
			case "debug":
				l.Debug(msg, "screen", ip.screen, "source", ip.prog)
			case "warn":
				l.Warn(msg, "screen", ip.screen, "source", ip.prog)
			case "error":
				l.Error(msg, "screen", ip.screen, "source", ip.prog)
			default:
				l.Info(msg, "screen", ip.screen, "source", ip.prog)
			}
			return BoolVal(true), nil
		})

	def(reg, "debug.assert", "Raise VALIDATION_ERROR when the condition is false.", KindBool,
		[]ParamSpec{reqParam("condition", KindNull), optParam("message", KindString, StringVal("assertion failed"))},
		func(ip *Interp, args []Value) (Value, error) {
			ok, err := Truthy(args[0])
			if err != nil {
				return Null, err
			}
			if !ok {
				return Null, &scriptRaise{Kind: ValidationError, Msg: args[1].asString()}
			}
			return BoolVal(true), nil
		})

	def(reg, "debug.type", "The kind name of a value.", KindString,
		[]ParamSpec{reqParam("value", KindNull)},
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(args[0].Kind.String()), nil
		})

	def(reg, "debug.vars", "Names bound in the current scope frame, sorted.", KindArray, nil,
		func(ip *Interp, args []Value) (Value, error) {
			names := ip.rt.env.Names(ip.frame)
			sort.Strings(names)
			a := NewArray(&TypeSpec{Kind: KindString, Length: -1})
			for _, n := range names {
				a.Items = append(a.Items, StringVal(n))
			}
			return Value{Kind: KindArray, Data: a}, nil
		})

	def(reg, "debug.display", "The print rendering of a value, as a string.", KindString,
		[]ParamSpec{reqParam("value", KindNull)},
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(Display(args[0])), nil
		})
}
