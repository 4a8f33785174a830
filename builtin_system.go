// builtin_system.go: the system.* category, per-Runtime properties,
// environment access, and the help surface over the builtin registry.
package ebscript

import (
	"fmt"
	"os"
	"strings"
)

// EngineVersion is reported by system.version.
const EngineVersion = "1.4.0"

func registerSystemBuiltins(reg *Registry) {
	def(reg, "system.version", "Engine version string.", KindString, nil,
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(EngineVersion), nil
		})

	def(reg, "system.getproperty", "Read a runtime property; default when unset.", KindString,
		[]ParamSpec{reqParam("name", KindString), optParam("default", KindString, StringVal(""))},
		func(ip *Interp, args []Value) (Value, error) {
			if v, ok := ip.rt.getProp(args[0].asString()); ok {
				return StringVal(v), nil
			}
			return args[1], nil
		})

	def(reg, "system.setproperty", "Set a runtime property.", KindBool,
		[]ParamSpec{reqParam("name", KindString), reqParam("value", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			ip.rt.setProp(args[0].asString(), args[1].asString())
			return BoolVal(true), nil
		})

	def(reg, "system.env", "Read an environment variable; default when unset.", KindString,
		[]ParamSpec{reqParam("name", KindString), optParam("default", KindString, StringVal(""))},
		func(ip *Interp, args []Value) (Value, error) {
			if v, ok := os.LookupEnv(args[0].asString()); ok {
				return StringVal(v), nil
			}
			return args[1], nil
		})

	def(reg, "system.builtins", "All builtin names, optionally filtered by category.", KindArray,
		[]ParamSpec{optParam("category", KindString, StringVal(""))},
		func(ip *Interp, args []Value) (Value, error) {
			filter := strings.ToLower(args[0].asString())
			a := NewArray(&TypeSpec{Kind: KindString, Length: -1})
			for _, n := range ip.rt.reg.Names() {
				if filter != "" && !strings.HasPrefix(n, filter+".") {
					continue
				}
				a.Items = append(a.Items, StringVal(n))
			}
			return Value{Kind: KindArray, Data: a}, nil
		})

	def(reg, "system.categories", "The registered builtin categories.", KindArray, nil,
		func(ip *Interp, args []Value) (Value, error) {
			a := NewArray(&TypeSpec{Kind: KindString, Length: -1})
			for _, c := range ip.rt.reg.Categories() {
				a.Items = append(a.Items, StringVal(c))
			}
			return Value{Kind: KindArray, Data: a}, nil
		})

	def(reg, "system.help", "Signature and doc text for a builtin.", KindString,
		[]ParamSpec{reqParam("name", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			text, ok := ip.rt.Help(args[0].asString())
			if !ok {
				return Null, rtErrf(NotFoundError, "system.help", "no builtin named %q", args[0].asString())
			}
			return StringVal(text), nil
		})

	def(reg, "system.exit", "Stop the current execution with an uncatchable error carrying the given code.", KindNull,
		[]ParamSpec{optParam("code", KindInt, IntVal(0))},
		func(ip *Interp, args []Value) (Value, error) {
			return Null, fmt.Errorf("script exit with code %d", args[0].asInt())
		})
}
