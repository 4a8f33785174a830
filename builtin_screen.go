// builtin_screen.go: the scr.* category, the script-facing surface over
// the screen manager. scr.get/scr.set default to the current screen
// context when the screen argument is empty, which is how event-handler
// code addresses its own window.
package ebscript

func (ip *Interp) screenOrCurrent(builtin, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if ip.screen == "" {
		return "", rtErrf(ValidationError, builtin, "no current screen context and no screen name given")
	}
	return ip.screen, nil
}

func registerScreenBuiltins(reg *Registry) {
	def(reg, "scr.get", "Read a screen variable; null when unset.", KindNull,
		[]ParamSpec{reqParam("name", KindString), optParam("screen", KindString, StringVal(""))},
		func(ip *Interp, args []Value) (Value, error) {
			screen, err := ip.screenOrCurrent("scr.get", args[1].asString())
			if err != nil {
				return Null, err
			}
			v, _ := ip.rt.screens.GetVar(screen, args[0].asString())
			return v, nil
		})

	def(reg, "scr.set", "Write a screen variable.", KindBool,
		[]ParamSpec{reqParam("name", KindString), reqParam("value", KindNull), optParam("screen", KindString, StringVal(""))},
		func(ip *Interp, args []Value) (Value, error) {
			screen, err := ip.screenOrCurrent("scr.set", args[2].asString())
			if err != nil {
				return Null, err
			}
			if err := ip.rt.screens.SetVar(screen, args[0].asString(), args[1]); err != nil {
				return Null, err
			}
			return BoolVal(true), nil
		})

	def(reg, "scr.current", "The screen whose code is executing, or empty.", KindString, nil,
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(ip.screen), nil
		})

	def(reg, "scr.exists", "Whether a screen is defined.", KindBool,
		[]ParamSpec{reqParam("screen", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			for _, n := range ip.rt.screens.Names() {
				if n == args[0].asString() {
					return BoolVal(true), nil
				}
			}
			return BoolVal(false), nil
		})

	def(reg, "scr.list", "The defined screen names.", KindArray, nil,
		func(ip *Interp, args []Value) (Value, error) {
			a := NewArray(&TypeSpec{Kind: KindString, Length: -1})
			for _, n := range ip.rt.screens.Names() {
				a.Items = append(a.Items, StringVal(n))
			}
			return Value{Kind: KindArray, Data: a}, nil
		})

	def(reg, "scr.run", "Queue source code on a screen's worker thread.", KindBool,
		[]ParamSpec{reqParam("code", KindString), optParam("screen", KindString, StringVal(""))},
		func(ip *Interp, args []Value) (Value, error) {
			screen, err := ip.screenOrCurrent("scr.run", args[1].asString())
			if err != nil {
				return Null, err
			}
			if err := ip.rt.screens.RunOn(screen, args[0].asString()); err != nil {
				return Null, err
			}
			return BoolVal(true), nil
		})

	def(reg, "scr.close", "Close a screen; defaults to the current context (\"close this screen\").", KindBool,
		[]ParamSpec{optParam("screen", KindString, StringVal(""))},
		func(ip *Interp, args []Value) (Value, error) {
			screen, err := ip.screenOrCurrent("scr.close", args[0].asString())
			if err != nil {
				return Null, err
			}
			if err := ip.rt.screens.Close(screen); err != nil {
				return Null, err
			}
			return BoolVal(true), nil
		})
}
