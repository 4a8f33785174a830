// builtin_date.go: the date.* category. Formats are Go reference layouts;
// date.parse falls back to the literal layouts the lexer accepts.
package ebscript

import (
	"time"
)

func dateArg(name string, v Value) (time.Time, error) {
	cv, err := coerceDate(v)
	if err != nil {
		return time.Time{}, argErrf(name, "%s", err.Error())
	}
	return cv.asDate(), nil
}

func registerDateBuiltins(reg *Registry) {
	def(reg, "date.now", "Current date and time.", KindDate, nil,
		func(ip *Interp, args []Value) (Value, error) {
			return DateVal(time.Now()), nil
		})

	def(reg, "date.today", "Current date at midnight.", KindDate, nil,
		func(ip *Interp, args []Value) (Value, error) {
			now := time.Now()
			return DateVal(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)), nil
		})

	def(reg, "date.parse", "Parse text with an optional layout; defaults to the ISO literal layouts.", KindDate,
		[]ParamSpec{reqParam("text", KindString), optParam("layout", KindString, StringVal(""))},
		func(ip *Interp, args []Value) (Value, error) {
			text := args[0].asString()
			if layout := args[1].asString(); layout != "" {
				t, err := time.ParseInLocation(layout, text, time.Local)
				if err != nil {
					return Null, rtErrf(ParseErrorKind, "date.parse", "%v", err)
				}
				return DateVal(t), nil
			}
			return coerceDate(StringVal(text))
		})

	def(reg, "date.format", "Render a date with a layout (default ISO datetime).", KindString,
		[]ParamSpec{reqParam("value", KindDate), optParam("layout", KindString, StringVal("2006-01-02 15:04:05"))},
		func(ip *Interp, args []Value) (Value, error) {
			t, err := dateArg("date.format", args[0])
			if err != nil {
				return Null, err
			}
			return StringVal(t.Format(args[1].asString())), nil
		})

	def(reg, "date.adddays", "Add days (may be negative).", KindDate,
		[]ParamSpec{reqParam("value", KindDate), reqParam("days", KindInt)},
		func(ip *Interp, args []Value) (Value, error) {
			t, err := dateArg("date.adddays", args[0])
			if err != nil {
				return Null, err
			}
			return DateVal(t.AddDate(0, 0, int(args[1].asInt()))), nil
		})

	def(reg, "date.addmonths", "Add months (may be negative).", KindDate,
		[]ParamSpec{reqParam("value", KindDate), reqParam("months", KindInt)},
		func(ip *Interp, args []Value) (Value, error) {
			t, err := dateArg("date.addmonths", args[0])
			if err != nil {
				return Null, err
			}
			return DateVal(t.AddDate(0, int(args[1].asInt()), 0)), nil
		})

	def(reg, "date.addyears", "Add years (may be negative).", KindDate,
		[]ParamSpec{reqParam("value", KindDate), reqParam("years", KindInt)},
		func(ip *Interp, args []Value) (Value, error) {
			t, err := dateArg("date.addyears", args[0])
			if err != nil {
				return Null, err
			}
			return DateVal(t.AddDate(int(args[1].asInt()), 0, 0)), nil
		})

	def(reg, "date.addhours", "Add hours (may be negative).", KindDate,
		[]ParamSpec{reqParam("value", KindDate), reqParam("hours", KindInt)},
		func(ip *Interp, args []Value) (Value, error) {
			t, err := dateArg("date.addhours", args[0])
			if err != nil {
				return Null, err
			}
			return DateVal(t.Add(time.Duration(args[1].asInt()) * time.Hour)), nil
		})

	def(reg, "date.addminutes", "Add minutes (may be negative).", KindDate,
		[]ParamSpec{reqParam("value", KindDate), reqParam("minutes", KindInt)},
		func(ip *Interp, args []Value) (Value, error) {
			t, err := dateArg("date.addminutes", args[0])
			if err != nil {
				return Null, err
			}
			return DateVal(t.Add(time.Duration(args[1].asInt()) * time.Minute)), nil
		})

	def(reg, "date.addseconds", "Add seconds (may be negative).", KindDate,
		[]ParamSpec{reqParam("value", KindDate), reqParam("seconds", KindInt)},
		func(ip *Interp, args []Value) (Value, error) {
			t, err := dateArg("date.addseconds", args[0])
			if err != nil {
				return Null, err
			}
			return DateVal(t.Add(time.Duration(args[1].asInt()) * time.Second)), nil
		})

	def(reg, "date.between", "Whole days from first to second (negative when second is earlier).", KindLong,
		[]ParamSpec{reqParam("first", KindDate), reqParam("second", KindDate)},
		func(ip *Interp, args []Value) (Value, error) {
			a, err := dateArg("date.between", args[0])
			if err != nil {
				return Null, err
			}
			b, err := dateArg("date.between", args[1])
			if err != nil {
				return Null, err
			}
			return LongVal(int64(b.Sub(a).Hours() / 24)), nil
		})

	def(reg, "date.epochmillis", "Milliseconds since the Unix epoch.", KindLong,
		[]ParamSpec{reqParam("value", KindDate)},
		func(ip *Interp, args []Value) (Value, error) {
			t, err := dateArg("date.epochmillis", args[0])
			if err != nil {
				return Null, err
			}
			return LongVal(t.UnixMilli()), nil
		})

	def(reg, "date.fromepoch", "Date from milliseconds since the Unix epoch.", KindDate,
		[]ParamSpec{reqParam("millis", KindLong)},
		func(ip *Interp, args []Value) (Value, error) {
			return DateVal(time.UnixMilli(args[0].asLong())), nil
		})

	def(reg, "date.year", "Calendar year.", KindInt,
		[]ParamSpec{reqParam("value", KindDate)},
		func(ip *Interp, args []Value) (Value, error) {
			t, err := dateArg("date.year", args[0])
			if err != nil {
				return Null, err
			}
			return IntVal(int32(t.Year())), nil
		})

	def(reg, "date.month", "Calendar month, 1-12.", KindInt,
		[]ParamSpec{reqParam("value", KindDate)},
		func(ip *Interp, args []Value) (Value, error) {
			t, err := dateArg("date.month", args[0])
			if err != nil {
				return Null, err
			}
			return IntVal(int32(t.Month())), nil
		})

	def(reg, "date.day", "Day of month, 1-31.", KindInt,
		[]ParamSpec{reqParam("value", KindDate)},
		func(ip *Interp, args []Value) (Value, error) {
			t, err := dateArg("date.day", args[0])
			if err != nil {
				return Null, err
			}
			return IntVal(int32(t.Day())), nil
		})

	def(reg, "date.weekday", "Day of week, 0=Sunday through 6=Saturday.", KindInt,
		[]ParamSpec{reqParam("value", KindDate)},
		func(ip *Interp, args []Value) (Value, error) {
			t, err := dateArg("date.weekday", args[0])
			if err != nil {
				return Null, err
			}
			return IntVal(int32(t.Weekday())), nil
		})
}
