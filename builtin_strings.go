// builtin_strings.go: the str.* category.
package ebscript

import (
	"strings"
)

func registerStringBuiltins(reg *Registry) {
	def(reg, "str.upper", "Upper-case a string.", KindString,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(strings.ToUpper(args[0].asString())), nil
		})

	def(reg, "str.lower", "Lower-case a string.", KindString,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(strings.ToLower(args[0].asString())), nil
		})

	def(reg, "str.trim", "Strip leading and trailing whitespace.", KindString,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(strings.TrimSpace(args[0].asString())), nil
		})

	def(reg, "str.ltrim", "Strip leading whitespace.", KindString,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(strings.TrimLeft(args[0].asString(), " \t\r\n")), nil
		})

	def(reg, "str.rtrim", "Strip trailing whitespace.", KindString,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(strings.TrimRight(args[0].asString(), " \t\r\n")), nil
		})

	def(reg, "str.length", "Length of a string in bytes.", KindInt,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return IntVal(int32(len(args[0].asString()))), nil
		})

	def(reg, "str.substring", "Substring from start (inclusive) to end (exclusive); end defaults to the string length.", KindString,
		[]ParamSpec{reqParam("text", KindString), reqParam("start", KindInt), optParam("end", KindInt, IntVal(-1))},
		func(ip *Interp, args []Value) (Value, error) {
			s := args[0].asString()
			start := int(args[1].asInt())
			end := int(args[2].asInt())
			if end < 0 {
				end = len(s)
			}
			if start < 0 || start > len(s) || end < start || end > len(s) {
				return Null, rtErrf(IndexError, "str.substring", "range %d:%d out of bounds (length %d)", start, end, len(s))
			}
			return StringVal(s[start:end]), nil
		})

	def(reg, "str.indexof", "First index of a substring, or -1.", KindInt,
		[]ParamSpec{reqParam("text", KindString), reqParam("search", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return IntVal(int32(strings.Index(args[0].asString(), args[1].asString()))), nil
		})

	def(reg, "str.contains", "Whether text contains search.", KindBool,
		[]ParamSpec{reqParam("text", KindString), reqParam("search", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return BoolVal(strings.Contains(args[0].asString(), args[1].asString())), nil
		})

	def(reg, "str.startswith", "Whether text starts with prefix.", KindBool,
		[]ParamSpec{reqParam("text", KindString), reqParam("prefix", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return BoolVal(strings.HasPrefix(args[0].asString(), args[1].asString())), nil
		})

	def(reg, "str.endswith", "Whether text ends with suffix.", KindBool,
		[]ParamSpec{reqParam("text", KindString), reqParam("suffix", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return BoolVal(strings.HasSuffix(args[0].asString(), args[1].asString())), nil
		})

	def(reg, "str.replace", "Replace every occurrence of search with replacement.", KindString,
		[]ParamSpec{reqParam("text", KindString), reqParam("search", KindString), reqParam("replacement", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(strings.ReplaceAll(args[0].asString(), args[1].asString(), args[2].asString())), nil
		})

	def(reg, "str.split", "Split text on a separator into a string array.", KindArray,
		[]ParamSpec{reqParam("text", KindString), reqParam("separator", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			parts := strings.Split(args[0].asString(), args[1].asString())
			a := NewArray(&TypeSpec{Kind: KindString, Length: -1})
			for _, p := range parts {
				a.Items = append(a.Items, StringVal(p))
			}
			return Value{Kind: KindArray, Data: a}, nil
		})

	def(reg, "str.padleft", "Left-pad text with pad (default space) to width.", KindString,
		[]ParamSpec{reqParam("text", KindString), reqParam("width", KindInt), optParam("pad", KindString, StringVal(" "))},
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(padString(args[0].asString(), int(args[1].asInt()), args[2].asString(), true)), nil
		})

	def(reg, "str.padright", "Right-pad text with pad (default space) to width.", KindString,
		[]ParamSpec{reqParam("text", KindString), reqParam("width", KindInt), optParam("pad", KindString, StringVal(" "))},
		func(ip *Interp, args []Value) (Value, error) {
			return StringVal(padString(args[0].asString(), int(args[1].asInt()), args[2].asString(), false)), nil
		})

	def(reg, "str.repeat", "Repeat text count times.", KindString,
		[]ParamSpec{reqParam("text", KindString), reqParam("count", KindInt)},
		func(ip *Interp, args []Value) (Value, error) {
			n := int(args[1].asInt())
			if n < 0 {
				return Null, argErrf("str.repeat", "count must not be negative, got %d", n)
			}
			return StringVal(strings.Repeat(args[0].asString(), n)), nil
		})

	def(reg, "str.reverse", "Reverse a string rune-wise.", KindString,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			runes := []rune(args[0].asString())
			for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
				runes[i], runes[j] = runes[j], runes[i]
			}
			return StringVal(string(runes)), nil
		})
}

func padString(s string, width int, pad string, left bool) string {
	if pad == "" {
		pad = " "
	}
	if len(s) >= width {
		return s
	}
	for len(s) < width {
		if left {
			s = pad + s
		} else {
			s = s + pad
		}
	}
	// a multi-byte pad can overshoot; trim back to the requested width
	if left {
		return s[len(s)-width:]
	}
	return s[:width]
}
