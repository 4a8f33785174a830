// builtin_array.go: the array.* category.
//
// array.reverse returns the O(1) reverse view over the argument's backing
// data, not a copy; reversing the view again restores the original order.
package ebscript

import (
	"sort"
	"strings"
)

func arrayArg(name string, v Value) (*Array, error) {
	if v.Kind != KindArray {
		return nil, argErrf(name, "expected an array, got %s", v.Kind)
	}
	return v.asArray(), nil
}

func registerArrayBuiltins(reg *Registry) {
	def(reg, "array.length", "Number of elements.", KindInt,
		[]ParamSpec{reqParam("arr", KindNull)},
		func(ip *Interp, args []Value) (Value, error) {
			a, err := arrayArg("array.length", args[0])
			if err != nil {
				return Null, err
			}
			return IntVal(int32(a.Len())), nil
		})

	def(reg, "array.append", "Append a value to a dynamic array; returns the array.", KindArray,
		[]ParamSpec{reqParam("arr", KindNull), reqParam("value", KindNull)},
		func(ip *Interp, args []Value) (Value, error) {
			a, err := arrayArg("array.append", args[0])
			if err != nil {
				return Null, err
			}
			if err := a.Append(args[1]); err != nil {
				return Null, err
			}
			return args[0], nil
		})

	def(reg, "array.fill", "Set every element to the given value.", KindArray,
		[]ParamSpec{reqParam("arr", KindNull), reqParam("value", KindNull)},
		func(ip *Interp, args []Value) (Value, error) {
			a, err := arrayArg("array.fill", args[0])
			if err != nil {
				return Null, err
			}
			for i := 0; i < a.Len(); i++ {
				if err := a.SetAt(i, args[1]); err != nil {
					return Null, err
				}
			}
			return args[0], nil
		})

	def(reg, "array.reverse", "Reverse view over the same elements (no copy).", KindArray,
		[]ParamSpec{reqParam("arr", KindNull)},
		func(ip *Interp, args []Value) (Value, error) {
			a, err := arrayArg("array.reverse", args[0])
			if err != nil {
				return Null, err
			}
			return Value{Kind: KindArray, Data: a.Reverse()}, nil
		})

	def(reg, "array.sort", "Sorted copy, ascending; descending=true flips the order.", KindArray,
		[]ParamSpec{reqParam("arr", KindNull), optParam("descending", KindBool, BoolVal(false))},
		func(ip *Interp, args []Value) (Value, error) {
			a, err := arrayArg("array.sort", args[0])
			if err != nil {
				return Null, err
			}
			items := a.Snapshot()
			var sortErr error
			sort.SliceStable(items, func(i, j int) bool {
				less, err := compare("<", items[i], items[j])
				if err != nil && sortErr == nil {
					sortErr = err
				}
				return less
			})
			if sortErr != nil {
				return Null, sortErr
			}
			if args[1].asBool() {
				for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
					items[i], items[j] = items[j], items[i]
				}
			}
			out := NewArray(a.Elem)
			out.Items = items
			return Value{Kind: KindArray, Data: out}, nil
		})

	def(reg, "array.indexof", "First index holding an equal value, or -1.", KindInt,
		[]ParamSpec{reqParam("arr", KindNull), reqParam("value", KindNull)},
		func(ip *Interp, args []Value) (Value, error) {
			a, err := arrayArg("array.indexof", args[0])
			if err != nil {
				return Null, err
			}
			for i, v := range a.Snapshot() {
				if Equal(v, args[1]) {
					return IntVal(int32(i)), nil
				}
			}
			return IntVal(-1), nil
		})

	def(reg, "array.contains", "Whether the array holds an equal value.", KindBool,
		[]ParamSpec{reqParam("arr", KindNull), reqParam("value", KindNull)},
		func(ip *Interp, args []Value) (Value, error) {
			a, err := arrayArg("array.contains", args[0])
			if err != nil {
				return Null, err
			}
			for _, v := range a.Snapshot() {
				if Equal(v, args[1]) {
					return BoolVal(true), nil
				}
			}
			return BoolVal(false), nil
		})

	def(reg, "array.join", "Join element displays with a separator.", KindString,
		[]ParamSpec{reqParam("arr", KindNull), optParam("separator", KindString, StringVal(","))},
		func(ip *Interp, args []Value) (Value, error) {
			a, err := arrayArg("array.join", args[0])
			if err != nil {
				return Null, err
			}
			parts := make([]string, 0, a.Len())
			for _, v := range a.Snapshot() {
				parts = append(parts, Display(v))
			}
			return StringVal(strings.Join(parts, args[1].asString())), nil
		})

	def(reg, "array.clear", "Remove all elements from a dynamic array.", KindArray,
		[]ParamSpec{reqParam("arr", KindNull)},
		func(ip *Interp, args []Value) (Value, error) {
			a, err := arrayArg("array.clear", args[0])
			if err != nil {
				return Null, err
			}
			if a.Fixed {
				return Null, argErrf("array.clear", "cannot clear a fixed-length array")
			}
			a.Items = a.Items[:0]
			return args[0], nil
		})
}
