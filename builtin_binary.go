// builtin_binary.go: the binary.* category, datatype-level factory and
// conversion functions for the binary kind. Value-level access (length,
// byte indexing, foreach) lives in the evaluator.
package ebscript

import (
	"encoding/base64"
)

func binaryParam(name string, v Value) ([]byte, error) {
	switch v.Kind {
	case KindBinary:
		return v.asBinary(), nil
	case KindString:
		return []byte(v.asString()), nil
	default:
		return nil, argErrf(name, "expected a binary value, got %s", v.Kind)
	}
}

func registerBinaryBuiltins(reg *Registry) {
	def(reg, "binary.frombase64", "Decode base64 text into a binary value.", KindBinary,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			out, err := base64.StdEncoding.DecodeString(args[0].asString())
			if err != nil {
				return Null, rtErrf(ParseErrorKind, "binary.frombase64", "invalid base64: %v", err)
			}
			return BinaryVal(out), nil
		})

	def(reg, "binary.tobase64", "Encode a binary value as base64 text.", KindString,
		[]ParamSpec{reqParam("data", KindBinary)},
		func(ip *Interp, args []Value) (Value, error) {
			b, err := binaryParam("binary.tobase64", args[0])
			if err != nil {
				return Null, err
			}
			return StringVal(base64.StdEncoding.EncodeToString(b)), nil
		})

	def(reg, "binary.fromstring", "UTF-8 bytes of a string.", KindBinary,
		[]ParamSpec{reqParam("text", KindString)},
		func(ip *Interp, args []Value) (Value, error) {
			return BinaryVal([]byte(args[0].asString())), nil
		})

	def(reg, "binary.tostring", "Interpret binary data as UTF-8 text.", KindString,
		[]ParamSpec{reqParam("data", KindBinary)},
		func(ip *Interp, args []Value) (Value, error) {
			b, err := binaryParam("binary.tostring", args[0])
			if err != nil {
				return Null, err
			}
			return StringVal(string(b)), nil
		})

	def(reg, "binary.length", "Number of bytes.", KindInt,
		[]ParamSpec{reqParam("data", KindBinary)},
		func(ip *Interp, args []Value) (Value, error) {
			b, err := binaryParam("binary.length", args[0])
			if err != nil {
				return Null, err
			}
			return IntVal(int32(len(b))), nil
		})

	def(reg, "binary.slice", "Copy of bytes from start (inclusive) to end (exclusive); end defaults to the length.", KindBinary,
		[]ParamSpec{reqParam("data", KindBinary), reqParam("start", KindInt), optParam("end", KindInt, IntVal(-1))},
		func(ip *Interp, args []Value) (Value, error) {
			b, err := binaryParam("binary.slice", args[0])
			if err != nil {
				return Null, err
			}
			start := int(args[1].asInt())
			end := int(args[2].asInt())
			if end < 0 {
				end = len(b)
			}
			if start < 0 || start > len(b) || end < start || end > len(b) {
				return Null, rtErrf(IndexError, "binary.slice", "range %d:%d out of bounds (length %d)", start, end, len(b))
			}
			out := make([]byte, end-start)
			copy(out, b[start:end])
			return BinaryVal(out), nil
		})

	def(reg, "binary.concat", "Concatenation of two binary values.", KindBinary,
		[]ParamSpec{reqParam("first", KindBinary), reqParam("second", KindBinary)},
		func(ip *Interp, args []Value) (Value, error) {
			a, err := binaryParam("binary.concat", args[0])
			if err != nil {
				return Null, err
			}
			b, err := binaryParam("binary.concat", args[1])
			if err != nil {
				return Null, err
			}
			out := make([]byte, 0, len(a)+len(b))
			out = append(out, a...)
			out = append(out, b...)
			return BinaryVal(out), nil
		})

	def(reg, "binary.byteat", "Byte at an index.", KindByte,
		[]ParamSpec{reqParam("data", KindBinary), reqParam("index", KindInt)},
		func(ip *Interp, args []Value) (Value, error) {
			b, err := binaryParam("binary.byteat", args[0])
			if err != nil {
				return Null, err
			}
			i := int(args[1].asInt())
			if i < 0 || i >= len(b) {
				return Null, rtErrf(IndexError, "binary.byteat", "index %d out of bounds (length %d)", i, len(b))
			}
			return ByteVal(b[i]), nil
		})
}
