// types.go: declared types and the coercion rules between them.
//
// A TypeSpec is the parsed form of a type annotation (`int`, `string[10]`,
// `record { name: string, age: int }`, a typedef alias, ...). Coercion is
// applied at every typed store: variable initialization, record-field and
// array-element assignment, and builtin argument binding. Numeric widening
// is automatic; string-to-numeric parsing is attempted and fails with a
// TypeError on non-numeric text; record validation recurses and is
// idempotent (coercing an already-coerced value returns an equal value).
package ebscript

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// TypeSpec describes a declared type. Exactly one of the shape fields is
// meaningful for a given Kind: Elem/Length for arrays, Record for records,
// Bitmap for bitmap/intmap, Alias for unresolved typedef names.
type TypeSpec struct {
	Kind   Kind
	Alias  string // typedef name awaiting resolution; Kind is ignored when set
	Elem   *TypeSpec
	Length int // fixed arrays; -1 for dynamic
	Record *RecordType
	Bitmap *BitmapType
}

// RecordType is a field-name -> declared-type schema with a fixed iteration
// order. Shared by reference among all values declared with the same alias;
// never mutated after creation.
type RecordType struct {
	Name       string
	FieldNames []string
	FieldTypes map[string]*TypeSpec
}

// BitmapType names the bits of a byte (Width 8) or int32 (Width 32).
type BitmapType struct {
	Name     string
	Width    int
	FieldBit map[string]int
}

func (bt *BitmapType) kindName() string {
	if bt.Width == 8 {
		return "bitmap"
	}
	return "intmap"
}

var scalarTypeNames = map[string]Kind{
	"byte": KindByte, "int": KindInt, "long": KindLong,
	"float": KindFloat, "double": KindDouble, "bool": KindBool,
	"boolean": KindBool, "string": KindString, "date": KindDate,
	"json": KindJSON, "binary": KindBinary,
}

// ScalarKind resolves a primitive type name, case-insensitively.
func ScalarKind(name string) (Kind, bool) {
	k, ok := scalarTypeNames[strings.ToLower(name)]
	return k, ok
}

// TypeName renders a TypeSpec the way a script author would write it.
func (t *TypeSpec) String() string {
	if t == nil {
		return "any"
	}
	if t.Alias != "" {
		return t.Alias
	}
	switch t.Kind {
	case KindArray:
		if t.Length >= 0 {
			return t.Elem.String() + "[" + strconv.Itoa(t.Length) + "]"
		}
		return t.Elem.String() + "[*]"
	case KindRecord:
		if t.Record != nil && t.Record.Name != "" {
			return t.Record.Name
		}
		return "record"
	case KindBitmap:
		return "bitmap"
	case KindIntmap:
		return "intmap"
	default:
		return t.Kind.String()
	}
}

// zeroValue returns the initial value for a declared-but-uninitialized slot.
func zeroValue(t *TypeSpec) Value {
	if t == nil {
		return Null
	}
	switch t.Kind {
	case KindRecord:
		if t.Record != nil {
			return Value{Kind: KindRecord, Data: NewRecord(t.Record)}
		}
	case KindArray:
		if t.Length >= 0 {
			return Value{Kind: KindArray, Data: NewFixedArray(t.Elem, t.Length)}
		}
		return Value{Kind: KindArray, Data: NewArray(t.Elem)}
	case KindBitmap:
		return Value{Kind: KindBitmap, Data: &BitmapValue{Type: t.Bitmap}}
	case KindIntmap:
		return Value{Kind: KindIntmap, Data: &BitmapValue{Type: t.Bitmap}}
	}
	return Null
}

// coerceToType validates and converts v to the declared type t, returning
// the stored representation. Null is accepted into any slot.
func coerceToType(v Value, t *TypeSpec) (Value, error) {
	if t == nil || v.IsNull() {
		return v, nil
	}
	switch t.Kind {
	case KindByte:
		n, err := coerceIntegral(v, "byte", 0, 255)
		if err != nil {
			return Null, err
		}
		return ByteVal(byte(n)), nil
	case KindInt:
		n, err := coerceIntegral(v, "int", -1<<31, 1<<31-1)
		if err != nil {
			return Null, err
		}
		return IntVal(int32(n)), nil
	case KindLong:
		n, err := coerceIntegral(v, "long", -1<<63, 1<<63-1)
		if err != nil {
			return Null, err
		}
		return LongVal(n), nil
	case KindFloat:
		f, err := coerceFloating(v, "float")
		if err != nil {
			return Null, err
		}
		return FloatVal(float32(f)), nil
	case KindDouble:
		f, err := coerceFloating(v, "double")
		if err != nil {
			return Null, err
		}
		return DoubleVal(f), nil
	case KindBool:
		b, err := Truthy(v)
		if err != nil {
			return Null, err
		}
		return BoolVal(b), nil
	case KindString:
		return StringVal(Display(v)), nil
	case KindDate:
		return coerceDate(v)
	case KindJSON:
		return coerceJSON(v)
	case KindBinary:
		if v.Kind == KindBinary {
			return v, nil
		}
		if v.Kind == KindString {
			return BinaryVal([]byte(v.asString())), nil
		}
		return Null, typeErrf("cannot convert %s to binary", v.Kind)
	case KindRecord:
		return coerceRecord(v, t.Record)
	case KindArray:
		return coerceArray(v, t)
	case KindBitmap, KindIntmap:
		return coerceBits(v, t)
	case KindFunc:
		if v.Kind == KindFunc {
			return v, nil
		}
		return Null, typeErrf("cannot convert %s to function", v.Kind)
	default:
		return v, nil
	}
}

func coerceIntegral(v Value, target string, lo, hi int64) (int64, error) {
	var n int64
	switch v.Kind {
	case KindByte:
		n = int64(v.asByte())
	case KindInt:
		n = int64(v.asInt())
	case KindLong:
		n = v.asLong()
	case KindFloat:
		n = int64(v.asFloat())
	case KindDouble:
		n = int64(v.asDouble())
	case KindBool:
		if v.asBool() {
			n = 1
		}
	case KindString:
		s := strings.TrimSpace(v.asString())
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// allow "7.0" into an int slot when the fraction is zero
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != float64(int64(f)) {
				return 0, typeErrf("cannot convert %q to %s", v.asString(), target)
			}
			parsed = int64(f)
		}
		n = parsed
	default:
		return 0, typeErrf("cannot convert %s to %s", v.Kind, target)
	}
	if n < lo || n > hi {
		return 0, typeErrf("value %d out of range for %s", n, target)
	}
	return n, nil
}

func coerceFloating(v Value, target string) (float64, error) {
	if f, ok := toDouble(v); ok {
		return f, nil
	}
	switch v.Kind {
	case KindBool:
		if v.asBool() {
			return 1, nil
		}
		return 0, nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.asString()), 64)
		if err != nil {
			return 0, typeErrf("cannot convert %q to %s", v.asString(), target)
		}
		return f, nil
	}
	return 0, typeErrf("cannot convert %s to %s", v.Kind, target)
}

func coerceDate(v Value) (Value, error) {
	switch v.Kind {
	case KindDate:
		return v, nil
	case KindString:
		s := strings.TrimSpace(v.asString())
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return DateVal(t), nil
			}
		}
		return Null, typeErrf("cannot convert %q to date", v.asString())
	case KindLong, KindInt:
		n, _ := toLong(v)
		return DateVal(time.UnixMilli(n)), nil
	}
	return Null, typeErrf("cannot convert %s to date", v.Kind)
}

func coerceJSON(v Value) (Value, error) {
	switch v.Kind {
	case KindJSON:
		return v, nil
	case KindString:
		var doc interface{}
		if err := json.Unmarshal([]byte(v.asString()), &doc); err != nil {
			return Null, typeErrf("cannot parse %q as json: %v", v.asString(), err)
		}
		return JSONVal(doc), nil
	case KindRecord, KindArray:
		return JSONVal(toJSONDoc(v)), nil
	}
	return Null, typeErrf("cannot convert %s to json", v.Kind)
}

// toJSONDoc lowers a value into the plain map/slice shape used for the json
// kind.
func toJSONDoc(v Value) interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindByte:
		return float64(v.asByte())
	case KindInt:
		return float64(v.asInt())
	case KindLong:
		return float64(v.asLong())
	case KindFloat:
		return float64(v.asFloat())
	case KindDouble:
		return v.asDouble()
	case KindBool:
		return v.asBool()
	case KindString:
		return v.asString()
	case KindDate:
		return Display(v)
	case KindRecord:
		r := v.asRecord()
		m := make(map[string]interface{}, len(r.Fields))
		for _, f := range r.Type.FieldNames {
			m[f] = toJSONDoc(r.Fields[f])
		}
		return m
	case KindArray:
		a := v.asArray()
		out := make([]interface{}, 0, a.Len())
		for _, e := range a.Snapshot() {
			out = append(out, toJSONDoc(e))
		}
		return out
	case KindJSON:
		return v.Data
	default:
		return Display(v)
	}
}

func coerceRecord(v Value, rt *RecordType) (Value, error) {
	if rt == nil {
		if v.Kind == KindRecord {
			return v, nil
		}
		return Null, typeErrf("cannot convert %s to record", v.Kind)
	}
	switch v.Kind {
	case KindRecord:
		src := v.asRecord()
		if src.Type == rt {
			// re-validate in place: coercion is idempotent
			for _, f := range rt.FieldNames {
				cv, err := coerceToType(src.Fields[f], rt.FieldTypes[f])
				if err != nil {
					return Null, typeErrf("field %q: %s", f, err.Error())
				}
				src.Fields[f] = cv
			}
			return v, nil
		}
		out := NewRecord(rt)
		for _, f := range rt.FieldNames {
			if fv, ok := src.Fields[f]; ok {
				if err := out.Set(f, fv); err != nil {
					return Null, typeErrf("field %q: %s", f, err.Error())
				}
			}
		}
		return Value{Kind: KindRecord, Data: out}, nil
	case KindJSON:
		m, ok := v.Data.(map[string]interface{})
		if !ok {
			return Null, typeErrf("cannot convert non-object json to record")
		}
		out := NewRecord(rt)
		for _, f := range rt.FieldNames {
			for k, fv := range m {
				if strings.EqualFold(k, f) {
					if err := out.Set(f, fromJSONDoc(fv)); err != nil {
						return Null, typeErrf("field %q: %s", f, err.Error())
					}
				}
			}
		}
		return Value{Kind: KindRecord, Data: out}, nil
	case KindString:
		jv, err := coerceJSON(v)
		if err != nil {
			return Null, err
		}
		return coerceRecord(jv, rt)
	}
	return Null, typeErrf("cannot convert %s to record", v.Kind)
}

// fromJSONDoc lifts a decoded JSON node into a dynamically-kinded Value.
func fromJSONDoc(doc interface{}) Value {
	switch d := doc.(type) {
	case nil:
		return Null
	case bool:
		return BoolVal(d)
	case float64:
		if d == float64(int64(d)) && d >= -1<<31 && d < 1<<31 {
			return IntVal(int32(d))
		}
		return DoubleVal(d)
	case string:
		return StringVal(d)
	case []interface{}:
		a := NewArray(nil)
		for _, e := range d {
			a.Items = append(a.Items, fromJSONDoc(e))
		}
		return Value{Kind: KindArray, Data: a}
	case map[string]interface{}:
		return JSONVal(d)
	default:
		return Null
	}
}

func coerceArray(v Value, t *TypeSpec) (Value, error) {
	var src []Value
	switch v.Kind {
	case KindArray:
		src = v.asArray().Snapshot()
	case KindJSON:
		items, ok := v.Data.([]interface{})
		if !ok {
			return Null, typeErrf("cannot convert non-array json to array")
		}
		src = make([]Value, 0, len(items))
		for _, e := range items {
			src = append(src, fromJSONDoc(e))
		}
	default:
		return Null, typeErrf("cannot convert %s to array", v.Kind)
	}
	if t.Length >= 0 && len(src) > t.Length {
		return Null, typeErrf("array literal has %d elements, fixed length is %d", len(src), t.Length)
	}
	var out *Array
	if t.Length >= 0 {
		out = NewFixedArray(t.Elem, t.Length)
		for i, e := range src {
			if err := out.SetAt(i, e); err != nil {
				return Null, err
			}
		}
	} else {
		out = NewArray(t.Elem)
		for _, e := range src {
			if err := out.Append(e); err != nil {
				return Null, err
			}
		}
	}
	return Value{Kind: KindArray, Data: out}, nil
}

func coerceBits(v Value, t *TypeSpec) (Value, error) {
	kind := t.Kind
	switch v.Kind {
	case KindBitmap, KindIntmap:
		if v.asBits().Type == t.Bitmap {
			return v, nil
		}
		return Value{Kind: kind, Data: &BitmapValue{Type: t.Bitmap, Bits: v.asBits().Bits}}, nil
	case KindByte, KindInt, KindLong:
		n, _ := toLong(v)
		max := int64(1)<<uint(t.Bitmap.Width) - 1
		if n < 0 || n > max {
			return Null, typeErrf("value %d out of range for %s", n, t.Bitmap.kindName())
		}
		return Value{Kind: kind, Data: &BitmapValue{Type: t.Bitmap, Bits: uint32(n)}}, nil
	}
	return Null, typeErrf("cannot convert %s to %s", v.Kind, t.Bitmap.kindName())
}
