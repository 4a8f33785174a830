// value.go: the runtime value model.
//
// Value is a closed tagged union: a Kind discriminator plus a Data payload
// whose concrete Go type is fixed per kind (see the Kind constants). The
// evaluator switches exhaustively on Kind; there is no interface-based
// dispatch over value types.
package ebscript

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the payload of a Value.
type Kind int

const (
	KindNull   Kind = iota
	KindByte        // byte
	KindInt         // int32
	KindLong        // int64
	KindFloat       // float32
	KindDouble      // float64
	KindBool        // bool
	KindString      // string
	KindDate        // time.Time
	KindJSON        // any (decoded JSON document)
	KindBinary      // []byte
	KindRecord      // *Record
	KindArray       // *Array
	KindBitmap      // *BitmapValue (byte-backed)
	KindIntmap      // *BitmapValue (int32-backed)
	KindFunc        // *Function
)

var kindNames = map[Kind]string{
	KindNull: "null", KindByte: "byte", KindInt: "int", KindLong: "long",
	KindFloat: "float", KindDouble: "double", KindBool: "bool",
	KindString: "string", KindDate: "date", KindJSON: "json",
	KindBinary: "binary", KindRecord: "record", KindArray: "array",
	KindBitmap: "bitmap", KindIntmap: "intmap", KindFunc: "function",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is the tagged union carried by every variable, field, and element.
type Value struct {
	Kind Kind
	Data interface{}
}

var Null = Value{Kind: KindNull}

func ByteVal(b byte) Value          { return Value{Kind: KindByte, Data: b} }
func IntVal(n int32) Value          { return Value{Kind: KindInt, Data: n} }
func LongVal(n int64) Value         { return Value{Kind: KindLong, Data: n} }
func FloatVal(f float32) Value      { return Value{Kind: KindFloat, Data: f} }
func DoubleVal(f float64) Value     { return Value{Kind: KindDouble, Data: f} }
func BoolVal(b bool) Value          { return Value{Kind: KindBool, Data: b} }
func StringVal(s string) Value      { return Value{Kind: KindString, Data: s} }
func DateVal(t time.Time) Value     { return Value{Kind: KindDate, Data: t} }
func JSONVal(doc interface{}) Value { return Value{Kind: KindJSON, Data: doc} }
func BinaryVal(b []byte) Value      { return Value{Kind: KindBinary, Data: b} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

func (v Value) asByte() byte       { return v.Data.(byte) }
func (v Value) asInt() int32       { return v.Data.(int32) }
func (v Value) asLong() int64      { return v.Data.(int64) }
func (v Value) asFloat() float32   { return v.Data.(float32) }
func (v Value) asDouble() float64  { return v.Data.(float64) }
func (v Value) asBool() bool       { return v.Data.(bool) }
func (v Value) asString() string   { return v.Data.(string) }
func (v Value) asDate() time.Time  { return v.Data.(time.Time) }
func (v Value) asBinary() []byte   { return v.Data.([]byte) }
func (v Value) asRecord() *Record  { return v.Data.(*Record) }
func (v Value) asArray() *Array    { return v.Data.(*Array) }
func (v Value) asFunc() *Function  { return v.Data.(*Function) }
func (v Value) asBits() *BitmapValue {
	return v.Data.(*BitmapValue)
}

/* ===========================
   Records
   =========================== */

// Record is a structured value: an ordered field map validated against a
// shared *RecordType schema. Field iteration order is the declaration order
// of the schema.
type Record struct {
	Type   *RecordType
	Fields map[string]Value
}

// NewRecord returns a record with every schema field set to null.
func NewRecord(rt *RecordType) *Record {
	r := &Record{Type: rt, Fields: make(map[string]Value, len(rt.FieldNames))}
	for _, f := range rt.FieldNames {
		r.Fields[f] = Null
	}
	return r
}

// Get returns the field value, or an error naming the missing field.
func (r *Record) Get(name string) (Value, error) {
	name = strings.ToLower(name)
	if v, ok := r.Fields[name]; ok {
		return v, nil
	}
	return Null, typeErrf("record has no field %q", name)
}

// Set validates and coerces v against the field's declared type, then
// stores it.
func (r *Record) Set(name string, v Value) error {
	name = strings.ToLower(name)
	ft, ok := r.Type.FieldTypes[name]
	if !ok {
		return typeErrf("record has no field %q", name)
	}
	cv, err := coerceToType(v, ft)
	if err != nil {
		return err
	}
	r.Fields[name] = cv
	return nil
}

/* ===========================
   Arrays
   =========================== */

// Array is a sequence of coerced elements. Fixed arrays validate index
// bounds; dynamic arrays append on write past the end. Reversed marks a
// reverse view sharing the same backing slice; index i of a reversed array
// reads element len-1-i. Reversing is O(1) and never copies or mutates the
// backing data.
type Array struct {
	Elem     *TypeSpec
	Fixed    bool
	Items    []Value
	Reversed bool
}

// NewArray returns a dynamic array of the given element type.
func NewArray(elem *TypeSpec) *Array {
	return &Array{Elem: elem}
}

// NewFixedArray returns a fixed-length array with every slot null.
func NewFixedArray(elem *TypeSpec, n int) *Array {
	items := make([]Value, n)
	for i := range items {
		items[i] = Null
	}
	return &Array{Elem: elem, Fixed: true, Items: items}
}

func (a *Array) Len() int { return len(a.Items) }

func (a *Array) mapIndex(i int) int {
	if a.Reversed {
		return len(a.Items) - 1 - i
	}
	return i
}

// At returns the element at logical index i (reverse-aware).
func (a *Array) At(i int) (Value, error) {
	if i < 0 || i >= len(a.Items) {
		return Null, rtErrf(IndexError, "", "array index %d out of bounds (length %d)", i, len(a.Items))
	}
	return a.Items[a.mapIndex(i)], nil
}

// SetAt coerces v to the element type and stores it at logical index i.
// Dynamic arrays grow as needed; fixed arrays reject out-of-bounds writes.
func (a *Array) SetAt(i int, v Value) error {
	if i < 0 {
		return rtErrf(IndexError, "", "array index %d out of bounds (length %d)", i, len(a.Items))
	}
	cv := v
	if a.Elem != nil {
		var err error
		cv, err = coerceToType(v, a.Elem)
		if err != nil {
			return err
		}
	}
	if i >= len(a.Items) {
		if a.Fixed {
			return rtErrf(IndexError, "", "array index %d out of bounds (length %d)", i, len(a.Items))
		}
		for len(a.Items) <= i {
			a.Items = append(a.Items, Null)
		}
	}
	a.Items[a.mapIndex(i)] = cv
	return nil
}

// Append adds v to the end of a dynamic array.
func (a *Array) Append(v Value) error {
	if a.Fixed {
		return rtErrf(IndexError, "", "cannot append to a fixed-length array")
	}
	cv := v
	if a.Elem != nil {
		var err error
		cv, err = coerceToType(v, a.Elem)
		if err != nil {
			return err
		}
	}
	if a.Reversed {
		a.Items = append([]Value{cv}, a.Items...)
	} else {
		a.Items = append(a.Items, cv)
	}
	return nil
}

// Reverse returns a view over the same backing slice with the traversal
// order flipped. Reversing twice yields the original order.
func (a *Array) Reverse() *Array {
	return &Array{Elem: a.Elem, Fixed: a.Fixed, Items: a.Items, Reversed: !a.Reversed}
}

// Snapshot returns the logical elements in traversal order as a fresh slice.
func (a *Array) Snapshot() []Value {
	out := make([]Value, len(a.Items))
	for i := range a.Items {
		out[i] = a.Items[a.mapIndex(i)]
	}
	return out
}

/* ===========================
   Bitmaps / intmaps
   =========================== */

// BitmapValue is a bit-addressable view over a byte (width 8) or an int32
// (width 32), with named fields mapped to bit indices by a shared
// *BitmapType.
type BitmapValue struct {
	Type *BitmapType
	Bits uint32
}

func (b *BitmapValue) GetBit(name string) (bool, error) {
	idx, ok := b.Type.FieldBit[strings.ToLower(name)]
	if !ok {
		return false, typeErrf("%s has no bit field %q", b.Type.kindName(), name)
	}
	return b.Bits&(1<<uint(idx)) != 0, nil
}

func (b *BitmapValue) SetBit(name string, on bool) error {
	idx, ok := b.Type.FieldBit[strings.ToLower(name)]
	if !ok {
		return typeErrf("%s has no bit field %q", b.Type.kindName(), name)
	}
	if on {
		b.Bits |= 1 << uint(idx)
	} else {
		b.Bits &^= 1 << uint(idx)
	}
	return nil
}

/* ===========================
   Functions
   =========================== */

// Param is one declared function parameter.
type Param struct {
	Name    string
	Type    *TypeSpec
	Default Expr // nil when required
}

// Function is a user-defined function value. Frame is the arena index of
// the environment frame active at definition time (closure capture).
type Function struct {
	Name       string
	Params     []Param
	ReturnType *TypeSpec
	Body       []Stmt
	Frame      int
}

/* ===========================
   Truthiness & display
   =========================== */

var truthySpellings = map[string]bool{
	"true": true, "yes": true, "y": true, "1": true, "on": true,
}
var falsySpellings = map[string]bool{
	"false": true, "no": true, "n": true, "0": true, "off": true, "": true,
}

// Truthy applies the language's boolean coercion: bools as-is, numerics
// nonzero, strings by fixed spelling set, null false.
func Truthy(v Value) (bool, error) {
	switch v.Kind {
	case KindNull:
		return false, nil
	case KindBool:
		return v.asBool(), nil
	case KindByte:
		return v.asByte() != 0, nil
	case KindInt:
		return v.asInt() != 0, nil
	case KindLong:
		return v.asLong() != 0, nil
	case KindFloat:
		return v.asFloat() != 0, nil
	case KindDouble:
		return v.asDouble() != 0, nil
	case KindString:
		s := strings.ToLower(strings.TrimSpace(v.asString()))
		if truthySpellings[s] {
			return true, nil
		}
		if falsySpellings[s] {
			return false, nil
		}
		return false, typeErrf("cannot interpret %q as a boolean", v.asString())
	default:
		return false, typeErrf("cannot interpret %s as a boolean", v.Kind)
	}
}

// Display renders a value the way `print` shows it.
func Display(v Value) string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindByte:
		return strconv.Itoa(int(v.asByte()))
	case KindInt:
		return strconv.FormatInt(int64(v.asInt()), 10)
	case KindLong:
		return strconv.FormatInt(v.asLong(), 10)
	case KindFloat:
		return strconv.FormatFloat(float64(v.asFloat()), 'g', -1, 32)
	case KindDouble:
		return strconv.FormatFloat(v.asDouble(), 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.asBool())
	case KindString:
		return v.asString()
	case KindDate:
		t := v.asDate()
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04:05")
	case KindJSON:
		b, err := json.Marshal(v.Data)
		if err != nil {
			return fmt.Sprintf("%v", v.Data)
		}
		return string(b)
	case KindBinary:
		return fmt.Sprintf("binary[%d bytes]", len(v.asBinary()))
	case KindRecord:
		r := v.asRecord()
		parts := make([]string, 0, len(r.Type.FieldNames))
		for _, f := range r.Type.FieldNames {
			parts = append(parts, fmt.Sprintf("%s: %s", f, Display(r.Fields[f])))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindArray:
		a := v.asArray()
		parts := make([]string, 0, a.Len())
		for _, e := range a.Snapshot() {
			parts = append(parts, Display(e))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindBitmap, KindIntmap:
		b := v.asBits()
		names := make([]string, 0, len(b.Type.FieldBit))
		for n := range b.Type.FieldBit {
			names = append(names, n)
		}
		sort.Slice(names, func(i, j int) bool {
			return b.Type.FieldBit[names[i]] < b.Type.FieldBit[names[j]]
		})
		parts := make([]string, 0, len(names))
		for _, n := range names {
			on, _ := b.GetBit(n)
			parts = append(parts, fmt.Sprintf("%s=%t", n, on))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindFunc:
		return "function " + v.asFunc().Name
	default:
		return fmt.Sprintf("%v", v.Data)
	}
}

// Equal is deep structural equality between two values, with numeric kinds
// compared by widened magnitude (1 == 1L == 1.0).
func Equal(a, b Value) bool {
	if isNumeric(a.Kind) && isNumeric(b.Kind) {
		af, _ := toDouble(a)
		bf, _ := toDouble(b)
		return af == bf
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.asBool() == b.asBool()
	case KindString:
		return a.asString() == b.asString()
	case KindDate:
		return a.asDate().Equal(b.asDate())
	case KindBinary:
		x, y := a.asBinary(), b.asBinary()
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	case KindArray:
		x, y := a.asArray(), b.asArray()
		if x.Len() != y.Len() {
			return false
		}
		xs, ys := x.Snapshot(), y.Snapshot()
		for i := range xs {
			if !Equal(xs[i], ys[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		x, y := a.asRecord(), b.asRecord()
		if len(x.Fields) != len(y.Fields) {
			return false
		}
		for k, xv := range x.Fields {
			yv, ok := y.Fields[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case KindBitmap, KindIntmap:
		return a.asBits().Bits == b.asBits().Bits
	case KindJSON:
		ab, _ := json.Marshal(a.Data)
		bb, _ := json.Marshal(b.Data)
		return string(ab) == string(bb)
	default:
		return a.Data == b.Data
	}
}

func isNumeric(k Kind) bool {
	switch k {
	case KindByte, KindInt, KindLong, KindFloat, KindDouble:
		return true
	}
	return false
}

func toDouble(v Value) (float64, bool) {
	switch v.Kind {
	case KindByte:
		return float64(v.asByte()), true
	case KindInt:
		return float64(v.asInt()), true
	case KindLong:
		return float64(v.asLong()), true
	case KindFloat:
		return float64(v.asFloat()), true
	case KindDouble:
		return v.asDouble(), true
	}
	return 0, false
}

func toLong(v Value) (int64, bool) {
	switch v.Kind {
	case KindByte:
		return int64(v.asByte()), true
	case KindInt:
		return int64(v.asInt()), true
	case KindLong:
		return v.asLong(), true
	}
	return 0, false
}
