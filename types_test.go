// types_test.go
package ebscript

import (
	"testing"
	"time"
)

func coerce(t *testing.T, v Value, spec *TypeSpec) Value {
	t.Helper()
	out, err := coerceToType(v, spec)
	if err != nil {
		t.Fatalf("coerce %#v to %s: %v", v, spec, err)
	}
	return out
}

func intSpec() *TypeSpec    { return &TypeSpec{Kind: KindInt, Length: -1} }
func stringSpec() *TypeSpec { return &TypeSpec{Kind: KindString, Length: -1} }
func boolSpec() *TypeSpec   { return &TypeSpec{Kind: KindBool, Length: -1} }

func Test_Coerce_Numeric_Widening(t *testing.T) {
	wantLong(t, coerce(t, IntVal(7), &TypeSpec{Kind: KindLong, Length: -1}), 7)
	wantDouble(t, coerce(t, IntVal(7), &TypeSpec{Kind: KindDouble, Length: -1}), 7)
	wantInt(t, coerce(t, ByteVal(200), intSpec()), 200)
}

func Test_Coerce_String_To_Int(t *testing.T) {
	wantInt(t, coerce(t, StringVal("42"), intSpec()), 42)
	wantInt(t, coerce(t, StringVal(" 42 "), intSpec()), 42)
	// a whole-valued decimal spelling narrows cleanly
	wantInt(t, coerce(t, StringVal("7.0"), intSpec()), 7)
}

func Test_Coerce_Fractional_String_To_Int_Fails(t *testing.T) {
	if _, err := coerceToType(StringVal("7.5"), intSpec()); err == nil {
		t.Fatalf("fractional string must not narrow to int")
	}
	if _, err := coerceToType(StringVal("seven"), intSpec()); err == nil {
		t.Fatalf("non-numeric string must not coerce to int")
	}
}

func Test_Coerce_Int_Range(t *testing.T) {
	if _, err := coerceToType(LongVal(1 << 40), intSpec()); err == nil {
		t.Fatalf("out-of-range long must not narrow to int")
	}
	if _, err := coerceToType(IntVal(300), &TypeSpec{Kind: KindByte, Length: -1}); err == nil {
		t.Fatalf("300 must not fit a byte")
	}
}

func Test_Coerce_Truthy_Spellings(t *testing.T) {
	for _, s := range []string{"true", "yes", "y", "1", "on", "TRUE", "Yes"} {
		wantBool(t, coerce(t, StringVal(s), boolSpec()), true)
	}
	for _, s := range []string{"false", "no", "n", "0", "off", ""} {
		wantBool(t, coerce(t, StringVal(s), boolSpec()), false)
	}
	if _, err := coerceToType(StringVal("maybe"), boolSpec()); err == nil {
		t.Fatalf("ambiguous spelling must not coerce to bool")
	}
}

func Test_Coerce_Anything_To_String(t *testing.T) {
	wantStr(t, coerce(t, IntVal(42), stringSpec()), "42")
	wantStr(t, coerce(t, BoolVal(true), stringSpec()), "true")
}

func Test_Coerce_Null_Passes_Through(t *testing.T) {
	v := coerce(t, Null, intSpec())
	if !v.IsNull() {
		t.Fatalf("null should stay null, got %#v", v)
	}
}

func Test_Coerce_Record_From_JSON(t *testing.T) {
	rt := &RecordType{
		Name:       "person",
		FieldNames: []string{"name", "age"},
		FieldTypes: map[string]*TypeSpec{
			"name": stringSpec(),
			"age":  intSpec(),
		},
	}
	spec := &TypeSpec{Kind: KindRecord, Record: rt, Length: -1}
	doc := JSONVal(map[string]interface{}{"name": "Ada", "age": "36"})

	v := coerce(t, doc, spec)
	if v.Kind != KindRecord {
		t.Fatalf("want record, got %s", v.Kind)
	}
	rec := v.asRecord()
	name, _ := rec.Get("name")
	age, _ := rec.Get("age")
	wantStr(t, name, "Ada")
	wantInt(t, age, 36)

	// validating an already-valid record is the identity
	again := coerce(t, v, spec)
	if again.asRecord() != rec {
		t.Fatalf("re-coercing the same record should not copy it")
	}
}

func Test_Coerce_Record_Rejects_Bad_Field(t *testing.T) {
	rt := &RecordType{
		Name:       "person",
		FieldNames: []string{"age"},
		FieldTypes: map[string]*TypeSpec{"age": intSpec()},
	}
	spec := &TypeSpec{Kind: KindRecord, Record: rt, Length: -1}
	doc := JSONVal(map[string]interface{}{"age": "unknown"})
	if _, err := coerceToType(doc, spec); err == nil {
		t.Fatalf("bad field value must fail record validation")
	}
}

func Test_Coerce_Array_Element_Types(t *testing.T) {
	spec := &TypeSpec{Kind: KindArray, Elem: intSpec(), Length: -1}
	src := NewArray(nil)
	src.Items = append(src.Items, StringVal("1"), StringVal("2"))
	v := coerce(t, Value{Kind: KindArray, Data: src}, spec)
	a := v.asArray()
	first, _ := a.At(0)
	wantInt(t, first, 1)
}

func Test_Coerce_Date_From_String(t *testing.T) {
	v := coerce(t, StringVal("2024-03-15"), &TypeSpec{Kind: KindDate, Length: -1})
	if v.Kind != KindDate {
		t.Fatalf("want date, got %s", v.Kind)
	}
	if d := v.asDate(); d.Year() != 2024 || d.Month() != time.March {
		t.Fatalf("parsed wrong: %v", d)
	}
}

func Test_Array_Reverse_View_Shares_Backing(t *testing.T) {
	a := NewArray(intSpec())
	for _, n := range []int32{1, 2, 3} {
		if err := a.Append(IntVal(n)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	r := a.Reverse()
	v, _ := r.At(0)
	wantInt(t, v, 3)

	if err := r.SetAt(2, IntVal(99)); err != nil {
		t.Fatalf("set through view: %v", err)
	}
	v, _ = a.At(0)
	wantInt(t, v, 99)

	back := r.Reverse()
	v, _ = back.At(0)
	wantInt(t, v, 99)
	if got := len(back.Snapshot()); got != 3 {
		t.Fatalf("snapshot length: %d", got)
	}
}

func Test_Bitmap_Width_Limits(t *testing.T) {
	bt := &BitmapType{
		Name:     "flags",
		Width:    8,
		FieldBit: map[string]int{"a": 0, "h": 7},
	}
	bv := &BitmapValue{Type: bt}
	if err := bv.SetBit("h", true); err != nil {
		t.Fatalf("set bit 7: %v", err)
	}
	on, err := bv.GetBit("h")
	if err != nil || !on {
		t.Fatalf("get bit 7: %v %v", on, err)
	}
	if _, err := bv.GetBit("nosuch"); err == nil {
		t.Fatalf("unknown field must error")
	}
}
