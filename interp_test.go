// interp_test.go
package ebscript

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func testRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt := NewRuntime(append([]Option{WithLogger(quiet)}, opts...)...)
	t.Cleanup(rt.Close)
	return rt
}

func evalSrc(t *testing.T, src string) Value {
	t.Helper()
	rt := testRuntime(t)
	v, err := rt.Run(src, "test")
	if err != nil {
		t.Fatalf("Run error: %v\nsource:\n%s", err, src)
	}
	return v
}

func evalErr(t *testing.T, src string) error {
	t.Helper()
	rt := testRuntime(t)
	_, err := rt.Run(src, "test")
	if err == nil {
		t.Fatalf("expected an error for:\n%s", src)
	}
	return err
}

func wantInt(t *testing.T, v Value, n int32) {
	t.Helper()
	if v.Kind != KindInt || v.Data.(int32) != n {
		t.Fatalf("want int %d, got %#v", n, v)
	}
}

func wantLong(t *testing.T, v Value, n int64) {
	t.Helper()
	if v.Kind != KindLong || v.Data.(int64) != n {
		t.Fatalf("want long %d, got %#v", n, v)
	}
}

func wantDouble(t *testing.T, v Value, f float64) {
	t.Helper()
	if v.Kind != KindDouble || v.Data.(float64) != f {
		t.Fatalf("want double %g, got %#v", f, v)
	}
}

func wantStr(t *testing.T, v Value, s string) {
	t.Helper()
	if v.Kind != KindString || v.Data.(string) != s {
		t.Fatalf("want string %q, got %#v", s, v)
	}
}

func wantBool(t *testing.T, v Value, b bool) {
	t.Helper()
	if v.Kind != KindBool || v.Data.(bool) != b {
		t.Fatalf("want bool %v, got %#v", b, v)
	}
}

// --- arithmetic and types --------------------------------------------------

func Test_Eval_Int_Arithmetic(t *testing.T) {
	wantInt(t, evalSrc(t, `return 2 + 3 * 4;`), 14)
	wantInt(t, evalSrc(t, `return (2 + 3) * 4;`), 20)
	wantInt(t, evalSrc(t, `return 7 / 2;`), 3)
}

func Test_Eval_Int_Overflow_Widens_To_Long(t *testing.T) {
	wantLong(t, evalSrc(t, `return 2000000000 + 2000000000;`), 4000000000)
}

func Test_Eval_Power_Is_Double(t *testing.T) {
	wantDouble(t, evalSrc(t, `return 2 ^ 10;`), 1024)
	wantDouble(t, evalSrc(t, `return -2 ^ 2;`), -4)
	wantDouble(t, evalSrc(t, `return 2 ^ -1;`), 0.5)
}

func Test_Eval_Division_By_Zero(t *testing.T) {
	v := evalSrc(t, `
var msg: string = "none";
try {
    var x: int = 1 / 0;
} exceptions {
    when MATH_ERROR { msg = "math"; }
}
return msg;
`)
	wantStr(t, v, "math")
}

func Test_Eval_String_Concat_Coerces(t *testing.T) {
	wantStr(t, evalSrc(t, `return "n=" + 42;`), "n=42")
	wantStr(t, evalSrc(t, `return 1 + "x";`), "1x")
}

func Test_Eval_VarDecl_Coercion(t *testing.T) {
	wantInt(t, evalSrc(t, `var x: int = "7"; return x;`), 7)
	wantInt(t, evalSrc(t, `var x: int = "7.0"; return x;`), 7)
	wantDouble(t, evalSrc(t, `var x: double = 3; return x;`), 3)
	wantBool(t, evalSrc(t, `var x: bool = "yes"; return x;`), true)
	wantBool(t, evalSrc(t, `var x: bool = "off"; return x;`), false)
}

func Test_Eval_Bad_Coercion_Is_TypeError(t *testing.T) {
	v := evalSrc(t, `
var msg: string = "none";
try {
    var x: int = "seven";
} exceptions {
    when TYPE_ERROR { msg = "type"; }
}
return msg;
`)
	wantStr(t, v, "type")
}

// --- control flow ----------------------------------------------------------

func Test_Eval_If_Else(t *testing.T) {
	wantStr(t, evalSrc(t, `
var x: int = 5;
if (x > 3) {
    return "big";
} else {
    return "small";
}
`), "big")
}

func Test_Eval_If_Then_Form(t *testing.T) {
	wantInt(t, evalSrc(t, `
var x: int = 0;
if 1 < 2 then x = 9;
return x;
`), 9)
}

func Test_Eval_For_Break_Continue(t *testing.T) {
	// skip 3, stop at 6: 0+1+2+4+5
	wantInt(t, evalSrc(t, `
var total: int = 0;
for (var i: int = 0; i < 10; i++) {
    if (i == 3) { continue; }
    if (i == 6) { break; }
    total += i;
}
return total;
`), 12)
}

func Test_Eval_While_And_DoWhile(t *testing.T) {
	wantInt(t, evalSrc(t, `
var n: int = 0;
while (n < 5) { n++; }
return n;
`), 5)
	// do-while body runs once even when the condition is already false
	wantInt(t, evalSrc(t, `
var n: int = 100;
do { n++; } while (n < 5);
return n;
`), 101)
}

func Test_Eval_Block_Scoping(t *testing.T) {
	wantInt(t, evalSrc(t, `
var x: int = 1;
{
    var x: int = 2;
}
return x;
`), 1)
}

func Test_Eval_Foreach_String_And_Array(t *testing.T) {
	wantStr(t, evalSrc(t, `
var s: string = "";
foreach (c in "abc") { s = c + s; }
return s;
`), "cba")
	wantInt(t, evalSrc(t, `
var a: int[*] = {1, 2, 3};
var sum: int = 0;
foreach (x in a) { sum += x; }
return sum;
`), 6)
}

func Test_Eval_Foreach_Reversed_View(t *testing.T) {
	// reversing is a view: iterating it then the original sees both orders
	wantStr(t, evalSrc(t, `
var a: int[*] = {1, 2, 3};
var s: string = "";
foreach (x in call array.reverse(a)) { s = s + x; }
s = s + "/";
foreach (x in a) { s = s + x; }
return s;
`), "321/123")
}

// --- functions -------------------------------------------------------------

func Test_Eval_Function_Params_And_Defaults(t *testing.T) {
	wantInt(t, evalSrc(t, `
add(x: int, y: int = 10) return int {
    return x + y;
}
return call add(5);
`), 15)
	wantInt(t, evalSrc(t, `
add(x: int, y: int = 10) return int {
    return x + y;
}
return call add(x = 1, y = 2);
`), 3)
}

func Test_Eval_Function_Param_Coercion(t *testing.T) {
	wantInt(t, evalSrc(t, `
double(n: int) return int {
    return n * 2;
}
return call double("21");
`), 42)
}

func Test_Eval_Function_Mutates_Enclosing_Scope(t *testing.T) {
	wantInt(t, evalSrc(t, `
var counter: int = 0;
inc {
    counter += 1;
}
call inc();
call inc();
return counter;
`), 2)
}

func Test_Eval_Named_Positional_Mix_Rejected(t *testing.T) {
	err := evalErr(t, `
add(x: int, y: int) return int {
    return x + y;
}
return call add(1, y = 2);
`)
	if !strings.Contains(err.Error(), "mix") {
		t.Fatalf("want mixing error, got %v", err)
	}
}

func Test_Eval_Chained_Comparison_Middle_Once(t *testing.T) {
	wantInt(t, evalSrc(t, `
var n: int = 0;
bump return int {
    n += 1;
    return 5;
}
var ok: bool = 1 < call bump() < 10;
return n;
`), 1)
}

func Test_Eval_Chained_Comparison_Value(t *testing.T) {
	wantBool(t, evalSrc(t, `return 1 < 2 <= 2;`), true)
	wantBool(t, evalSrc(t, `return 1 < 2 < 2;`), false)
	wantBool(t, evalSrc(t, `return 3 > 2 > 1;`), true)
}

// --- structured types ------------------------------------------------------

func Test_Eval_Record_Coercion_And_Field_Access(t *testing.T) {
	wantInt(t, evalSrc(t, `
typedef person record {
    name: string;
    age: int;
};
var p: person = {"name": "Ada", "age": "36"};
return p.age;
`), 36)
}

func Test_Eval_Record_Field_Assign(t *testing.T) {
	wantStr(t, evalSrc(t, `
typedef person record {
    name: string;
    age: int;
};
var p: person = {"name": "Ada", "age": 36};
p.name = "Grace";
return p.name;
`), "Grace")
}

func Test_Eval_Bitmap_Fields(t *testing.T) {
	wantBool(t, evalSrc(t, `
typedef flags bitmap {
    ready;
    armed;
};
var f: flags;
f.armed = true;
return f.armed;
`), true)
	wantBool(t, evalSrc(t, `
typedef flags bitmap {
    ready;
    armed;
};
var f: flags;
f.armed = true;
return f.ready;
`), false)
}

func Test_Eval_Fixed_Array_Bounds(t *testing.T) {
	wantStr(t, evalSrc(t, `
var a: int[2];
var msg: string = "none";
try {
    a[5] = 1;
} exceptions {
    when INDEX_ERROR { msg = "index"; }
}
return msg;
`), "index")
}

func Test_Eval_Dynamic_Array_Grows(t *testing.T) {
	wantInt(t, evalSrc(t, `
var a: int[*];
call array.append(a, 10);
call array.append(a, 20);
return a[1];
`), 20)
}

func Test_Eval_Null_Index_Is_NullError(t *testing.T) {
	wantStr(t, evalSrc(t, `
var j: json;
var msg: string = "none";
try {
    var v: json = j[0];
} exceptions {
    when NULL_ERROR { msg = "null"; }
}
return msg;
`), "null")
}

// --- errors ----------------------------------------------------------------

func Test_Eval_Raise_And_Bind_Message(t *testing.T) {
	wantStr(t, evalSrc(t, `
var msg: string = "";
try {
    raise exception IO_ERROR("disk gone");
} exceptions {
    when IO_ERROR(e) { msg = e; }
}
return msg;
`), "disk gone")
}

func Test_Eval_AnyError_Catches_Custom_Kind(t *testing.T) {
	wantStr(t, evalSrc(t, `
var msg: string = "";
try {
    raise exception PAYMENT_DECLINED("card expired");
} exceptions {
    when IO_ERROR { msg = "io"; }
    when ANY_ERROR(e) { msg = e; }
}
return msg;
`), "card expired")
}

func Test_Eval_Custom_Kind_Matched_By_Name(t *testing.T) {
	wantStr(t, evalSrc(t, `
var msg: string = "";
try {
    raise exception PAYMENT_DECLINED("card expired");
} exceptions {
    when PAYMENT_DECLINED { msg = "declined"; }
}
return msg;
`), "declined")
}

func Test_Eval_Unhandled_Reraises(t *testing.T) {
	err := evalErr(t, `
try {
    raise exception IO_ERROR("disk gone");
} exceptions {
    when MATH_ERROR { print "nope"; }
}
`)
	if !strings.Contains(err.Error(), "disk gone") {
		t.Fatalf("re-raised error lost its message: %v", err)
	}
}

func Test_Eval_Undefined_Name(t *testing.T) {
	err := evalErr(t, `return nosuchthing;`)
	if !strings.Contains(err.Error(), "nosuchthing") {
		t.Fatalf("error should name the variable: %v", err)
	}
}

// --- output ----------------------------------------------------------------

func Test_Eval_Print_Output(t *testing.T) {
	var out strings.Builder
	rt := testRuntime(t, WithStdout(&out))
	if _, err := rt.Run(`print "hello " + 42;`, "test"); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got := out.String(); got != "hello 42\n" {
		t.Fatalf("print output: %q", got)
	}
}

func Test_Eval_State_Persists_Across_Runs(t *testing.T) {
	rt := testRuntime(t)
	if _, err := rt.Run(`var n: int = 1;`, "a"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	v, err := rt.Run(`n += 1; return n;`, "b")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	wantInt(t, v, 2)
}
