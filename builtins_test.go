// builtins_test.go
package ebscript

import (
	"strings"
	"testing"
)

// --- str -------------------------------------------------------------------

func Test_Builtin_Str_Basics(t *testing.T) {
	wantStr(t, evalSrc(t, `return call str.upper("hello");`), "HELLO")
	wantStr(t, evalSrc(t, `return call str.lower("HeLLo");`), "hello")
	wantStr(t, evalSrc(t, `return call str.trim("  x  ");`), "x")
	wantStr(t, evalSrc(t, `return call str.replace("aaa", "a", "b");`), "bbb")
	wantInt(t, evalSrc(t, `return call str.indexof("hello", "ll");`), 2)
	wantBool(t, evalSrc(t, `return call str.startswith("hello", "he");`), true)
	wantBool(t, evalSrc(t, `return call str.endswith("hello", "he");`), false)
}

func Test_Builtin_Str_Pad(t *testing.T) {
	wantStr(t, evalSrc(t, `return call str.padleft("7", 3, "0");`), "007")
	wantStr(t, evalSrc(t, `return call str.padright("ab", 4);`), "ab  ")
	// already wide enough: unchanged
	wantStr(t, evalSrc(t, `return call str.padleft("hello", 3, "0");`), "hello")
}

func Test_Builtin_Str_Named_Args_Any_Order(t *testing.T) {
	wantStr(t, evalSrc(t, `return call str.padleft(pad = "0", width = 4, text = "9");`), "0009")
}

func Test_Builtin_Str_Mix_Rejected(t *testing.T) {
	err := evalErr(t, `return call str.padleft("7", width = 3);`)
	if !strings.Contains(err.Error(), "mix") {
		t.Fatalf("want mixing rejection, got %v", err)
	}
}

func Test_Builtin_Str_Missing_Required(t *testing.T) {
	err := evalErr(t, `return call str.padleft("7");`)
	if !strings.Contains(err.Error(), "width") {
		t.Fatalf("error should name the missing parameter: %v", err)
	}
}

func Test_Builtin_Str_Split_Join(t *testing.T) {
	wantStr(t, evalSrc(t, `
var parts: string[*] = call str.split("a,b,c", ",");
return call array.join(parts, "-");
`), "a-b-c")
}

// --- array -----------------------------------------------------------------

func Test_Builtin_Array_Reverse_Is_A_View(t *testing.T) {
	// writing through the view is visible in the original
	wantInt(t, evalSrc(t, `
var a: int[*] = {1, 2, 3};
var r: int[*] = call array.reverse(a);
r[0] = 99;
return a[2];
`), 99)
}

func Test_Builtin_Array_Reverse_Twice_Restores_Order(t *testing.T) {
	wantStr(t, evalSrc(t, `
var a: int[*] = {1, 2, 3};
var rr: int[*] = call array.reverse(call array.reverse(a));
return call array.join(rr, "");
`), "123")
}

func Test_Builtin_Array_Sort(t *testing.T) {
	wantStr(t, evalSrc(t, `
var a: int[*] = {3, 1, 2};
return call array.join(call array.sort(a), "");
`), "123")
	wantStr(t, evalSrc(t, `
var a: int[*] = {3, 1, 2};
return call array.join(call array.sort(a, true), "");
`), "321")
	// sort copies: the original is untouched
	wantStr(t, evalSrc(t, `
var a: int[*] = {3, 1, 2};
call array.sort(a);
return call array.join(a, "");
`), "312")
}

func Test_Builtin_Array_Search(t *testing.T) {
	wantInt(t, evalSrc(t, `var a: int[*] = {5, 6, 7}; return call array.indexof(a, 6);`), 1)
	wantInt(t, evalSrc(t, `var a: int[*] = {5, 6, 7}; return call array.indexof(a, 9);`), -1)
	wantBool(t, evalSrc(t, `var a: int[*] = {5, 6, 7}; return call array.contains(a, 7);`), true)
}

func Test_Builtin_Array_Clear_Fixed_Rejected(t *testing.T) {
	err := evalErr(t, `var a: int[3]; call array.clear(a);`)
	if !strings.Contains(err.Error(), "fixed") {
		t.Fatalf("want fixed-array rejection, got %v", err)
	}
}

// --- json ------------------------------------------------------------------

func Test_Builtin_JSON_Parse_And_Get(t *testing.T) {
	wantStr(t, evalSrc(t, `
var doc: json = call json.parse("{\"user\": {\"name\": \"Ada\"}, \"tags\": [\"a\", \"b\"]}");
return call json.get(doc, "user.name");
`), "Ada")
	wantStr(t, evalSrc(t, `
var doc: json = call json.parse("{\"tags\": [\"a\", \"b\"]}");
return call json.get(doc, "tags.1");
`), "b")
}

func Test_Builtin_JSON_Get_Absent_Is_Null(t *testing.T) {
	v := evalSrc(t, `
var doc: json = call json.parse("{\"a\": 1}");
return call json.get(doc, "b.c");
`)
	if !v.IsNull() {
		t.Fatalf("absent path should be null, got %#v", v)
	}
}

func Test_Builtin_JSON_Has_Set_Remove(t *testing.T) {
	wantBool(t, evalSrc(t, `
var doc: json = {"a": 1};
return call json.has(doc, "a");
`), true)
	wantStr(t, evalSrc(t, `
var doc: json = {"user": {}};
call json.set(doc, "user.name", "Grace");
return call json.get(doc, "user.name");
`), "Grace")
	wantBool(t, evalSrc(t, `
var doc: json = {"a": 1, "b": 2};
call json.remove(doc, "b");
return call json.has(doc, "b");
`), false)
}

func Test_Builtin_JSON_Roundtrip(t *testing.T) {
	wantStr(t, evalSrc(t, `
var doc: json = call json.parse(call json.print({"k": "v"}));
return call json.get(doc, "k");
`), "v")
}

// --- crypto ----------------------------------------------------------------

func Test_Builtin_Crypto_Digests(t *testing.T) {
	wantStr(t, evalSrc(t, `return call crypto.md5("abc");`),
		"900150983cd24fb0d6963f7d28e17f72")
	wantStr(t, evalSrc(t, `return call crypto.sha256("abc");`),
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
}

func Test_Builtin_Crypto_Base64(t *testing.T) {
	wantStr(t, evalSrc(t, `return call crypto.base64encode("hello");`), "aGVsbG8=")
	wantStr(t, evalSrc(t, `return call crypto.base64decode("aGVsbG8=");`), "hello")
}

func Test_Builtin_Crypto_Base64_Bad_Input(t *testing.T) {
	v := evalSrc(t, `
var msg: string = "none";
try {
    var x: string = call crypto.base64decode("%%%");
} exceptions {
    when CRYPTO_ERROR { msg = "crypto"; }
}
return msg;
`)
	wantStr(t, v, "crypto")
}

func Test_Builtin_Crypto_Xor_Roundtrip(t *testing.T) {
	wantStr(t, evalSrc(t, `return call crypto.xor(call crypto.xor("secret", "k"), "k");`), "secret")
}

// --- binary ----------------------------------------------------------------

func Test_Builtin_Binary_Roundtrip(t *testing.T) {
	wantStr(t, evalSrc(t, `
var b: binary = call binary.fromstring("hello");
return call binary.tostring(b);
`), "hello")
	wantInt(t, evalSrc(t, `
var b: binary = call binary.fromstring("hello");
return call binary.length(b);
`), 5)
}

func Test_Builtin_Binary_Slice_Copies(t *testing.T) {
	wantStr(t, evalSrc(t, `
var b: binary = call binary.fromstring("hello");
return call binary.tostring(call binary.slice(b, 1, 3));
`), "el")
}

func Test_Builtin_Binary_Concat(t *testing.T) {
	wantStr(t, evalSrc(t, `
var a: binary = call binary.fromstring("foo");
var b: binary = call binary.fromstring("bar");
return call binary.tostring(call binary.concat(a, b));
`), "foobar")
}

// --- date ------------------------------------------------------------------

func Test_Builtin_Date_Arithmetic(t *testing.T) {
	wantStr(t, evalSrc(t, `
var d: date = "2024-03-15";
return call date.format(call date.adddays(d, 20), "2006-01-02");
`), "2024-04-04")
	wantLong(t, evalSrc(t, `
var a: date = "2024-03-15";
var b: date = "2024-03-18";
return call date.between(a, b);
`), 3)
	wantInt(t, evalSrc(t, `var d: date = "2024-03-15"; return call date.year(d);`), 2024)
	wantInt(t, evalSrc(t, `var d: date = "2024-03-15"; return call date.month(d);`), 3)
}

func Test_Builtin_Date_Plus_Days(t *testing.T) {
	wantStr(t, evalSrc(t, `
var d: date = "2024-02-28";
return call date.format(d + 2, "2006-01-02");
`), "2024-03-01")
}

// --- debug / system --------------------------------------------------------

func Test_Builtin_Debug_Type(t *testing.T) {
	wantStr(t, evalSrc(t, `return call debug.type(42);`), "int")
	wantStr(t, evalSrc(t, `return call debug.type("x");`), "string")
	wantStr(t, evalSrc(t, `return call debug.type(null);`), "null")
}

func Test_Builtin_Debug_Assert_Raises(t *testing.T) {
	wantStr(t, evalSrc(t, `
var msg: string = "none";
try {
    call debug.assert(1 > 2, "arithmetic is broken");
} exceptions {
    when VALIDATION_ERROR(e) { msg = e; }
}
return msg;
`), "arithmetic is broken")
}

func Test_Builtin_System_Version(t *testing.T) {
	wantStr(t, evalSrc(t, `return call system.version();`), EngineVersion)
}

func Test_Builtin_System_Properties(t *testing.T) {
	wantStr(t, evalSrc(t, `
call system.setproperty("app.name", "demo");
return call system.getproperty("app.name");
`), "demo")
}
