// introspection_test.go
package ebscript

import (
	"sort"
	"strings"
	"testing"
)

func Test_Introspection_Builtins_Sorted_And_Qualified(t *testing.T) {
	rt := testRuntime(t)
	names := rt.Builtins()
	if len(names) == 0 {
		t.Fatalf("no builtins registered")
	}
	if !sort.StringsAreSorted(names) {
		t.Fatalf("builtin listing is not sorted")
	}
	for _, n := range names {
		if !strings.Contains(n, ".") {
			t.Fatalf("unqualified builtin name %q", n)
		}
	}
}

func Test_Introspection_Categories(t *testing.T) {
	rt := testRuntime(t)
	cats := rt.BuiltinCategories()
	has := func(want string) bool {
		for _, c := range cats {
			if c == want {
				return true
			}
		}
		return false
	}
	for _, want := range []string{"str", "array", "json", "file", "crypto", "date", "random", "binary", "system", "debug", "timer", "thread", "scr"} {
		if !has(want) {
			t.Fatalf("category %q missing from %v", want, cats)
		}
	}
}

func Test_Introspection_Signature(t *testing.T) {
	rt := testRuntime(t)
	sig, ok := rt.Signature("str.padleft")
	if !ok {
		t.Fatalf("str.padleft not registered")
	}
	if sig.Return != KindString || len(sig.Params) != 3 {
		t.Fatalf("unexpected signature: %+v", sig)
	}
	if sig.Params[2].Required {
		t.Fatalf("pad should be optional")
	}
	if sig.Category() != "str" {
		t.Fatalf("category: %q", sig.Category())
	}
}

func Test_Introspection_Help_Renders_Shape(t *testing.T) {
	rt := testRuntime(t)
	text, ok := rt.Help("str.padleft")
	if !ok {
		t.Fatalf("no help for str.padleft")
	}
	for _, frag := range []string{"call str.padleft(", "text: string", "width: int", "-> string"} {
		if !strings.Contains(text, frag) {
			t.Fatalf("help %q missing %q", text, frag)
		}
	}
}

func Test_Introspection_Help_Unknown(t *testing.T) {
	rt := testRuntime(t)
	if _, ok := rt.Help("no.such"); ok {
		t.Fatalf("help for an unknown builtin should report false")
	}
}

func Test_Introspection_Complete(t *testing.T) {
	rt := testRuntime(t)
	got := rt.Complete("crypto.sha")
	if len(got) != 2 {
		t.Fatalf("want crypto.sha256 and crypto.sha512, got %v", got)
	}
	for _, n := range got {
		if !strings.HasPrefix(n, "crypto.sha") {
			t.Fatalf("completion %q does not extend the prefix", n)
		}
	}
	if got := rt.Complete("zzz"); len(got) != 0 {
		t.Fatalf("expected no completions, got %v", got)
	}
}

func Test_Introspection_Script_Surface(t *testing.T) {
	v := evalSrc(t, `
var names: string[*] = call system.builtins("crypto");
return call array.contains(names, "crypto.sha256");
`)
	wantBool(t, v, true)
}

func Test_Introspection_Help_Builtin(t *testing.T) {
	v := evalSrc(t, `return call system.help("crypto.sha256");`)
	if v.Kind != KindString || !strings.Contains(v.Data.(string), "crypto.sha256") {
		t.Fatalf("system.help output: %#v", v)
	}
}
