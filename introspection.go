// introspection.go: the registry's read side for external tooling. The
// REPL's autocomplete and inline help consume exactly these methods; they
// see the same signatures the dispatcher executes against.
package ebscript

import (
	"fmt"
	"strings"
)

// Builtins returns every registered qualified builtin name, sorted.
func (r *Runtime) Builtins() []string { return r.reg.Names() }

// BuiltinCategories returns the registered category prefixes, sorted.
func (r *Runtime) BuiltinCategories() []string { return r.reg.Categories() }

// Signature returns the registered signature for a qualified name.
func (r *Runtime) Signature(name string) (*BuiltinSignature, bool) {
	return r.reg.Lookup(name)
}

// Help renders a one-screen help text for a builtin: the call shape with
// parameter types and defaults, the return kind, and the doc line.
func (r *Runtime) Help(name string) (string, bool) {
	sig, ok := r.reg.Lookup(name)
	if !ok {
		return "", false
	}
	var b strings.Builder
	b.WriteString("call ")
	b.WriteString(sig.Name)
	b.WriteString("(")
	for i, p := range sig.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", p.Name, p.Kind)
		if !p.Required {
			fmt.Fprintf(&b, " = %s", Display(p.Default))
		}
	}
	b.WriteString(")")
	if sig.Return != KindNull {
		fmt.Fprintf(&b, " -> %s", sig.Return)
	}
	if sig.Doc != "" {
		b.WriteString("\n  ")
		b.WriteString(sig.Doc)
	}
	return b.String(), true
}

// Complete returns the builtin names extending a prefix, for autocomplete.
func (r *Runtime) Complete(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var out []string
	for _, n := range r.reg.Names() {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	return out
}
