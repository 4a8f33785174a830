// builtins.go: the builtin registry and dispatcher.
//
// Signatures are registered once at Runtime construction, per category
// (see the builtin_*.go files), and the registry is the single source of
// truth for three consumers: the evaluator (dispatch), the REPL
// (autocomplete listings), and help text. The dispatcher binds positional
// or named arguments against the registered parameter specs, coerces them,
// and invokes the implementation; it never special-cases a category.
package ebscript

import (
	"sort"
	"strings"
)

// ParamSpec is one declared builtin parameter. Kind KindNull means "any".
type ParamSpec struct {
	Name     string
	Kind     Kind
	Required bool
	Default  Value
}

// BuiltinSignature describes one builtin for dispatch and introspection.
type BuiltinSignature struct {
	Name   string // qualified, e.g. "crypto.sha256"
	Params []ParamSpec
	Return Kind
	Doc    string
}

// Category returns the part before the first dot.
func (s *BuiltinSignature) Category() string {
	if i := strings.IndexByte(s.Name, '.'); i >= 0 {
		return s.Name[:i]
	}
	return ""
}

type builtinFn func(ip *Interp, args []Value) (Value, error)

// Registry maps qualified builtin names to signatures and implementations.
// It is write-once: populated during NewRuntime, read-only afterward.
type Registry struct {
	order []string
	sigs  map[string]*BuiltinSignature
	impls map[string]builtinFn
}

func newRegistry() *Registry {
	return &Registry{
		sigs:  make(map[string]*BuiltinSignature),
		impls: make(map[string]builtinFn),
	}
}

func (r *Registry) register(sig *BuiltinSignature, fn builtinFn) {
	name := strings.ToLower(sig.Name)
	if _, dup := r.sigs[name]; dup {
		panic("builtin registered twice: " + name)
	}
	r.sigs[name] = sig
	r.impls[name] = fn
	r.order = append(r.order, name)
}

// Lookup returns the signature for a qualified name.
func (r *Registry) Lookup(name string) (*BuiltinSignature, bool) {
	s, ok := r.sigs[strings.ToLower(name)]
	return s, ok
}

// Names returns all registered qualified names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	sort.Strings(out)
	return out
}

// Categories returns the distinct category prefixes, sorted.
func (r *Registry) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range r.order {
		c := r.sigs[n].Category()
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// bind matches call-site arguments against the signature: all positional
// or all named, never mixed; named arguments in any order; optional
// parameters fall back to their registered defaults.
func (r *Registry) bind(sig *BuiltinSignature, args []Arg, eval func(Expr) (Value, error)) ([]Value, error) {
	named := 0
	for _, a := range args {
		if a.Name != "" {
			named++
		}
	}
	if named > 0 && named != len(args) {
		return nil, argErrf(sig.Name, "cannot mix positional and named arguments")
	}

	out := make([]Value, len(sig.Params))
	supplied := make([]bool, len(sig.Params))

	if named == 0 {
		if len(args) > len(sig.Params) {
			return nil, argErrf(sig.Name, "expected at most %d arguments, got %d", len(sig.Params), len(args))
		}
		for i, a := range args {
			v, err := eval(a.Value)
			if err != nil {
				return nil, err
			}
			out[i] = v
			supplied[i] = true
		}
	} else {
		for _, a := range args {
			idx := -1
			for i, ps := range sig.Params {
				if strings.EqualFold(ps.Name, a.Name) {
					idx = i
					break
				}
			}
			if idx < 0 {
				return nil, argErrf(sig.Name, "no parameter named %q", a.Name)
			}
			if supplied[idx] {
				return nil, argErrf(sig.Name, "parameter %q given twice", a.Name)
			}
			v, err := eval(a.Value)
			if err != nil {
				return nil, err
			}
			out[idx] = v
			supplied[idx] = true
		}
	}

	for i, ps := range sig.Params {
		if supplied[i] {
			if ps.Kind != KindNull && !out[i].IsNull() {
				cv, err := coerceToType(out[i], &TypeSpec{Kind: ps.Kind, Length: -1})
				if err != nil {
					return nil, argErrf(sig.Name, "parameter %q: %s", ps.Name, err.Error())
				}
				out[i] = cv
			}
			continue
		}
		if ps.Required {
			return nil, argErrf(sig.Name, "missing required parameter %q", ps.Name)
		}
		out[i] = ps.Default
	}
	return out, nil
}

// Dispatch binds args and invokes the named builtin.
func (r *Registry) Dispatch(ip *Interp, name string, args []Arg, eval func(Expr) (Value, error)) (Value, error) {
	key := strings.ToLower(name)
	sig, ok := r.sigs[key]
	if !ok {
		return Null, &UndefinedNameError{Name: name}
	}
	bound, err := r.bind(sig, args, eval)
	if err != nil {
		return Null, err
	}
	return r.impls[key](ip, bound)
}

// DispatchValues invokes the named builtin with already-evaluated
// positional arguments (used by host callbacks and tests).
func (r *Registry) DispatchValues(ip *Interp, name string, vals []Value) (Value, error) {
	args := make([]Arg, len(vals))
	for i := range args {
		args[i] = Arg{Value: &LiteralExpr{Value: vals[i]}}
	}
	return r.Dispatch(ip, name, args, func(e Expr) (Value, error) {
		return e.(*LiteralExpr).Value, nil
	})
}

/* ===========================
   registration helpers
   =========================== */

func reqParam(name string, k Kind) ParamSpec {
	return ParamSpec{Name: name, Kind: k, Required: true}
}

func optParam(name string, k Kind, def Value) ParamSpec {
	return ParamSpec{Name: name, Kind: k, Default: def}
}

// def is the registration shorthand used by every builtin_*.go file.
func def(reg *Registry, name, doc string, ret Kind, params []ParamSpec, fn builtinFn) {
	reg.register(&BuiltinSignature{Name: name, Params: params, Return: ret, Doc: doc}, fn)
}
