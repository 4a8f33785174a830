// interp_expr.go: expression evaluation and the calling convention.
//
// Arithmetic follows the numeric tower byte < int < long < float < double:
// both operands widen to the wider kind, int arithmetic promotes to long
// on overflow, and '/' on two integral operands is integral division.
// String '+' concatenates when either side is a string. Function calls
// resolve the callee in the lexical chain first; a dotted name goes
// straight to the builtin registry.
package ebscript

import (
	"fmt"
	"math"
	"strings"
)

func (ip *Interp) evalExpr(e Expr) (Value, error) {
	switch x := e.(type) {
	case *LiteralExpr:
		return x.Value, nil
	case *IdentExpr:
		if v, ok := ip.rt.env.Lookup(ip.frame, x.Name); ok {
			return v, nil
		}
		return Null, &UndefinedNameError{Name: x.Display}
	case *UnaryExpr:
		return ip.evalUnary(x)
	case *BinaryExpr:
		return ip.evalBinary(x)
	case *ChainCompareExpr:
		return ip.evalChain(x)
	case *CallExpr:
		return ip.evalCall(x)
	case *IndexExpr:
		return ip.evalIndex(x)
	case *FieldExpr:
		return ip.evalField(x)
	case *ArrayLitExpr:
		a := NewArray(nil)
		for _, el := range x.Elems {
			v, err := ip.evalExpr(el)
			if err != nil {
				return Null, err
			}
			a.Items = append(a.Items, v)
		}
		return Value{Kind: KindArray, Data: a}, nil
	case *ObjectLitExpr:
		m := make(map[string]interface{}, len(x.Keys))
		for i, k := range x.Keys {
			v, err := ip.evalExpr(x.Vals[i])
			if err != nil {
				return Null, err
			}
			m[k] = toJSONDoc(v)
		}
		return JSONVal(m), nil
	default:
		return Null, fmt.Errorf("unhandled expression %T", e)
	}
}

func (ip *Interp) evalUnary(x *UnaryExpr) (Value, error) {
	v, err := ip.evalExpr(x.X)
	if err != nil {
		return Null, err
	}
	switch x.Op {
	case "-":
		switch v.Kind {
		case KindByte:
			return IntVal(-int32(v.asByte())), nil
		case KindInt:
			return IntVal(-v.asInt()), nil
		case KindLong:
			return LongVal(-v.asLong()), nil
		case KindFloat:
			return FloatVal(-v.asFloat()), nil
		case KindDouble:
			return DoubleVal(-v.asDouble()), nil
		}
		return Null, typeErrf("cannot negate %s", v.Kind)
	case "!":
		b, err := Truthy(v)
		if err != nil {
			return Null, err
		}
		return BoolVal(!b), nil
	default:
		return Null, fmt.Errorf("unhandled unary operator %q", x.Op)
	}
}

func (ip *Interp) evalBinary(x *BinaryExpr) (Value, error) {
	// short-circuit forms first
	switch x.Op {
	case "&&":
		l, err := ip.evalExpr(x.L)
		if err != nil {
			return Null, err
		}
		lb, err := Truthy(l)
		if err != nil {
			return Null, err
		}
		if !lb {
			return BoolVal(false), nil
		}
		r, err := ip.evalExpr(x.R)
		if err != nil {
			return Null, err
		}
		rb, err := Truthy(r)
		if err != nil {
			return Null, err
		}
		return BoolVal(rb), nil
	case "||":
		l, err := ip.evalExpr(x.L)
		if err != nil {
			return Null, err
		}
		lb, err := Truthy(l)
		if err != nil {
			return Null, err
		}
		if lb {
			return BoolVal(true), nil
		}
		r, err := ip.evalExpr(x.R)
		if err != nil {
			return Null, err
		}
		rb, err := Truthy(r)
		if err != nil {
			return Null, err
		}
		return BoolVal(rb), nil
	}
	l, err := ip.evalExpr(x.L)
	if err != nil {
		return Null, err
	}
	r, err := ip.evalExpr(x.R)
	if err != nil {
		return Null, err
	}
	return binaryOp(x.Op, l, r)
}

func (ip *Interp) evalChain(x *ChainCompareExpr) (Value, error) {
	// each operand evaluated exactly once, left to right
	prev, err := ip.evalExpr(x.Operands[0])
	if err != nil {
		return Null, err
	}
	for i, op := range x.Ops {
		next, err := ip.evalExpr(x.Operands[i+1])
		if err != nil {
			return Null, err
		}
		ok, err := compare(op, prev, next)
		if err != nil {
			return Null, err
		}
		if !ok {
			return BoolVal(false), nil
		}
		prev = next
	}
	return BoolVal(true), nil
}

// binaryOp applies a non-short-circuit operator to two values.
func binaryOp(op string, l, r Value) (Value, error) {
	switch op {
	case "==":
		return BoolVal(Equal(l, r)), nil
	case "!=":
		return BoolVal(!Equal(l, r)), nil
	case "<", "<=", ">", ">=":
		ok, err := compare(op, l, r)
		if err != nil {
			return Null, err
		}
		return BoolVal(ok), nil
	}

	if op == "+" && (l.Kind == KindString || r.Kind == KindString) {
		return StringVal(Display(l) + Display(r)), nil
	}
	if op == "+" && l.Kind == KindArray {
		out := NewArray(l.asArray().Elem)
		out.Items = append(out.Items, l.asArray().Snapshot()...)
		if r.Kind == KindArray {
			out.Items = append(out.Items, r.asArray().Snapshot()...)
		} else {
			out.Items = append(out.Items, r)
		}
		return Value{Kind: KindArray, Data: out}, nil
	}
	if op == "+" && l.Kind == KindDate {
		if n, ok := toLong(r); ok {
			return DateVal(l.asDate().AddDate(0, 0, int(n))), nil
		}
	}

	if !isNumeric(l.Kind) || !isNumeric(r.Kind) {
		return Null, typeErrf("operator %q not defined for %s and %s", op, l.Kind, r.Kind)
	}

	if op == "^" {
		lf, _ := toDouble(l)
		rf, _ := toDouble(r)
		res := math.Pow(lf, rf)
		if math.IsNaN(res) || math.IsInf(res, 0) {
			return Null, rtErrf(MathError, "", "%g ^ %g is not a finite number", lf, rf)
		}
		return DoubleVal(res), nil
	}

	// integral path when both sides are integral
	if li, lok := toLong(l); lok {
		if ri, rok := toLong(r); rok {
			res, err := integralOp(op, li, ri)
			if err != nil {
				return Null, err
			}
			// stay int when both operands were int-sized and the result fits
			if l.Kind != KindLong && r.Kind != KindLong &&
				res >= math.MinInt32 && res <= math.MaxInt32 {
				return IntVal(int32(res)), nil
			}
			return LongVal(res), nil
		}
	}

	lf, _ := toDouble(l)
	rf, _ := toDouble(r)
	var res float64
	switch op {
	case "+":
		res = lf + rf
	case "-":
		res = lf - rf
	case "*":
		res = lf * rf
	case "/":
		if rf == 0 {
			return Null, rtErrf(MathError, "", "division by zero")
		}
		res = lf / rf
	default:
		return Null, fmt.Errorf("unhandled operator %q", op)
	}
	if l.Kind == KindFloat && r.Kind != KindDouble || r.Kind == KindFloat && l.Kind != KindDouble {
		return FloatVal(float32(res)), nil
	}
	return DoubleVal(res), nil
}

func integralOp(op string, a, b int64) (int64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, rtErrf(MathError, "", "division by zero")
		}
		return a / b, nil
	default:
		return 0, fmt.Errorf("unhandled operator %q", op)
	}
}

// compare orders two values: numerics by widened magnitude, strings
// lexically, dates chronologically.
func compare(op string, l, r Value) (bool, error) {
	var c int
	switch {
	case isNumeric(l.Kind) && isNumeric(r.Kind):
		lf, _ := toDouble(l)
		rf, _ := toDouble(r)
		switch {
		case lf < rf:
			c = -1
		case lf > rf:
			c = 1
		}
	case l.Kind == KindString && r.Kind == KindString:
		c = strings.Compare(l.asString(), r.asString())
	case l.Kind == KindDate && r.Kind == KindDate:
		switch {
		case l.asDate().Before(r.asDate()):
			c = -1
		case l.asDate().After(r.asDate()):
			c = 1
		}
	default:
		return false, typeErrf("cannot compare %s with %s", l.Kind, r.Kind)
	}
	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	case "==":
		return c == 0, nil
	case "!=":
		return c != 0, nil
	default:
		return false, fmt.Errorf("unhandled comparison %q", op)
	}
}

/* ===========================
   Indexing and field access
   =========================== */

func (ip *Interp) evalIndex(x *IndexExpr) (Value, error) {
	container, err := ip.evalExpr(x.X)
	if err != nil {
		return Null, err
	}
	idx, err := ip.evalExpr(x.I)
	if err != nil {
		return Null, err
	}
	switch container.Kind {
	case KindArray:
		n, ok := toLong(idx)
		if !ok {
			return Null, typeErrf("array index must be an integer, got %s", idx.Kind)
		}
		return container.asArray().At(int(n))
	case KindString:
		n, ok := toLong(idx)
		if !ok {
			return Null, typeErrf("string index must be an integer, got %s", idx.Kind)
		}
		s := container.asString()
		if n < 0 || n >= int64(len(s)) {
			return Null, rtErrf(IndexError, "", "string index %d out of bounds (length %d)", n, len(s))
		}
		return StringVal(string(s[n])), nil
	case KindBinary:
		n, ok := toLong(idx)
		if !ok {
			return Null, typeErrf("binary index must be an integer, got %s", idx.Kind)
		}
		b := container.asBinary()
		if n < 0 || n >= int64(len(b)) {
			return Null, rtErrf(IndexError, "", "binary index %d out of bounds (length %d)", n, len(b))
		}
		return ByteVal(b[n]), nil
	case KindJSON:
		switch doc := container.Data.(type) {
		case []interface{}:
			n, ok := toLong(idx)
			if !ok {
				return Null, typeErrf("json array index must be an integer")
			}
			if n < 0 || n >= int64(len(doc)) {
				return Null, rtErrf(IndexError, "", "json index %d out of bounds (length %d)", n, len(doc))
			}
			return fromJSONDoc(doc[n]), nil
		case map[string]interface{}:
			key := Display(idx)
			if v, ok := doc[key]; ok {
				return fromJSONDoc(v), nil
			}
			return Null, nil
		}
		return Null, typeErrf("cannot index json scalar")
	case KindNull:
		return Null, rtErrf(NullError, "", "cannot index a null value")
	default:
		return Null, typeErrf("cannot index %s", container.Kind)
	}
}

func (ip *Interp) evalField(x *FieldExpr) (Value, error) {
	container, err := ip.evalExpr(x.X)
	if err != nil {
		return Null, err
	}
	name := strings.ToLower(x.Name)
	switch container.Kind {
	case KindRecord:
		return container.asRecord().Get(name)
	case KindBitmap, KindIntmap:
		on, err := container.asBits().GetBit(name)
		if err != nil {
			return Null, err
		}
		return BoolVal(on), nil
	case KindArray:
		if name == "length" || name == "size" {
			return IntVal(int32(container.asArray().Len())), nil
		}
		return Null, typeErrf("array has no field %q", name)
	case KindString:
		if name == "length" || name == "size" {
			return IntVal(int32(len(container.asString()))), nil
		}
		return Null, typeErrf("string has no field %q", name)
	case KindBinary:
		if name == "length" || name == "size" {
			return IntVal(int32(len(container.asBinary()))), nil
		}
		return Null, typeErrf("binary has no field %q", name)
	case KindJSON:
		if m, ok := container.Data.(map[string]interface{}); ok {
			for k, v := range m {
				if strings.EqualFold(k, name) {
					return fromJSONDoc(v), nil
				}
			}
			return Null, nil
		}
		if items, ok := container.Data.([]interface{}); ok && (name == "length" || name == "size") {
			return IntVal(int32(len(items))), nil
		}
		return Null, typeErrf("json value has no field %q", name)
	case KindNull:
		return Null, rtErrf(NullError, "", "cannot read field %q of a null value", name)
	default:
		return Null, typeErrf("%s has no field %q", container.Kind, name)
	}
}

/* ===========================
   Calls
   =========================== */

func (ip *Interp) evalCall(x *CallExpr) (Value, error) {
	if !strings.Contains(x.Name, ".") {
		if fv, ok := ip.rt.env.Lookup(ip.frame, x.Name); ok && fv.Kind == KindFunc {
			return ip.callFunctionArgs(fv.asFunc(), x.Args)
		}
	}
	return ip.rt.reg.Dispatch(ip, x.Name, x.Args, ip.evalExpr)
}

// callFunctionArgs binds call-site arguments (positional or named, not
// mixed) against the declared parameters and runs the body.
func (ip *Interp) callFunctionArgs(fn *Function, args []Arg) (Value, error) {
	named := 0
	for _, a := range args {
		if a.Name != "" {
			named++
		}
	}
	if named > 0 && named != len(args) {
		return Null, argErrf(fn.Name, "cannot mix positional and named arguments")
	}

	bound := make([]Value, len(fn.Params))
	supplied := make([]bool, len(fn.Params))
	if named == 0 {
		if len(args) > len(fn.Params) {
			return Null, argErrf(fn.Name, "expected at most %d arguments, got %d", len(fn.Params), len(args))
		}
		for i, a := range args {
			v, err := ip.evalExpr(a.Value)
			if err != nil {
				return Null, err
			}
			bound[i] = v
			supplied[i] = true
		}
	} else {
		for _, a := range args {
			idx := -1
			for i, p := range fn.Params {
				if strings.EqualFold(p.Name, a.Name) {
					idx = i
					break
				}
			}
			if idx < 0 {
				return Null, argErrf(fn.Name, "no parameter named %q", a.Name)
			}
			if supplied[idx] {
				return Null, argErrf(fn.Name, "parameter %q given twice", a.Name)
			}
			v, err := ip.evalExpr(a.Value)
			if err != nil {
				return Null, err
			}
			bound[idx] = v
			supplied[idx] = true
		}
	}
	for i, p := range fn.Params {
		if supplied[i] {
			continue
		}
		if p.Default == nil {
			return Null, argErrf(fn.Name, "missing required parameter %q", p.Name)
		}
		v, err := ip.evalExpr(p.Default)
		if err != nil {
			return Null, err
		}
		bound[i] = v
	}
	return ip.callFunction(fn, bound)
}

// callFunction runs fn with already-bound positional arguments. The body
// executes in a fresh frame whose parent is the definition frame, giving
// closure semantics via the arena's parent indices.
func (ip *Interp) callFunction(fn *Function, args []Value) (Value, error) {
	callee := *ip
	callee.frame = ip.rt.env.Push(fn.Frame)
	defer ip.rt.env.Pop(callee.frame)

	for i, p := range fn.Params {
		var v Value
		if i < len(args) {
			v = args[i]
		} else {
			v = Null
		}
		pt, err := ip.rt.resolveType(p.Type)
		if err != nil {
			return Null, err
		}
		cv, err := coerceToType(v, pt)
		if err != nil {
			return Null, argErrf(fn.Name, "parameter %q: %s", p.Name, err.Error())
		}
		ip.rt.env.Define(callee.frame, p.Name, pt, cv)
	}

	fl, err := callee.execStmts(fn.Body)
	if err != nil {
		return Null, err
	}
	if fl.kind != flowReturn {
		return Null, nil
	}
	if fn.ReturnType != nil {
		rt, err := ip.rt.resolveType(fn.ReturnType)
		if err != nil {
			return Null, err
		}
		return coerceToType(fl.val, rt)
	}
	return fl.val, nil
}
