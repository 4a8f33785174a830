// interp_exec.go: statement execution.
//
// The evaluator walks the AST with one exhaustive type switch per node
// category. Control flow (break/continue/return) is carried in the flow
// result, not in panics: each construct inspects the flow of its children
// and either absorbs it (loops absorb break/continue, function calls
// absorb return) or passes it outward. Script exceptions travel as the
// error return and are intercepted only by TryStmt.
package ebscript

import (
	"fmt"
	"strings"
)

// Interp is one evaluation context: a frame index into the runtime's
// environment arena, the current screen context (empty for plain script
// execution), and the program name used in error reports. Interps are
// cheap and short-lived; concurrency safety lives in the structures they
// share through the Runtime.
type Interp struct {
	rt     *Runtime
	frame  int
	screen string
	prog   string
	dir    string // directory for relative imports
}

type flowKind int

const (
	flowNone flowKind = iota
	flowBreak
	flowContinue
	flowReturn
)

type flow struct {
	kind flowKind
	val  Value
}

var flowNormal = flow{}

func (ip *Interp) execStmts(stmts []Stmt) (flow, error) {
	for _, s := range stmts {
		fl, err := ip.execStmt(s)
		if err != nil {
			return flowNormal, err
		}
		if fl.kind != flowNone {
			return fl, nil
		}
	}
	return flowNormal, nil
}

func (ip *Interp) execStmt(s Stmt) (flow, error) {
	switch st := s.(type) {
	case *VarDeclStmt:
		return flowNormal, ip.execVarDecl(st)
	case *AssignStmt:
		return flowNormal, ip.execAssign(st)
	case *IncDecStmt:
		return flowNormal, ip.execIncDec(st)
	case *PrintStmt:
		v, err := ip.evalExpr(st.Value)
		if err != nil {
			return flowNormal, err
		}
		fmt.Fprintln(ip.rt.stdout, Display(v))
		return flowNormal, nil
	case *ExprStmt:
		_, err := ip.evalExpr(st.X)
		return flowNormal, err
	case *BlockStmt:
		inner := ip.child()
		fl, err := inner.execStmts(st.Stmts)
		inner.release()
		return fl, err
	case *IfStmt:
		cond, err := ip.evalExpr(st.Cond)
		if err != nil {
			return flowNormal, err
		}
		ok, err := Truthy(cond)
		if err != nil {
			return flowNormal, err
		}
		if ok {
			return ip.execStmt(st.Then)
		}
		if st.Else != nil {
			return ip.execStmt(st.Else)
		}
		return flowNormal, nil
	case *WhileStmt:
		return ip.execWhile(st)
	case *DoWhileStmt:
		return ip.execDoWhile(st)
	case *ForStmt:
		return ip.execFor(st)
	case *ForeachStmt:
		return ip.execForeach(st)
	case *BreakStmt:
		return flow{kind: flowBreak}, nil
	case *ContinueStmt:
		return flow{kind: flowContinue}, nil
	case *ReturnStmt:
		val := Null
		if st.Value != nil {
			var err error
			val, err = ip.evalExpr(st.Value)
			if err != nil {
				return flowNormal, err
			}
		}
		return flow{kind: flowReturn, val: val}, nil
	case *FuncDeclStmt:
		return flowNormal, ip.execFuncDecl(st)
	case *TryStmt:
		return ip.execTry(st)
	case *RaiseStmt:
		msg := ""
		if st.Msg != nil {
			v, err := ip.evalExpr(st.Msg)
			if err != nil {
				return flowNormal, err
			}
			msg = Display(v)
		}
		return flowNormal, &scriptRaise{Kind: st.Kind, Msg: msg, Line: st.Position().Line}
	case *ImportStmt:
		return flowNormal, ip.rt.importFile(ip, st.Spec)
	case *TypedefStmt:
		resolved, err := ip.rt.resolveType(st.Type)
		if err != nil {
			return flowNormal, err
		}
		return flowNormal, ip.rt.defineTypedef(st.Name, resolved)
	case *ScreenStmt:
		return flowNormal, ip.execScreen(st)
	default:
		return flowNormal, fmt.Errorf("unhandled statement %T", s)
	}
}

// child pushes a new scope frame linked to the current one.
func (ip *Interp) child() *Interp {
	cp := *ip
	cp.frame = ip.rt.env.Push(ip.frame)
	return &cp
}

// release pops the child frame when nothing captured it.
func (ip *Interp) release() {
	ip.rt.env.Pop(ip.frame)
}

func (ip *Interp) execVarDecl(st *VarDeclStmt) error {
	ts, err := ip.rt.resolveType(st.Type)
	if err != nil {
		return err
	}
	val := zeroValue(ts)
	if st.Init != nil {
		raw, err := ip.evalExpr(st.Init)
		if err != nil {
			return err
		}
		val, err = coerceToType(raw, ts)
		if err != nil {
			return err
		}
	}
	ip.rt.env.Define(ip.frame, st.Name, ts, val)
	return nil
}

func (ip *Interp) execAssign(st *AssignStmt) error {
	val, err := ip.evalExpr(st.Value)
	if err != nil {
		return err
	}
	if st.Op != "" {
		cur, err := ip.evalExpr(st.Target)
		if err != nil {
			return err
		}
		val, err = binaryOp(st.Op, cur, val)
		if err != nil {
			return err
		}
	}
	return ip.assignTo(st.Target, val)
}

func (ip *Interp) execIncDec(st *IncDecStmt) error {
	cur, err := ip.evalExpr(st.Target)
	if err != nil {
		return err
	}
	nv, err := binaryOp("+", cur, IntVal(int32(st.Delta)))
	if err != nil {
		return err
	}
	return ip.assignTo(st.Target, nv)
}

// assignTo stores val into an assignable expression: a variable, an array
// index, a record field, a bitmap bit, or a json object key.
func (ip *Interp) assignTo(target Expr, val Value) error {
	switch t := target.(type) {
	case *IdentExpr:
		return ip.rt.env.Assign(ip.frame, t.Name, val)
	case *IndexExpr:
		container, err := ip.evalExpr(t.X)
		if err != nil {
			return err
		}
		idxVal, err := ip.evalExpr(t.I)
		if err != nil {
			return err
		}
		switch container.Kind {
		case KindArray:
			n, ok := toLong(idxVal)
			if !ok {
				return typeErrf("array index must be an integer, got %s", idxVal.Kind)
			}
			return container.asArray().SetAt(int(n), val)
		case KindJSON:
			if m, ok := container.Data.(map[string]interface{}); ok {
				m[Display(idxVal)] = toJSONDoc(val)
				return nil
			}
			return typeErrf("cannot index-assign into non-object json")
		default:
			return typeErrf("cannot index-assign into %s", container.Kind)
		}
	case *FieldExpr:
		container, err := ip.evalExpr(t.X)
		if err != nil {
			return err
		}
		switch container.Kind {
		case KindRecord:
			return container.asRecord().Set(t.Name, val)
		case KindBitmap, KindIntmap:
			on, err := Truthy(val)
			if err != nil {
				return err
			}
			return container.asBits().SetBit(t.Name, on)
		case KindJSON:
			if m, ok := container.Data.(map[string]interface{}); ok {
				m[t.Name] = toJSONDoc(val)
				return nil
			}
			return typeErrf("cannot assign field on non-object json")
		default:
			return typeErrf("cannot assign field %q on %s", t.Name, container.Kind)
		}
	default:
		return typeErrf("invalid assignment target")
	}
}

func (ip *Interp) execWhile(st *WhileStmt) (flow, error) {
	for {
		cond, err := ip.evalExpr(st.Cond)
		if err != nil {
			return flowNormal, err
		}
		ok, err := Truthy(cond)
		if err != nil {
			return flowNormal, err
		}
		if !ok {
			return flowNormal, nil
		}
		fl, err := ip.execStmt(st.Body)
		if err != nil {
			return flowNormal, err
		}
		switch fl.kind {
		case flowBreak:
			return flowNormal, nil
		case flowReturn:
			return fl, nil
		}
	}
}

func (ip *Interp) execDoWhile(st *DoWhileStmt) (flow, error) {
	for {
		fl, err := ip.execStmt(st.Body)
		if err != nil {
			return flowNormal, err
		}
		switch fl.kind {
		case flowBreak:
			return flowNormal, nil
		case flowReturn:
			return fl, nil
		}
		cond, err := ip.evalExpr(st.Cond)
		if err != nil {
			return flowNormal, err
		}
		ok, err := Truthy(cond)
		if err != nil {
			return flowNormal, err
		}
		if !ok {
			return flowNormal, nil
		}
	}
}

func (ip *Interp) execFor(st *ForStmt) (flow, error) {
	inner := ip.child()
	defer inner.release()
	if st.Init != nil {
		if _, err := inner.execStmt(st.Init); err != nil {
			return flowNormal, err
		}
	}
	for {
		if st.Cond != nil {
			cond, err := inner.evalExpr(st.Cond)
			if err != nil {
				return flowNormal, err
			}
			ok, err := Truthy(cond)
			if err != nil {
				return flowNormal, err
			}
			if !ok {
				return flowNormal, nil
			}
		}
		fl, err := inner.execStmt(st.Body)
		if err != nil {
			return flowNormal, err
		}
		switch fl.kind {
		case flowBreak:
			return flowNormal, nil
		case flowReturn:
			return fl, nil
		}
		if st.Incr != nil {
			if _, err := inner.execStmt(st.Incr); err != nil {
				return flowNormal, err
			}
		}
	}
}

func (ip *Interp) execForeach(st *ForeachStmt) (flow, error) {
	seq, err := ip.evalExpr(st.Seq)
	if err != nil {
		return flowNormal, err
	}
	inner := ip.child()
	defer inner.release()
	inner.rt.env.Define(inner.frame, st.Var, nil, Null)

	step := func(v Value) (flow, error) {
		if err := inner.rt.env.Assign(inner.frame, st.Var, v); err != nil {
			return flowNormal, err
		}
		return inner.execStmt(st.Body)
	}

	switch seq.Kind {
	case KindArray:
		a := seq.asArray()
		// index-based traversal through the reverse-aware accessor: the
		// reverse view iterates without copying the backing slice
		for i := 0; i < a.Len(); i++ {
			v, err := a.At(i)
			if err != nil {
				return flowNormal, err
			}
			fl, err := step(v)
			if err != nil {
				return flowNormal, err
			}
			switch fl.kind {
			case flowBreak:
				return flowNormal, nil
			case flowReturn:
				return fl, nil
			}
		}
		return flowNormal, nil
	case KindString:
		for _, r := range seq.asString() {
			fl, err := step(StringVal(string(r)))
			if err != nil {
				return flowNormal, err
			}
			switch fl.kind {
			case flowBreak:
				return flowNormal, nil
			case flowReturn:
				return fl, nil
			}
		}
		return flowNormal, nil
	case KindJSON:
		if items, ok := seq.Data.([]interface{}); ok {
			for _, e := range items {
				fl, err := step(fromJSONDoc(e))
				if err != nil {
					return flowNormal, err
				}
				switch fl.kind {
				case flowBreak:
					return flowNormal, nil
				case flowReturn:
					return fl, nil
				}
			}
			return flowNormal, nil
		}
		return flowNormal, typeErrf("cannot iterate non-array json")
	case KindBinary:
		for _, b := range seq.asBinary() {
			fl, err := step(ByteVal(b))
			if err != nil {
				return flowNormal, err
			}
			switch fl.kind {
			case flowBreak:
				return flowNormal, nil
			case flowReturn:
				return fl, nil
			}
		}
		return flowNormal, nil
	default:
		return flowNormal, typeErrf("cannot iterate %s", seq.Kind)
	}
}

func (ip *Interp) execFuncDecl(st *FuncDeclStmt) error {
	fn := &Function{
		Name:       st.Name,
		Params:     st.Params,
		ReturnType: st.ReturnType,
		Body:       st.Body,
		Frame:      ip.frame,
	}
	ip.rt.env.Define(ip.frame, st.Name, nil, Value{Kind: KindFunc, Data: fn})
	return nil
}

func (ip *Interp) execTry(st *TryStmt) (flow, error) {
	inner := ip.child()
	fl, err := inner.execStmts(st.Body)
	inner.release()
	if err == nil {
		return fl, nil
	}

	kind := kindOf(err)
	for _, h := range st.Handlers {
		if h.Kind != AnyError && h.Kind != kind {
			continue
		}
		hip := ip.child()
		if h.VarName != "" {
			hip.rt.env.Define(hip.frame, h.VarName, nil, StringVal(errMessage(err)))
		}
		hfl, herr := hip.execStmts(h.Body)
		hip.release()
		return hfl, herr
	}
	// no matching handler: re-raise
	return flowNormal, err
}

// errMessage strips the kind prefix for the value bound by `when KIND(e)`.
func errMessage(err error) string {
	if sr, ok := err.(*scriptRaise); ok {
		return sr.Msg
	}
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

func (ip *Interp) execScreen(st *ScreenStmt) error {
	switch st.Action {
	case ScreenDefine:
		def, err := ip.evalExpr(st.Def)
		if err != nil {
			return err
		}
		jdef, err := coerceJSON(def)
		if err != nil {
			return err
		}
		return ip.rt.screens.Define(st.Name, jdef)
	case ScreenShow:
		return ip.rt.screens.Show(st.Name)
	case ScreenHide:
		return ip.rt.screens.Hide(st.Name)
	case ScreenClose:
		return ip.rt.screens.Close(st.Name)
	default:
		return fmt.Errorf("unhandled screen action %d", st.Action)
	}
}
