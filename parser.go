// parser.go: recursive-descent parser from tokens to AST.
//
// One pass, no error recovery: the first grammar violation surfaces as a
// ParseError with 1-based line/col and parsing stops. Grammar decisions
// that need care:
//
//   - the three function-definition forms are disambiguated by a single
//     token of lookahead after the identifier: '(' starts a parameter
//     list, 'return' a declared return type, '{' a bare body;
//   - `{ ... }` in expression position is an object literal when the first
//     entry is `key:`-shaped, otherwise an array literal;
//   - chained comparisons (a < b <= c) collect into one ChainCompareExpr
//     so middle operands are evaluated exactly once;
//   - '^' binds tighter than unary minus and is right-associative, with
//     unary operators permitted on the exponent.
package ebscript

import (
	"fmt"
	"strings"
	"time"
)

// Parser consumes a token stream produced by the Lexer.
type Parser struct {
	toks []Token
	pos  int
}

// Parse tokenizes and parses src into a Program named name.
func Parse(src, name string) (*Program, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	prog := &Program{Name: name}
	for !p.atEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, s)
	}
	return prog, nil
}

func (p *Parser) atEnd() bool { return p.toks[p.pos].Type == EOF }

func (p *Parser) peek() Token  { return p.toks[p.pos] }
func (p *Parser) peekN(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if t.Type != EOF {
		p.pos++
	}
	return t
}

func (p *Parser) check(tt TokenType) bool { return p.peek().Type == tt }

func (p *Parser) match(tts ...TokenType) bool {
	for _, tt := range tts {
		if p.check(tt) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(tt TokenType, what string) (Token, error) {
	if p.check(tt) {
		return p.advance(), nil
	}
	return Token{}, p.errHere("expected %s, found %q", what, p.peek().Lexeme)
}

func (p *Parser) errHere(format string, args ...interface{}) error {
	t := p.peek()
	return &ParseError{Line: t.Line, Col: t.Col, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) errAt(t Token, format string, args ...interface{}) error {
	return &ParseError{Line: t.Line, Col: t.Col, Msg: fmt.Sprintf(format, args...)}
}

func posOf(t Token) Pos { return Pos{Line: t.Line, Col: t.Col} }

func identName(t Token) string {
	if s, ok := t.Literal.(string); ok {
		return s
	}
	return strings.ToLower(t.Lexeme)
}

/* ===========================
   Statements
   =========================== */

func (p *Parser) statement() (Stmt, error) {
	switch p.peek().Type {
	case IMPORT:
		return p.importStmt()
	case VAR:
		return p.varDecl()
	case TYPEDEF:
		return p.typedefStmt()
	case SCREEN:
		return p.screenStmt()
	case PRINT:
		return p.printStmt()
	case CALL:
		return p.callStmt()
	case RETURN:
		return p.returnStmt()
	case IF:
		return p.ifStmt()
	case WHILE:
		return p.whileStmt()
	case DO:
		return p.doWhileStmt()
	case FOR:
		return p.forStmt()
	case FOREACH:
		return p.foreachStmt()
	case BREAK:
		t := p.advance()
		if _, err := p.expect(SEMI, "';' after break"); err != nil {
			return nil, err
		}
		return &BreakStmt{baseNode{posOf(t)}}, nil
	case CONTINUE:
		t := p.advance()
		if _, err := p.expect(SEMI, "';' after continue"); err != nil {
			return nil, err
		}
		return &ContinueStmt{baseNode{posOf(t)}}, nil
	case TRY:
		return p.tryStmt()
	case RAISE:
		return p.raiseStmt()
	case FUNCTION:
		p.advance()
		return p.funcDecl()
	case LCURLY:
		return p.block()
	case ID:
		return p.identStmt()
	default:
		return nil, p.errHere("unexpected token %q at statement start", p.peek().Lexeme)
	}
}

// identStmt disambiguates the statements that begin with a bare
// identifier: function definitions versus assignments and ++/--.
func (p *Parser) identStmt() (Stmt, error) {
	switch p.peekN(1).Type {
	case LROUND, RETURN, LCURLY:
		return p.funcDecl()
	}
	return p.assignStmt()
}

func (p *Parser) importStmt() (Stmt, error) {
	t := p.advance()
	spec, err := p.expect(STRING, "a quoted path after import")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMI, "';' after import"); err != nil {
		return nil, err
	}
	return &ImportStmt{baseNode{posOf(t)}, spec.Literal.(string)}, nil
}

func (p *Parser) varDecl() (Stmt, error) {
	t := p.advance()
	name, err := p.expect(ID, "a variable name after var")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON, "':' after variable name"); err != nil {
		return nil, err
	}
	ts, err := p.typeSpec()
	if err != nil {
		return nil, err
	}
	var init Expr
	if p.match(ASSIGN) {
		init, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(SEMI, "';' after variable declaration"); err != nil {
		return nil, err
	}
	return &VarDeclStmt{baseNode{posOf(t)}, identName(name), ts, init}, nil
}

func (p *Parser) typedefStmt() (Stmt, error) {
	t := p.advance()
	name, err := p.expect(ID, "a type name after typedef")
	if err != nil {
		return nil, err
	}
	ts, err := p.typeSpec()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMI, "';' after typedef"); err != nil {
		return nil, err
	}
	if ts.Record != nil && ts.Record.Name == "" {
		ts.Record.Name = identName(name)
	}
	if ts.Bitmap != nil && ts.Bitmap.Name == "" {
		ts.Bitmap.Name = identName(name)
	}
	return &TypedefStmt{baseNode{posOf(t)}, identName(name), ts}, nil
}

func (p *Parser) screenStmt() (Stmt, error) {
	t := p.advance()
	name, err := p.expect(ID, "a screen name")
	if err != nil {
		return nil, err
	}
	node := &ScreenStmt{baseNode: baseNode{posOf(t)}, Name: identName(name)}
	switch {
	case p.match(ASSIGN):
		node.Action = ScreenDefine
		def, err := p.expression()
		if err != nil {
			return nil, err
		}
		node.Def = def
	case p.match(SHOW):
		node.Action = ScreenShow
	case p.match(HIDE):
		node.Action = ScreenHide
	case p.match(CLOSE):
		node.Action = ScreenClose
	default:
		return nil, p.errHere("expected '=', show, hide, or close after screen name")
	}
	if _, err := p.expect(SEMI, "';' after screen statement"); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) printStmt() (Stmt, error) {
	t := p.advance()
	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMI, "';' after print"); err != nil {
		return nil, err
	}
	return &PrintStmt{baseNode{posOf(t)}, x}, nil
}

func (p *Parser) callStmt() (Stmt, error) {
	t := p.peek()
	x, err := p.callExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMI, "';' after call"); err != nil {
		return nil, err
	}
	return &ExprStmt{baseNode{posOf(t)}, x}, nil
}

func (p *Parser) returnStmt() (Stmt, error) {
	t := p.advance()
	var val Expr
	if !p.check(SEMI) {
		var err error
		val, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(SEMI, "';' after return"); err != nil {
		return nil, err
	}
	return &ReturnStmt{baseNode{posOf(t)}, val}, nil
}

func (p *Parser) ifStmt() (Stmt, error) {
	t := p.advance()
	var cond Expr
	var err error
	parenthesized := p.match(LROUND)
	cond, err = p.expression()
	if err != nil {
		return nil, err
	}
	if parenthesized {
		if _, err := p.expect(RROUND, "')' after if condition"); err != nil {
			return nil, err
		}
		p.match(THEN) // optional
	} else {
		if _, err := p.expect(THEN, "'then' after unparenthesized if condition"); err != nil {
			return nil, err
		}
	}
	then, err := p.statement()
	if err != nil {
		return nil, err
	}
	var els Stmt
	if p.match(ELSE) {
		els, err = p.statement()
		if err != nil {
			return nil, err
		}
	}
	return &IfStmt{baseNode{posOf(t)}, cond, then, els}, nil
}

func (p *Parser) whileStmt() (Stmt, error) {
	t := p.advance()
	if _, err := p.expect(LROUND, "'(' after while"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RROUND, "')' after while condition"); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{baseNode{posOf(t)}, cond, body}, nil
}

func (p *Parser) doWhileStmt() (Stmt, error) {
	t := p.advance()
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(WHILE, "'while' after do body"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LROUND, "'(' after while"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RROUND, "')' after do-while condition"); err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMI, "';' after do-while"); err != nil {
		return nil, err
	}
	return &DoWhileStmt{baseNode{posOf(t)}, body, cond}, nil
}

func (p *Parser) forStmt() (Stmt, error) {
	t := p.advance()
	if _, err := p.expect(LROUND, "'(' after for"); err != nil {
		return nil, err
	}
	var init Stmt
	var err error
	if !p.check(SEMI) {
		if p.check(VAR) {
			init, err = p.varDecl() // consumes its own ';'
		} else {
			init, err = p.simpleAssign()
			if err == nil {
				_, err = p.expect(SEMI, "';' after for initializer")
			}
		}
		if err != nil {
			return nil, err
		}
	} else {
		p.advance()
	}
	var cond Expr
	if !p.check(SEMI) {
		cond, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(SEMI, "';' after for condition"); err != nil {
		return nil, err
	}
	var incr Stmt
	if !p.check(RROUND) {
		incr, err = p.simpleAssign()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(RROUND, "')' after for clauses"); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &ForStmt{baseNode{posOf(t)}, init, cond, incr, body}, nil
}

func (p *Parser) foreachStmt() (Stmt, error) {
	t := p.advance()
	if _, err := p.expect(LROUND, "'(' after foreach"); err != nil {
		return nil, err
	}
	name, err := p.expect(ID, "a loop variable after foreach")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(IN, "'in' after foreach variable"); err != nil {
		return nil, err
	}
	seq, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RROUND, "')' after foreach sequence"); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &ForeachStmt{baseNode{posOf(t)}, identName(name), seq, body}, nil
}

func (p *Parser) tryStmt() (Stmt, error) {
	t := p.advance()
	body, err := p.stmtList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(EXCEPTIONS, "'exceptions' after try body"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LCURLY, "'{' after exceptions"); err != nil {
		return nil, err
	}
	var handlers []Handler
	for p.check(WHEN) {
		p.advance()
		kindTok, err := p.expect(ID, "an error kind after when")
		if err != nil {
			return nil, err
		}
		h := Handler{Kind: ErrorKind(strings.ToUpper(identName(kindTok)))}
		if p.match(LROUND) {
			varTok, err := p.expect(ID, "a binding name in when clause")
			if err != nil {
				return nil, err
			}
			h.VarName = identName(varTok)
			if _, err := p.expect(RROUND, "')' after when binding"); err != nil {
				return nil, err
			}
		}
		h.Body, err = p.stmtList()
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, h)
	}
	if _, err := p.expect(RCURLY, "'}' closing exceptions block"); err != nil {
		return nil, err
	}
	if len(handlers) == 0 {
		return nil, p.errAt(t, "exceptions block has no when clauses")
	}
	return &TryStmt{baseNode{posOf(t)}, body, handlers}, nil
}

func (p *Parser) raiseStmt() (Stmt, error) {
	t := p.advance()
	if _, err := p.expect(EXCEPTION, "'exception' after raise"); err != nil {
		return nil, err
	}
	kindTok, err := p.expect(ID, "an error kind after raise exception")
	if err != nil {
		return nil, err
	}
	node := &RaiseStmt{baseNode: baseNode{posOf(t)}, Kind: ErrorKind(strings.ToUpper(identName(kindTok)))}
	if p.match(LROUND) {
		if !p.check(RROUND) {
			node.Msg, err = p.expression()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(RROUND, "')' after raise message"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(SEMI, "';' after raise"); err != nil {
		return nil, err
	}
	return node, nil
}

// funcDecl parses the three definition forms; the optional `function`
// keyword was consumed by the caller when present.
func (p *Parser) funcDecl() (Stmt, error) {
	name, err := p.expect(ID, "a function name")
	if err != nil {
		return nil, err
	}
	node := &FuncDeclStmt{baseNode: baseNode{posOf(name)}, Name: identName(name)}
	if p.match(LROUND) {
		for !p.check(RROUND) {
			pn, err := p.expect(ID, "a parameter name")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(COLON, "':' after parameter name"); err != nil {
				return nil, err
			}
			pt, err := p.typeSpec()
			if err != nil {
				return nil, err
			}
			param := Param{Name: identName(pn), Type: pt}
			if p.match(ASSIGN) {
				param.Default, err = p.expression()
				if err != nil {
					return nil, err
				}
			}
			node.Params = append(node.Params, param)
			if !p.match(COMMA) {
				break
			}
		}
		if _, err := p.expect(RROUND, "')' after parameter list"); err != nil {
			return nil, err
		}
	}
	if p.match(RETURN) {
		node.ReturnType, err = p.typeSpec()
		if err != nil {
			return nil, err
		}
	}
	node.Body, err = p.stmtList()
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) block() (Stmt, error) {
	t := p.peek()
	stmts, err := p.stmtList()
	if err != nil {
		return nil, err
	}
	return &BlockStmt{baseNode{posOf(t)}, stmts}, nil
}

func (p *Parser) stmtList() ([]Stmt, error) {
	if _, err := p.expect(LCURLY, "'{'"); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for !p.check(RCURLY) {
		if p.atEnd() {
			return nil, p.errHere("unexpected end of source inside block")
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.advance() // '}'
	return stmts, nil
}

// assignStmt parses `target = expr;`, compound assignment, and ++/--.
func (p *Parser) assignStmt() (Stmt, error) {
	s, err := p.simpleAssign()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMI, "';' after assignment"); err != nil {
		return nil, err
	}
	return s, nil
}

// simpleAssign is an assignment without the trailing ';' (shared with for
// clauses).
func (p *Parser) simpleAssign() (Stmt, error) {
	start := p.peek()
	target, err := p.postfixTarget()
	if err != nil {
		return nil, err
	}
	switch p.peek().Type {
	case ASSIGN:
		p.advance()
		val, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &AssignStmt{baseNode{posOf(start)}, target, "", val}, nil
	case PLUS_ASSIGN, MINUS_ASSIGN, MULT_ASSIGN, DIV_ASSIGN:
		op := p.advance()
		val, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &AssignStmt{baseNode{posOf(start)}, target, string(op.Lexeme[0]), val}, nil
	case PLUS_PLUS:
		p.advance()
		return &IncDecStmt{baseNode{posOf(start)}, target, +1}, nil
	case MINUS_MINUS:
		p.advance()
		return &IncDecStmt{baseNode{posOf(start)}, target, -1}, nil
	default:
		return nil, p.errHere("expected assignment operator, found %q", p.peek().Lexeme)
	}
}

// postfixTarget parses an assignable expression: an identifier with any
// chain of [index] and .field suffixes.
func (p *Parser) postfixTarget() (Expr, error) {
	name, err := p.expect(ID, "an assignment target")
	if err != nil {
		return nil, err
	}
	var x Expr = &IdentExpr{baseNode{posOf(name)}, identName(name), name.Lexeme}
	for {
		switch {
		case p.match(LSQUARE):
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RSQUARE, "']' after index"); err != nil {
				return nil, err
			}
			x = &IndexExpr{baseNode{posOf(name)}, x, idx}
		case p.check(PERIOD):
			p.advance()
			f, err := p.expect(ID, "a field name after '.'")
			if err != nil {
				return nil, err
			}
			x = &FieldExpr{baseNode{posOf(name)}, x, identName(f)}
		default:
			return x, nil
		}
	}
}

/* ===========================
   Types
   =========================== */

func (p *Parser) typeSpec() (*TypeSpec, error) {
	switch p.peek().Type {
	case RECORD:
		p.advance()
		rt, err := p.recordBody()
		if err != nil {
			return nil, err
		}
		return p.arraySuffix(&TypeSpec{Kind: KindRecord, Record: rt, Length: -1})
	case BITMAP:
		p.advance()
		bt, err := p.bitsBody(8)
		if err != nil {
			return nil, err
		}
		return &TypeSpec{Kind: KindBitmap, Bitmap: bt, Length: -1}, nil
	case INTMAP:
		p.advance()
		bt, err := p.bitsBody(32)
		if err != nil {
			return nil, err
		}
		return &TypeSpec{Kind: KindIntmap, Bitmap: bt, Length: -1}, nil
	case ID:
		t := p.advance()
		name := identName(t)
		var base *TypeSpec
		if k, ok := ScalarKind(name); ok {
			base = &TypeSpec{Kind: k, Length: -1}
		} else {
			base = &TypeSpec{Alias: name, Length: -1}
		}
		return p.arraySuffix(base)
	default:
		return nil, p.errHere("expected a type name, found %q", p.peek().Lexeme)
	}
}

// arraySuffix applies `[n]`, `[*]`, or `[]` to a base type.
func (p *Parser) arraySuffix(base *TypeSpec) (*TypeSpec, error) {
	if !p.check(LSQUARE) {
		return base, nil
	}
	p.advance()
	spec := &TypeSpec{Kind: KindArray, Elem: base, Length: -1}
	switch {
	case p.check(RSQUARE):
	case p.check(MULT):
		p.advance()
	case p.check(INTEGER):
		n := p.advance()
		spec.Length = int(n.Literal.(int32))
		if spec.Length < 0 {
			return nil, p.errAt(n, "array length cannot be negative")
		}
	default:
		return nil, p.errHere("expected an array length, '*', or ']'")
	}
	if _, err := p.expect(RSQUARE, "']' closing array type"); err != nil {
		return nil, err
	}
	return spec, nil
}

// recordBody parses `{ field: type, ... }`.
func (p *Parser) recordBody() (*RecordType, error) {
	if _, err := p.expect(LCURLY, "'{' after record"); err != nil {
		return nil, err
	}
	rt := &RecordType{FieldTypes: make(map[string]*TypeSpec)}
	for !p.check(RCURLY) {
		f, err := p.expect(ID, "a field name")
		if err != nil {
			return nil, err
		}
		fname := identName(f)
		if _, dup := rt.FieldTypes[fname]; dup {
			return nil, p.errAt(f, "duplicate record field %q", fname)
		}
		if _, err := p.expect(COLON, "':' after field name"); err != nil {
			return nil, err
		}
		ft, err := p.typeSpec()
		if err != nil {
			return nil, err
		}
		rt.FieldNames = append(rt.FieldNames, fname)
		rt.FieldTypes[fname] = ft
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(RCURLY, "'}' closing record type"); err != nil {
		return nil, err
	}
	return rt, nil
}

// bitsBody parses `{ name[: bit], ... }` for bitmap (width 8) and intmap
// (width 32) declarations. Unnumbered fields take the next free bit.
func (p *Parser) bitsBody(width int) (*BitmapType, error) {
	if _, err := p.expect(LCURLY, "'{' after bitmap/intmap"); err != nil {
		return nil, err
	}
	bt := &BitmapType{Width: width, FieldBit: make(map[string]int)}
	next := 0
	used := make(map[int]bool)
	for !p.check(RCURLY) {
		f, err := p.expect(ID, "a bit field name")
		if err != nil {
			return nil, err
		}
		fname := identName(f)
		if _, dup := bt.FieldBit[fname]; dup {
			return nil, p.errAt(f, "duplicate bit field %q", fname)
		}
		bit := -1
		if p.match(COLON) {
			n, err := p.expect(INTEGER, "a bit index")
			if err != nil {
				return nil, err
			}
			bit = int(n.Literal.(int32))
		} else {
			for used[next] {
				next++
			}
			bit = next
		}
		if bit < 0 || bit >= width {
			return nil, p.errAt(f, "bit index %d out of range 0-%d", bit, width-1)
		}
		if used[bit] {
			return nil, p.errAt(f, "bit index %d already assigned", bit)
		}
		used[bit] = true
		bt.FieldBit[fname] = bit
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(RCURLY, "'}' closing bit field list"); err != nil {
		return nil, err
	}
	return bt, nil
}

/* ===========================
   Expressions
   =========================== */

func (p *Parser) expression() (Expr, error) { return p.orExpr() }

func (p *Parser) orExpr() (Expr, error) {
	l, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.check(OR) {
		t := p.advance()
		r, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{baseNode{posOf(t)}, "||", l, r}
	}
	return l, nil
}

func (p *Parser) andExpr() (Expr, error) {
	l, err := p.cmpExpr()
	if err != nil {
		return nil, err
	}
	for p.check(AND) {
		t := p.advance()
		r, err := p.cmpExpr()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{baseNode{posOf(t)}, "&&", l, r}
	}
	return l, nil
}

var cmpOps = map[TokenType]string{
	EQ: "==", NEQ: "!=", LESS: "<", LESS_EQ: "<=", GREATER: ">", GREATER_EQ: ">=",
}

// cmpExpr collects comparison chains: one operator yields a BinaryExpr,
// two or more a ChainCompareExpr evaluating each middle operand once.
func (p *Parser) cmpExpr() (Expr, error) {
	first, err := p.addExpr()
	if err != nil {
		return nil, err
	}
	operands := []Expr{first}
	var ops []string
	var firstTok Token
	for {
		op, ok := cmpOps[p.peek().Type]
		if !ok {
			break
		}
		t := p.advance()
		if len(ops) == 0 {
			firstTok = t
		}
		r, err := p.addExpr()
		if err != nil {
			return nil, err
		}
		operands = append(operands, r)
		ops = append(ops, op)
	}
	switch len(ops) {
	case 0:
		return first, nil
	case 1:
		return &BinaryExpr{baseNode{posOf(firstTok)}, ops[0], operands[0], operands[1]}, nil
	default:
		return &ChainCompareExpr{baseNode{posOf(firstTok)}, operands, ops}, nil
	}
}

func (p *Parser) addExpr() (Expr, error) {
	l, err := p.mulExpr()
	if err != nil {
		return nil, err
	}
	for p.check(PLUS) || p.check(MINUS) {
		t := p.advance()
		op := "+"
		if t.Type == MINUS {
			op = "-"
		}
		r, err := p.mulExpr()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{baseNode{posOf(t)}, op, l, r}
	}
	return l, nil
}

func (p *Parser) mulExpr() (Expr, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.check(MULT) || p.check(DIV) {
		t := p.advance()
		op := "*"
		if t.Type == DIV {
			op = "/"
		}
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{baseNode{posOf(t)}, op, l, r}
	}
	return l, nil
}

func (p *Parser) unary() (Expr, error) {
	switch p.peek().Type {
	case MINUS:
		t := p.advance()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{baseNode{posOf(t)}, "-", x}, nil
	case BANG:
		t := p.advance()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{baseNode{posOf(t)}, "!", x}, nil
	default:
		return p.power()
	}
}

// power: right-associative '^' binding tighter than unary minus, with
// unary operators allowed on the exponent (2 ^ -3).
func (p *Parser) power() (Expr, error) {
	base, err := p.postfix()
	if err != nil {
		return nil, err
	}
	if p.check(CARET) {
		t := p.advance()
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{baseNode{posOf(t)}, "^", base, exp}, nil
	}
	return base, nil
}

func (p *Parser) postfix() (Expr, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.check(LSQUARE):
			t := p.advance()
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RSQUARE, "']' after index"); err != nil {
				return nil, err
			}
			x = &IndexExpr{baseNode{posOf(t)}, x, idx}
		case p.check(PERIOD):
			t := p.advance()
			f, err := p.expect(ID, "a field name after '.'")
			if err != nil {
				return nil, err
			}
			x = &FieldExpr{baseNode{posOf(t)}, x, identName(f)}
		default:
			return x, nil
		}
	}
}

func (p *Parser) primary() (Expr, error) {
	t := p.peek()
	switch t.Type {
	case INTEGER:
		p.advance()
		return &LiteralExpr{baseNode{posOf(t)}, IntVal(t.Literal.(int32))}, nil
	case LONGVAL:
		p.advance()
		return &LiteralExpr{baseNode{posOf(t)}, LongVal(t.Literal.(int64))}, nil
	case FLOATVAL:
		p.advance()
		return &LiteralExpr{baseNode{posOf(t)}, FloatVal(t.Literal.(float32))}, nil
	case DOUBLEVAL:
		p.advance()
		return &LiteralExpr{baseNode{posOf(t)}, DoubleVal(t.Literal.(float64))}, nil
	case STRING:
		p.advance()
		return &LiteralExpr{baseNode{posOf(t)}, StringVal(t.Literal.(string))}, nil
	case DATE:
		p.advance()
		return &LiteralExpr{baseNode{posOf(t)}, DateVal(t.Literal.(time.Time))}, nil
	case BOOLEAN:
		p.advance()
		return &LiteralExpr{baseNode{posOf(t)}, BoolVal(t.Literal.(bool))}, nil
	case NULLTOK:
		p.advance()
		return &LiteralExpr{baseNode{posOf(t)}, Null}, nil
	case CALL:
		return p.callExpr()
	case ID:
		p.advance()
		return &IdentExpr{baseNode{posOf(t)}, identName(t), t.Lexeme}, nil
	case LROUND:
		p.advance()
		x, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RROUND, "')' closing grouped expression"); err != nil {
			return nil, err
		}
		return x, nil
	case LSQUARE:
		return p.arrayLit(LSQUARE, RSQUARE)
	case LCURLY:
		return p.braceLit()
	default:
		return nil, p.errHere("unexpected token %q in expression", t.Lexeme)
	}
}

// callExpr parses `call qualified.name(args)`.
func (p *Parser) callExpr() (Expr, error) {
	t, err := p.expect(CALL, "'call'")
	if err != nil {
		return nil, err
	}
	name, err := p.qualifiedName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LROUND, "'(' after call target"); err != nil {
		return nil, err
	}
	args, err := p.argList()
	if err != nil {
		return nil, err
	}
	return &CallExpr{baseNode{posOf(t)}, name, args}, nil
}

func (p *Parser) qualifiedName() (string, error) {
	first, err := p.expect(ID, "a function name after call")
	if err != nil {
		return "", err
	}
	name := identName(first)
	for p.check(PERIOD) {
		p.advance()
		part, err := p.expect(ID, "a name after '.'")
		if err != nil {
			return "", err
		}
		name += "." + identName(part)
	}
	return name, nil
}

// argList parses positional and name=value arguments up to the closing
// ')'. Mixing forms is rejected at dispatch time, not here.
func (p *Parser) argList() ([]Arg, error) {
	var args []Arg
	for !p.check(RROUND) {
		var a Arg
		if p.check(ID) && p.peekN(1).Type == ASSIGN {
			nameTok := p.advance()
			p.advance() // '='
			a.Name = identName(nameTok)
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		a.Value = v
		args = append(args, a)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(RROUND, "')' closing argument list"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) arrayLit(open, close TokenType) (Expr, error) {
	t, err := p.expect(open, "'['")
	if err != nil {
		return nil, err
	}
	var elems []Expr
	for !p.check(close) {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(close, "closing bracket of array literal"); err != nil {
		return nil, err
	}
	return &ArrayLitExpr{baseNode{posOf(t)}, elems}, nil
}

// braceLit decides between an object literal (`{"k": v}` / `{k: v}`) and a
// brace-delimited array literal (`{1, 2, 3}`) by peeking at the first
// entry. An empty `{}` is an empty object.
func (p *Parser) braceLit() (Expr, error) {
	t := p.peek()
	isObject := false
	if p.peekN(1).Type == RCURLY {
		isObject = true
	} else if (p.peekN(1).Type == STRING || p.peekN(1).Type == ID) && p.peekN(2).Type == COLON {
		isObject = true
	}
	if !isObject {
		return p.arrayLitCurly()
	}
	p.advance() // '{'
	node := &ObjectLitExpr{baseNode: baseNode{posOf(t)}}
	for !p.check(RCURLY) {
		var key string
		switch p.peek().Type {
		case STRING:
			key = p.advance().Literal.(string)
		case ID:
			key = identName(p.advance())
		default:
			return nil, p.errHere("expected an object key, found %q", p.peek().Lexeme)
		}
		if _, err := p.expect(COLON, "':' after object key"); err != nil {
			return nil, err
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		node.Keys = append(node.Keys, key)
		node.Vals = append(node.Vals, v)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(RCURLY, "'}' closing object literal"); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) arrayLitCurly() (Expr, error) {
	t := p.advance() // '{'
	var elems []Expr
	for !p.check(RCURLY) {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.expect(RCURLY, "'}' closing array literal"); err != nil {
		return nil, err
	}
	return &ArrayLitExpr{baseNode{posOf(t)}, elems}, nil
}
