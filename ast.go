// ast.go: the abstract syntax tree.
//
// Stmt and Expr are closed sums: one concrete struct per node kind, marker
// methods instead of visitors, exhaustive type switches in the evaluator.
// Nodes are immutable after parse; the evaluator never writes into them.
package ebscript

// Pos is a 1-based source coordinate kept on every node for error reports.
type Pos struct {
	Line int
	Col  int
}

// Stmt is one executable statement.
type Stmt interface {
	stmtNode()
	Position() Pos
}

// Expr is one evaluable expression.
type Expr interface {
	exprNode()
	Position() Pos
}

// Program is a parsed source unit: its top-level statements plus the name
// used in error reports.
type Program struct {
	Name  string
	Stmts []Stmt
}

type baseNode struct {
	Pos Pos
}

func (n baseNode) Position() Pos { return n.Pos }

/* ===========================
   Statements
   =========================== */

// VarDeclStmt is `var name: type [= expr];`.
type VarDeclStmt struct {
	baseNode
	Name string
	Type *TypeSpec
	Init Expr // nil when absent
}

// AssignStmt is assignment to a name, index, or field target, with Op ""
// for plain `=` or one of "+", "-", "*", "/" for compound forms.
type AssignStmt struct {
	baseNode
	Target Expr // *IdentExpr, *IndexExpr, or *FieldExpr
	Op     string
	Value  Expr
}

// IncDecStmt is `x++;` / `x--;` on a name, index, or field target.
type IncDecStmt struct {
	baseNode
	Target Expr
	Delta  int // +1 or -1
}

// PrintStmt is `print expr;`.
type PrintStmt struct {
	baseNode
	Value Expr
}

// ExprStmt is an expression evaluated for its side effects, value
// discarded (`call f(...);`).
type ExprStmt struct {
	baseNode
	X Expr
}

// BlockStmt is `{ ... }`, a new lexical scope.
type BlockStmt struct {
	baseNode
	Stmts []Stmt
}

// IfStmt covers both `if (cond) { } else { }` and `if cond then stmt`.
type IfStmt struct {
	baseNode
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
}

// WhileStmt is `while (cond) { }`.
type WhileStmt struct {
	baseNode
	Cond Expr
	Body Stmt
}

// DoWhileStmt is `do { } while (cond);`.
type DoWhileStmt struct {
	baseNode
	Body Stmt
	Cond Expr
}

// ForStmt is `for (init; cond; incr) { }`; any of the three may be nil.
type ForStmt struct {
	baseNode
	Init Stmt
	Cond Expr
	Incr Stmt
	Body Stmt
}

// ForeachStmt is `foreach (v in seq) { }`.
type ForeachStmt struct {
	baseNode
	Var  string
	Seq  Expr
	Body Stmt
}

type BreakStmt struct{ baseNode }

type ContinueStmt struct{ baseNode }

// ReturnStmt is `return [expr];`.
type ReturnStmt struct {
	baseNode
	Value Expr // nil for bare return
}

// FuncDeclStmt covers the three definition forms: bare block, block with a
// declared return type, and parameter list with optional return type, each
// optionally prefixed with `function`.
type FuncDeclStmt struct {
	baseNode
	Name       string
	Params     []Param
	ReturnType *TypeSpec // nil when undeclared
	Body       []Stmt
}

// Handler is one `when KIND[(var)] { ... }` clause.
type Handler struct {
	Kind    ErrorKind
	VarName string // "" when no binding
	Body    []Stmt
}

// TryStmt is `try { } exceptions { when ... }`.
type TryStmt struct {
	baseNode
	Body     []Stmt
	Handlers []Handler
}

// RaiseStmt is `raise exception KIND("msg");`.
type RaiseStmt struct {
	baseNode
	Kind ErrorKind
	Msg  Expr // nil when omitted
}

// ImportStmt is `import "path";`. Spec keeps the user-written spelling;
// resolution happens against the importing file's directory.
type ImportStmt struct {
	baseNode
	Spec string
}

// TypedefStmt is `typedef name type;`.
type TypedefStmt struct {
	baseNode
	Name string
	Type *TypeSpec
}

// ScreenAction discriminates the screen statement forms.
type ScreenAction int

const (
	ScreenDefine ScreenAction = iota // screen name = {json};
	ScreenShow                       // screen name show;
	ScreenHide                       // screen name hide;
	ScreenClose                      // screen name close;
)

// ScreenStmt drives the external rendering collaborator.
type ScreenStmt struct {
	baseNode
	Name   string
	Action ScreenAction
	Def    Expr // ScreenDefine only
}

func (*VarDeclStmt) stmtNode()  {}
func (*AssignStmt) stmtNode()   {}
func (*IncDecStmt) stmtNode()   {}
func (*PrintStmt) stmtNode()    {}
func (*ExprStmt) stmtNode()     {}
func (*BlockStmt) stmtNode()    {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*DoWhileStmt) stmtNode()  {}
func (*ForStmt) stmtNode()      {}
func (*ForeachStmt) stmtNode()  {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*ReturnStmt) stmtNode()   {}
func (*FuncDeclStmt) stmtNode() {}
func (*TryStmt) stmtNode()      {}
func (*RaiseStmt) stmtNode()    {}
func (*ImportStmt) stmtNode()   {}
func (*TypedefStmt) stmtNode()  {}
func (*ScreenStmt) stmtNode()   {}

/* ===========================
   Expressions
   =========================== */

// LiteralExpr wraps an already-materialized constant.
type LiteralExpr struct {
	baseNode
	Value Value
}

// IdentExpr is a variable or function reference, canonical (lower-case)
// name plus the spelling as written.
type IdentExpr struct {
	baseNode
	Name    string
	Display string
}

// UnaryExpr is `-x` or `!x`.
type UnaryExpr struct {
	baseNode
	Op string
	X  Expr
}

// BinaryExpr is one of `+ - * / ^ && ||` plus the single-comparison case.
type BinaryExpr struct {
	baseNode
	Op   string
	L, R Expr
}

// ChainCompareExpr is `a < b <= c`: each middle operand is evaluated once
// and the chain is true when every adjacent comparison holds.
type ChainCompareExpr struct {
	baseNode
	Operands []Expr
	Ops      []string // len(Operands)-1
}

// Arg is one call-site argument, named when Name != "".
type Arg struct {
	Name  string
	Value Expr
}

// CallExpr is `call name(args)` or an unqualified user-function call. Name
// is canonical; qualified builtin names keep their dot ("crypto.sha256").
type CallExpr struct {
	baseNode
	Name string
	Args []Arg
}

// IndexExpr is `x[i]`.
type IndexExpr struct {
	baseNode
	X Expr
	I Expr
}

// FieldExpr is `x.field`, a distinct postfix node so it can serve as both
// a read and an assignment target.
type FieldExpr struct {
	baseNode
	X    Expr
	Name string
}

// ArrayLitExpr is `{1, 2, 3}` or `[1, 2, 3]`.
type ArrayLitExpr struct {
	baseNode
	Elems []Expr
}

// ObjectLitExpr is `{"key": value, ...}`, used for record/json literals.
type ObjectLitExpr struct {
	baseNode
	Keys []string
	Vals []Expr
}

func (*LiteralExpr) exprNode()      {}
func (*IdentExpr) exprNode()        {}
func (*UnaryExpr) exprNode()        {}
func (*BinaryExpr) exprNode()       {}
func (*ChainCompareExpr) exprNode() {}
func (*CallExpr) exprNode()         {}
func (*IndexExpr) exprNode()        {}
func (*FieldExpr) exprNode()        {}
func (*ArrayLitExpr) exprNode()     {}
func (*ObjectLitExpr) exprNode()    {}
