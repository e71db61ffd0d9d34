package syntax

// Expr is an expression the rewriter synthesizes. Parsed bodies never produce Exprs; they stay RawStmt text.
type Expr interface {
	exprNode()
}

// PathExpr names a value or function. Generic arguments print in turbofish form: Cat::<T>::meow.
type PathExpr struct {
	Path *PathType
}

// CallExpr is Func(Args...).
type CallExpr struct {
	Func Expr
	Args []Expr
}

// MethodCallExpr is Receiver.Method(Args...).
type MethodCallExpr struct {
	Receiver Expr
	Method   string
	Args     []Expr
}

// FieldExpr is Base.Field.
type FieldExpr struct {
	Base  Expr
	Field string
}

// RefExpr borrows its operand.
type RefExpr struct {
	Mutable bool
	Expr    Expr
}

// DerefExpr is *Expr.
type DerefExpr struct {
	Expr Expr
}

// ParenExpr is (Expr).
type ParenExpr struct {
	Expr Expr
}

// TupleExpr is a tuple value; one element prints with a trailing comma.
type TupleExpr struct {
	Elems []Expr
}

// StructExpr is a record literal. A FieldValue with nil Value uses shorthand.
type StructExpr struct {
	Path   *PathType
	Fields []*FieldValue
}

// FieldValue is one field of a StructExpr.
type FieldValue struct {
	Attrs []Attribute
	Name  string
	Value Expr
}

// MacroExpr is a macro invocation with parenthesized arguments: panic!("...").
type MacroExpr struct {
	Name string
	Args []Expr
}

// StringLit is a string literal.
type StringLit struct {
	Value string
}

// RawExpr is expression text printed as-is.
type RawExpr struct {
	Text string
}

func (*PathExpr) exprNode()       {}
func (*CallExpr) exprNode()       {}
func (*MethodCallExpr) exprNode() {}
func (*FieldExpr) exprNode()      {}
func (*RefExpr) exprNode()        {}
func (*DerefExpr) exprNode()      {}
func (*ParenExpr) exprNode()      {}
func (*TupleExpr) exprNode()      {}
func (*StructExpr) exprNode()     {}
func (*MacroExpr) exprNode()      {}
func (*StringLit) exprNode()      {}
func (*RawExpr) exprNode()        {}

// Var refers to a local binding or other single-name value.
func Var(name string) *PathExpr {
	return &PathExpr{Path: Ident(name)}
}

// ValuePath refers to a value by a multi-segment path.
func ValuePath(names ...string) *PathExpr {
	return &PathExpr{Path: Path(names...)}
}

// Call builds a call of fn with args.
func Call(fn Expr, args ...Expr) *CallExpr {
	return &CallExpr{Func: fn, Args: args}
}

// MethodCall builds recv.method(args...).
func MethodCall(recv Expr, method string, args ...Expr) *MethodCallExpr {
	return &MethodCallExpr{Receiver: recv, Method: method, Args: args}
}

// FieldAccess builds base.name.
func FieldAccess(base Expr, name string) *FieldExpr {
	return &FieldExpr{Base: base, Field: name}
}

// Stmt is a statement inside a Block.
type Stmt interface {
	stmtNode()
}

// Block is a brace-delimited statement list.
type Block struct {
	Stmts []Stmt
}

// RawStmt is verbatim statement text, possibly several lines, already dedented.
type RawStmt struct {
	Text string
}

// LetStmt is let Pattern[: Type] [= Value];.
type LetStmt struct {
	Pattern Pattern
	Type    Type
	Value   Expr
}

// ExprStmt is an expression in statement position; Semi adds the terminating semicolon.
type ExprStmt struct {
	Expr Expr
	Semi bool
}

// IfLetStmt is if let Pattern = Value { Then }, optionally preceded by attributes.
type IfLetStmt struct {
	Attrs   []Attribute
	Pattern Pattern
	Value   Expr
	Then    *Block
}

// IfStmt is if Cond { Then }.
type IfStmt struct {
	Cond Expr
	Then *Block
}

// ReturnStmt is return [Value];.
type ReturnStmt struct {
	Value Expr
}

// AssignStmt is Target = Value;.
type AssignStmt struct {
	Target Expr
	Value  Expr
}

func (*RawStmt) stmtNode()    {}
func (*LetStmt) stmtNode()    {}
func (*ExprStmt) stmtNode()   {}
func (*IfLetStmt) stmtNode()  {}
func (*IfStmt) stmtNode()     {}
func (*ReturnStmt) stmtNode() {}
func (*AssignStmt) stmtNode() {}

// NewBlock builds a block from statements.
func NewBlock(stmts ...Stmt) *Block {
	return &Block{Stmts: stmts}
}

// Tail returns a block whose only statement is the trailing expression e.
func Tail(e Expr) *Block {
	return &Block{Stmts: []Stmt{&ExprStmt{Expr: e}}}
}
