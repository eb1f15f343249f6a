package glsl

import "github.com/gogpu/webglshader/diag"

// spanOf converts a pair of tokens into a diag.Span.
func spanOf(start, end Token) diag.Span {
	return diag.Span{
		Start: diag.Position{Line: start.Line, Column: start.Column},
		End:   diag.Position{Line: end.Line, Column: end.Column},
	}
}

func pointSpan(t Token) diag.Span {
	return diag.Span{Start: diag.Position{Line: t.Line, Column: t.Column}}
}

// Module is a parsed translation unit (one shader's source).
type Module struct {
	Precisions []PrecisionDecl
	Structs    []*StructDecl
	Globals    []*VarDecl // top-level in/out/uniform/const declarations
	Functions  []*FunctionDecl
}

// Node is implemented by every AST node.
type Node interface {
	Pos() diag.Span
}

// Decl is implemented by top-level declarations.
type Decl interface {
	Node
	declNode()
}

// Stmt is implemented by statements.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expressions.
type Expr interface {
	Node
	exprNode()
}

// PrecisionDecl represents `precision mediump float;`.
type PrecisionDecl struct {
	Qualifier string // highp, mediump, lowp
	TypeName  string
	Span      diag.Span
}

func (p *PrecisionDecl) Pos() diag.Span { return p.Span }

// Qualifiers bundles the qualifier keywords a declaration may carry.
type Qualifiers struct {
	Storage       string // "", "in", "out", "inout", "uniform", "const"
	Interpolation string // "", "flat", "smooth", "centroid"
	Layout        *LayoutQualifier
}

// LayoutQualifier represents `layout(location = N)`.
type LayoutQualifier struct {
	Location    *int
	HasLocation bool
}

// TypeExpr is a type reference: a built-in scalar/vector/matrix/opaque
// type name, or a user struct name, optionally arrayed.
type TypeExpr struct {
	Name      string // "float", "vec4", "MyStruct", ...
	ArraySize *int   // nil if not an array
	Span      diag.Span
}

func (t *TypeExpr) Pos() diag.Span { return t.Span }

// StructDecl declares a user struct type.
type StructDecl struct {
	Name    string
	Members []*StructMember
	Span    diag.Span
}

func (s *StructDecl) Pos() diag.Span { return s.Span }
func (s *StructDecl) declNode()      {}

// StructMember is one field of a struct.
type StructMember struct {
	Name string
	Type *TypeExpr
	Span diag.Span
}

// VarDecl declares a global (attribute/varying/uniform/const) or local
// variable.
type VarDecl struct {
	Name       string
	Type       *TypeExpr
	Qualifiers Qualifiers
	Init       Expr
	Span       diag.Span
}

func (v *VarDecl) Pos() diag.Span { return v.Span }
func (v *VarDecl) declNode()      {}
func (v *VarDecl) stmtNode()      {}

// Parameter is one function parameter.
type Parameter struct {
	Name      string
	Type      *TypeExpr
	Qualifier string // "", "in", "out", "inout", "const"
	Span      diag.Span
}

// FunctionDecl declares a function, including `main`.
type FunctionDecl struct {
	Name       string
	Params     []*Parameter
	ReturnType *TypeExpr
	Body       *BlockStmt // nil for prototypes (unused by this subset)
	Span       diag.Span
}

func (f *FunctionDecl) Pos() diag.Span { return f.Span }
func (f *FunctionDecl) declNode()      {}

// --- Statements ---------------------------------------------------------

// BlockStmt is a `{ ... }` statement list.
type BlockStmt struct {
	Statements []Stmt
	Span       diag.Span
}

func (b *BlockStmt) Pos() diag.Span { return b.Span }
func (b *BlockStmt) stmtNode()      {}

// ReturnStmt is `return [expr];`.
type ReturnStmt struct {
	Value Expr // nil for void return
	Span  diag.Span
}

func (r *ReturnStmt) Pos() diag.Span { return r.Span }
func (r *ReturnStmt) stmtNode()      {}

// IfStmt is `if (cond) body [else elseBody]`.
type IfStmt struct {
	Condition Expr
	Then      *BlockStmt
	Else      Stmt // *BlockStmt, *IfStmt, or nil
	Span      diag.Span
}

func (i *IfStmt) Pos() diag.Span { return i.Span }
func (i *IfStmt) stmtNode()      {}

// ForStmt is a C-style for loop.
type ForStmt struct {
	Init      Stmt // VarDecl or ExprStmt, may be nil
	Condition Expr // may be nil
	Update    Expr // may be nil
	Body      *BlockStmt
	Span      diag.Span
}

func (f *ForStmt) Pos() diag.Span { return f.Span }
func (f *ForStmt) stmtNode()      {}

// WhileStmt is `while (cond) body`.
type WhileStmt struct {
	Condition Expr
	Body      *BlockStmt
	Span      diag.Span
}

func (w *WhileStmt) Pos() diag.Span { return w.Span }
func (w *WhileStmt) stmtNode()      {}

// BreakStmt is `break;`.
type BreakStmt struct{ Span diag.Span }

func (b *BreakStmt) Pos() diag.Span { return b.Span }
func (b *BreakStmt) stmtNode()      {}

// ContinueStmt is `continue;`.
type ContinueStmt struct{ Span diag.Span }

func (c *ContinueStmt) Pos() diag.Span { return c.Span }
func (c *ContinueStmt) stmtNode()      {}

// DiscardStmt is `discard;` (fragment shaders only).
type DiscardStmt struct{ Span diag.Span }

func (d *DiscardStmt) Pos() diag.Span { return d.Span }
func (d *DiscardStmt) stmtNode()      {}

// AssignStmt is `lhs op= rhs;` including plain `=`.
type AssignStmt struct {
	Left  Expr
	Op    TokenKind
	Right Expr
	Span  diag.Span
}

func (a *AssignStmt) Pos() diag.Span { return a.Span }
func (a *AssignStmt) stmtNode()      {}

// ExprStmt wraps a bare expression statement, e.g. a function call or
// `i++;`.
type ExprStmt struct {
	Expr Expr
	Span diag.Span
}

func (e *ExprStmt) Pos() diag.Span { return e.Span }
func (e *ExprStmt) stmtNode()      {}

// --- Expressions ---------------------------------------------------------

// Ident references a variable, function parameter, or built-in name.
type Ident struct {
	Name string
	Span diag.Span
}

func (i *Ident) Pos() diag.Span { return i.Span }
func (i *Ident) exprNode()      {}

// IntLiteral is an integer literal.
type IntLiteral struct {
	Value int32
	Span  diag.Span
}

func (l *IntLiteral) Pos() diag.Span { return l.Span }
func (l *IntLiteral) exprNode()      {}

// UintLiteral is an unsigned integer literal (`1u`).
type UintLiteral struct {
	Value uint32
	Span  diag.Span
}

func (l *UintLiteral) Pos() diag.Span { return l.Span }
func (l *UintLiteral) exprNode()      {}

// FloatLiteral is a floating point literal.
type FloatLiteral struct {
	Value float32
	Span  diag.Span
}

func (l *FloatLiteral) Pos() diag.Span { return l.Span }
func (l *FloatLiteral) exprNode()      {}

// BoolLiteral is `true`/`false`.
type BoolLiteral struct {
	Value bool
	Span  diag.Span
}

func (l *BoolLiteral) Pos() diag.Span { return l.Span }
func (l *BoolLiteral) exprNode()      {}

// BinaryExpr is a binary operator expression.
type BinaryExpr struct {
	Left  Expr
	Op    TokenKind
	Right Expr
	Span  diag.Span
}

func (b *BinaryExpr) Pos() diag.Span { return b.Span }
func (b *BinaryExpr) exprNode()      {}

// UnaryExpr is a prefix unary operator expression (`-x`, `!x`, `++x`).
type UnaryExpr struct {
	Op      TokenKind
	Operand Expr
	Span    diag.Span
}

func (u *UnaryExpr) Pos() diag.Span { return u.Span }
func (u *UnaryExpr) exprNode()      {}

// PostfixExpr is a postfix `x++`/`x--`.
type PostfixExpr struct {
	Op      TokenKind
	Operand Expr
	Span    diag.Span
}

func (p *PostfixExpr) Pos() diag.Span { return p.Span }
func (p *PostfixExpr) exprNode()      {}

// TernaryExpr is `cond ? a : b`.
type TernaryExpr struct {
	Condition Expr
	Then      Expr
	Else      Expr
	Span      diag.Span
}

func (t *TernaryExpr) Pos() diag.Span { return t.Span }
func (t *TernaryExpr) exprNode()      {}

// CallExpr is a function call or a type constructor call (`vec4(...)`).
// The two are disambiguated during semantic analysis by looking up
// Callee.Name against the type table vs. the function table.
type CallExpr struct {
	Callee *Ident
	Args   []Expr
	Span   diag.Span
}

func (c *CallExpr) Pos() diag.Span { return c.Span }
func (c *CallExpr) exprNode()      {}

// IndexExpr is `base[index]`.
type IndexExpr struct {
	Base  Expr
	Index Expr
	Span  diag.Span
}

func (i *IndexExpr) Pos() diag.Span { return i.Span }
func (i *IndexExpr) exprNode()      {}

// FieldExpr is `base.field` (struct field access or a swizzle).
type FieldExpr struct {
	Base  Expr
	Field string
	Span  diag.Span
}

func (f *FieldExpr) Pos() diag.Span { return f.Span }
func (f *FieldExpr) exprNode()      {}
