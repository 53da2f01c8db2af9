// Package ast declares the tagged node types used to represent Sona
// syntax trees. Grounded on cue/ast: Node/Expr/Decl (here Stmt) marker
// interfaces, one concrete struct per production, each with a Pos()
// accessor. The tree is a closed sum type (spec.md §4.2): only the
// parser constructs nodes, and no node type here participates in open
// inheritance.
package ast

import "github.com/Bryantad/Sona-sub003/token"

// Node is implemented by every statement and expression node.
type Node interface {
	Pos() token.Pos
}

// Expr is implemented by all expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by all statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// File is the root of a parsed source file: a sequence of top-level
// statements (spec.md §6: "A source file is a sequence of statements").
type File struct {
	Filename string
	Stmts    []Stmt
}

func (f *File) Pos() token.Pos {
	if len(f.Stmts) == 0 {
		return token.NoPos
	}
	return f.Stmts[0].Pos()
}

// ---------------------------------------------------------------------------
// Statements

type (
	// Let declares x in the current frame; spec.md §4.3: redefinition in
	// the same frame replaces the value.
	Let struct {
		TokPos token.Pos
		Name   string
		Value  Expr
	}

	// Assign updates the nearest enclosing frame that already defines
	// Name, per spec.md §4.3.
	Assign struct {
		TokPos token.Pos
		Target Expr // Identifier, Index, or Attr
		Value  Expr
	}

	ExprStmt struct {
		X Expr
	}

	If struct {
		TokPos token.Pos
		Cond   Expr
		Then   []Stmt
		Elifs  []ElifClause
		Else   []Stmt // nil if no else
	}

	While struct {
		TokPos token.Pos
		Cond   Expr
		Body   []Stmt
	}

	For struct {
		TokPos token.Pos
		Var    string
		Iter   Expr
		Body   []Stmt
	}

	Repeat struct {
		TokPos token.Pos
		Count  Expr
		Body   []Stmt
	}

	Func struct {
		TokPos   token.Pos
		Name     string // "" for anonymous (Lambda uses a separate node)
		Params   []Param
		Body     []Stmt
	}

	Return struct {
		TokPos token.Pos
		Value  Expr // nil for bare `return`
	}

	Break struct {
		TokPos token.Pos
	}

	Continue struct {
		TokPos token.Pos
	}

	Import struct {
		TokPos  token.Pos
		Path    []string // dotted path X.Y
		Alias   string   // "" unless `as Z`
		Names   []string // for `from X import a, b`; nil for plain import
		Wildcard bool    // `from X import *`
	}

	Try struct {
		TokPos      token.Pos
		Body        []Stmt
		CatchName   string // "" if `catch` has no binding
		HasCatch    bool
		CatchBody   []Stmt
		HasFinally  bool
		FinallyBody []Stmt
	}

	Raise struct {
		TokPos token.Pos
		Value  Expr
	}

	Class struct {
		TokPos  token.Pos
		Name    string
		Extends string // "" if no parent
		Methods []*Func
		Fields  []Let // class-body `let` become default instance fields
	}

	Delete struct {
		TokPos token.Pos
		Target Expr
	}
)

type ElifClause struct {
	Cond Expr
	Body []Stmt
}

type Param struct {
	Name    string
	Default Expr // nil if required
}

func (s *Let) Pos() token.Pos      { return s.TokPos }
func (s *Assign) Pos() token.Pos   { return s.TokPos }
func (s *ExprStmt) Pos() token.Pos { return s.X.Pos() }
func (s *If) Pos() token.Pos       { return s.TokPos }
func (s *While) Pos() token.Pos    { return s.TokPos }
func (s *For) Pos() token.Pos      { return s.TokPos }
func (s *Repeat) Pos() token.Pos   { return s.TokPos }
func (s *Func) Pos() token.Pos     { return s.TokPos }
func (s *Return) Pos() token.Pos   { return s.TokPos }
func (s *Break) Pos() token.Pos    { return s.TokPos }
func (s *Continue) Pos() token.Pos { return s.TokPos }
func (s *Import) Pos() token.Pos   { return s.TokPos }
func (s *Try) Pos() token.Pos      { return s.TokPos }
func (s *Raise) Pos() token.Pos    { return s.TokPos }
func (s *Class) Pos() token.Pos    { return s.TokPos }
func (s *Delete) Pos() token.Pos   { return s.TokPos }

func (*Let) stmtNode()      {}
func (*Assign) stmtNode()   {}
func (*ExprStmt) stmtNode() {}
func (*If) stmtNode()       {}
func (*While) stmtNode()    {}
func (*For) stmtNode()      {}
func (*Repeat) stmtNode()   {}
func (*Func) stmtNode()     {}
func (*Return) stmtNode()   {}
func (*Break) stmtNode()    {}
func (*Continue) stmtNode() {}
func (*Import) stmtNode()   {}
func (*Try) stmtNode()      {}
func (*Raise) stmtNode()    {}
func (*Class) stmtNode()    {}
func (*Delete) stmtNode()   {}

// ---------------------------------------------------------------------------
// Expressions

type (
	// Literal covers Int, Float, String, Bool, and Null values.
	Literal struct {
		TokPos token.Pos
		Kind   token.Token // INT, FLOAT, STRING, TRUE, FALSE, NULL
		Value  string      // raw lexeme; decoded by the evaluator/literal pkg
	}

	Identifier struct {
		TokPos token.Pos
		Name   string
	}

	Binary struct {
		TokPos token.Pos
		Op     token.Token
		X, Y   Expr
	}

	Unary struct {
		TokPos token.Pos
		Op     token.Token // SUB or NOT
		X      Expr
	}

	// Chained models `a < b < c` as a list of operators and operands so
	// the evaluator can evaluate each shared sub-expression exactly once
	// (spec.md §4.1 "Chained comparisons").
	Chained struct {
		TokPos   token.Pos
		Operands []Expr
		Ops      []token.Token
	}

	Call struct {
		TokPos token.Pos
		Fn     Expr
		Args   []Expr
		Spread []bool // per-arg: true if preceded by `...`
	}

	Index struct {
		TokPos token.Pos
		X      Expr
		Idx    Expr
	}

	Slice struct {
		TokPos       token.Pos
		X            Expr
		Low, High, Step Expr // nil if omitted
	}

	Attr struct {
		TokPos token.Pos
		X      Expr
		Name   string
	}

	ListLit struct {
		TokPos token.Pos
		Elems  []Expr
		Spread []bool
	}

	DictLit struct {
		TokPos token.Pos
		Keys   []Expr // String literal or Identifier (bareword key)
		Values []Expr
	}

	Lambda struct {
		TokPos token.Pos
		Params []Param
		Body   Expr
	}

	// FString holds the literal text fragments interleaved with parsed
	// interpolated expressions: len(Parts) == len(Exprs)+1.
	FString struct {
		TokPos  token.Pos
		Parts   []string
		Exprs   []Expr
		Specs   []string // format specifier per expr, "" if none
	}

	MatchCase struct {
		Patterns  []Expr // literal values; nil+Wildcard for `_`
		Wildcard  bool
		Body      Expr
	}

	Match struct {
		TokPos token.Pos
		Subject Expr
		Cases   []MatchCase
	}

	Comprehension struct {
		TokPos  token.Pos
		Elem    Expr
		KeyElem Expr // non-nil for dict comprehensions
		Var     string
		Iter    Expr
		Cond    Expr // nil if no `if` guard
		IsDict  bool
	}

	Spread struct {
		TokPos token.Pos
		X      Expr
	}

	Self struct {
		TokPos token.Pos
	}

	Super struct {
		TokPos token.Pos
	}
)

func (x *Literal) Pos() token.Pos       { return x.TokPos }
func (x *Identifier) Pos() token.Pos    { return x.TokPos }
func (x *Binary) Pos() token.Pos        { return x.TokPos }
func (x *Unary) Pos() token.Pos         { return x.TokPos }
func (x *Chained) Pos() token.Pos       { return x.TokPos }
func (x *Call) Pos() token.Pos          { return x.TokPos }
func (x *Index) Pos() token.Pos         { return x.TokPos }
func (x *Slice) Pos() token.Pos         { return x.TokPos }
func (x *Attr) Pos() token.Pos          { return x.TokPos }
func (x *ListLit) Pos() token.Pos       { return x.TokPos }
func (x *DictLit) Pos() token.Pos       { return x.TokPos }
func (x *Lambda) Pos() token.Pos        { return x.TokPos }
func (x *FString) Pos() token.Pos       { return x.TokPos }
func (x *Match) Pos() token.Pos         { return x.TokPos }
func (x *Comprehension) Pos() token.Pos { return x.TokPos }
func (x *Spread) Pos() token.Pos        { return x.TokPos }
func (x *Self) Pos() token.Pos          { return x.TokPos }
func (x *Super) Pos() token.Pos         { return x.TokPos }

func (*Literal) exprNode()       {}
func (*Identifier) exprNode()    {}
func (*Binary) exprNode()        {}
func (*Unary) exprNode()         {}
func (*Chained) exprNode()       {}
func (*Call) exprNode()          {}
func (*Index) exprNode()         {}
func (*Slice) exprNode()         {}
func (*Attr) exprNode()          {}
func (*ListLit) exprNode()       {}
func (*DictLit) exprNode()       {}
func (*Lambda) exprNode()        {}
func (*FString) exprNode()       {}
func (*Match) exprNode()         {}
func (*Comprehension) exprNode() {}
func (*Spread) exprNode()        {}
func (*Self) exprNode()          {}
func (*Super) exprNode()         {}
