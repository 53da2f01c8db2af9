package ast

// Visitor is implemented by callers of Walk. Visit is called for every
// node; if it returns a non-nil Visitor, Walk recurses into the node's
// children using that visitor and calls it again with nil upon return
// (mirroring go/ast.Walk and cue/ast.Walk).
type Visitor interface {
	Visit(node Node) Visitor
}

// Walk traverses a Sona AST in depth-first order. It never mutates the
// tree (spec.md §4.2: "AST is acyclic ... immutable after construction").
func Walk(v Visitor, node Node) {
	if node == nil {
		return
	}
	v = v.Visit(node)
	if v == nil {
		return
	}
	defer v.Visit(nil)

	switch n := node.(type) {
	case *File:
		walkStmts(v, n.Stmts)
	case *Let:
		Walk(v, n.Value)
	case *Assign:
		Walk(v, n.Target)
		Walk(v, n.Value)
	case *ExprStmt:
		Walk(v, n.X)
	case *If:
		Walk(v, n.Cond)
		walkStmts(v, n.Then)
		for _, e := range n.Elifs {
			Walk(v, e.Cond)
			walkStmts(v, e.Body)
		}
		walkStmts(v, n.Else)
	case *While:
		Walk(v, n.Cond)
		walkStmts(v, n.Body)
	case *For:
		Walk(v, n.Iter)
		walkStmts(v, n.Body)
	case *Repeat:
		Walk(v, n.Count)
		walkStmts(v, n.Body)
	case *Func:
		for _, p := range n.Params {
			if p.Default != nil {
				Walk(v, p.Default)
			}
		}
		walkStmts(v, n.Body)
	case *Return:
		Walk(v, n.Value)
	case *Try:
		walkStmts(v, n.Body)
		walkStmts(v, n.CatchBody)
		walkStmts(v, n.FinallyBody)
	case *Raise:
		Walk(v, n.Value)
	case *Class:
		for _, m := range n.Methods {
			Walk(v, m)
		}
		for i := range n.Fields {
			Walk(v, &n.Fields[i])
		}
	case *Delete:
		Walk(v, n.Target)
	case *Binary:
		Walk(v, n.X)
		Walk(v, n.Y)
	case *Unary:
		Walk(v, n.X)
	case *Chained:
		for _, op := range n.Operands {
			Walk(v, op)
		}
	case *Call:
		Walk(v, n.Fn)
		for _, a := range n.Args {
			Walk(v, a)
		}
	case *Index:
		Walk(v, n.X)
		Walk(v, n.Idx)
	case *Slice:
		Walk(v, n.X)
		if n.Low != nil {
			Walk(v, n.Low)
		}
		if n.High != nil {
			Walk(v, n.High)
		}
		if n.Step != nil {
			Walk(v, n.Step)
		}
	case *Attr:
		Walk(v, n.X)
	case *ListLit:
		for _, e := range n.Elems {
			Walk(v, e)
		}
	case *DictLit:
		for i := range n.Keys {
			Walk(v, n.Keys[i])
			Walk(v, n.Values[i])
		}
	case *Lambda:
		for _, p := range n.Params {
			if p.Default != nil {
				Walk(v, p.Default)
			}
		}
		Walk(v, n.Body)
	case *FString:
		for _, e := range n.Exprs {
			Walk(v, e)
		}
	case *Match:
		Walk(v, n.Subject)
		for _, c := range n.Cases {
			for _, p := range c.Patterns {
				Walk(v, p)
			}
			Walk(v, c.Body)
		}
	case *Comprehension:
		Walk(v, n.Elem)
		if n.KeyElem != nil {
			Walk(v, n.KeyElem)
		}
		Walk(v, n.Iter)
		if n.Cond != nil {
			Walk(v, n.Cond)
		}
	case *Spread:
		Walk(v, n.X)
	case *Literal, *Identifier, *Self, *Super, *Import, *Break, *Continue:
		// leaf nodes
	default:
		panic(unknownNode(node))
	}
}

func walkStmts(v Visitor, stmts []Stmt) {
	for _, s := range stmts {
		Walk(v, s)
	}
}

func unknownNode(n Node) string {
	return "ast.Walk: unknown node type"
}

// Inspect traverses node in depth-first order, calling f for each node.
// Inspect stops that subtree's descent when f returns false, mirroring
// go/ast.Inspect.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}
