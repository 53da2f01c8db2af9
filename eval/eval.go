// Package eval implements Sona's tree-walking evaluator: it executes an
// *ast.File or a single ast.Expr against a frame.Frame scope chain,
// producing value.Value results. Grounded on cue/internal/core/adt's
// evaluator shape (an Evaluator/OpContext threaded through mutually
// recursive eval functions, non-local outcomes represented as sentinel
// values rather than Go panics) and on cue/ast/walk.go's per-node-type
// switch, generalized from CUE's unification semantics to spec.md
// §4.3's imperative statement/expression semantics.
package eval

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/Bryantad/Sona-sub003/ast"
	"github.com/Bryantad/Sona-sub003/errors"
	"github.com/Bryantad/Sona-sub003/internal/frame"
	"github.com/Bryantad/Sona-sub003/internal/signal"
	"github.com/Bryantad/Sona-sub003/internal/value"
	"github.com/Bryantad/Sona-sub003/literal"
	"github.com/Bryantad/Sona-sub003/token"
)

// Importer resolves an import path to a module namespace; implemented by
// package module. Kept as an interface here so eval never imports
// module directly (module imports eval to run the files it loads).
type Importer interface {
	Import(ctx context.Context, path []string, fromFile string) (value.Dict, error)
}

// Interp holds the state shared across one evaluation run: the global
// frame, the active module loader, and the current file name. The
// cooperative cancellation context (spec.md's supplemented "Interrupted"
// error kind) is not stored here: it is passed into every eval call and
// checked as statements and loop iterations run, rather than via Go's
// goroutine preemption.
type Interp struct {
	Global   *frame.Frame
	Importer Importer
	File     string

	callDepth int
}

const maxCallDepth = 2000

// New creates an interpreter rooted at global, which the caller should
// have already populated with builtins (package builtins.Install).
func New(global *frame.Frame, importer Importer, filename string) *Interp {
	return &Interp{Global: global, Importer: importer, File: filename}
}

// Run evaluates every top-level statement of f against the
// interpreter's global frame, converting an uncaught Throw signal into a
// Go error (spec.md §6: "An uncaught exception terminates the run").
func (in *Interp) Run(ctx context.Context, f *ast.File) error {
	_, sig := in.evalStmts(ctx, f.Stmts, in.Global)
	return in.signalToErr(sig)
}

// Eval evaluates a single expression against fr, for REPL use (spec.md
// §6 EvalREPL).
func (in *Interp) Eval(ctx context.Context, x ast.Expr, fr *frame.Frame) (value.Value, error) {
	v, sig := in.evalExpr(ctx, x, fr)
	if sig != nil {
		return nil, in.signalToErr(sig)
	}
	return v, nil
}

func (in *Interp) signalToErr(sig *signal.Signal) error {
	if sig == nil {
		return nil
	}
	switch sig.Kind {
	case signal.Throw:
		if sig.Err != nil {
			return sig.Err
		}
		return errors.Newf(errors.UserError, token.NoPos, "uncaught exception: %s", value.Repr(sig.Value.(value.Value)))
	default:
		return errors.Newf(errors.ParseError, token.NoPos, "%s used outside a loop or function", sig.Kind)
	}
}

func (in *Interp) checkCancel(ctx context.Context, pos token.Pos) *signal.Signal {
	select {
	case <-ctx.Done():
		return signal.NewThrowErr(errors.Newf(errors.Interrupted, pos, "evaluation interrupted: %v", ctx.Err()))
	default:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Statements

func (in *Interp) evalStmts(ctx context.Context, stmts []ast.Stmt, fr *frame.Frame) (value.Value, *signal.Signal) {
	var last value.Value = value.NullValue
	for _, s := range stmts {
		v, sig := in.evalStmt(ctx, s, fr)
		if sig != nil {
			return nil, sig
		}
		last = v
	}
	return last, nil
}

func (in *Interp) evalStmt(ctx context.Context, s ast.Stmt, fr *frame.Frame) (value.Value, *signal.Signal) {
	if sig := in.checkCancel(ctx, s.Pos()); sig != nil {
		return nil, sig
	}
	switch n := s.(type) {
	case *ast.Let:
		v, sig := in.evalExpr(ctx, n.Value, fr)
		if sig != nil {
			return nil, sig
		}
		fr.Define(n.Name, v)
		return value.NullValue, nil
	case *ast.Assign:
		return in.evalAssign(ctx, n, fr)
	case *ast.ExprStmt:
		return in.evalExpr(ctx, n.X, fr)
	case *ast.If:
		return in.evalIf(ctx, n, fr)
	case *ast.While:
		return in.evalWhile(ctx, n, fr)
	case *ast.For:
		return in.evalFor(ctx, n, fr)
	case *ast.Repeat:
		return in.evalRepeat(ctx, n, fr)
	case *ast.Func:
		fn := value.Function{ID: uuid.New(), Name: n.Name, Params: toParams(n.Params), Body: n.Body, Closure: fr}
		fr.Define(n.Name, fn)
		return value.NullValue, nil
	case *ast.Return:
		if n.Value == nil {
			return nil, signal.NewReturn(value.Value(value.NullValue))
		}
		v, sig := in.evalExpr(ctx, n.Value, fr)
		if sig != nil {
			return nil, sig
		}
		return nil, signal.NewReturn(v)
	case *ast.Break:
		return nil, signal.NewBreak()
	case *ast.Continue:
		return nil, signal.NewContinue()
	case *ast.Import:
		return in.evalImport(ctx, n, fr)
	case *ast.Try:
		return in.evalTry(ctx, n, fr)
	case *ast.Raise:
		v, sig := in.evalExpr(ctx, n.Value, fr)
		if sig != nil {
			return nil, sig
		}
		return nil, signal.NewThrow(v)
	case *ast.Class:
		return in.evalClass(ctx, n, fr)
	case *ast.Delete:
		return in.evalDelete(n, fr)
	}
	return nil, signal.NewThrowErr(errors.Newf(errors.ParseError, s.Pos(), "eval: unhandled statement %T", s))
}

func (in *Interp) evalAssign(ctx context.Context, n *ast.Assign, fr *frame.Frame) (value.Value, *signal.Signal) {
	val, sig := in.evalExpr(ctx, n.Value, fr)
	if sig != nil {
		return nil, sig
	}
	switch t := n.Target.(type) {
	case *ast.Identifier:
		if !fr.Assign(t.Name, val) {
			// spec.md §4.3: "create in current frame (implicit global for
			// script scope only; within function bodies this is an
			// error)". fr is only ever the top-level script frame itself
			// when evaluating a statement directly in in.Global; any
			// frame reached through a function call is a descendant of
			// Global via its closure, never Global itself.
			if fr == in.Global {
				fr.Define(t.Name, val)
				return value.NullValue, nil
			}
			return nil, signal.NewThrowErr(errors.Newf(errors.NameError, n.TokPos, "name %q is not defined", t.Name))
		}
		return value.NullValue, nil
	case *ast.Index:
		base, sig := in.evalExpr(ctx, t.X, fr)
		if sig != nil {
			return nil, sig
		}
		idx, sig := in.evalExpr(ctx, t.Idx, fr)
		if sig != nil {
			return nil, sig
		}
		return in.assignIndex(n.TokPos, base, idx, val)
	case *ast.Attr:
		base, sig := in.evalExpr(ctx, t.X, fr)
		if sig != nil {
			return nil, sig
		}
		inst, ok := base.(value.Instance)
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, n.TokPos, "cannot set attribute %q on %s", t.Name, base.Kind()))
		}
		inst.Fields.Set(t.Name, val)
		return value.NullValue, nil
	}
	return nil, signal.NewThrowErr(errors.Newf(errors.ValueError, n.TokPos, "invalid assignment target"))
}

func (in *Interp) assignIndex(pos token.Pos, base, idx, val value.Value) (value.Value, *signal.Signal) {
	switch b := base.(type) {
	case value.List:
		i, ok := idx.(value.Int)
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, pos, "list index must be int, got %s", idx.Kind()))
		}
		elems := *b.Elems
		idx := normalizeIndex(int64(i), len(elems))
		if idx < 0 || idx >= len(elems) {
			return nil, signal.NewThrowErr(errors.Newf(errors.IndexError, pos, "list index %d out of range", i))
		}
		elems[idx] = val
		return value.NullValue, nil
	case value.Dict:
		key, ok := idx.(value.String)
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, pos, "dict key must be string, got %s", idx.Kind()))
		}
		b.Set(string(key), val)
		return value.NullValue, nil
	}
	return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, pos, "%s does not support item assignment", base.Kind()))
}

func (in *Interp) evalIf(ctx context.Context, n *ast.If, fr *frame.Frame) (value.Value, *signal.Signal) {
	cond, sig := in.evalExpr(ctx, n.Cond, fr)
	if sig != nil {
		return nil, sig
	}
	if value.Truthy(cond) {
		return in.evalStmts(ctx, n.Then, fr.Child())
	}
	for _, e := range n.Elifs {
		c, sig := in.evalExpr(ctx, e.Cond, fr)
		if sig != nil {
			return nil, sig
		}
		if value.Truthy(c) {
			return in.evalStmts(ctx, e.Body, fr.Child())
		}
	}
	if n.Else != nil {
		return in.evalStmts(ctx, n.Else, fr.Child())
	}
	return value.NullValue, nil
}

func (in *Interp) evalWhile(ctx context.Context, n *ast.While, fr *frame.Frame) (value.Value, *signal.Signal) {
	for {
		if sig := in.checkCancel(ctx, n.TokPos); sig != nil {
			return nil, sig
		}
		cond, sig := in.evalExpr(ctx, n.Cond, fr)
		if sig != nil {
			return nil, sig
		}
		if !value.Truthy(cond) {
			return value.NullValue, nil
		}
		_, sig = in.evalStmts(ctx, n.Body, fr.Child())
		if sig != nil {
			switch sig.Kind {
			case signal.Break:
				return value.NullValue, nil
			case signal.Continue:
				continue
			default:
				return nil, sig
			}
		}
	}
}

func (in *Interp) evalFor(ctx context.Context, n *ast.For, fr *frame.Frame) (value.Value, *signal.Signal) {
	iter, sig := in.evalExpr(ctx, n.Iter, fr)
	if sig != nil {
		return nil, sig
	}
	items, err := iterate(n.TokPos, iter)
	if err != nil {
		return nil, signal.NewThrowErr(err)
	}
	for _, item := range items {
		if sig := in.checkCancel(ctx, n.TokPos); sig != nil {
			return nil, sig
		}
		child := fr.Child()
		child.Define(n.Var, item)
		_, sig := in.evalStmts(ctx, n.Body, child)
		if sig != nil {
			switch sig.Kind {
			case signal.Break:
				return value.NullValue, nil
			case signal.Continue:
				continue
			default:
				return nil, sig
			}
		}
	}
	return value.NullValue, nil
}

// iterate expands v into the sequence `for` walks: list elements,
// string runes (as one-character strings), or dict keys, per spec.md
// §4.3's "for binds to list elements, string characters, or dict keys".
func iterate(pos token.Pos, v value.Value) ([]value.Value, *errors.Error) {
	switch x := v.(type) {
	case value.List:
		return append([]value.Value(nil), (*x.Elems)...), nil
	case value.String:
		runes := []rune(string(x))
		out := make([]value.Value, len(runes))
		for i, r := range runes {
			out[i] = value.String(string(r))
		}
		return out, nil
	case value.Dict:
		keys := x.Keys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			out[i] = value.String(k)
		}
		return out, nil
	}
	return nil, errors.Newf(errors.TypeError, pos, "%s is not iterable", v.Kind())
}

func (in *Interp) evalRepeat(ctx context.Context, n *ast.Repeat, fr *frame.Frame) (value.Value, *signal.Signal) {
	c, sig := in.evalExpr(ctx, n.Count, fr)
	if sig != nil {
		return nil, sig
	}
	count, ok := c.(value.Int)
	if !ok {
		return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, n.TokPos, "repeat count must be int, got %s", c.Kind()))
	}
	if count < 0 {
		return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, n.TokPos, "repeat count must be non-negative, got %d", int64(count)))
	}
	for i := int64(0); i < int64(count); i++ {
		if sig := in.checkCancel(ctx, n.TokPos); sig != nil {
			return nil, sig
		}
		_, sig := in.evalStmts(ctx, n.Body, fr.Child())
		if sig != nil {
			switch sig.Kind {
			case signal.Break:
				return value.NullValue, nil
			case signal.Continue:
				continue
			default:
				return nil, sig
			}
		}
	}
	return value.NullValue, nil
}

func (in *Interp) evalTry(ctx context.Context, n *ast.Try, fr *frame.Frame) (value.Value, *signal.Signal) {
	_, sig := in.evalStmts(ctx, n.Body, fr.Child())
	if sig != nil && sig.Kind == signal.Throw && n.HasCatch {
		child := fr.Child()
		if n.CatchName != "" {
			child.Define(n.CatchName, throwValue(sig))
		}
		_, catchSig := in.evalStmts(ctx, n.CatchBody, child)
		sig = catchSig
	}
	if n.HasFinally {
		_, finSig := in.evalStmts(ctx, n.FinallyBody, fr.Child())
		if finSig != nil {
			// a finally-block jump overrides whatever try/catch produced,
			// mirroring Python's try/finally precedence.
			return nil, finSig
		}
	}
	if sig != nil {
		return nil, sig
	}
	return value.NullValue, nil
}

func throwValue(sig *signal.Signal) value.Value {
	if sig.Value != nil {
		return sig.Value.(value.Value)
	}
	d := value.NewDict()
	d.Set("kind", value.String(sig.Err.Kind))
	msg, args := sig.Err.Message()
	d.Set("message", value.String(fmt.Sprintf(msg, args...)))
	return d
}

func (in *Interp) evalClass(ctx context.Context, n *ast.Class, fr *frame.Frame) (value.Value, *signal.Signal) {
	cls := &value.Class{ID: uuid.New(), Name: n.Name, Methods: map[string]value.Function{}, Fields: map[string]ast.Expr{}, Closure: fr}
	if n.Extends != "" {
		parentVal, ok := fr.Lookup(n.Extends)
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.NameError, n.TokPos, "name %q is not defined", n.Extends))
		}
		parent, ok := parentVal.(*value.Class)
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, n.TokPos, "%q is not a class", n.Extends))
		}
		cls.Parent = parent
	}
	for _, f := range n.Fields {
		cls.Fields[f.Name] = f.Value
	}
	for _, m := range n.Methods {
		cls.Methods[m.Name] = value.Function{ID: uuid.New(), Name: m.Name, Params: toParams(m.Params), Body: m.Body, Closure: fr, Owner: cls}
	}
	fr.Define(n.Name, cls)
	return value.NullValue, nil
}

func (in *Interp) evalDelete(n *ast.Delete, fr *frame.Frame) (value.Value, *signal.Signal) {
	id, ok := n.Target.(*ast.Identifier)
	if !ok {
		return nil, signal.NewThrowErr(errors.Newf(errors.ValueError, n.TokPos, "delete target must be a name"))
	}
	if !fr.Delete(id.Name) {
		return nil, signal.NewThrowErr(errors.Newf(errors.NameError, n.TokPos, "name %q is not defined", id.Name))
	}
	return value.NullValue, nil
}

func (in *Interp) evalImport(ctx context.Context, n *ast.Import, fr *frame.Frame) (value.Value, *signal.Signal) {
	if in.Importer == nil {
		return nil, signal.NewThrowErr(errors.Newf(errors.ImportError, n.TokPos, "no module loader configured"))
	}
	exports, err := in.Importer.Import(ctx, n.Path, in.File)
	if err != nil {
		return nil, signal.NewThrowErr(errors.Newf(errors.ImportError, n.TokPos, "%v", err))
	}
	mod := value.Module{Path: joinPath(n.Path), Exports: exports}
	switch {
	case n.Wildcard:
		for _, k := range exports.Keys() {
			v, _ := exports.Get(k)
			fr.Define(k, v)
		}
	case len(n.Names) > 0:
		for _, name := range n.Names {
			v, ok := exports.Get(name)
			if !ok {
				return nil, signal.NewThrowErr(errors.Newf(errors.ImportError, n.TokPos, "module %q has no export %q", mod.Path, name))
			}
			fr.Define(name, v)
		}
	default:
		name := n.Alias
		if name == "" {
			name = n.Path[len(n.Path)-1]
		}
		fr.Define(name, mod)
	}
	return value.NullValue, nil
}

func joinPath(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "." + p
	}
	return out
}

func toParams(ps []ast.Param) []value.Param {
	out := make([]value.Param, len(ps))
	for i, p := range ps {
		out[i] = value.Param{Name: p.Name, Default: p.Default}
	}
	return out
}

func normalizeIndex(i int64, n int) int {
	if i < 0 {
		i += int64(n)
	}
	return int(i)
}

// ---------------------------------------------------------------------------
// Expressions

func (in *Interp) evalExpr(ctx context.Context, x ast.Expr, fr *frame.Frame) (value.Value, *signal.Signal) {
	switch n := x.(type) {
	case *ast.Literal:
		return in.evalLiteral(n)
	case *ast.Identifier:
		v, ok := fr.Lookup(n.Name)
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.NameError, n.TokPos, "name %q is not defined", n.Name))
		}
		return v, nil
	case *ast.Self:
		v, ok := fr.Lookup("self")
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.NameError, n.TokPos, "'self' used outside a method"))
		}
		return v, nil
	case *ast.Super:
		return nil, signal.NewThrowErr(errors.Newf(errors.ValueError, n.TokPos, "'super' may only be used as super.method(...)"))
	case *ast.Binary:
		return in.evalBinary(ctx, n, fr)
	case *ast.Unary:
		return in.evalUnary(ctx, n, fr)
	case *ast.Chained:
		return in.evalChained(ctx, n, fr)
	case *ast.Call:
		return in.evalCall(ctx, n, fr)
	case *ast.Index:
		return in.evalIndex(ctx, n, fr)
	case *ast.Slice:
		return in.evalSlice(ctx, n, fr)
	case *ast.Attr:
		return in.evalAttr(ctx, n, fr)
	case *ast.ListLit:
		return in.evalListLit(ctx, n, fr)
	case *ast.DictLit:
		return in.evalDictLit(ctx, n, fr)
	case *ast.Lambda:
		return value.Function{ID: uuid.New(), Params: toParams(n.Params), Expr: n.Body, Closure: fr}, nil
	case *ast.FString:
		return in.evalFString(ctx, n, fr)
	case *ast.Match:
		return in.evalMatch(ctx, n, fr)
	case *ast.Comprehension:
		return in.evalComprehension(ctx, n, fr)
	case *ast.Spread:
		return in.evalExpr(ctx, n.X, fr)
	}
	return nil, signal.NewThrowErr(errors.Newf(errors.ParseError, x.Pos(), "eval: unhandled expression %T", x))
}

func (in *Interp) evalLiteral(n *ast.Literal) (value.Value, *signal.Signal) {
	switch n.Kind {
	case token.TRUE:
		return value.Bool(true), nil
	case token.FALSE:
		return value.Bool(false), nil
	case token.NULL:
		return value.NullValue, nil
	case token.INT:
		i, err := literal.ParseInt(n.Value)
		if err != nil {
			return nil, signal.NewThrowErr(errors.Newf(errors.ValueError, n.TokPos, "invalid integer literal %q", n.Value))
		}
		return value.Int(i), nil
	case token.FLOAT:
		f, err := literal.ParseFloat(n.Value)
		if err != nil {
			return nil, signal.NewThrowErr(errors.Newf(errors.ValueError, n.TokPos, "invalid float literal %q", n.Value))
		}
		return value.Float(f), nil
	case token.STRING:
		s, err := literal.Unquote(n.Value)
		if err != nil {
			return nil, signal.NewThrowErr(errors.Newf(errors.ValueError, n.TokPos, "invalid string literal: %v", err))
		}
		return value.String(s), nil
	}
	return nil, signal.NewThrowErr(errors.Newf(errors.ParseError, n.TokPos, "eval: unknown literal kind"))
}

func (in *Interp) evalListLit(ctx context.Context, n *ast.ListLit, fr *frame.Frame) (value.Value, *signal.Signal) {
	var elems []value.Value
	for i, e := range n.Elems {
		v, sig := in.evalExpr(ctx, e, fr)
		if sig != nil {
			return nil, sig
		}
		if n.Spread[i] {
			items, err := iterate(e.Pos(), v)
			if err != nil {
				return nil, signal.NewThrowErr(err)
			}
			elems = append(elems, items...)
			continue
		}
		elems = append(elems, v)
	}
	return value.NewList(elems), nil
}

func (in *Interp) evalDictLit(ctx context.Context, n *ast.DictLit, fr *frame.Frame) (value.Value, *signal.Signal) {
	d := value.NewDict()
	for i := range n.Keys {
		k, sig := in.evalExpr(ctx, n.Keys[i], fr)
		if sig != nil {
			return nil, sig
		}
		key, ok := k.(value.String)
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, n.TokPos, "dict key must be string, got %s", k.Kind()))
		}
		v, sig := in.evalExpr(ctx, n.Values[i], fr)
		if sig != nil {
			return nil, sig
		}
		d.Set(string(key), v)
	}
	return d, nil
}

func (in *Interp) evalComprehension(ctx context.Context, n *ast.Comprehension, fr *frame.Frame) (value.Value, *signal.Signal) {
	iterV, sig := in.evalExpr(ctx, n.Iter, fr)
	if sig != nil {
		return nil, sig
	}
	items, err := iterate(n.TokPos, iterV)
	if err != nil {
		return nil, signal.NewThrowErr(err)
	}
	if n.IsDict {
		d := value.NewDict()
		for _, item := range items {
			child := fr.Child()
			child.Define(n.Var, item)
			if n.Cond != nil {
				c, sig := in.evalExpr(ctx, n.Cond, child)
				if sig != nil {
					return nil, sig
				}
				if !value.Truthy(c) {
					continue
				}
			}
			k, sig := in.evalExpr(ctx, n.KeyElem, child)
			if sig != nil {
				return nil, sig
			}
			key, ok := k.(value.String)
			if !ok {
				return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, n.TokPos, "dict comprehension key must be string, got %s", k.Kind()))
			}
			v, sig := in.evalExpr(ctx, n.Elem, child)
			if sig != nil {
				return nil, sig
			}
			d.Set(string(key), v)
		}
		return d, nil
	}
	var out []value.Value
	for _, item := range items {
		child := fr.Child()
		child.Define(n.Var, item)
		if n.Cond != nil {
			c, sig := in.evalExpr(ctx, n.Cond, child)
			if sig != nil {
				return nil, sig
			}
			if !value.Truthy(c) {
				continue
			}
		}
		v, sig := in.evalExpr(ctx, n.Elem, child)
		if sig != nil {
			return nil, sig
		}
		out = append(out, v)
	}
	return value.NewList(out), nil
}

func (in *Interp) evalIndex(ctx context.Context, n *ast.Index, fr *frame.Frame) (value.Value, *signal.Signal) {
	base, sig := in.evalExpr(ctx, n.X, fr)
	if sig != nil {
		return nil, sig
	}
	idx, sig := in.evalExpr(ctx, n.Idx, fr)
	if sig != nil {
		return nil, sig
	}
	switch b := base.(type) {
	case value.List:
		i, ok := idx.(value.Int)
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, n.TokPos, "list index must be int, got %s", idx.Kind()))
		}
		elems := *b.Elems
		p := normalizeIndex(int64(i), len(elems))
		if p < 0 || p >= len(elems) {
			return nil, signal.NewThrowErr(errors.Newf(errors.IndexError, n.TokPos, "list index %d out of range", i))
		}
		return elems[p], nil
	case value.String:
		i, ok := idx.(value.Int)
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, n.TokPos, "string index must be int, got %s", idx.Kind()))
		}
		runes := []rune(string(b))
		p := normalizeIndex(int64(i), len(runes))
		if p < 0 || p >= len(runes) {
			return nil, signal.NewThrowErr(errors.Newf(errors.IndexError, n.TokPos, "string index %d out of range", i))
		}
		return value.String(string(runes[p])), nil
	case value.Dict:
		key, ok := idx.(value.String)
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, n.TokPos, "dict key must be string, got %s", idx.Kind()))
		}
		v, ok := b.Get(string(key))
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.KeyError, n.TokPos, "key %q not found", string(key)))
		}
		return v, nil
	}
	return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, n.TokPos, "%s is not subscriptable", base.Kind()))
}

func (in *Interp) evalSlice(ctx context.Context, n *ast.Slice, fr *frame.Frame) (value.Value, *signal.Signal) {
	base, sig := in.evalExpr(ctx, n.X, fr)
	if sig != nil {
		return nil, sig
	}
	length, getAt, build, err := sliceAccessors(n.TokPos, base)
	if err != nil {
		return nil, signal.NewThrowErr(err)
	}
	step := int64(1)
	if n.Step != nil {
		s, sig := in.evalExpr(ctx, n.Step, fr)
		if sig != nil {
			return nil, sig
		}
		i, ok := s.(value.Int)
		if !ok || i == 0 {
			return nil, signal.NewThrowErr(errors.Newf(errors.ValueError, n.TokPos, "slice step must be a nonzero int"))
		}
		step = int64(i)
	}
	low, high := int64(0), int64(length)
	if step < 0 {
		low, high = int64(length)-1, -1
	}
	if n.Low != nil {
		v, sig := in.evalExpr(ctx, n.Low, fr)
		if sig != nil {
			return nil, sig
		}
		i, ok := v.(value.Int)
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, n.TokPos, "slice bound must be int, got %s", v.Kind()))
		}
		low = clampSliceIndex(int64(i), length)
	}
	if n.High != nil {
		v, sig := in.evalExpr(ctx, n.High, fr)
		if sig != nil {
			return nil, sig
		}
		i, ok := v.(value.Int)
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, n.TokPos, "slice bound must be int, got %s", v.Kind()))
		}
		high = clampSliceIndex(int64(i), length)
	}
	var out []value.Value
	if step > 0 {
		for i := low; i < high; i += step {
			out = append(out, getAt(int(i)))
		}
	} else {
		for i := low; i > high; i += step {
			out = append(out, getAt(int(i)))
		}
	}
	return build(out), nil
}

func clampSliceIndex(i int64, n int) int64 {
	if i < 0 {
		i += int64(n)
	}
	if i < 0 {
		return 0
	}
	if i > int64(n) {
		return int64(n)
	}
	return i
}

func sliceAccessors(pos token.Pos, base value.Value) (int, func(int) value.Value, func([]value.Value) value.Value, *errors.Error) {
	switch b := base.(type) {
	case value.List:
		elems := *b.Elems
		return len(elems), func(i int) value.Value { return elems[i] },
			func(vs []value.Value) value.Value { return value.NewList(vs) }, nil
	case value.String:
		runes := []rune(string(b))
		return len(runes), func(i int) value.Value { return value.String(string(runes[i])) },
			func(vs []value.Value) value.Value {
				b := make([]rune, len(vs))
				for i, v := range vs {
					b[i] = []rune(string(v.(value.String)))[0]
				}
				return value.String(string(b))
			}, nil
	}
	return 0, nil, nil, errors.Newf(errors.TypeError, pos, "%s is not sliceable", base.Kind())
}

func (in *Interp) evalAttr(ctx context.Context, n *ast.Attr, fr *frame.Frame) (value.Value, *signal.Signal) {
	base, sig := in.evalExpr(ctx, n.X, fr)
	if sig != nil {
		return nil, sig
	}
	return in.attrOf(n.TokPos, base, n.Name)
}

func (in *Interp) attrOf(pos token.Pos, base value.Value, name string) (value.Value, *signal.Signal) {
	switch b := base.(type) {
	case value.Module:
		v, ok := b.Exports.Get(name)
		if !ok {
			return nil, signal.NewThrowErr(errors.Newf(errors.AttributeError, pos, "module %q has no attribute %q", b.Path, name))
		}
		return v, nil
	case value.Instance:
		if v, ok := b.Fields.Get(name); ok {
			return v, nil
		}
		if m, _, ok := b.Class.LookupMethod(name); ok {
			m.BoundSelf = b
			return m, nil
		}
		return nil, signal.NewThrowErr(errors.Newf(errors.AttributeError, pos, "%q object has no attribute %q", b.Class.Name, name))
	case *value.Class:
		if m, _, ok := b.LookupMethod(name); ok {
			return m, nil
		}
		return nil, signal.NewThrowErr(errors.Newf(errors.AttributeError, pos, "class %q has no attribute %q", b.Name, name))
	}
	return nil, signal.NewThrowErr(errors.Newf(errors.AttributeError, pos, "%s has no attribute %q", base.Kind(), name))
}

func (in *Interp) evalUnary(ctx context.Context, n *ast.Unary, fr *frame.Frame) (value.Value, *signal.Signal) {
	v, sig := in.evalExpr(ctx, n.X, fr)
	if sig != nil {
		return nil, sig
	}
	switch n.Op {
	case token.NOT:
		return value.Bool(!value.Truthy(v)), nil
	case token.SUB:
		switch x := v.(type) {
		case value.Int:
			return -x, nil
		case value.Float:
			return -x, nil
		}
		return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, n.TokPos, "unary '-' not supported for %s", v.Kind()))
	}
	return nil, signal.NewThrowErr(errors.Newf(errors.ParseError, n.TokPos, "eval: unknown unary operator"))
}

func (in *Interp) evalChained(ctx context.Context, n *ast.Chained, fr *frame.Frame) (value.Value, *signal.Signal) {
	operands := make([]value.Value, len(n.Operands))
	for i, o := range n.Operands {
		v, sig := in.evalExpr(ctx, o, fr)
		if sig != nil {
			return nil, sig
		}
		operands[i] = v
	}
	for i, op := range n.Ops {
		ok, err := compare(n.TokPos, op, operands[i], operands[i+1])
		if err != nil {
			return nil, signal.NewThrowErr(err)
		}
		if !ok {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func (in *Interp) evalBinary(ctx context.Context, n *ast.Binary, fr *frame.Frame) (value.Value, *signal.Signal) {
	if n.Op == token.AND {
		x, sig := in.evalExpr(ctx, n.X, fr)
		if sig != nil {
			return nil, sig
		}
		if !value.Truthy(x) {
			return x, nil
		}
		return in.evalExpr(ctx, n.Y, fr)
	}
	if n.Op == token.OR {
		x, sig := in.evalExpr(ctx, n.X, fr)
		if sig != nil {
			return nil, sig
		}
		if value.Truthy(x) {
			return x, nil
		}
		return in.evalExpr(ctx, n.Y, fr)
	}
	x, sig := in.evalExpr(ctx, n.X, fr)
	if sig != nil {
		return nil, sig
	}
	y, sig := in.evalExpr(ctx, n.Y, fr)
	if sig != nil {
		return nil, sig
	}
	if comparisonOp(n.Op) {
		ok, err := compare(n.TokPos, n.Op, x, y)
		if err != nil {
			return nil, signal.NewThrowErr(err)
		}
		return value.Bool(ok), nil
	}
	v, err := arith(n.TokPos, n.Op, x, y)
	if err != nil {
		return nil, signal.NewThrowErr(err)
	}
	return v, nil
}

func comparisonOp(op token.Token) bool {
	switch op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ, token.IN:
		return true
	}
	return false
}

func compare(pos token.Pos, op token.Token, x, y value.Value) (bool, *errors.Error) {
	if op == token.EQL {
		return value.Equal(x, y), nil
	}
	if op == token.NEQ {
		return !value.Equal(x, y), nil
	}
	if op == token.IN {
		return containment(x, y)
	}
	a, aok := numeric(x)
	b, bok := numeric(y)
	if aok && bok {
		switch op {
		case token.LSS:
			return a < b, nil
		case token.LEQ:
			return a <= b, nil
		case token.GTR:
			return a > b, nil
		case token.GEQ:
			return a >= b, nil
		}
	}
	xs, xok := x.(value.String)
	ys, yok := y.(value.String)
	if xok && yok {
		switch op {
		case token.LSS:
			return xs < ys, nil
		case token.LEQ:
			return xs <= ys, nil
		case token.GTR:
			return xs > ys, nil
		case token.GEQ:
			return xs >= ys, nil
		}
	}
	return false, errors.Newf(errors.TypeError, pos, "unsupported comparison between %s and %s", x.Kind(), y.Kind())
}

func containment(needle, haystack value.Value) (bool, *errors.Error) {
	switch h := haystack.(type) {
	case value.List:
		for _, e := range *h.Elems {
			if value.Equal(needle, e) {
				return true, nil
			}
		}
		return false, nil
	case value.String:
		s, ok := needle.(value.String)
		if !ok {
			return false, errors.Newf(errors.TypeError, token.NoPos, "'in' on string requires a string operand")
		}
		return indexOfSubstring(string(h), string(s)) >= 0, nil
	case value.Dict:
		key, ok := needle.(value.String)
		if !ok {
			return false, nil
		}
		_, found := h.Get(string(key))
		return found, nil
	}
	return false, errors.Newf(errors.TypeError, token.NoPos, "%s is not a container for 'in'", haystack.Kind())
}

func indexOfSubstring(s, sub string) int {
	if len(sub) == 0 {
		return 0
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func numeric(v value.Value) (float64, bool) {
	switch x := v.(type) {
	case value.Int:
		return float64(x), true
	case value.Float:
		return float64(x), true
	}
	return 0, false
}

func arith(pos token.Pos, op token.Token, x, y value.Value) (value.Value, *errors.Error) {
	if op == token.ADD {
		if xs, ok := x.(value.String); ok {
			ys, ok := y.(value.String)
			if !ok {
				return nil, errors.Newf(errors.TypeError, pos, "cannot concatenate string with %s", y.Kind())
			}
			return xs + ys, nil
		}
		if xl, ok := x.(value.List); ok {
			yl, ok := y.(value.List)
			if !ok {
				return nil, errors.Newf(errors.TypeError, pos, "cannot concatenate list with %s", y.Kind())
			}
			out := append(append([]value.Value(nil), (*xl.Elems)...), (*yl.Elems)...)
			return value.NewList(out), nil
		}
	}
	if op == token.MUL {
		if xs, ok := x.(value.String); ok {
			n, ok := y.(value.Int)
			if !ok {
				return nil, errors.Newf(errors.TypeError, pos, "string repeat count must be int, got %s", y.Kind())
			}
			return repeatString(pos, xs, int64(n))
		}
		if xl, ok := x.(value.List); ok {
			n, ok := y.(value.Int)
			if !ok {
				return nil, errors.Newf(errors.TypeError, pos, "list repeat count must be int, got %s", y.Kind())
			}
			return repeatList(pos, xl, int64(n))
		}
	}
	xi, xIsInt := x.(value.Int)
	yi, yIsInt := y.(value.Int)
	if xIsInt && yIsInt {
		return intArith(pos, op, xi, yi)
	}
	xf, xok := numeric(x)
	yf, yok := numeric(y)
	if !xok || !yok {
		return nil, errors.Newf(errors.TypeError, pos, "unsupported operand types for %s: %s and %s", op, x.Kind(), y.Kind())
	}
	return floatArith(pos, op, xf, yf)
}

// repeatString/repeatList implement spec.md's resolved open question: a
// negative repeat count is a TypeError rather than silently yielding an
// empty result.
func repeatString(pos token.Pos, s value.String, n int64) (value.Value, *errors.Error) {
	if n < 0 {
		return nil, errors.Newf(errors.TypeError, pos, "repeat count must be non-negative, got %d", n)
	}
	out := ""
	for i := int64(0); i < n; i++ {
		out += string(s)
	}
	return value.String(out), nil
}

func repeatList(pos token.Pos, l value.List, n int64) (value.Value, *errors.Error) {
	if n < 0 {
		return nil, errors.Newf(errors.TypeError, pos, "repeat count must be non-negative, got %d", n)
	}
	var out []value.Value
	for i := int64(0); i < n; i++ {
		out = append(out, (*l.Elems)...)
	}
	return value.NewList(out), nil
}

func intArith(pos token.Pos, op token.Token, x, y value.Int) (value.Value, *errors.Error) {
	switch op {
	case token.ADD:
		return x + y, nil
	case token.SUB:
		return x - y, nil
	case token.MUL:
		return x * y, nil
	case token.QUO:
		if y == 0 {
			return nil, errors.Newf(errors.ZeroDivisionError, pos, "division by zero")
		}
		return value.Float(float64(x) / float64(y)), nil
	case token.IQUO:
		if y == 0 {
			return nil, errors.Newf(errors.ZeroDivisionError, pos, "integer division by zero")
		}
		return value.Int(floorDivInt(int64(x), int64(y))), nil
	case token.REM:
		if y == 0 {
			return nil, errors.Newf(errors.ZeroDivisionError, pos, "modulo by zero")
		}
		return value.Int(floorModInt(int64(x), int64(y))), nil
	case token.POW:
		return value.Float(math.Pow(float64(x), float64(y))), nil
	}
	return nil, errors.Newf(errors.ParseError, pos, "eval: unknown arithmetic operator %s", op)
}

func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorModInt(a, b int64) int64 {
	m := a % b
	if m != 0 && ((a < 0) != (b < 0)) {
		m += b
	}
	return m
}

func floatArith(pos token.Pos, op token.Token, x, y float64) (value.Value, *errors.Error) {
	switch op {
	case token.ADD:
		return value.Float(x + y), nil
	case token.SUB:
		return value.Float(x - y), nil
	case token.MUL:
		return value.Float(x * y), nil
	case token.QUO:
		if y == 0 {
			return nil, errors.Newf(errors.ZeroDivisionError, pos, "division by zero")
		}
		return value.Float(x / y), nil
	case token.IQUO:
		if y == 0 {
			return nil, errors.Newf(errors.ZeroDivisionError, pos, "integer division by zero")
		}
		return value.Float(math.Floor(x / y)), nil
	case token.REM:
		if y == 0 {
			return nil, errors.Newf(errors.ZeroDivisionError, pos, "modulo by zero")
		}
		m := math.Mod(x, y)
		if m != 0 && ((x < 0) != (y < 0)) {
			m += y
		}
		return value.Float(m), nil
	case token.POW:
		return value.Float(math.Pow(x, y)), nil
	}
	return nil, errors.Newf(errors.ParseError, pos, "eval: unknown arithmetic operator %s", op)
}

func (in *Interp) evalMatch(ctx context.Context, n *ast.Match, fr *frame.Frame) (value.Value, *signal.Signal) {
	subj, sig := in.evalExpr(ctx, n.Subject, fr)
	if sig != nil {
		return nil, sig
	}
	for _, c := range n.Cases {
		if c.Wildcard {
			return in.evalExpr(ctx, c.Body, fr)
		}
		for _, pat := range c.Patterns {
			pv, sig := in.evalExpr(ctx, pat, fr)
			if sig != nil {
				return nil, sig
			}
			if value.Equal(subj, pv) {
				return in.evalExpr(ctx, c.Body, fr)
			}
		}
	}
	return nil, signal.NewThrowErr(errors.Newf(errors.ValueError, n.TokPos, "no match case matched %s", value.Repr(subj)))
}
