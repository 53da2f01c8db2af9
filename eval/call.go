package eval

import (
	"context"

	"github.com/google/uuid"

	"github.com/Bryantad/Sona-sub003/ast"
	"github.com/Bryantad/Sona-sub003/errors"
	"github.com/Bryantad/Sona-sub003/internal/frame"
	"github.com/Bryantad/Sona-sub003/internal/signal"
	"github.com/Bryantad/Sona-sub003/internal/value"
	"github.com/Bryantad/Sona-sub003/token"
)

// CallValue invokes fn with args from outside the evaluator (package
// builtins' sorted/map/filter, and the embedding API's host-to-Sona
// calls), translating a leaked Throw signal into a plain error the same
// way Run does.
func (in *Interp) CallValue(ctx context.Context, fn value.Value, args []value.Value) (value.Value, error) {
	v, sig := in.call(ctx, token.NoPos, fn, args)
	if sig != nil {
		return nil, in.signalToErr(sig)
	}
	return v, nil
}

func (in *Interp) evalCall(ctx context.Context, n *ast.Call, fr *frame.Frame) (value.Value, *signal.Signal) {
	if sup, ok := n.Fn.(*ast.Attr); ok {
		if _, isSuper := sup.X.(*ast.Super); isSuper {
			return in.evalSuperCall(ctx, n, sup, fr)
		}
	}
	fn, sig := in.evalExpr(ctx, n.Fn, fr)
	if sig != nil {
		return nil, sig
	}
	args, sig := in.evalArgs(ctx, n, fr)
	if sig != nil {
		return nil, sig
	}
	return in.call(ctx, n.TokPos, fn, args)
}

func (in *Interp) evalArgs(ctx context.Context, n *ast.Call, fr *frame.Frame) ([]value.Value, *signal.Signal) {
	var args []value.Value
	for i, a := range n.Args {
		v, sig := in.evalExpr(ctx, a, fr)
		if sig != nil {
			return nil, sig
		}
		if n.Spread[i] {
			items, err := iterate(a.Pos(), v)
			if err != nil {
				return nil, signal.NewThrowErr(err)
			}
			args = append(args, items...)
			continue
		}
		args = append(args, v)
	}
	return args, nil
}

// evalSuperCall dispatches super.method(...) to the method resolution
// order starting just past the defining method's Owner class, binding
// self to the current instance (spec.md's supplemented single-
// inheritance `super` semantics).
func (in *Interp) evalSuperCall(ctx context.Context, call *ast.Call, attr *ast.Attr, fr *frame.Frame) (value.Value, *signal.Signal) {
	selfV, ok := fr.Lookup("self")
	if !ok {
		return nil, signal.NewThrowErr(errors.Newf(errors.ValueError, call.TokPos, "'super' used outside a method"))
	}
	ownerV, ok := fr.Lookup("__owner__")
	if !ok {
		return nil, signal.NewThrowErr(errors.Newf(errors.ValueError, call.TokPos, "'super' used outside a method"))
	}
	owner := ownerV.(*value.Class)
	if owner.Parent == nil {
		return nil, signal.NewThrowErr(errors.Newf(errors.AttributeError, call.TokPos, "class %q has no parent", owner.Name))
	}
	m, _, found := owner.Parent.LookupMethod(attr.Name)
	if !found {
		return nil, signal.NewThrowErr(errors.Newf(errors.AttributeError, call.TokPos, "parent of %q has no method %q", owner.Name, attr.Name))
	}
	m.BoundSelf = selfV
	args, sig := in.evalArgs(ctx, call, fr)
	if sig != nil {
		return nil, sig
	}
	return in.call(ctx, call.TokPos, m, args)
}

// call dispatches on fn's dynamic type: a user Function (pushing a new
// call frame), a Native builtin, or a Class (constructing an Instance).
func (in *Interp) call(ctx context.Context, pos token.Pos, fn value.Value, args []value.Value) (value.Value, *signal.Signal) {
	switch f := fn.(type) {
	case value.Function:
		return in.callFunction(ctx, pos, f, args)
	case value.Native:
		v, err := f.Fn(args)
		if err != nil {
			if se, ok := err.(*errors.Error); ok {
				return nil, signal.NewThrowErr(se)
			}
			return nil, signal.NewThrowErr(errors.Newf(errors.UserError, pos, "%v", err))
		}
		return v, nil
	case *value.Class:
		return in.instantiate(ctx, pos, f, args)
	}
	return nil, signal.NewThrowErr(errors.Newf(errors.TypeError, pos, "%s is not callable", fn.Kind()))
}

func (in *Interp) callFunction(ctx context.Context, pos token.Pos, f value.Function, args []value.Value) (value.Value, *signal.Signal) {
	in.callDepth++
	defer func() { in.callDepth-- }()
	if in.callDepth > maxCallDepth {
		return nil, signal.NewThrowErr(errors.Newf(errors.ValueError, pos, "maximum recursion depth exceeded"))
	}
	closure, _ := f.Closure.(*frame.Frame)
	call := closure.Child()
	if f.BoundSelf != nil {
		call.Define("self", f.BoundSelf)
		if f.Owner != nil {
			call.Define("__owner__", f.Owner)
		}
	}
	if sig := in.bindParams(ctx, pos, f.Params, args, call); sig != nil {
		return nil, sig
	}
	if f.Expr != nil {
		return in.evalExpr(ctx, f.Expr, call)
	}
	_, sig := in.evalStmts(ctx, f.Body, call)
	if sig == nil {
		return value.NullValue, nil
	}
	if sig.Kind == signal.Return {
		return sig.Value.(value.Value), nil
	}
	return nil, sig
}

// bindParams implements spec.md §4.3's argument binding: positional by
// order, defaults evaluated in the function's own closure when omitted,
// and an ArityError for too many/too few arguments without defaults.
func (in *Interp) bindParams(ctx context.Context, pos token.Pos, params []value.Param, args []value.Value, call *frame.Frame) *signal.Signal {
	required := 0
	for _, p := range params {
		if p.Default == nil {
			required++
		}
	}
	if len(args) < required || len(args) > len(params) {
		return signal.NewThrowErr(errors.Newf(errors.ArityError, pos, "expected %d to %d arguments, got %d", required, len(params), len(args)))
	}
	for i, p := range params {
		if i < len(args) {
			call.Define(p.Name, args[i])
			continue
		}
		v, sig := in.evalExpr(ctx, p.Default, call)
		if sig != nil {
			return sig
		}
		call.Define(p.Name, v)
	}
	return nil
}

// instantiate constructs a new Instance of cls: default field values are
// evaluated in a frame where `self` is already bound (so one field's
// default may reference another), then `init`, if defined, is called.
func (in *Interp) instantiate(ctx context.Context, pos token.Pos, cls *value.Class, args []value.Value) (value.Value, *signal.Signal) {
	fields := value.NewDict()
	inst := value.Instance{ID: uuid.New(), Class: cls, Fields: &fields}
	for _, c := range classChain(cls) {
		closure, _ := c.Closure.(*frame.Frame)
		initFrame := closure.Child()
		initFrame.Define("self", inst)
		for name, def := range c.Fields {
			v, sig := in.evalExpr(ctx, def, initFrame)
			if sig != nil {
				return nil, sig
			}
			fields.Set(name, v)
		}
	}
	if m, owner, ok := cls.LookupMethod("init"); ok {
		m.BoundSelf = inst
		m.Owner = owner
		if _, sig := in.callFunction(ctx, pos, m, args); sig != nil {
			return nil, sig
		}
	}
	return inst, nil
}

// classChain returns cls's ancestors from the root down to cls itself,
// so base-class field defaults populate before derived-class ones.
func classChain(cls *value.Class) []*value.Class {
	var chain []*value.Class
	for c := cls; c != nil; c = c.Parent {
		chain = append([]*value.Class{c}, chain...)
	}
	return chain
}
