package eval

import (
	"context"

	"github.com/Bryantad/Sona-sub003/ast"
	"github.com/Bryantad/Sona-sub003/internal/frame"
)

// RunModule evaluates a freshly parsed file in its own frame (a child of
// the shared global so builtins stay visible, but isolated from other
// modules' top-level bindings), returning that frame so the caller
// (package module) can harvest its names as the module's exports.
// onStart, if non-nil, is called with modFrame before any statement
// runs, so module.Loader can register it as the in-progress frame an
// import cycle's reentrant Import call reads a partial namespace from.
// Implements module.Evaluator.
func (in *Interp) RunModule(ctx context.Context, f *ast.File, filename string, onStart func(*frame.Frame)) (*frame.Frame, error) {
	modFrame := in.Global.Child()
	if onStart != nil {
		onStart(modFrame)
	}
	sub := &Interp{Global: in.Global, Importer: in.Importer, File: filename}
	_, sig := sub.evalStmts(ctx, f.Stmts, modFrame)
	if sig != nil {
		return nil, sub.signalToErr(sig)
	}
	return modFrame, nil
}
