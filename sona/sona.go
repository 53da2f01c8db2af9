// Package sona is Sona's embedding API: the single entry point host Go
// programs use to run Sona source, evaluate REPL expressions, and
// register native functions and modules. Grounded on cue/context.go and
// cue/build.go: a Context/Runtime pair that owns configuration and
// caches, with constructor options shaping behavior (cue.Context,
// cue.Runtime's BuildInstance), generalized to spec.md §6's
// Context/Interpreter/Config embedding surface.
package sona

import (
	"context"

	"github.com/Bryantad/Sona-sub003/ast"
	"github.com/Bryantad/Sona-sub003/builtins"
	"github.com/Bryantad/Sona-sub003/eval"
	"github.com/Bryantad/Sona-sub003/internal/frame"
	"github.com/Bryantad/Sona-sub003/internal/value"
	"github.com/Bryantad/Sona-sub003/module"
	"github.com/Bryantad/Sona-sub003/parser"
	"github.com/Bryantad/Sona-sub003/typecheck"
)

// Config shapes a Context's behavior; the zero Config is a usable
// default (stdout/stdin streams, type-checking off, no extra search
// paths).
type Config struct {
	IO              *builtins.IO
	SearchPaths     []string
	ProjectRoot     string
	TypeCheck       typecheck.Mode
	TypeCheckIgnore []string // glob patterns, forwarded to typecheck.Config.Exclude
}

// Context is one independently configured Sona runtime: its own global
// frame, builtins, and module loader. Multiple Contexts never share
// state, mirroring cue.Context's isolation.
type Context struct {
	cfg      Config
	global   *frame.Frame
	loader   *module.Loader
	interp   *eval.Interp
	lastFile *ast.File // set by Load, consumed by Interpreter.Run
}

// New constructs a Context from cfg, installing builtins into a fresh
// global frame and wiring a module loader that runs imported files
// through this Context's own evaluator.
func New(cfg Config) *Context {
	if cfg.IO == nil {
		cfg.IO = builtins.DefaultIO()
	}
	c := &Context{cfg: cfg, global: frame.New()}
	c.interp = eval.New(c.global, nil, "")
	builtins.Install(c.global, cfg.IO, c.callValue)
	c.loader = module.New(c.interp, cfg.SearchPaths, cfg.ProjectRoot)
	c.interp.Importer = c.loader
	return c
}

// callValue lets builtins (map/filter/sorted's key function) invoke a
// Sona function value without package builtins importing package eval.
func (c *Context) callValue(fn value.Value, args []value.Value) (value.Value, error) {
	return c.interp.CallValue(context.Background(), fn, args)
}

// RegisterNative installs a host-implemented Go function under name,
// visible to Sona code the same way a builtin is (spec.md §8 scenario
// 5: "host function registration").
func (c *Context) RegisterNative(name string, fn func(args []value.Value) (value.Value, error)) {
	c.global.Define(name, value.Native{Name: name, Fn: value.NativeFn(fn)})
}

// RegisterModule installs a host-implemented module under path, taking
// priority over any on-disk module of the same name.
func (c *Context) RegisterModule(path string, exports map[string]value.Value) {
	d := value.NewDict()
	for k, v := range exports {
		d.Set(k, v)
	}
	c.loader.RegisterNative(path, d)
}

// Interpreter runs one source file against a Context.
type Interpreter struct {
	ctx      *Context
	filename string
}

// Load parses src, optionally type-checks it per the Context's Config,
// and returns an Interpreter ready to Run it.
func (c *Context) Load(filename string, src []byte) (*Interpreter, error) {
	f, err := parser.ParseFile(filename, src)
	if err != nil {
		return nil, err
	}
	if c.cfg.TypeCheck != typecheck.Off {
		diags := typecheck.Check(filename, f, typecheck.Config{Mode: c.cfg.TypeCheck, Exclude: c.cfg.TypeCheckIgnore}, builtinNames)
		if len(diags) > 0 && c.cfg.TypeCheck == typecheck.Enforce {
			return nil, diags
		}
	}
	c.interp.File = filename
	c.lastFile = f
	return &Interpreter{ctx: c, filename: filename}, nil
}

// RunSource parses and evaluates src in one call, the common case for
// running a script file (spec.md §8 scenario 1).
func (c *Context) RunSource(ctx context.Context, filename string, src []byte) error {
	interp, err := c.Load(filename, src)
	if err != nil {
		return err
	}
	return interp.Run(ctx)
}

// Run evaluates every top-level statement of the loaded file.
func (in *Interpreter) Run(ctx context.Context) error {
	return in.ctx.interp.Run(ctx, in.ctx.lastFile)
}

// WatchModulePaths starts watching the Context's configured search paths
// for on-disk changes (SPEC_FULL.md §4.7's opt-in hot-reload), calling
// onInvalidate whenever a cached module's resolved source file changes.
// The returned stop function should be deferred by the caller.
func (c *Context) WatchModulePaths(onInvalidate func(path string)) (stop func() error, err error) {
	return c.loader.WatchModulePaths(onInvalidate)
}

// EvalREPL parses and evaluates a single expression against the
// Context's persistent global frame, so bindings made by one call are
// visible to the next (spec.md §6 EvalREPL).
func (c *Context) EvalREPL(ctx context.Context, line string) (value.Value, error) {
	x, err := parser.ParseExpr("<repl>", []byte(line))
	if err != nil {
		return nil, err
	}
	return c.interp.Eval(ctx, x, c.global)
}

var builtinNames = []string{
	"print", "input", "int", "float", "str", "bool", "type", "len",
	"range", "enumerate", "abs", "min", "max", "round", "sum",
	"sorted", "map", "filter", "keys", "values", "append", "raise",
	"repr", "dump", "pretty",
}
