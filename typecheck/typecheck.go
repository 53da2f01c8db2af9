// Package typecheck implements Sona's optional static pre-pass: a
// best-effort walk of the AST that flags names it can prove are
// undefined before the evaluator ever runs, per spec.md's supplemented
// "off/warn/enforce" type-check layer. Grounded on cue/internal/core/adt's
// closedness-checking pass (a Vertex walk that accumulates Bottom
// diagnostics without halting the walk) and on opal-lang-opal's
// diagnostic-collection style, generalized to a single NameError-shaped
// diagnostic list with glob-based file exclusion and fuzzy suggestions.
package typecheck

import (
	"path/filepath"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/Bryantad/Sona-sub003/ast"
	"github.com/Bryantad/Sona-sub003/errors"
	"github.com/Bryantad/Sona-sub003/token"
)

// Mode controls how diagnostics are reported (spec.md's supplemented
// open question: off performs no analysis at all, warn collects
// diagnostics without failing the run, enforce turns them into a load
// error before evaluation starts).
type Mode int

const (
	Off Mode = iota
	Warn
	Enforce
)

func ParseMode(s string) Mode {
	switch s {
	case "warn":
		return Warn
	case "enforce":
		return Enforce
	}
	return Off
}

// Config controls which files are checked and how.
type Config struct {
	Mode    Mode
	Exclude []string // glob patterns (path/filepath.Match syntax) for files to skip
}

func (c Config) excluded(filename string) bool {
	for _, pat := range c.Exclude {
		if ok, _ := filepath.Match(pat, filename); ok {
			return true
		}
	}
	return false
}

// scope is a compile-time stand-in for frame.Frame: a chain of name
// sets built up as the checker descends into blocks, functions, and
// comprehensions, mirroring the nesting the evaluator's frame.Frame
// chain will have at runtime.
type scope struct {
	parent *scope
	names  map[string]bool
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, names: map[string]bool{}}
}

func (s *scope) define(name string) { s.names[name] = true }

func (s *scope) has(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.names[name] {
			return true
		}
	}
	return false
}

// allNames collects every name visible from s outward, for fuzzy
// "did you mean" suggestions.
func (s *scope) allNames() []string {
	var out []string
	for cur := s; cur != nil; cur = cur.parent {
		for n := range cur.names {
			out = append(out, n)
		}
	}
	return out
}

// Check walks f and returns the NameError diagnostics it can prove:
// references to identifiers that are not builtins, globals, or bound by
// any enclosing let/param/for/function/class in the file, scoped the
// same way the evaluator's frame chain scopes them. Imports bind the
// same names the evaluator binds for them, except that the names a
// `from X import *` brings in are unknown here and references to them
// are reported; attribute names and dict keys are not checked, and
// f-string expressions are checked like any other expression. spec.md's Non-goals
// exclude whole-program type inference, so only name resolution is
// checked here.
func Check(filename string, f *ast.File, cfg Config, builtins []string) errors.List {
	if cfg.Mode == Off || cfg.excluded(filename) {
		return nil
	}
	c := &checker{diags: errors.List{}}
	root := newScope(nil)
	for _, b := range builtins {
		root.define(b)
	}
	c.checkStmts(f.Stmts, root)
	c.diags.Sort()
	return c.diags
}

type checker struct {
	diags errors.List
}

func (c *checker) checkStmts(stmts []ast.Stmt, s *scope) {
	// pre-declare function/class names so forward references and
	// mutual recursion at the same block level resolve, matching the
	// evaluator's two-phase feel (a `let`/`func`/`class` statement
	// defines its name at the point it runs, but siblings within the
	// same block are common enough to special-case here).
	for _, stmt := range stmts {
		switch n := stmt.(type) {
		case *ast.Func:
			s.define(n.Name)
		case *ast.Class:
			s.define(n.Name)
		}
	}
	for _, stmt := range stmts {
		c.checkStmt(stmt, s)
	}
}

func (c *checker) checkStmt(stmt ast.Stmt, s *scope) {
	switch n := stmt.(type) {
	case *ast.Let:
		c.checkExpr(n.Value, s)
		s.define(n.Name)
	case *ast.Assign:
		c.checkExpr(n.Value, s)
		c.checkExpr(n.Target, s)
	case *ast.ExprStmt:
		c.checkExpr(n.X, s)
	case *ast.If:
		c.checkExpr(n.Cond, s)
		c.checkStmts(n.Then, newScope(s))
		for _, e := range n.Elifs {
			c.checkExpr(e.Cond, s)
			c.checkStmts(e.Body, newScope(s))
		}
		if n.Else != nil {
			c.checkStmts(n.Else, newScope(s))
		}
	case *ast.While:
		c.checkExpr(n.Cond, s)
		c.checkStmts(n.Body, newScope(s))
	case *ast.For:
		c.checkExpr(n.Iter, s)
		body := newScope(s)
		body.define(n.Var)
		c.checkStmts(n.Body, body)
	case *ast.Repeat:
		c.checkExpr(n.Count, s)
		c.checkStmts(n.Body, newScope(s))
	case *ast.Func:
		c.checkFunc(n.Params, n.Body, nil, s)
	case *ast.Return:
		if n.Value != nil {
			c.checkExpr(n.Value, s)
		}
	case *ast.Raise:
		c.checkExpr(n.Value, s)
	case *ast.Try:
		c.checkStmts(n.Body, newScope(s))
		if n.HasCatch {
			cs := newScope(s)
			if n.CatchName != "" {
				cs.define(n.CatchName)
			}
			c.checkStmts(n.CatchBody, cs)
		}
		if n.HasFinally {
			c.checkStmts(n.FinallyBody, newScope(s))
		}
	case *ast.Class:
		cs := newScope(s)
		cs.define("self")
		for _, fld := range n.Fields {
			c.checkExpr(fld.Value, cs)
		}
		for _, m := range n.Methods {
			c.checkFunc(m.Params, m.Body, nil, cs)
		}
	case *ast.Delete:
		c.checkExpr(n.Target, s)
	case *ast.Import:
		switch {
		case len(n.Names) > 0:
			for _, name := range n.Names {
				s.define(name)
			}
		case !n.Wildcard:
			name := n.Alias
			if name == "" {
				name = n.Path[len(n.Path)-1]
			}
			s.define(name)
		}
	case *ast.Break, *ast.Continue:
		// no names to resolve
	}
}

func (c *checker) checkFunc(params []ast.Param, body []ast.Stmt, exprBody ast.Expr, s *scope) {
	fs := newScope(s)
	for _, p := range params {
		if p.Default != nil {
			c.checkExpr(p.Default, s)
		}
		fs.define(p.Name)
	}
	if exprBody != nil {
		c.checkExpr(exprBody, fs)
		return
	}
	c.checkStmts(body, fs)
}

func (c *checker) checkExpr(x ast.Expr, s *scope) {
	switch n := x.(type) {
	case *ast.Identifier:
		if !s.has(n.Name) {
			c.reportUndefined(n.TokPos, n.Name, s)
		}
	case *ast.Binary:
		c.checkExpr(n.X, s)
		c.checkExpr(n.Y, s)
	case *ast.Unary:
		c.checkExpr(n.X, s)
	case *ast.Chained:
		for _, o := range n.Operands {
			c.checkExpr(o, s)
		}
	case *ast.Call:
		c.checkExpr(n.Fn, s)
		for _, a := range n.Args {
			c.checkExpr(a, s)
		}
	case *ast.Index:
		c.checkExpr(n.X, s)
		c.checkExpr(n.Idx, s)
	case *ast.Slice:
		c.checkExpr(n.X, s)
	case *ast.Attr:
		c.checkExpr(n.X, s)
	case *ast.ListLit:
		for _, e := range n.Elems {
			c.checkExpr(e, s)
		}
	case *ast.DictLit:
		for _, v := range n.Values {
			c.checkExpr(v, s)
		}
	case *ast.Lambda:
		c.checkFunc(n.Params, nil, n.Body, s)
	case *ast.FString:
		for _, e := range n.Exprs {
			c.checkExpr(e, s)
		}
	case *ast.Match:
		c.checkExpr(n.Subject, s)
		for _, cs := range n.Cases {
			for _, p := range cs.Patterns {
				c.checkExpr(p, s)
			}
			c.checkExpr(cs.Body, s)
		}
	case *ast.Comprehension:
		c.checkExpr(n.Iter, s)
		body := newScope(s)
		body.define(n.Var)
		if n.Cond != nil {
			c.checkExpr(n.Cond, body)
		}
		c.checkExpr(n.Elem, body)
		if n.KeyElem != nil {
			c.checkExpr(n.KeyElem, body)
		}
	case *ast.Spread:
		c.checkExpr(n.X, s)
	case *ast.Self, *ast.Super, *ast.Literal:
		// nothing to resolve
	}
}

// reportUndefined records a NameError diagnostic, appending a "did you
// mean" suggestion when a visible name is a close edit-distance match
// (spec.md's supplemented fuzzy-suggestion feature).
func (c *checker) reportUndefined(pos token.Pos, name string, s *scope) {
	candidates := s.allNames()
	sort.Strings(candidates)
	if best := closestMatch(name, candidates); best != "" {
		c.diags = append(c.diags, errors.Newf(errors.NameError, pos, "name %q is not defined (did you mean %q?)", name, best))
		return
	}
	c.diags = append(c.diags, errors.Newf(errors.NameError, pos, "name %q is not defined", name))
}

// closestMatch returns the candidate with the smallest edit distance to
// name, if that distance is at most 2.
func closestMatch(name string, candidates []string) string {
	best, bestDist := "", 3
	for _, cand := range candidates {
		if d := fuzzy.LevenshteinDistance(name, cand); d < bestDist {
			best, bestDist = cand, d
		}
	}
	return best
}
