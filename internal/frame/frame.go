// Package frame implements Sona's lexical scope chain. Grounded on
// internal/core/adt.Environment{Up *Environment, Vertex *Vertex}: a
// Frame holds its own bindings plus a pointer to its enclosing Frame,
// and name resolution walks that chain outward (spec.md §4.3's "a name
// resolves to the nearest enclosing frame that defines it").
package frame

import "github.com/Bryantad/Sona-sub003/internal/value"

// Frame is one lexical scope: the module/global frame, a function call
// frame, or a block frame introduced by if/while/for/try.
type Frame struct {
	Parent *Frame
	vars   map[string]value.Value
}

// New creates a root frame with no parent (the module-level frame).
func New() *Frame {
	return &Frame{vars: make(map[string]value.Value)}
}

// Child creates a new frame nested inside f, used for function calls and
// block scopes.
func (f *Frame) Child() *Frame {
	return &Frame{Parent: f, vars: make(map[string]value.Value)}
}

// Define binds name in f itself, shadowing (and per spec.md §4.3,
// replacing if already present in this exact frame) any outer binding.
func (f *Frame) Define(name string, v value.Value) {
	f.vars[name] = v
}

// Lookup resolves name by walking f and its ancestors outward.
func (f *Frame) Lookup(name string) (value.Value, bool) {
	for cur := f; cur != nil; cur = cur.Parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Assign updates name in the nearest frame (f or an ancestor) that
// already defines it, per spec.md §4.3's assignment semantics. It
// reports false if no such frame exists, so the caller can raise
// NameError.
func (f *Frame) Assign(name string, v value.Value) bool {
	for cur := f; cur != nil; cur = cur.Parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = v
			return true
		}
	}
	return false
}

// Has reports whether name is bound in f itself, ignoring ancestors.
func (f *Frame) Has(name string) bool {
	_, ok := f.vars[name]
	return ok
}

// Delete removes name from f itself, reporting whether it was present.
func (f *Frame) Delete(name string) bool {
	if _, ok := f.vars[name]; !ok {
		return false
	}
	delete(f.vars, name)
	return true
}

// Names returns the names bound directly in f; the module loader uses it
// to snapshot a partially loaded module's exports.
func (f *Frame) Names() []string {
	names := make([]string, 0, len(f.vars))
	for n := range f.vars {
		names = append(names, n)
	}
	return names
}
