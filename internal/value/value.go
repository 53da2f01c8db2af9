// Package value defines Sona's runtime value representation: a closed
// sum type mirroring internal/core/adt.Value in the teacher (a marker
// interface plus one concrete struct per kind), generalized from CUE's
// unification lattice to spec.md §4.3's eight dynamic types (Null, Bool,
// Int, Float, String, List, Dict, Function) plus the class/instance
// values spec.md's supplemented OOP layer adds.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Bryantad/Sona-sub003/ast"
)

// Kind identifies a Value's dynamic type, returned by Sona's builtin
// type() function (spec.md §5).
type Kind int

const (
	NullKind Kind = iota
	BoolKind
	IntKind
	FloatKind
	StringKind
	ListKind
	DictKind
	FunctionKind
	NativeKind
	ModuleKind
	ClassKind
	InstanceKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case StringKind:
		return "string"
	case ListKind:
		return "list"
	case DictKind:
		return "dict"
	case FunctionKind, NativeKind:
		return "function"
	case ModuleKind:
		return "module"
	case ClassKind:
		return "class"
	case InstanceKind:
		return "instance"
	}
	return "unknown"
}

// Value is implemented by every runtime value. It is intentionally
// small: callers type-switch on the concrete type (Go idiom mirroring
// internal/core/adt's BaseValue), rather than this interface growing an
// ever-larger method set.
type Value interface {
	Kind() Kind
	String() string
}

// Null is Sona's single `null` value.
type Null struct{}

func (Null) Kind() Kind      { return NullKind }
func (Null) String() string  { return "null" }

var NullValue = Null{}

type Bool bool

func (Bool) Kind() Kind        { return BoolKind }
func (b Bool) String() string  { return strconv.FormatBool(bool(b)) }

type Int int64

func (Int) Kind() Kind       { return IntKind }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

type Float float64

func (Float) Kind() Kind { return FloatKind }
func (f Float) String() string {
	if math.IsInf(float64(f), 1) {
		return "inf"
	}
	if math.IsInf(float64(f), -1) {
		return "-inf"
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

type String string

func (String) Kind() Kind        { return StringKind }
func (s String) String() string  { return string(s) }

// List is Sona's mutable, ordered sequence value. Mutation is by
// reference (spec.md §4.3: "lists and dicts are reference types"), so
// List wraps a pointer to its backing slice.
type List struct {
	Elems *[]Value
}

func NewList(elems []Value) List {
	return List{Elems: &elems}
}

func (List) Kind() Kind { return ListKind }
func (l List) String() string {
	parts := make([]string, len(*l.Elems))
	for i, e := range *l.Elems {
		parts[i] = Repr(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Dict is Sona's mutable key-value map value, keyed by string (spec.md
// §4.3: "dict keys are strings"). Insertion order is preserved for
// iteration and repr, mirroring Python's dict semantics which spec.md's
// comprehension and f-string features are modeled on.
type Dict struct {
	entries *dictEntries
}

type dictEntries struct {
	keys   []string
	values map[string]Value
}

func NewDict() Dict {
	return Dict{entries: &dictEntries{values: map[string]Value{}}}
}

func (d Dict) Get(key string) (Value, bool) {
	v, ok := d.entries.values[key]
	return v, ok
}

func (d Dict) Set(key string, v Value) {
	if _, exists := d.entries.values[key]; !exists {
		d.entries.keys = append(d.entries.keys, key)
	}
	d.entries.values[key] = v
}

func (d Dict) Delete(key string) bool {
	if _, ok := d.entries.values[key]; !ok {
		return false
	}
	delete(d.entries.values, key)
	for i, k := range d.entries.keys {
		if k == key {
			d.entries.keys = append(d.entries.keys[:i], d.entries.keys[i+1:]...)
			break
		}
	}
	return true
}

func (d Dict) Keys() []string { return d.entries.keys }
func (d Dict) Len() int       { return len(d.entries.keys) }

func (Dict) Kind() Kind { return DictKind }
func (d Dict) String() string {
	parts := make([]string, 0, d.Len())
	for _, k := range d.Keys() {
		v, _ := d.Get(k)
		parts = append(parts, fmt.Sprintf("%q: %s", k, Repr(v)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Function is a user-defined closure: a reference to its defining AST
// node plus the Frame it closes over. Frame is typed as interface{}
// here to avoid an import cycle with package frame, which itself holds
// Value instances; eval casts it back to *frame.Frame.
type Function struct {
	ID        uuid.UUID
	Name      string
	Params    []Param
	Body      []ast.Stmt // for Func/named functions
	Expr      ast.Expr   // for Lambda bodies (mutually exclusive with Body)
	Closure   interface{} // *frame.Frame; interface{} avoids an import cycle (frame imports value)
	BoundSelf Value       // non-nil for bound instance methods
	Owner     *Class      // the class a method was defined on, for `super` resolution
}

type Param struct {
	Name    string
	Default ast.Expr // nil if required
}

func (Function) Kind() Kind { return FunctionKind }
func (f Function) String() string {
	if f.Name == "" {
		return fmt.Sprintf("<lambda %s>", f.ID.String()[:8])
	}
	return fmt.Sprintf("<function %s>", f.Name)
}

// NativeFn is a Go-implemented builtin or host-registered function
// (spec.md §5, §8 scenario 5's "host function registration").
type NativeFn func(args []Value) (Value, error)

type Native struct {
	Name string
	Fn   NativeFn
}

func (Native) Kind() Kind       { return NativeKind }
func (n Native) String() string { return fmt.Sprintf("<builtin %s>", n.Name) }

// Module is a loaded module's namespace (spec.md §6 module loader).
type Module struct {
	Path    string
	Exports Dict
}

func (Module) Kind() Kind       { return ModuleKind }
func (m Module) String() string { return fmt.Sprintf("<module %s>", m.Path) }

// Class is a user-defined class value (spec.md's supplemented OOP
// layer): its own methods plus an optional parent for single
// inheritance and `super` dispatch.
type Class struct {
	ID      uuid.UUID
	Name    string
	Parent  *Class
	Methods map[string]Function
	Fields  map[string]ast.Expr // name -> default expression, evaluated per-instance
	Closure interface{}         // *frame.Frame the class statement was defined in
}

func (Class) Kind() Kind       { return ClassKind }
func (c Class) String() string { return fmt.Sprintf("<class %s>", c.Name) }

// LookupMethod searches c and its ancestor chain for name.
func (c *Class) LookupMethod(name string) (Function, *Class, bool) {
	for cur := c; cur != nil; cur = cur.Parent {
		if m, ok := cur.Methods[name]; ok {
			return m, cur, true
		}
	}
	return Function{}, nil, false
}

// Instance is an object created by calling a Class.
type Instance struct {
	ID     uuid.UUID
	Class  *Class
	Fields *Dict
}

func (Instance) Kind() Kind       { return InstanceKind }
func (i Instance) String() string { return fmt.Sprintf("<%s instance>", i.Class.Name) }

// Truthy implements spec.md §4.3's truthiness rules: false, null, 0,
// 0.0, "", [], {} are falsy; everything else is truthy.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Null:
		return false
	case Bool:
		return bool(x)
	case Int:
		return x != 0
	case Float:
		return x != 0
	case String:
		return len(x) > 0
	case List:
		return len(*x.Elems) > 0
	case Dict:
		return x.Len() > 0
	}
	return true
}

// Equal implements spec.md §4.3's value equality: structural for
// primitives/lists/dicts, identity for function/class/instance values;
// builtin (native) functions compare equal when their names match.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Native:
		y, ok := b.(Native)
		return ok && x.Name == y.Name
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Float:
			return Float(x) == y
		}
		return false
	case Float:
		switch y := b.(type) {
		case Int:
			return x == Float(y)
		case Float:
			return x == y
		}
		return false
	case String:
		y, ok := b.(String)
		return ok && x == y
	case List:
		y, ok := b.(List)
		if !ok || len(*x.Elems) != len(*y.Elems) {
			return false
		}
		for i := range *x.Elems {
			if !Equal((*x.Elems)[i], (*y.Elems)[i]) {
				return false
			}
		}
		return true
	case Dict:
		y, ok := b.(Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.Keys() {
			xv, _ := x.Get(k)
			yv, ok := y.Get(k)
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case Function:
		y, ok := b.(Function)
		return ok && x.ID == y.ID
	case Instance:
		y, ok := b.(Instance)
		return ok && x.ID == y.ID
	case Class:
		y, ok := b.(Class)
		return ok && x.ID == y.ID
	}
	return a == b
}

// Repr formats v the way Sona's debug-print builtins do: strings are
// quoted, everything else uses String().
func Repr(v Value) string {
	if s, ok := v.(String); ok {
		return strconv.Quote(string(s))
	}
	return v.String()
}
