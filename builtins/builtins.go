// Package builtins installs Sona's global native functions: print/input,
// type conversions, container helpers, and introspection/debug dumps.
// Grounded on cue/cue/task-style native-function registration (a
// name -> func(args) table installed into the root frame) generalized
// from CUE's builtin-package registry to spec.md §5's flat builtin
// function list.
package builtins

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/kr/pretty"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/Bryantad/Sona-sub003/errors"
	"github.com/Bryantad/Sona-sub003/internal/frame"
	"github.com/Bryantad/Sona-sub003/internal/value"
	"github.com/Bryantad/Sona-sub003/token"
)

// Caller lets builtins that take a function argument (map, filter,
// sorted with a key function) invoke it without package builtins
// importing package eval, which would create an import cycle (eval's
// Global frame is populated by this package).
type Caller func(fn value.Value, args []value.Value) (value.Value, error)

// IO bundles the host streams print/input read from, defaulting to
// os.Stdout/os.Stdin but overridable by embedders (spec.md §6 Config).
type IO struct {
	Out io.Writer
	In  *bufio.Reader
}

func DefaultIO() *IO {
	return &IO{Out: os.Stdout, In: bufio.NewReader(os.Stdin)}
}

// Install populates global with every builtin function, bound to io for
// print/input and call for the higher-order container helpers.
func Install(global *frame.Frame, streams *IO, call Caller) {
	def := func(name string, fn value.NativeFn) {
		global.Define(name, value.Native{Name: name, Fn: fn})
	}

	def("print", func(args []value.Value) (value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = displayString(a)
		}
		fmt.Fprintln(streams.Out, strings.Join(parts, " "))
		return value.NullValue, nil
	})

	def("input", func(args []value.Value) (value.Value, error) {
		if len(args) > 0 {
			fmt.Fprint(streams.Out, displayString(args[0]))
		}
		line, err := streams.In.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, errors.Newf(errors.IOError, token.NoPos, "input: %v", err)
		}
		return value.String(strings.TrimRight(line, "\r\n")), nil
	})

	def("int", func(args []value.Value) (value.Value, error) { return builtinInt(args) })
	def("float", func(args []value.Value) (value.Value, error) { return builtinFloat(args) })
	def("str", func(args []value.Value) (value.Value, error) { return builtinStr(args) })
	def("bool", func(args []value.Value) (value.Value, error) { return builtinBool(args) })

	def("type", func(args []value.Value) (value.Value, error) {
		if err := arity("type", args, 1, 1); err != nil {
			return nil, err
		}
		return value.String(args[0].Kind().String()), nil
	})

	def("len", func(args []value.Value) (value.Value, error) { return builtinLen(args) })

	def("range", func(args []value.Value) (value.Value, error) { return builtinRange(args) })

	def("enumerate", func(args []value.Value) (value.Value, error) { return builtinEnumerate(args) })

	def("abs", func(args []value.Value) (value.Value, error) { return builtinAbs(args) })
	def("min", func(args []value.Value) (value.Value, error) { return minMax(args, false) })
	def("max", func(args []value.Value) (value.Value, error) { return minMax(args, true) })
	def("round", func(args []value.Value) (value.Value, error) { return builtinRound(args) })
	def("sum", func(args []value.Value) (value.Value, error) { return builtinSum(args) })

	def("sorted", func(args []value.Value) (value.Value, error) { return builtinSorted(args, call) })
	def("map", func(args []value.Value) (value.Value, error) { return builtinMap(args, call) })
	def("filter", func(args []value.Value) (value.Value, error) { return builtinFilter(args, call) })

	def("keys", func(args []value.Value) (value.Value, error) { return builtinKeys(args) })
	def("values", func(args []value.Value) (value.Value, error) { return builtinValues(args) })
	def("append", func(args []value.Value) (value.Value, error) { return builtinAppend(args) })

	def("raise", func(args []value.Value) (value.Value, error) { return builtinRaise(args) })

	def("repr", func(args []value.Value) (value.Value, error) {
		if err := arity("repr", args, 1, 1); err != nil {
			return nil, err
		}
		return value.String(value.Repr(args[0])), nil
	})

	def("dump", func(args []value.Value) (value.Value, error) {
		for _, a := range args {
			spew.Fdump(streams.Out, a)
		}
		return value.NullValue, nil
	})

	def("pretty", func(args []value.Value) (value.Value, error) {
		anyArgs := make([]interface{}, len(args))
		for i, a := range args {
			anyArgs[i] = a
		}
		fmt.Fprintln(streams.Out, pretty.Sprint(anyArgs...))
		return value.NullValue, nil
	})
}

func arity(name string, args []value.Value, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		return errors.Newf(errors.ArityError, token.NoPos, "%s: expected %d to %d arguments, got %d", name, min, max, len(args))
	}
	return nil
}

func displayString(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return string(s)
	}
	return v.String()
}

func builtinInt(args []value.Value) (value.Value, error) {
	if err := arity("int", args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case value.Int:
		return x, nil
	case value.Float:
		return value.Int(int64(x)), nil
	case value.Bool:
		if x {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	case value.String:
		i, err := cast.ToInt64E(string(x))
		if err != nil {
			return nil, errors.Newf(errors.ValueError, token.NoPos, "int: invalid literal %q", string(x))
		}
		return value.Int(i), nil
	}
	return nil, errors.Newf(errors.TypeError, token.NoPos, "int: cannot convert %s", args[0].Kind())
}

func builtinFloat(args []value.Value) (value.Value, error) {
	if err := arity("float", args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case value.Int:
		return value.Float(x), nil
	case value.Float:
		return x, nil
	case value.String:
		f, err := cast.ToFloat64E(string(x))
		if err != nil {
			return nil, errors.Newf(errors.ValueError, token.NoPos, "float: invalid literal %q", string(x))
		}
		return value.Float(f), nil
	}
	return nil, errors.Newf(errors.TypeError, token.NoPos, "float: cannot convert %s", args[0].Kind())
}

func builtinStr(args []value.Value) (value.Value, error) {
	if err := arity("str", args, 1, 1); err != nil {
		return nil, err
	}
	return value.String(displayString(args[0])), nil
}

func builtinBool(args []value.Value) (value.Value, error) {
	if err := arity("bool", args, 1, 1); err != nil {
		return nil, err
	}
	return value.Bool(value.Truthy(args[0])), nil
}

func builtinLen(args []value.Value) (value.Value, error) {
	if err := arity("len", args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case value.String:
		return value.Int(len([]rune(string(x)))), nil
	case value.List:
		return value.Int(len(*x.Elems)), nil
	case value.Dict:
		return value.Int(x.Len()), nil
	}
	return nil, errors.Newf(errors.TypeError, token.NoPos, "len: %s has no length", args[0].Kind())
}

func builtinRange(args []value.Value) (value.Value, error) {
	if err := arity("range", args, 1, 3); err != nil {
		return nil, err
	}
	ints := make([]int64, len(args))
	for i, a := range args {
		n, ok := a.(value.Int)
		if !ok {
			return nil, errors.Newf(errors.TypeError, token.NoPos, "range: arguments must be int, got %s", a.Kind())
		}
		ints[i] = int64(n)
	}
	var start, stop, step int64 = 0, 0, 1
	switch len(ints) {
	case 1:
		stop = ints[0]
	case 2:
		start, stop = ints[0], ints[1]
	case 3:
		start, stop, step = ints[0], ints[1], ints[2]
	}
	if step == 0 {
		return nil, errors.Newf(errors.ValueError, token.NoPos, "range: step cannot be zero")
	}
	raw := lo.RangeWithStep(start, stop, step)
	out := lo.Map(raw, func(i int64, _ int) value.Value { return value.Int(i) })
	return value.NewList(out), nil
}

func builtinEnumerate(args []value.Value) (value.Value, error) {
	if err := arity("enumerate", args, 1, 2); err != nil {
		return nil, err
	}
	l, ok := args[0].(value.List)
	if !ok {
		return nil, errors.Newf(errors.TypeError, token.NoPos, "enumerate: expected list, got %s", args[0].Kind())
	}
	start := int64(0)
	if len(args) == 2 {
		n, ok := args[1].(value.Int)
		if !ok {
			return nil, errors.Newf(errors.TypeError, token.NoPos, "enumerate: start must be int")
		}
		start = int64(n)
	}
	out := lo.Map(*l.Elems, func(e value.Value, i int) value.Value {
		return value.NewList([]value.Value{value.Int(start + int64(i)), e})
	})
	return value.NewList(out), nil
}

func builtinAbs(args []value.Value) (value.Value, error) {
	if err := arity("abs", args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case value.Int:
		if x < 0 {
			return -x, nil
		}
		return x, nil
	case value.Float:
		return value.Float(math.Abs(float64(x))), nil
	}
	return nil, errors.Newf(errors.TypeError, token.NoPos, "abs: %s is not numeric", args[0].Kind())
}

func minMax(args []value.Value, wantMax bool) (value.Value, error) {
	items := args
	if len(args) == 1 {
		l, ok := args[0].(value.List)
		if !ok {
			return nil, errors.Newf(errors.TypeError, token.NoPos, "expected a list or multiple arguments")
		}
		items = *l.Elems
	}
	if len(items) == 0 {
		return nil, errors.Newf(errors.ValueError, token.NoPos, "min/max: empty sequence")
	}
	best := items[0]
	bf, ok := numericOf(best)
	if !ok {
		return nil, errors.Newf(errors.TypeError, token.NoPos, "min/max: %s is not numeric", best.Kind())
	}
	for _, v := range items[1:] {
		f, ok := numericOf(v)
		if !ok {
			return nil, errors.Newf(errors.TypeError, token.NoPos, "min/max: %s is not numeric", v.Kind())
		}
		if (wantMax && f > bf) || (!wantMax && f < bf) {
			best, bf = v, f
		}
	}
	return best, nil
}

func numericOf(v value.Value) (float64, bool) {
	switch x := v.(type) {
	case value.Int:
		return float64(x), true
	case value.Float:
		return float64(x), true
	}
	return 0, false
}

func builtinRound(args []value.Value) (value.Value, error) {
	if err := arity("round", args, 1, 2); err != nil {
		return nil, err
	}
	f, ok := numericOf(args[0])
	if !ok {
		return nil, errors.Newf(errors.TypeError, token.NoPos, "round: %s is not numeric", args[0].Kind())
	}
	if len(args) == 1 {
		return value.Int(int64(math.Round(f))), nil
	}
	n, ok := args[1].(value.Int)
	if !ok {
		return nil, errors.Newf(errors.TypeError, token.NoPos, "round: digits must be int")
	}
	mul := math.Pow(10, float64(n))
	return value.Float(math.Round(f*mul) / mul), nil
}

func builtinSum(args []value.Value) (value.Value, error) {
	if err := arity("sum", args, 1, 2); err != nil {
		return nil, err
	}
	l, ok := args[0].(value.List)
	if !ok {
		return nil, errors.Newf(errors.TypeError, token.NoPos, "sum: expected a list, got %s", args[0].Kind())
	}
	var isFloat bool
	var fsum float64
	var isum int64
	if len(args) == 2 {
		switch s := args[1].(type) {
		case value.Int:
			isum = int64(s)
		case value.Float:
			isFloat, fsum = true, float64(s)
		}
	}
	for _, e := range *l.Elems {
		switch x := e.(type) {
		case value.Int:
			if isFloat {
				fsum += float64(x)
			} else {
				isum += int64(x)
			}
		case value.Float:
			if !isFloat {
				isFloat, fsum = true, float64(isum)
			}
			fsum += float64(x)
		default:
			return nil, errors.Newf(errors.TypeError, token.NoPos, "sum: %s is not numeric", e.Kind())
		}
	}
	if isFloat {
		return value.Float(fsum), nil
	}
	return value.Int(isum), nil
}

func builtinSorted(args []value.Value, call Caller) (value.Value, error) {
	if err := arity("sorted", args, 1, 2); err != nil {
		return nil, err
	}
	l, ok := args[0].(value.List)
	if !ok {
		return nil, errors.Newf(errors.TypeError, token.NoPos, "sorted: expected a list, got %s", args[0].Kind())
	}
	out := append([]value.Value(nil), (*l.Elems)...)
	var keyErr error
	keys := make([]float64, len(out))
	for i, e := range out {
		k := e
		if len(args) == 2 {
			if call == nil {
				return nil, errors.Newf(errors.ValueError, token.NoPos, "sorted: key function unsupported in this context")
			}
			kv, err := call(args[1], []value.Value{e})
			if err != nil {
				keyErr = err
				break
			}
			k = kv
		}
		f, ok := numericOf(k)
		if !ok {
			keyErr = errors.Newf(errors.TypeError, token.NoPos, "sorted: key must be numeric")
			break
		}
		keys[i] = f
	}
	if keyErr != nil {
		return nil, keyErr
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]] < keys[idx[b]] })
	sortedOut := make([]value.Value, len(out))
	for i, j := range idx {
		sortedOut[i] = out[j]
	}
	return value.NewList(sortedOut), nil
}

func builtinMap(args []value.Value, call Caller) (value.Value, error) {
	if err := arity("map", args, 2, 2); err != nil {
		return nil, err
	}
	l, ok := args[1].(value.List)
	if !ok {
		return nil, errors.Newf(errors.TypeError, token.NoPos, "map: expected a list, got %s", args[1].Kind())
	}
	if call == nil {
		return nil, errors.Newf(errors.ValueError, token.NoPos, "map: unsupported in this context")
	}
	out := make([]value.Value, len(*l.Elems))
	for i, e := range *l.Elems {
		v, err := call(args[0], []value.Value{e})
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return value.NewList(out), nil
}

func builtinFilter(args []value.Value, call Caller) (value.Value, error) {
	if err := arity("filter", args, 2, 2); err != nil {
		return nil, err
	}
	l, ok := args[1].(value.List)
	if !ok {
		return nil, errors.Newf(errors.TypeError, token.NoPos, "filter: expected a list, got %s", args[1].Kind())
	}
	if call == nil {
		return nil, errors.Newf(errors.ValueError, token.NoPos, "filter: unsupported in this context")
	}
	var out []value.Value
	for _, e := range *l.Elems {
		v, err := call(args[0], []value.Value{e})
		if err != nil {
			return nil, err
		}
		if value.Truthy(v) {
			out = append(out, e)
		}
	}
	return value.NewList(out), nil
}

func builtinKeys(args []value.Value) (value.Value, error) {
	if err := arity("keys", args, 1, 1); err != nil {
		return nil, err
	}
	d, ok := args[0].(value.Dict)
	if !ok {
		return nil, errors.Newf(errors.TypeError, token.NoPos, "keys: expected a dict, got %s", args[0].Kind())
	}
	out := lo.Map(d.Keys(), func(k string, _ int) value.Value { return value.String(k) })
	return value.NewList(out), nil
}

func builtinValues(args []value.Value) (value.Value, error) {
	if err := arity("values", args, 1, 1); err != nil {
		return nil, err
	}
	d, ok := args[0].(value.Dict)
	if !ok {
		return nil, errors.Newf(errors.TypeError, token.NoPos, "values: expected a dict, got %s", args[0].Kind())
	}
	out := lo.Map(d.Keys(), func(k string, _ int) value.Value {
		v, _ := d.Get(k)
		return v
	})
	return value.NewList(out), nil
}

func builtinAppend(args []value.Value) (value.Value, error) {
	if err := arity("append", args, 2, 2); err != nil {
		return nil, err
	}
	l, ok := args[0].(value.List)
	if !ok {
		return nil, errors.Newf(errors.TypeError, token.NoPos, "append: expected a list, got %s", args[0].Kind())
	}
	*l.Elems = append(*l.Elems, args[1])
	return l, nil
}

func builtinRaise(args []value.Value) (value.Value, error) {
	if err := arity("raise", args, 1, 2); err != nil {
		return nil, err
	}
	kindStr, ok := args[0].(value.String)
	if !ok {
		return nil, errors.Newf(errors.TypeError, token.NoPos, "raise: first argument must be a string error kind")
	}
	msg := ""
	if len(args) == 2 {
		msg = displayString(args[1])
	}
	return nil, errors.Newf(errors.Kind(kindStr), token.NoPos, "%s", msg)
}
