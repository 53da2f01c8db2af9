package builtins

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/Bryantad/Sona-sub003/internal/frame"
	"github.com/Bryantad/Sona-sub003/internal/value"
)

func newGlobal(out *bytes.Buffer) *frame.Frame {
	g := frame.New()
	Install(g, &IO{Out: out, In: bufio.NewReader(strings.NewReader(""))}, nil)
	return g
}

func callBuiltin(t *testing.T, g *frame.Frame, name string, args ...value.Value) (value.Value, error) {
	t.Helper()
	v, ok := g.Lookup(name)
	qt.Assert(t, qt.IsTrue(ok))
	n, ok := v.(value.Native)
	qt.Assert(t, qt.IsTrue(ok))
	return n.Fn(args)
}

func TestIntStrRoundTrip(t *testing.T) {
	var out bytes.Buffer
	g := newGlobal(&out)

	s, err := callBuiltin(t, g, "int", value.String("42"))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(s.(value.Int), value.Int(42)))

	back, err := callBuiltin(t, g, "str", s)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(back.(value.String), value.String("42")))
}

func TestIntInvalidLiteralIsValueError(t *testing.T) {
	var out bytes.Buffer
	g := newGlobal(&out)
	_, err := callBuiltin(t, g, "int", value.String("not a number"))
	qt.Assert(t, qt.IsNotNil(err))
}

func TestRangeNegativeStepCountsDown(t *testing.T) {
	var out bytes.Buffer
	g := newGlobal(&out)
	v, err := callBuiltin(t, g, "range", value.Int(5), value.Int(0), value.Int(-1))
	qt.Assert(t, qt.IsNil(err))
	l := v.(value.List)
	qt.Assert(t, qt.Equals(len(*l.Elems), 5))
	qt.Assert(t, qt.Equals((*l.Elems)[0], value.Int(5)))
	qt.Assert(t, qt.Equals((*l.Elems)[4], value.Int(1)))
}

func TestRangeEmptyWhenStartNotBeforeStop(t *testing.T) {
	var out bytes.Buffer
	g := newGlobal(&out)
	v, err := callBuiltin(t, g, "range", value.Int(3), value.Int(3))
	qt.Assert(t, qt.IsNil(err))
	l := v.(value.List)
	qt.Assert(t, qt.Equals(len(*l.Elems), 0))
}

func TestAppendMutatesInPlace(t *testing.T) {
	var out bytes.Buffer
	g := newGlobal(&out)
	l := value.NewList([]value.Value{value.Int(1)})
	_, err := callBuiltin(t, g, "append", l, value.Int(2))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(*l.Elems), 2))
}

func TestPrintJoinsArgsWithSpace(t *testing.T) {
	var out bytes.Buffer
	g := newGlobal(&out)
	_, err := callBuiltin(t, g, "print", value.String("a"), value.Int(1))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(out.String(), "a 1\n"))
}
