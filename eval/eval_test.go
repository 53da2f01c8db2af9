package eval

import (
	"context"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/Bryantad/Sona-sub003/internal/frame"
	"github.com/Bryantad/Sona-sub003/internal/value"
	"github.com/Bryantad/Sona-sub003/parser"
)

func run(t *testing.T, src string) (*frame.Frame, error) {
	t.Helper()
	f, err := parser.ParseFile("<test>", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	global := frame.New()
	in := New(global, nil, "<test>")
	return global, in.Run(context.Background(), f)
}

func TestTopLevelAssignCreatesImplicitGlobal(t *testing.T) {
	global, err := run(t, "x = 1\nx = x + 1")
	qt.Assert(t, qt.IsNil(err))
	v, ok := global.Lookup("x")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(v.(value.Int), value.Int(2)))
}

func TestAssignToFreeNameInsideFunctionIsNameError(t *testing.T) {
	_, err := run(t, `
func f() {
    y = 1
}
f()
`)
	qt.Assert(t, qt.IsNotNil(err))
}

func TestRepeatNegativeCountIsTypeError(t *testing.T) {
	_, err := run(t, "repeat -1 { let z = 1 }")
	qt.Assert(t, qt.IsNotNil(err))
}

func TestRepeatZeroCountRunsNoIterations(t *testing.T) {
	_, err := run(t, "repeat 0 { let z = 1 }")
	qt.Assert(t, qt.IsNil(err))
}
