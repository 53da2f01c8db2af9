package typecheck

import (
	"fmt"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/Bryantad/Sona-sub003/errors"
	"github.com/Bryantad/Sona-sub003/parser"
)

func check(t *testing.T, src string, mode Mode) errors.List {
	t.Helper()
	f, err := parser.ParseFile("<test>", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	return Check("<test>", f, Config{Mode: mode}, []string{"print", "len"})
}

func TestOffModeSkipsAnalysis(t *testing.T) {
	diags := check(t, "print(undefined_name)", Off)
	qt.Assert(t, qt.HasLen(diags, 0))
}

func TestUndefinedNameIsFlagged(t *testing.T) {
	diags := check(t, "print(undefined_name)", Warn)
	qt.Assert(t, qt.Equals(len(diags), 1))
	qt.Assert(t, qt.Equals(diags[0].Kind, errors.NameError))
}

func TestLetBindingIsVisible(t *testing.T) {
	diags := check(t, "let x = 1\nprint(x)", Warn)
	qt.Assert(t, qt.HasLen(diags, 0))
}

func TestParamsVisibleInsideFunctionBody(t *testing.T) {
	diags := check(t, "func add(a, b) { return a + b }", Warn)
	qt.Assert(t, qt.HasLen(diags, 0))
}

func TestForwardReferenceBetweenSiblingFunctions(t *testing.T) {
	diags := check(t, `
func is_even(n) { if n == 0 { return true } return is_odd(n - 1) }
func is_odd(n) { if n == 0 { return false } return is_even(n - 1) }
`, Warn)
	qt.Assert(t, qt.HasLen(diags, 0))
}

func TestDidYouMeanSuggestsCloseName(t *testing.T) {
	diags := check(t, "let count = 1\nprint(counnt)", Warn)
	qt.Assert(t, qt.Equals(len(diags), 1))
	msg, args := diags[0].Message()
	qt.Assert(t, qt.Contains(fmt.Sprintf(msg, args...), "count"))
}
