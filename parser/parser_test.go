package parser

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/Bryantad/Sona-sub003/ast"
	"github.com/Bryantad/Sona-sub003/token"
)

func TestParseFileDeterministic(t *testing.T) {
	src := []byte(`
let x = 1
func add(a, b) { return a + b }
print(add(x, 2))
`)
	f1, err := ParseFile("<test>", src)
	qt.Assert(t, qt.IsNil(err))
	f2, err := ParseFile("<test>", src)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(f1.Stmts), len(f2.Stmts)))
	qt.Assert(t, qt.Equals(len(f1.Stmts), 3))
}

func TestChainedComparisonProducesSingleNode(t *testing.T) {
	x, err := ParseExpr("<test>", []byte("1 < 2 < 3"))
	qt.Assert(t, qt.IsNil(err))
	ch, ok := x.(*ast.Chained)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(len(ch.Operands), 3))
	qt.Assert(t, qt.Equals(len(ch.Ops), 2))
}

func TestFloorDivVsLineComment(t *testing.T) {
	f, err := ParseFile("<test>", []byte("let a = 7 // 2\n"))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(f.Stmts), 1))
	let, ok := f.Stmts[0].(*ast.Let)
	qt.Assert(t, qt.IsTrue(ok))
	bin, ok := let.Value.(*ast.Binary)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(bin.Op, token.IQUO))

	f2, err := ParseFile("<test>", []byte("let a = 7\n// a whole-line comment\nlet b = 1\n"))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(f2.Stmts), 2))
}

func TestFStringSplitsLiteralAndExprParts(t *testing.T) {
	x, err := ParseExpr("<test>", []byte(`f"hello {name}!"`))
	qt.Assert(t, qt.IsNil(err))
	fs, ok := x.(*ast.FString)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(len(fs.Exprs), 1))
	id, ok := fs.Exprs[0].(*ast.Identifier)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(id.Name, "name"))
}

func TestAssignmentVsExprStatement(t *testing.T) {
	f, err := ParseFile("<test>", []byte("x = 1\nprint(x)\n"))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(len(f.Stmts), 2))
	_, ok := f.Stmts[0].(*ast.Assign)
	qt.Assert(t, qt.IsTrue(ok))
	_, ok = f.Stmts[1].(*ast.ExprStmt)
	qt.Assert(t, qt.IsTrue(ok))
}
