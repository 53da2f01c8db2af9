package sona

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/Bryantad/Sona-sub003/builtins"
)

// run evaluates src against a fresh Context and returns everything
// print() wrote, mirroring spec.md §8's "end-to-end scenarios" table.
func run(t *testing.T, src string) string {
	t.Helper()
	var out bytes.Buffer
	c := New(Config{IO: &builtins.IO{Out: &out, In: bufio.NewReader(strings.NewReader(""))}})
	err := c.RunSource(context.Background(), "<test>", []byte(src))
	qt.Assert(t, qt.IsNil(err))
	return out.String()
}

func TestHelloWorld(t *testing.T) {
	got := run(t, `print("Hello, World!")`)
	qt.Assert(t, qt.Equals(got, "Hello, World!\n"))
}

func TestRecursionAndClosures(t *testing.T) {
	got := run(t, `
func make_adder(n) { func add(x) { return x + n } return add }
let add5 = make_adder(5)
print(add5(3))
`)
	qt.Assert(t, qt.Equals(got, "8\n"))
}

func TestBreakStopsOnlyItsLoop(t *testing.T) {
	got := run(t, `for i in [1,2,3,4] { if i == 3 { break } print(i) }`)
	qt.Assert(t, qt.Equals(got, "1\n2\n"))
}

func TestTryFinallyWithReturn(t *testing.T) {
	got := run(t, `
func f() { try { return 1 } finally { print("f") } }
print(f())
`)
	qt.Assert(t, qt.Equals(got, "f\n1\n"))
}

func TestChainedComparisonEvaluatesMiddleOnce(t *testing.T) {
	got := run(t, `
func side() { print("s"); return 5 }
print(1 < side() < 10)
`)
	qt.Assert(t, qt.Equals(got, "s\ntrue\n"))
}

func TestClosureCapturesFrameByReference(t *testing.T) {
	got := run(t, `
let x = 1
func get() { return x }
print(get())
x = 2
print(get())
`)
	qt.Assert(t, qt.Equals(got, "1\n2\n"))
}

func TestEmptyProgramHasNoOutput(t *testing.T) {
	got := run(t, ``)
	qt.Assert(t, qt.Equals(got, ""))
}

func TestIntStrRoundTrip(t *testing.T) {
	got := run(t, `
print(str(int("42")))
print(int(str(7)) == 7)
`)
	qt.Assert(t, qt.Equals(got, "42\ntrue\n"))
}

func TestIndexAndDictBoundaries(t *testing.T) {
	got := run(t, `
let a = [1, 2, 3]
print(a[-1])
try { print(a[10]) } catch e { print("IndexError") }
let d = {"k": 1}
try { print(d["missing"]) } catch e { print("KeyError") }
`)
	qt.Assert(t, qt.Equals(got, "3\nIndexError\nKeyError\n"))
}

func TestDivisionByZero(t *testing.T) {
	got := run(t, `
try { print(1 / 0) } catch e { print("ZeroDivisionError") }
try { print(1 % 0) } catch e { print("ZeroDivisionError") }
`)
	qt.Assert(t, qt.Equals(got, "ZeroDivisionError\nZeroDivisionError\n"))
}

func TestFStringFormatSpec(t *testing.T) {
	got := run(t, `
let n = 1234567
print(f"{n:,}")
print(f"{3.14159:.2f}")
`)
	qt.Assert(t, qt.Equals(got, "1,234,567\n3.14\n"))
}

func TestClassesAndSuper(t *testing.T) {
	got := run(t, `
class Animal {
	let name = "animal"
	func speak() { return self.name + " makes a sound" }
}
class Dog extends Animal {
	let name = "dog"
	func speak() { return super.speak() + "!" }
}
let d = Dog()
print(d.speak())
`)
	qt.Assert(t, qt.Equals(got, "dog makes a sound!\n"))
}

func TestEvalREPLPersistsBindings(t *testing.T) {
	c := New(Config{})
	err := c.RunSource(context.Background(), "<repl>", []byte("let x = 10"))
	qt.Assert(t, qt.IsNil(err))
	v, err := c.EvalREPL(context.Background(), "x + 1")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(v.String(), "11"))
}
