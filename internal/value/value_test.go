package value

import (
	"testing"

	"github.com/go-quicktest/qt"
)

func TestTruthy(t *testing.T) {
	qt.Assert(t, qt.IsFalse(Truthy(Null{})))
	qt.Assert(t, qt.IsFalse(Truthy(Bool(false))))
	qt.Assert(t, qt.IsFalse(Truthy(Int(0))))
	qt.Assert(t, qt.IsFalse(Truthy(String(""))))
	qt.Assert(t, qt.IsTrue(Truthy(Int(1))))
	qt.Assert(t, qt.IsTrue(Truthy(String("x"))))
	qt.Assert(t, qt.IsTrue(Truthy(NewList([]Value{Int(1)}))))
	qt.Assert(t, qt.IsFalse(Truthy(NewList(nil))))
}

func TestEqualStructural(t *testing.T) {
	qt.Assert(t, qt.IsTrue(Equal(Int(1), Int(1))))
	qt.Assert(t, qt.IsTrue(Equal(Int(1), Float(1))))
	qt.Assert(t, qt.IsTrue(Equal(NewList([]Value{Int(1), String("a")}), NewList([]Value{Int(1), String("a")}))))

	a, b := NewDict(), NewDict()
	a.Set("x", Int(1))
	b.Set("x", Int(1))
	qt.Assert(t, qt.IsTrue(Equal(a, b)))
	b.Set("y", Int(2))
	qt.Assert(t, qt.IsFalse(Equal(a, b)))
}

func TestDictPreservesInsertionOrder(t *testing.T) {
	d := NewDict()
	d.Set("z", Int(1))
	d.Set("a", Int(2))
	d.Set("m", Int(3))
	qt.Assert(t, qt.DeepEquals(d.Keys(), []string{"z", "a", "m"}))

	d.Delete("a")
	qt.Assert(t, qt.DeepEquals(d.Keys(), []string{"z", "m"}))
}

func TestReprQuotesStrings(t *testing.T) {
	qt.Assert(t, qt.Equals(Repr(String("hi")), `"hi"`))
	qt.Assert(t, qt.Equals(Repr(Int(42)), "42"))
}

func TestListSharesUnderlyingSlice(t *testing.T) {
	l := NewList([]Value{Int(1)})
	l2 := l
	*l2.Elems = append(*l2.Elems, Int(2))
	qt.Assert(t, qt.Equals(len(*l.Elems), 2))
}

func TestNestedListDeepEquality(t *testing.T) {
	got := NewList([]Value{
		NewList([]Value{Int(1), Int(2)}),
		NewList([]Value{String("a"), Bool(true)}),
	})
	want := NewList([]Value{
		NewList([]Value{Int(1), Int(2)}),
		NewList([]Value{String("a"), Bool(true)}),
	})
	qt.Assert(t, qt.CmpEquals(*got.Elems, *want.Elems))
}
