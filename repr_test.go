package main

import (
	"testing"

	"github.com/llir/llvm/ir/types"
)

func TestUnifyRepr(t *testing.T) {
	cases := []struct {
		a, b, want Repr
	}{
		{ReprInt, ReprInt, ReprInt},
		{ReprFloat, ReprFloat, ReprFloat},
		{ReprInt, ReprFloat, ReprFloat},
		{ReprFloat, ReprInt, ReprFloat},
		{ReprString, ReprString, ReprString},
		{ReprInt, ReprString, ReprBoxed},
		{ReprInt, ReprBoxed, ReprBoxed},
		{ReprBoxed, ReprFloat, ReprBoxed},
	}
	for _, c := range cases {
		if got := unifyRepr(c.a, c.b); got != c.want {
			t.Fatalf("unifyRepr(%s, %s): expected %s, got %s", c.a, c.b, c.want, got)
		}
	}
}

func TestReprTrackerBindings(t *testing.T) {
	tr := NewReprTracker()
	tr.Bind("x", ReprInt)
	if r, ok := tr.Lookup("x"); !ok || r != ReprInt {
		t.Fatalf("expected x native-int, got %s (found %v)", r, ok)
	}
	if _, ok := tr.Lookup("y"); ok {
		t.Fatalf("lookup of an unbound name must fail")
	}
}

func TestFunctionBodyGetsFreshTracker(t *testing.T) {
	// A body never sees the enclosing scope's classifications: the outer
	// native-float x does not leak into f, whose own x infers int.
	ir := compileIR(t, `x = 1.5
f = {x -> <- (add x 1)}
(println (f 2))`)
	wantContains(t, ir, "define i64 @_franz_f(i64 %x)")
}

func TestReprType(t *testing.T) {
	if reprType(ReprInt) != types.I64 {
		t.Fatalf("native-int must map to i64")
	}
	if reprType(ReprFloat) != types.Double {
		t.Fatalf("native-float must map to double")
	}
	if !types.Equal(reprType(ReprBoxed), types.I8Ptr) {
		t.Fatalf("boxed must map to i8*")
	}
	if !types.Equal(reprType(ReprString), types.I8Ptr) {
		t.Fatalf("native-string must map to i8*")
	}
}

func TestClassificationDrivesUnboxing(t *testing.T) {
	// An i64 SSA value is not evidence of a native int: a boxed value read
	// back out of a list is unboxed by classification, not by machine type.
	ir := compileIR(t, `xs = [7]
v = (nth xs 0)
(println (add v 1))`)
	wantContains(t, ir, "franz_unbox_int", "add i64")
}

func TestStatementClassifiesAsLastChild(t *testing.T) {
	ir := compileIR(t, `f = {x -> y = (add x 1)
(println y)
<- (multiply y 2)}
(println (f 3))`)
	// The body mixes statements; the function still infers a native i64.
	wantContains(t, ir, "define i64 @_franz_f(i64 %x)")
}
