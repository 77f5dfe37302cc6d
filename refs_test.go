package main

import (
	"strings"
	"testing"
)

func TestRefRoundTrip(t *testing.T) {
	ir := compileIR(t, `r = (ref 10)
(set! r (add (deref r) 5))
(println (deref r))`)
	wantContains(t, ir,
		"call i8* @franz_llvm_create_ref(i8*",
		"call i8* @franz_llvm_set_ref(i8*",
		"call i8* @franz_llvm_deref(i8*",
		// The seed is boxed before entering the cell, the deref result is
		// unboxed for arithmetic.
		"franz_box_int(i64 10)",
		"franz_unbox_int")
}

func TestRefBoxesAnyValueKind(t *testing.T) {
	ir := compileIR(t, `r = (ref "name")
(set! r 3.5)`)
	wantContains(t, ir, "franz_box_string", "franz_box_float")
}

func TestRefLineNumbers(t *testing.T) {
	ir := compileIR(t, `r = (ref 1)

(println (deref r))`)
	// create_ref on line 1, deref on line 3.
	if !strings.Contains(ir, "i64 1)") || !strings.Contains(ir, "i64 3)") {
		t.Fatalf("expected source lines threaded to the runtime:\n%s", ir)
	}
}

func TestRefArityErrors(t *testing.T) {
	cases := []struct {
		src, want string
	}{
		{`(ref)`, "ref expects 1 arguments, got 0"},
		{`(deref)`, "deref expects 1 arguments, got 0"},
		{`r = (ref 1)
(set! r)`, "set! expects 2 arguments, got 1"},
	}
	for _, c := range cases {
		msg := compileErr(t, c.src)
		if !strings.Contains(msg, c.want) {
			t.Fatalf("source %q: expected %q in error, got %q", c.src, c.want, msg)
		}
	}
}
