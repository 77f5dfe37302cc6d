package main

import (
	"strings"
	"testing"
)

func TestGuardFoldsOnLiterals(t *testing.T) {
	ir := compileIR(t, `(println (is_int 42))
(println (is_float 42))
(println (is_string "x"))
(println (is_list 42))
(println (is_function 1.5))`)
	// All five answers are compile-time constants; no tag check is emitted.
	wantContains(t, ir, "franz_box_int(i64 1)", "franz_box_int(i64 0)")
	wantNotContains(t, ir, "franz_generic_is")
}

func TestGuardFoldsOnNativeBinding(t *testing.T) {
	ir := compileIR(t, `x = 2.5
(println (is_float x))
(println (is_int x))`)
	wantContains(t, ir, "franz_box_int(i64 1)", "franz_box_int(i64 0)")
	wantNotContains(t, ir, "franz_generic_is")
}

func TestGuardChecksBoxedValueAtRuntime(t *testing.T) {
	ir := compileIR(t, `xs = [1, 2]
(println (is_list xs))`)
	wantContains(t, ir, "call i64 @franz_generic_is(i8*", "i64 6)")
}

func TestGuardTagPerPredicate(t *testing.T) {
	src := `xs = [1]
v = (head xs)
(println (is_int v))
(println (is_float v))
(println (is_string v))
(println (is_function v))`
	ir := compileIR(t, src)
	// head yields a boxed value of unknown tag; every guard defers to the
	// runtime with its own tag constant.
	wantContains(t, ir, "i64 0)", "i64 1)", "i64 2)", "i64 4)")
	if got := strings.Count(ir, "franz_generic_is"); got != 5 { // declaration + 4 calls
		t.Fatalf("expected 4 runtime tag checks, IR:\n%s", ir)
	}
}

func TestGuardOnFunctionValue(t *testing.T) {
	ir := compileIR(t, `f = {x -> <- x}
(println (is_function f))`)
	// A function reference is boxed for the check and tagged as a function.
	wantContains(t, ir, "franz_generic_is", "i64 4)")
}

func TestGuardArityError(t *testing.T) {
	msg := compileErr(t, `(is_int 1 2)`)
	if !strings.Contains(msg, "is_int expects 1 arguments, got 2") {
		t.Fatalf("unexpected error: %q", msg)
	}
}
