package main

import (
	"strings"
	"testing"
)

func TestCaptureFreeFunctionCompilesToDirectCall(t *testing.T) {
	ir := compileIR(t, `inc = {x -> <- (add x 1)}
(println (inc 41))`)
	wantContains(t, ir,
		"define i64 @_franz_inc(i64 %x)",
		"call i64 @_franz_inc(i64 41)",
		"add i64 %x, 1")
	// Zero-overhead path: no closure record, no environment, no boxing of
	// the argument.
	wantNotContains(t, ir, "franz_box_closure", "malloc", "_wrapper")
}

func TestClosureCapturesGlobal(t *testing.T) {
	ir := compileIR(t, `base = 100
bump = {x -> <- (add x base)}
(println (bump 1))`)
	wantContains(t, ir,
		"define i8* @_franz_bump(i8* %x, i8* %env)",
		"@bump.closure",
		"franz_box_int(i64 100)",
		"franz_box_closure",
		"franz_generic_to_closure_ptr")
}

func TestClosureFactory(t *testing.T) {
	ir := compileIR(t, `make_adder = {n -> <- {x -> <- (add x n)}}
add5 = (make_adder 5)
(println (add5 10))`)
	wantContains(t, ir,
		// The factory itself captures nothing and stays a direct call.
		"call i8* @_franz_make_adder(i64 5)",
		// The returned lambda uses the uniform convention.
		"define i8* @_franz_lambda_0(i8* %x, i8* %env)",
		"franz_generic_to_closure_ptr",
		"franz_box_closure")
	// The environment holds exactly one captured slot.
	wantContains(t, ir, "call i8* @malloc(i64 8)")
}

func TestClosureEnvironmentSlotCount(t *testing.T) {
	ir := compileIR(t, `a = 1
b = 2
c = 3
f = {x -> <- (add (add a b) c)}
(println (f 0))`)
	// Three captured variables, eight bytes per boxed slot.
	wantContains(t, ir, "call i8* @malloc(i64 24)")
}

func TestAnonymousClosureImmediateCall(t *testing.T) {
	ir := compileIR(t, `(println ({x y -> <- (add x y)} 3 4))`)
	wantContains(t, ir, "@_franz_lambda_0", "franz_generic_to_closure_ptr")
}

func TestClosureSelfRecursion(t *testing.T) {
	ir := compileIR(t, `lim = 10
count = {n -> <- (if (less_than n lim) (count (add n 1)) n)}
(println (count 0))`)
	// count captures lim, so it compiles in the uniform convention and the
	// recursive call passes its own environment through.
	wantContains(t, ir,
		"define i8* @_franz_count(i8* %n, i8* %env)",
		"call i8* @_franz_count(i8*",
		"i8* %env)")
}

func TestDirectFunctionSelfRecursion(t *testing.T) {
	ir := compileIR(t, `fact = {n -> <- (if (less_than n 2) 1 (multiply n (fact (subtract n 1))))}
(println (fact 5))`)
	wantContains(t, ir,
		"define i64 @_franz_fact(i64 %n)",
		"call i64 @_franz_fact(i64")
	wantNotContains(t, ir, "define i8* @_franz_fact")
}

func TestLocalClosureBinding(t *testing.T) {
	ir := compileIR(t, `run = {x -> twice = {y -> <- (add y y)}
<- (twice x)}
(println (run 5))`)
	wantContains(t, ir, "@_franz_lambda_0", "franz_generic_to_closure_ptr")
}

func TestClosureArityCheck(t *testing.T) {
	msg := compileErr(t, `f = {a b -> <- (add a b)}
(f 1)`)
	if !strings.Contains(msg, "f expects 2 arguments, got 1") {
		t.Fatalf("unexpected error: %q", msg)
	}
}

func TestFunctionLiteralArityCheck(t *testing.T) {
	msg := compileErr(t, `({x -> <- x} 1 2)`)
	if !strings.Contains(msg, "expects 1 arguments, got 2") {
		t.Fatalf("unexpected error: %q", msg)
	}
}
