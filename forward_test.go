package main

import (
	"strings"
	"testing"
)

func TestMutualRecursion(t *testing.T) {
	ir := compileIR(t, `is_even = {n -> <- (if (is n 0) 1 (is_odd (subtract n 1)))}
is_odd = {n -> <- (if (is n 0) 0 (is_even (subtract n 1)))}
(println (is_even 4))`)
	// Both stay capture-free and natively typed despite referencing each
	// other: the declaration pass runs before any body.
	wantContains(t, ir,
		"define i64 @_franz_is_even(i64 %n)",
		"define i64 @_franz_is_odd(i64 %n)",
		"call i64 @_franz_is_odd(i64",
		"call i64 @_franz_is_even(i64")
	wantNotContains(t, ir, "franz_box_closure")
}

func TestForwardReferenceFromEarlierStatement(t *testing.T) {
	ir := compileIR(t, `answer = (compute 2)
compute = {x -> <- (multiply x 21)}
(println answer)`)
	wantContains(t, ir, "call i64 @_franz_compute(i64 2)")
}

func TestForwardReferenceBetweenClosures(t *testing.T) {
	ir := compileIR(t, `limit = 3
ping = {n -> <- (if (less_than n limit) (pong (add n 1)) n)}
pong = {n -> <- (ping n)}
(println (ping 0))`)
	// ping captures limit and publishes its closure record through a module
	// global; pong captures nothing and calls ping through that global.
	wantContains(t, ir, "@ping.closure",
		"define i8* @_franz_ping(i8* %n, i8* %env)",
		"define i8* @_franz_pong(i64 %n)",
		"call i8* @_franz_pong(i64")
	wantNotContains(t, ir, "@pong.closure")
}

func TestDuplicateFunctionDefinition(t *testing.T) {
	msg := compileErr(t, `f = {x -> <- x}
f = {x y -> <- x}`)
	if !strings.Contains(msg, "function 'f' defined twice") {
		t.Fatalf("unexpected error: %q", msg)
	}
}

func TestInferredFloatSignature(t *testing.T) {
	ir := compileIR(t, `scale = {x -> <- (multiply x 2.0)}
(println (scale 3.0))`)
	wantContains(t, ir,
		"define double @_franz_scale(double %x)",
		"fmul double")
}

func TestInferredBoxedParameter(t *testing.T) {
	ir := compileIR(t, `first = {xs -> <- (head xs)}
(println (first [1, 2]))`)
	wantContains(t, ir, "define i8* @_franz_first(i8* %xs)", "franz_list_head")
}
