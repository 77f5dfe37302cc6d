package main

import (
	"strings"
	"testing"
)

func TestIfBothBranchesInt(t *testing.T) {
	ir := compileIR(t, `(println (if 1 10 20))`)
	wantContains(t, ir,
		"icmp ne i64 1, 0",
		"if_then_0:",
		"if_else_0:",
		"if_merge_0:",
		"phi i64")
	wantNotContains(t, ir, "sitofp")
}

func TestIfPromotesIntBranchToFloat(t *testing.T) {
	ir := compileIR(t, `(println (if 1 5 3.14))`)
	wantContains(t, ir, "sitofp i64 5 to double", "phi double", "franz_box_float")
	// The promotion lands in the int-producing branch, before its jump.
	thenStart := strings.Index(ir, "if_then_0:")
	elseStart := strings.Index(ir, "if_else_0:")
	promo := strings.Index(ir, "sitofp i64 5 to double")
	if !(thenStart < promo && promo < elseStart) {
		t.Fatalf("promotion not emitted inside the then branch:\n%s", ir)
	}
}

func TestIfUnifiesMixedKindsToBoxed(t *testing.T) {
	ir := compileIR(t, `(println (if 0 5 "five"))`)
	wantContains(t, ir, "franz_box_int(i64 5)", "franz_box_string", "phi i8*")
}

func TestIfWithoutElse(t *testing.T) {
	ir := compileIR(t, `(println (if 1 42))`)
	wantContains(t, ir, "phi i64", "if_else_0:")
}

func TestNestedIfBlockNames(t *testing.T) {
	ir := compileIR(t, `(println (if 1 (if 0 1 2) 3))`)
	wantContains(t, ir, "if_then_0:", "if_then_1:", "if_merge_0:", "if_merge_1:")
}

func TestIfConditionUnboxesBoxedValue(t *testing.T) {
	ir := compileIR(t, `xs = [1]
(println (if (head xs) 1 2))`)
	wantContains(t, ir, "franz_unbox_int", "icmp ne i64")
}

func TestIfArityError(t *testing.T) {
	msg := compileErr(t, `(if 1)`)
	if !strings.Contains(msg, "if expects 2 or 3 arguments, got 1") {
		t.Fatalf("unexpected error: %q", msg)
	}
}

func TestIfBranchReturns(t *testing.T) {
	// A branch that returns does not feed the merge phi.
	ir := compileIR(t, `f = {x -> (if x (add x 1) 0)
<- 99}`)
	wantContains(t, ir, "define i64 @_franz_f(i64 %x)", "ret i64 99")
}
