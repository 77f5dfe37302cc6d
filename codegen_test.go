package main

import (
	"strings"
	"testing"
)

func TestIntArithmeticStaysNative(t *testing.T) {
	ir := compileIR(t, `(println (add 1 (multiply 2 3)))`)
	wantContains(t, ir, "mul i64 2, 3", "add i64 1,")
	// Only the final println result is boxed.
	if got := strings.Count(ir, "franz_box_int"); got != 2 { // declaration + one call
		t.Fatalf("expected exactly one franz_box_int call, IR:\n%s", ir)
	}
	wantNotContains(t, ir, "franz_unbox_int")
}

func TestFloatPromotion(t *testing.T) {
	ir := compileIR(t, `(println (add 1 2.5))`)
	wantContains(t, ir, "sitofp i64 1 to double", "fadd double", "franz_box_float")
}

func TestFloatArithmetic(t *testing.T) {
	ir := compileIR(t, `x = (divide 7.0 2.0)
(println (subtract x 0.5))`)
	wantContains(t, ir, "fdiv double", "fsub double")
	wantNotContains(t, ir, "sdiv")
}

func TestStringLiteral(t *testing.T) {
	ir := compileIR(t, `(println "hello")`)
	wantContains(t, ir, `c"hello\00"`, "@.str.0", "franz_box_string")
}

func TestComparisonsWidenToInt(t *testing.T) {
	ir := compileIR(t, `(println (less_than 1 2))
(println (greater_than 2.5 1))`)
	wantContains(t, ir, "icmp slt i64 1, 2", "fcmp ogt double", "zext i1")
}

func TestLogicalOps(t *testing.T) {
	ir := compileIR(t, `(println (and 1 (not 0)))
(println (or 0 1))`)
	wantContains(t, ir, "and i1", "or i1", "icmp eq i1")
}

func TestListLiteralAndOps(t *testing.T) {
	ir := compileIR(t, `xs = [1, 2, 3]
(println (head xs))
(println (nth xs 1))
(println (length xs))
(println (cons 0 (tail xs)))`)
	wantContains(t, ir,
		"alloca [3 x i8*]",
		"franz_list_new",
		"franz_list_head",
		"franz_list_nth",
		"franz_list_length",
		"franz_list_cons",
		"franz_list_tail")
}

func TestEmptyList(t *testing.T) {
	ir := compileIR(t, `(println (length []))`)
	wantContains(t, ir, "call i8* @franz_list_new(i8** null, i64 0)")
}

func TestReassignmentKeepsRepresentation(t *testing.T) {
	// A boxed binding stays boxed: the new native value is re-boxed.
	ir := compileIR(t, `x = [1]
x = 5
(println x)`)
	wantContains(t, ir, "franz_box_int(i64 5)")
}

func TestReassignmentNarrowsFloat(t *testing.T) {
	// An int binding stays int: a float re-assignment truncates toward zero
	// at the assignment site.
	ir := compileIR(t, `x = 1
x = 2.5
(println x)`)
	wantContains(t, ir, "fptosi double 2.5 to i64")
}

func TestFloatArgumentNarrowsAtCallSite(t *testing.T) {
	// A float argument to a natively-int parameter converts at the call
	// site instead of failing the compilation.
	ir := compileIR(t, `inc = {x -> <- (add x 1)}
(println (inc 2.5))`)
	wantContains(t, ir,
		"define i64 @_franz_inc(i64 %x)",
		"fptosi double 2.5 to i64",
		"call i64 @_franz_inc(i64")
}

func TestReassignmentRepresentationError(t *testing.T) {
	msg := compileErr(t, `x = 1
x = "two"`)
	if !strings.Contains(msg, "cannot use native-string value as integer") {
		t.Fatalf("unexpected error: %q", msg)
	}
	if !strings.Contains(msg, "at line 2") {
		t.Fatalf("expected line 2 in error, got %q", msg)
	}
}

func TestVoidSentinel(t *testing.T) {
	ir := compileIR(t, `(println void)`)
	wantContains(t, ir, "franz_box_int(i64 10)")
}

func TestUndefinedVariable(t *testing.T) {
	msg := compileErr(t, `(println missing)`)
	if !strings.Contains(msg, "undefined variable 'missing'") {
		t.Fatalf("unexpected error: %q", msg)
	}
}

func TestUnknownFunction(t *testing.T) {
	msg := compileErr(t, `(frobnicate 1)`)
	if !strings.Contains(msg, "unknown function 'frobnicate'") {
		t.Fatalf("unexpected error: %q", msg)
	}
}

func TestCallingNonFunction(t *testing.T) {
	msg := compileErr(t, `x = 1
(x 2)`)
	if !strings.Contains(msg, "'x' is not a function") {
		t.Fatalf("unexpected error: %q", msg)
	}
}

func TestErrorFormat(t *testing.T) {
	msg := compileErr(t, `(add 1)`)
	if !strings.HasPrefix(msg, "ERROR: ") || !strings.Contains(msg, "at line 1") {
		t.Fatalf("diagnostic format broken: %q", msg)
	}
	if !strings.Contains(msg, "add expects 2 arguments, got 1") {
		t.Fatalf("unexpected error: %q", msg)
	}
}

func TestMainScaffolding(t *testing.T) {
	ir := compileIR(t, `(println 1)`)
	wantContains(t, ir, "define i32 @main()", "ret i32 0", "%closure = type { i8*, i8* }")
}
