package main

import (
	"strings"
	"testing"
)

// compileIR compiles Franz source code and returns the rendered LLVM module.
func compileIR(t *testing.T, source string) string {
	t.Helper()
	program, err := Parse(source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	cg := NewCodeGen("test")
	module, err := cg.Compile(program)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return module.String()
}

// compileErr compiles source code that must fail and returns the error text.
func compileErr(t *testing.T, source string) string {
	t.Helper()
	program, err := Parse(source)
	if err != nil {
		return err.Error()
	}
	cg := NewCodeGen("test")
	if _, err := cg.Compile(program); err != nil {
		return err.Error()
	}
	t.Fatalf("expected a compile error for:\n%s", source)
	return ""
}

// wantContains fails the test when the IR is missing any of the substrings.
func wantContains(t *testing.T, ir string, substrings ...string) {
	t.Helper()
	for _, s := range substrings {
		if !strings.Contains(ir, s) {
			t.Fatalf("generated IR is missing %q:\n%s", s, ir)
		}
	}
}

// wantNotContains fails the test when the IR contains any of the substrings.
func wantNotContains(t *testing.T, ir string, substrings ...string) {
	t.Helper()
	for _, s := range substrings {
		if strings.Contains(ir, s) {
			t.Fatalf("generated IR unexpectedly contains %q:\n%s", s, ir)
		}
	}
}
