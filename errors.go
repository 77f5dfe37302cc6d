package main

import "fmt"

// CompileError is a compile-time diagnostic tied to a source line. Rendering
// follows the fixed diagnostic form consumed by editor integrations:
// "ERROR: <message> at line <n>".
type CompileError struct {
	Line int
	Msg  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("ERROR: %s at line %d", e.Msg, e.Line)
}

// errorf creates a CompileError for the given line.
func errorf(line int, format string, args ...interface{}) error {
	return &CompileError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// arityErrorf reports a wrong explicit-argument count for a primitive.
func arityErrorf(line int, name string, expected, actual int) error {
	return errorf(line, "%s expects %d arguments, got %d", name, expected, actual)
}
