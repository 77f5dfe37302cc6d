package main

import (
	"fmt"
	"strings"
)

// AST for Franz expressions.
//
// Franz is expression-oriented: a program is one Statement node whose
// children are the top-level statements. Every construct is a Node with an
// opcode and an ordered child slice, so the code generator dispatches on
// node shape rather than on a Go type switch over many structs.

// Op is the operation kind of an AST node.
type Op int

const (
	OpInt Op = iota
	OpFloat
	OpString
	OpIdentifier
	OpAssignment
	OpReturn
	OpStatement
	OpApplication
	OpFunction
	OpList
)

// String returns the opcode name for diagnostics and AST dumps.
func (op Op) String() string {
	switch op {
	case OpInt:
		return "int"
	case OpFloat:
		return "float"
	case OpString:
		return "string"
	case OpIdentifier:
		return "identifier"
	case OpAssignment:
		return "assignment"
	case OpReturn:
		return "return"
	case OpStatement:
		return "statement"
	case OpApplication:
		return "application"
	case OpFunction:
		return "function"
	case OpList:
		return "list"
	default:
		return "unknown"
	}
}

// Node is a single node in the expression tree. Nodes are immutable during
// compilation; the only writes the code generator performs are cached
// annotations (free variables, representation) that can be cleared without
// changing behavior.
type Node struct {
	Op       Op
	Val      string // literal text or identifier name
	Line     int
	Children []*Node

	// Cached analysis results.
	freeVars     []string // for OpFunction: free variables of the body
	freeVarsDone bool
	repr         Repr // for any node: classified representation
	reprDone     bool
}

// NewNode creates a node with the given opcode, value and source line.
func NewNode(op Op, val string, line int) *Node {
	return &Node{Op: op, Val: val, Line: line}
}

// AddChild appends a child node.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// ParamCount returns the number of parameters of an OpFunction node.
// Parameters are the leading OpIdentifier children; everything after them is
// the body.
func (n *Node) ParamCount() int {
	count := 0
	for count < len(n.Children) && n.Children[count].Op == OpIdentifier {
		count++
	}
	return count
}

// Params returns the parameter names of an OpFunction node.
func (n *Node) Params() []string {
	count := n.ParamCount()
	names := make([]string, count)
	for i := 0; i < count; i++ {
		names[i] = n.Children[i].Val
	}
	return names
}

// Body returns the body statements of an OpFunction node.
func (n *Node) Body() []*Node {
	return n.Children[n.ParamCount():]
}

// String renders the node as source-like text, mostly for test failures.
func (n *Node) String() string {
	var out strings.Builder
	n.write(&out)
	return out.String()
}

func (n *Node) write(out *strings.Builder) {
	switch n.Op {
	case OpInt, OpFloat, OpIdentifier:
		out.WriteString(n.Val)
	case OpString:
		fmt.Fprintf(out, "%q", n.Val)
	case OpAssignment:
		n.Children[0].write(out)
		out.WriteString(" = ")
		n.Children[1].write(out)
	case OpReturn:
		out.WriteString("<- ")
		n.Children[0].write(out)
	case OpStatement:
		for i, child := range n.Children {
			if i > 0 {
				out.WriteString("\n")
			}
			child.write(out)
		}
	case OpApplication:
		out.WriteString("(")
		for i, child := range n.Children {
			if i > 0 {
				out.WriteString(" ")
			}
			child.write(out)
		}
		out.WriteString(")")
	case OpFunction:
		out.WriteString("{")
		for i, name := range n.Params() {
			if i > 0 {
				out.WriteString(" ")
			}
			out.WriteString(name)
		}
		out.WriteString(" -> ")
		for i, stmt := range n.Body() {
			if i > 0 {
				out.WriteString("\n")
			}
			stmt.write(out)
		}
		out.WriteString("}")
	case OpList:
		out.WriteString("[")
		for i, child := range n.Children {
			if i > 0 {
				out.WriteString(", ")
			}
			child.write(out)
		}
		out.WriteString("]")
	}
}

// DumpAST prints an indented tree, used by the --ast flag.
func DumpAST(n *Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	if n.Val != "" {
		fmt.Printf("%s%s %q (line %d)\n", indent, n.Op, n.Val, n.Line)
	} else {
		fmt.Printf("%s%s (line %d)\n", indent, n.Op, n.Line)
	}
	for _, child := range n.Children {
		DumpAST(child, depth+1)
	}
}
