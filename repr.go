package main

import (
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Representation tracking.
//
// Every live binding and every expression node has exactly one representation:
// a native machine scalar (i64, double, raw i8* string) or a boxed dynamic
// value (an opaque, tagged, reference-counted Generic* pointer). The tables
// here are the single source of truth for whether a conversion is required at
// a use site. The LLVM type of an SSA value is NOT enough: a boxed pointer
// cast to i64 and a raw arithmetic i64 are indistinguishable at the type
// level, so the discriminant is carried explicitly per binding and node,
// never reconstructed from the machine type.

// Repr classifies the current representation of a value.
type Repr int

const (
	ReprUnknown Repr = iota
	ReprInt          // native i64
	ReprFloat        // native double
	ReprString       // native i8* (raw C string)
	ReprBoxed        // Generic* (tagged heap value)
)

func (r Repr) String() string {
	switch r {
	case ReprInt:
		return "native-int"
	case ReprFloat:
		return "native-float"
	case ReprString:
		return "native-string"
	case ReprBoxed:
		return "boxed"
	default:
		return "unknown"
	}
}

// ReprTracker records the representation of each live binding. A binding's
// classification is fixed at its introduction and invalidated only by leaving
// scope; each function body is compiled with its own fresh table, since
// enclosing bindings reach a body only through boxed environment slots.
type ReprTracker struct {
	bindings map[string]Repr
}

func NewReprTracker() *ReprTracker {
	return &ReprTracker{bindings: make(map[string]Repr)}
}

// Bind records the representation of a binding at its introduction.
func (t *ReprTracker) Bind(name string, r Repr) {
	t.bindings[name] = r
}

// Lookup returns the recorded representation of a binding.
func (t *ReprTracker) Lookup(name string) (Repr, bool) {
	r, ok := t.bindings[name]
	return r, ok
}

// classify resolves the representation of an expression node. Priority order:
// literals are always native and read their kind from their own tag; a
// binding's classification comes from the tracker; operations known to box
// (list indexing, higher-order results, dereference, closure calls) are
// boxed; arithmetic and comparison built-ins are native. The result is cached
// on the node.
func (cg *CodeGen) classify(node *Node) Repr {
	if node == nil {
		return ReprUnknown
	}
	if node.reprDone {
		return node.repr
	}
	r := cg.classifyUncached(node)
	node.repr = r
	node.reprDone = true
	return r
}

func (cg *CodeGen) classifyUncached(node *Node) Repr {
	switch node.Op {
	case OpInt:
		return ReprInt
	case OpFloat:
		return ReprFloat
	case OpString:
		return ReprString
	case OpList:
		return ReprBoxed
	case OpFunction:
		return ReprBoxed
	case OpIdentifier:
		if node.Val == "void" {
			return ReprInt
		}
		if r, ok := cg.reprs.Lookup(node.Val); ok {
			return r
		}
		if _, ok := cg.envSlots[node.Val]; ok {
			return ReprBoxed
		}
		if _, ok := cg.closureGlobals[node.Val]; ok {
			return ReprBoxed
		}
		if _, ok := cg.funcs[node.Val]; ok {
			return ReprBoxed // function reference used as a value
		}
		return ReprUnknown
	case OpStatement:
		if len(node.Children) == 0 {
			return ReprInt
		}
		return cg.classify(node.Children[len(node.Children)-1])
	case OpReturn:
		return cg.classify(node.Children[0])
	case OpAssignment:
		return cg.classify(node.Children[1])
	case OpApplication:
		return cg.classifyApplication(node)
	default:
		return ReprUnknown
	}
}

func (cg *CodeGen) classifyApplication(node *Node) Repr {
	head := node.Children[0]
	if head.Op == OpFunction {
		return ReprBoxed // immediate closure invocation goes through the boxed path
	}
	if head.Op != OpIdentifier {
		return ReprBoxed
	}
	args := node.Children[1:]

	switch head.Val {
	case "add", "subtract", "multiply", "divide":
		for _, arg := range args {
			if cg.classify(arg) == ReprFloat {
				return ReprFloat
			}
		}
		return ReprInt
	case "is", "less_than", "greater_than", "not", "and", "or":
		return ReprInt
	case "is_int", "is_float", "is_string", "is_list", "is_function":
		return ReprInt
	case "length":
		return ReprInt
	case "println", "print":
		return ReprInt
	case "if":
		if len(args) < 2 {
			return ReprUnknown
		}
		thenRepr := cg.classify(args[1])
		elseRepr := ReprInt
		if len(args) > 2 {
			elseRepr = cg.classify(args[2])
		}
		return unifyRepr(thenRepr, elseRepr)
	case "head", "tail", "nth", "cons", "map", "map2", "filter", "reduce",
		"ref", "deref", "set!":
		return ReprBoxed
	}

	// User function: direct calls carry their inferred return representation,
	// closure calls return boxed.
	if r, ok := cg.returnReprs[head.Val]; ok {
		if _, direct := cg.funcs[head.Val]; direct {
			return r
		}
	}
	return ReprBoxed
}

// unifyRepr merges the representations of two branch values per the
// conditional unification rule: same kind merges directly, int promotes to
// float, anything boxed forces boxed.
func unifyRepr(a, b Repr) Repr {
	if a == b {
		return a
	}
	if (a == ReprInt && b == ReprFloat) || (a == ReprFloat && b == ReprInt) {
		return ReprFloat
	}
	return ReprBoxed
}

// ensure converts a compiled value from one representation to another,
// emitting the minimal box/unbox/promotion instructions. No-op when the
// representations already match.
func (cg *CodeGen) ensure(v value.Value, from, to Repr, line int) (value.Value, error) {
	if from == to || to == ReprUnknown {
		return v, nil
	}

	switch to {
	case ReprBoxed:
		return cg.box(v, from, line)

	case ReprInt:
		switch from {
		case ReprBoxed:
			return cg.unboxInt(v), nil
		case ReprFloat:
			// Narrowing, truncating toward zero.
			return cg.block.NewFPToSI(v, types.I64), nil
		}
		return nil, errorf(line, "cannot use %s value as integer", from)

	case ReprFloat:
		switch from {
		case ReprInt:
			// Promotion, not a conversion through the heap.
			return cg.block.NewSIToFP(v, types.Double), nil
		case ReprBoxed:
			return cg.unboxFloat(v), nil
		}
		return nil, errorf(line, "cannot use %s value as float", from)

	case ReprString:
		if from == ReprBoxed {
			// Strings pass through: callers that need generic treatment keep
			// the box, callers that need the raw bytes unbox.
			return cg.block.NewCall(cg.runtimeFunc("franz_unbox_string"), cg.asGenericPtr(v)), nil
		}
		return nil, errorf(line, "cannot use %s value as string", from)
	}
	return nil, errorf(line, "unsupported conversion from %s to %s", from, to)
}

// box widens a native value into a Generic* box. Boxed input passes through.
func (cg *CodeGen) box(v value.Value, from Repr, line int) (value.Value, error) {
	switch from {
	case ReprBoxed:
		return cg.asGenericPtr(v), nil
	case ReprInt:
		return cg.block.NewCall(cg.runtimeFunc("franz_box_int"), v), nil
	case ReprFloat:
		return cg.block.NewCall(cg.runtimeFunc("franz_box_float"), v), nil
	case ReprString:
		return cg.block.NewCall(cg.runtimeFunc("franz_box_string"), v), nil
	}
	return nil, errorf(line, "cannot box %s value", from)
}

// unboxInt narrows a boxed value to a native i64. The incoming SSA value may
// already be an i8* or may be a boxed pointer travelling disguised as an i64
// word; the classification decided the unbox, not the machine type.
func (cg *CodeGen) unboxInt(v value.Value) value.Value {
	return cg.block.NewCall(cg.runtimeFunc("franz_unbox_int"), cg.asGenericPtr(v))
}

// unboxFloat narrows a boxed value to a native double.
func (cg *CodeGen) unboxFloat(v value.Value) value.Value {
	return cg.block.NewCall(cg.runtimeFunc("franz_unbox_float"), cg.asGenericPtr(v))
}

// asGenericPtr adapts a value classified as boxed to the i8* the runtime
// helpers take, recovering the pointer from an i64 word when needed.
func (cg *CodeGen) asGenericPtr(v value.Value) value.Value {
	if t, ok := v.Type().(*types.IntType); ok && t.BitSize == 64 {
		return cg.block.NewIntToPtr(v, types.I8Ptr)
	}
	if types.Equal(v.Type(), types.I8Ptr) {
		return v
	}
	return cg.block.NewBitCast(v, types.I8Ptr)
}

// reprType maps a representation to its LLVM value type.
func reprType(r Repr) types.Type {
	switch r {
	case ReprFloat:
		return types.Double
	case ReprString, ReprBoxed:
		return types.I8Ptr
	default:
		return types.I64
	}
}
