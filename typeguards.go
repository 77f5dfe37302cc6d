package main

import (
	"fmt"
	"os"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Type guards.
//
// When the operand's representation is statically known the guard folds to a
// compile-time 0/1 and costs nothing at run time. A boxed operand defers to
// one runtime tag check, uniformly for every guard. An operand the tracker
// cannot classify at all degrades to a constant false with a warning instead
// of aborting: the narrow escape hatch for shapes the classifier does not
// cover yet. The operand is always evaluated for its effects.

var guardTags = map[string]int64{
	"is_int":      tagInt,
	"is_float":    tagFloat,
	"is_string":   tagString,
	"is_list":     tagList,
	"is_function": tagFunction,
}

// compileTypeGuard compiles one of the is_* predicates.
func (cg *CodeGen) compileTypeGuard(name string, node *Node) (value.Value, error) {
	args := node.Children[1:]
	if len(args) != 1 {
		return nil, arityErrorf(node.Line, name, 1, len(args))
	}
	arg := args[0]
	r := cg.classify(arg)

	v, err := cg.compileNode(arg)
	if err != nil {
		return nil, err
	}

	switch r {
	case ReprInt, ReprFloat, ReprString:
		match := (name == "is_int" && r == ReprInt) ||
			(name == "is_float" && r == ReprFloat) ||
			(name == "is_string" && r == ReprString)
		if match {
			return constant.NewInt(types.I64, 1), nil
		}
		return constant.NewInt(types.I64, 0), nil

	case ReprBoxed:
		generic := cg.asGenericPtr(v)
		tag := constant.NewInt(types.I64, guardTags[name])
		return cg.block.NewCall(cg.runtimeFunc("franz_generic_is"), generic, tag), nil

	default:
		fmt.Fprintf(os.Stderr, "WARNING: %s cannot classify its operand at line %d, assuming false\n",
			name, node.Line)
		return constant.NewInt(types.I64, 0), nil
	}
}
