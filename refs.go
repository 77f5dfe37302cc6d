package main

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Mutable reference cells.
//
// ref/deref/set! are thin calls into the runtime: the cell is a tagged heap
// object holding one boxed value, so the only compile-time work is boxing the
// operands and threading the source line for runtime diagnostics (deref of a
// non-ref, set! on a dead cell).

func (cg *CodeGen) compileRefOp(name string, node *Node) (value.Value, error) {
	args := node.Children[1:]
	line := constant.NewInt(types.I64, int64(node.Line))

	switch name {
	case "ref":
		if len(args) != 1 {
			return nil, arityErrorf(node.Line, "ref", 1, len(args))
		}
		v, err := cg.compileBoxedArg(args[0])
		if err != nil {
			return nil, err
		}
		return cg.block.NewCall(cg.runtimeFunc("franz_llvm_create_ref"), v, line), nil

	case "deref":
		if len(args) != 1 {
			return nil, arityErrorf(node.Line, "deref", 1, len(args))
		}
		cell, err := cg.compileBoxedArg(args[0])
		if err != nil {
			return nil, err
		}
		return cg.block.NewCall(cg.runtimeFunc("franz_llvm_deref"), cell, line), nil

	case "set!":
		if len(args) != 2 {
			return nil, arityErrorf(node.Line, "set!", 2, len(args))
		}
		cell, err := cg.compileBoxedArg(args[0])
		if err != nil {
			return nil, err
		}
		v, err := cg.compileBoxedArg(args[1])
		if err != nil {
			return nil, err
		}
		return cg.block.NewCall(cg.runtimeFunc("franz_llvm_set_ref"), cell, v, line), nil
	}
	return nil, errorf(node.Line, "unknown reference operation %s", name)
}
