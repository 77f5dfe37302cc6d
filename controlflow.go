package main

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Conditional compilation.
//
// (if cond then else) is an expression, so the two branch values must end up
// with one representation at the merge point. The unification rule: equal
// kinds stay native, int meeting float promotes the int branch to float, and
// anything meeting a boxed value boxes both branches. Each conversion is
// emitted inside the branch that needs it, before that branch's jump to the
// merge block, so the phi sees uniformly-typed incomings.

// compileIf compiles a conditional expression. A missing else branch
// contributes a native integer zero.
func (cg *CodeGen) compileIf(node *Node) (value.Value, error) {
	args := node.Children[1:]
	if len(args) != 2 && len(args) != 3 {
		return nil, errorf(node.Line, "if expects 2 or 3 arguments, got %d", len(args))
	}

	thenRepr := cg.classify(args[1])
	elseRepr := ReprInt
	if len(args) == 3 {
		elseRepr = cg.classify(args[2])
	}
	unified := unifyRepr(thenRepr, elseRepr)
	if unified == ReprUnknown {
		unified = ReprBoxed
	}

	cond, err := cg.compileTruthiness(args[0])
	if err != nil {
		return nil, err
	}

	id := cg.blockCount
	cg.blockCount++
	thenBlock := cg.fn.NewBlock(fmt.Sprintf("if_then_%d", id))
	elseBlock := cg.fn.NewBlock(fmt.Sprintf("if_else_%d", id))
	mergeBlock := cg.fn.NewBlock(fmt.Sprintf("if_merge_%d", id))
	cg.block.NewCondBr(cond, thenBlock, elseBlock)

	var incomings []*ir.Incoming

	// Branch compilation may itself create blocks (nested conditionals), so
	// the jump to merge goes into whatever block the branch ended in.
	cg.block = thenBlock
	thenVal, err := cg.compileNode(args[1])
	if err != nil {
		return nil, err
	}
	if cg.block.Term == nil {
		conv, err := cg.ensure(thenVal, thenRepr, unified, args[1].Line)
		if err != nil {
			return nil, err
		}
		incomings = append(incomings, ir.NewIncoming(conv, cg.block))
		cg.block.NewBr(mergeBlock)
	}

	cg.block = elseBlock
	var elseVal value.Value = constant.NewInt(types.I64, 0)
	if len(args) == 3 {
		elseVal, err = cg.compileNode(args[2])
		if err != nil {
			return nil, err
		}
	}
	if cg.block.Term == nil {
		conv, err := cg.ensure(elseVal, elseRepr, unified, node.Line)
		if err != nil {
			return nil, err
		}
		incomings = append(incomings, ir.NewIncoming(conv, cg.block))
		cg.block.NewBr(mergeBlock)
	}

	cg.block = mergeBlock
	switch len(incomings) {
	case 0:
		// Both branches returned; the merge block is unreachable and the
		// expression value is never observed.
		return zeroValue(unified), nil
	case 1:
		return incomings[0].X, nil
	default:
		return cg.block.NewPhi(incomings...), nil
	}
}

// zeroValue is the placeholder for a representation's never-observed value.
func zeroValue(r Repr) value.Value {
	switch r {
	case ReprFloat:
		return constant.NewFloat(types.Double, 0)
	case ReprString, ReprBoxed:
		return constant.NewNull(types.I8Ptr)
	default:
		return constant.NewInt(types.I64, 0)
	}
}
