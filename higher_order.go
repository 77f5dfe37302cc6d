package main

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Higher-order primitives.
//
// map, map2, filter and reduce compile to calls into runtime iteration
// helpers that receive boxed arguments only. The callback travels as a boxed
// closure even when it names a capture-free function; the helper calls back
// through the uniform convention and cannot use a native signature. The
// source line rides along so the runtime can report out-of-domain failures
// (non-list operand, callback returning the wrong shape) with a location.
//
//	(map list callback)          callback(elem, index)
//	(map2 list1 list2 callback)  callback(elem1, elem2, index)
//	(filter list predicate)      predicate(elem, index)
//	(reduce list callback seed)  callback(acc, elem, index)

type higherOrderShape struct {
	argCount int // explicit arguments to the primitive
	cbIndex  int // which argument is the callback
	cbArity  int // parameters the callback must declare
}

var higherOrderShapes = map[string]higherOrderShape{
	"map":    {argCount: 2, cbIndex: 1, cbArity: 2},
	"filter": {argCount: 2, cbIndex: 1, cbArity: 2},
	"map2":   {argCount: 3, cbIndex: 2, cbArity: 3},
	"reduce": {argCount: 3, cbIndex: 1, cbArity: 3},
}

// compileHigherOrder compiles one of the iteration primitives.
func (cg *CodeGen) compileHigherOrder(name string, node *Node) (value.Value, error) {
	shape := higherOrderShapes[name]
	args := node.Children[1:]
	if len(args) != shape.argCount {
		return nil, arityErrorf(node.Line, name, shape.argCount, len(args))
	}
	if err := cg.checkCallbackArity(name, args[shape.cbIndex], shape.cbArity); err != nil {
		return nil, err
	}

	boxed := make([]value.Value, len(args))
	for i, arg := range args {
		v, err := cg.compileBoxedArg(arg)
		if err != nil {
			return nil, err
		}
		boxed[i] = v
	}
	line := constant.NewInt(types.I64, int64(node.Line))

	switch name {
	case "map":
		return cg.block.NewCall(cg.runtimeFunc("franz_llvm_map"), boxed[0], boxed[1], line), nil
	case "filter":
		return cg.block.NewCall(cg.runtimeFunc("franz_llvm_filter"), boxed[0], boxed[1], line), nil
	case "map2":
		return cg.block.NewCall(cg.runtimeFunc("franz_llvm_map2"), boxed[0], boxed[1], boxed[2], line), nil
	case "reduce":
		return cg.block.NewCall(cg.runtimeFunc("franz_llvm_reduce"), boxed[0], boxed[1], boxed[2], line), nil
	}
	return nil, errorf(node.Line, "unknown higher-order primitive %s", name)
}

// checkCallbackArity validates the callback's declared parameter count when
// it is statically known: a function literal, or a name bound to one. A
// callback arriving through an opaque value is checked by the runtime
// instead.
func (cg *CodeGen) checkCallbackArity(primitive string, cb *Node, want int) error {
	var fnNode *Node
	switch cb.Op {
	case OpFunction:
		fnNode = cb
	case OpIdentifier:
		if n, ok := cg.bindingFns[cb.Val]; ok {
			fnNode = n
		} else if n, ok := cg.funcNodes[cb.Val]; ok {
			fnNode = n
		}
	}
	if fnNode == nil {
		return nil
	}
	if got := fnNode.ParamCount(); got != want {
		return errorf(cb.Line, "%s callback expects %d parameters, got %d", primitive, want, got)
	}
	return nil
}
