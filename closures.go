package main

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Closure compilation.
//
// Every closure is a two-word heap record { i8* code, i8* environment } boxed
// as a tagged Generic*. The code pointer follows one uniform convention: each
// declared parameter is a boxed i8*, a trailing i8* carries the environment,
// and the result is boxed. That uniformity is what lets the runtime iteration
// helpers call back into compiled code without knowing anything about the
// callee. The environment is a malloc'd array of boxed slots holding exactly
// the free variables, in first-use order.

// compileClosureValue compiles a function literal into a boxed closure value.
// name is the binding the literal is being assigned to ("" for anonymous);
// self-recursion through that name calls the function directly rather than
// capturing it.
func (cg *CodeGen) compileClosureValue(fnNode *Node, name string) (value.Value, error) {
	fv := cg.freeVars(fnNode)
	captured := make([]string, 0, len(fv))
	for _, v := range fv {
		if v != name {
			captured = append(captured, v)
		}
	}

	lambdaName := fmt.Sprintf("_franz_lambda_%d", cg.lambdaCount)
	cg.lambdaCount++

	n := fnNode.ParamCount()
	irParams := make([]*ir.Param, 0, n+1)
	for _, pname := range fnNode.Params() {
		irParams = append(irParams, ir.NewParam(pname, types.I8Ptr))
	}
	irParams = append(irParams, ir.NewParam("env", types.I8Ptr))
	fn := cg.module.NewFunc(lambdaName, types.I8Ptr, irParams...)

	boxed := make([]Repr, n)
	for i := range boxed {
		boxed[i] = ReprBoxed
	}
	if err := cg.compileFunctionBody(fn, fnNode, name, captured, boxed, ReprBoxed, true); err != nil {
		return nil, err
	}

	env, err := cg.buildEnv(captured, fnNode.Line)
	if err != nil {
		return nil, err
	}
	return cg.makeClosureRecord(fn, env), nil
}

// buildEnv allocates and fills the environment array for the given captured
// variables, resolved in the current scope. An empty capture set costs
// nothing: the environment is a null pointer.
func (cg *CodeGen) buildEnv(captured []string, line int) (value.Value, error) {
	if len(captured) == 0 {
		return constant.NewNull(types.I8Ptr), nil
	}

	size := constant.NewInt(types.I64, int64(len(captured)*8))
	raw := cg.block.NewCall(cg.runtimeFunc("malloc"), size)
	arr := cg.block.NewBitCast(raw, types.NewPointer(types.I8Ptr))

	for i, name := range captured {
		v, err := cg.captureValue(name, line)
		if err != nil {
			return nil, err
		}
		slot := cg.block.NewGetElementPtr(types.I8Ptr, arr, constant.NewInt(types.I64, int64(i)))
		cg.block.NewStore(v, slot)
	}
	return raw, nil
}

// captureValue resolves a free variable in the defining scope and boxes it
// for its environment slot.
func (cg *CodeGen) captureValue(name string, line int) (value.Value, error) {
	if v, ok := cg.vars[name]; ok {
		r, _ := cg.reprs.Lookup(name)
		return cg.box(v, r, line)
	}
	if idx, ok := cg.envSlots[name]; ok {
		// Already boxed in our own environment; pass the box along.
		return cg.loadCaptured(idx), nil
	}
	if g, ok := cg.closureGlobals[name]; ok {
		return cg.block.NewLoad(types.I8Ptr, g), nil
	}
	if _, ok := cg.funcs[name]; ok {
		return cg.functionValue(name, line)
	}
	return nil, errorf(line, "undefined variable '%s' captured by closure", name)
}

// makeClosureRecord heap-allocates a closure record, fills in the code and
// environment pointers, and boxes it.
func (cg *CodeGen) makeClosureRecord(code value.Value, env value.Value) value.Value {
	raw := cg.block.NewCall(cg.runtimeFunc("malloc"), constant.NewInt(types.I64, 16))
	rec := cg.block.NewBitCast(raw, types.NewPointer(cg.closureType))

	zero := constant.NewInt(types.I32, 0)
	one := constant.NewInt(types.I32, 1)

	codePtr := cg.block.NewBitCast(code, types.I8Ptr)
	codeSlot := cg.block.NewGetElementPtr(cg.closureType, rec, zero, zero)
	cg.block.NewStore(codePtr, codeSlot)
	envSlot := cg.block.NewGetElementPtr(cg.closureType, rec, zero, one)
	cg.block.NewStore(env, envSlot)

	return cg.block.NewCall(cg.runtimeFunc("franz_box_closure"), raw)
}

// invokeClosure calls a boxed closure value with the given argument
// expressions: unbox the record, load the code and environment pointers, box
// every argument, and call through the uniform convention.
func (cg *CodeGen) invokeClosure(callee value.Value, args []*Node, line int) (value.Value, error) {
	generic := cg.asGenericPtr(callee)
	raw := cg.block.NewCall(cg.runtimeFunc("franz_generic_to_closure_ptr"), generic)
	rec := cg.block.NewBitCast(raw, types.NewPointer(cg.closureType))

	zero := constant.NewInt(types.I32, 0)
	one := constant.NewInt(types.I32, 1)
	code := cg.block.NewLoad(types.I8Ptr, cg.block.NewGetElementPtr(cg.closureType, rec, zero, zero))
	env := cg.block.NewLoad(types.I8Ptr, cg.block.NewGetElementPtr(cg.closureType, rec, zero, one))

	callArgs := make([]value.Value, 0, len(args)+1)
	for _, arg := range args {
		boxed, err := cg.compileBoxedArg(arg)
		if err != nil {
			return nil, err
		}
		callArgs = append(callArgs, boxed)
	}
	callArgs = append(callArgs, env)

	sigParams := make([]types.Type, len(args)+1)
	for i := range sigParams {
		sigParams[i] = types.I8Ptr
	}
	sig := types.NewFunc(types.I8Ptr, sigParams...)
	fp := cg.block.NewBitCast(code, types.NewPointer(sig))
	return cg.block.NewCall(fp, callArgs...), nil
}

// invokeSelf compiles a recursive call inside a closure body: the callee is
// our own function and the environment is passed straight through.
func (cg *CodeGen) invokeSelf(args []*Node, line int) (value.Value, error) {
	expected := len(cg.fn.Params) - 1
	if len(args) != expected {
		return nil, arityErrorf(line, cg.selfName, expected, len(args))
	}
	callArgs := make([]value.Value, 0, len(args)+1)
	for _, arg := range args {
		boxed, err := cg.compileBoxedArg(arg)
		if err != nil {
			return nil, err
		}
		callArgs = append(callArgs, boxed)
	}
	callArgs = append(callArgs, cg.envParam)
	return cg.block.NewCall(cg.fn, callArgs...), nil
}

// functionValue turns a capture-free direct function into a boxed closure
// value, for use sites that treat the function as data (callbacks, bindings).
// The closure's code pointer is a thunk that unboxes arguments into the
// native signature and boxes the result.
func (cg *CodeGen) functionValue(name string, line int) (value.Value, error) {
	w, ok := cg.wrappers[name]
	if !ok {
		var err error
		w, err = cg.buildWrapper(name)
		if err != nil {
			return nil, err
		}
		cg.wrappers[name] = w
	}
	return cg.makeClosureRecord(w, constant.NewNull(types.I8Ptr)), nil
}

// buildWrapper emits the uniform-convention thunk around a direct function.
func (cg *CodeGen) buildWrapper(name string) (*ir.Func, error) {
	target := cg.funcs[name]
	params := cg.paramReprs[name]

	irParams := make([]*ir.Param, 0, len(params)+1)
	for i := range params {
		irParams = append(irParams, ir.NewParam(fmt.Sprintf("a%d", i), types.I8Ptr))
	}
	irParams = append(irParams, ir.NewParam("env", types.I8Ptr))
	w := cg.module.NewFunc("_franz_"+name+"_wrapper", types.I8Ptr, irParams...)

	savedFn, savedBlock := cg.fn, cg.block
	cg.fn = w
	cg.block = w.NewBlock("entry")

	callArgs := make([]value.Value, len(params))
	for i, p := range params {
		conv, err := cg.ensure(w.Params[i], ReprBoxed, p, 0)
		if err != nil {
			cg.fn, cg.block = savedFn, savedBlock
			return nil, err
		}
		callArgs[i] = conv
	}
	res := cg.block.NewCall(target, callArgs...)
	boxed, err := cg.box(res, cg.returnReprs[name], 0)
	if err != nil {
		cg.fn, cg.block = savedFn, savedBlock
		return nil, err
	}
	cg.block.NewRet(boxed)

	cg.fn, cg.block = savedFn, savedBlock
	return w, nil
}
