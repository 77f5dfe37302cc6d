package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// CodeGen compiles a Franz expression tree into an LLVM SSA module.
//
// All compile-time state lives in this context object: the module under
// construction, the current function and insertion block, the representation
// tracker, and the registries for top-level functions and runtime helper
// declarations. Nothing is ambient, so compiling two modules from two
// goroutines needs two CodeGens and no locking.
type CodeGen struct {
	module      *ir.Module
	closureType *types.StructType // { i8* code, i8* environment }

	// Current insertion point.
	fn      *ir.Func
	block   *ir.Block
	retRepr Repr // representation the current function returns

	// Per-scope tables.
	reprs *ReprTracker
	vars  map[string]value.Value

	// Top-level function registries, filled by the forward-declaration pass.
	funcs       map[string]*ir.Func // capture-free: direct native calls
	closureFns  map[string]*ir.Func // capturing: uniform closure convention
	funcNodes   map[string]*Node
	paramReprs  map[string][]Repr
	returnReprs map[string]Repr
	wrappers    map[string]*ir.Func // direct function -> uniform-convention thunk

	// Module-level i8* globals holding the boxed closure record of each
	// capturing top-level function, so other bodies can call it by name.
	closureGlobals map[string]*ir.Global

	// Function literal per closure-valued binding, for call-site arity checks.
	bindingFns map[string]*Node

	// Closure-body state: slot index per captured variable plus the implicit
	// trailing environment parameter. Empty outside closure bodies.
	envSlots map[string]int
	envParam value.Value
	selfName string // name the function under compilation was bound to

	runtime map[string]*ir.Func

	strCount    int
	lambdaCount int
	blockCount  int
	debug       bool
}

// NewCodeGen creates a compilation context for one module.
func NewCodeGen(moduleName string) *CodeGen {
	m := ir.NewModule()
	m.SourceFilename = moduleName

	closureType := types.NewStruct(types.I8Ptr, types.I8Ptr)
	m.NewTypeDef("closure", closureType)

	return &CodeGen{
		module:         m,
		closureType:    closureType,
		reprs:          NewReprTracker(),
		vars:           make(map[string]value.Value),
		funcs:          make(map[string]*ir.Func),
		closureFns:     make(map[string]*ir.Func),
		funcNodes:      make(map[string]*Node),
		paramReprs:     make(map[string][]Repr),
		returnReprs:    make(map[string]Repr),
		wrappers:       make(map[string]*ir.Func),
		closureGlobals: make(map[string]*ir.Global),
		bindingFns:     make(map[string]*Node),
		envSlots:       make(map[string]int),
		runtime:        make(map[string]*ir.Func),
	}
}

// Compile translates a whole program (the root OpStatement node) and returns
// the finished module. Compilation is two-pass: first forward declarations
// for every top-level function, so bodies anywhere in the unit can call
// functions defined later and two functions can call each other; then every
// statement in source order, with function bodies compiled at their defining
// assignment so captured globals are in scope.
func (cg *CodeGen) Compile(program *Node) (*ir.Module, error) {
	if program == nil || program.Op != OpStatement {
		return nil, errorf(0, "program root must be a statement list")
	}

	mainFn := cg.module.NewFunc("main", types.I32)
	cg.fn = mainFn
	cg.block = mainFn.NewBlock("entry")
	cg.retRepr = ReprInt

	// The void sentinel is an ordinary native-int binding.
	cg.vars["void"] = constant.NewInt(types.I64, 10)
	cg.reprs.Bind("void", ReprInt)

	if err := cg.declareTopLevelFunctions(program); err != nil {
		return nil, err
	}
	if cg.debug {
		fmt.Fprintf(os.Stderr, "declared %d direct and %d closure functions\n",
			len(cg.funcs), len(cg.closureFns))
	}

	for _, child := range program.Children {
		if child.Op == OpAssignment && child.Children[1].Op == OpFunction {
			name := child.Children[0].Val
			if err := cg.compileTopLevelFunction(name, child.Children[1]); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := cg.compileNode(child); err != nil {
			return nil, err
		}
	}

	cg.block.NewRet(constant.NewInt(types.I32, 0))
	return cg.module, nil
}

// compileNode is the single dispatcher every subtree goes through.
func (cg *CodeGen) compileNode(node *Node) (value.Value, error) {
	switch node.Op {
	case OpInt:
		n, err := strconv.ParseInt(node.Val, 10, 64)
		if err != nil {
			return nil, errorf(node.Line, "invalid integer literal %q", node.Val)
		}
		return constant.NewInt(types.I64, n), nil

	case OpFloat:
		f, err := strconv.ParseFloat(node.Val, 64)
		if err != nil {
			return nil, errorf(node.Line, "invalid float literal %q", node.Val)
		}
		return constant.NewFloat(types.Double, f), nil

	case OpString:
		return cg.stringConstant(node.Val), nil

	case OpIdentifier:
		return cg.compileIdentifier(node)

	case OpStatement:
		return cg.compileStatements(node)

	case OpReturn:
		return cg.compileReturn(node)

	case OpAssignment:
		return cg.compileAssignment(node)

	case OpList:
		return cg.compileListLiteral(node)

	case OpFunction:
		return cg.compileClosureValue(node, "")

	case OpApplication:
		return cg.compileApplication(node)

	default:
		return nil, errorf(node.Line, "cannot compile %s node", node.Op)
	}
}

// compileStatements compiles children in order and yields the last value.
// Compilation stops early when a child terminated the block (a return).
func (cg *CodeGen) compileStatements(node *Node) (value.Value, error) {
	var last value.Value = constant.NewInt(types.I64, 10) // void
	for _, child := range node.Children {
		v, err := cg.compileNode(child)
		if err != nil {
			return nil, err
		}
		last = v
		if cg.block.Term != nil {
			break
		}
	}
	return last, nil
}

// compileIdentifier resolves a name: captured variable, local binding, or
// top-level function used as a value.
func (cg *CodeGen) compileIdentifier(node *Node) (value.Value, error) {
	name := node.Val

	// Locals and parameters shadow captured variables, which in turn shadow
	// the top-level registries.
	if v, ok := cg.vars[name]; ok {
		return v, nil
	}
	if idx, ok := cg.envSlots[name]; ok {
		return cg.loadCaptured(idx), nil
	}
	if g, ok := cg.closureGlobals[name]; ok {
		return cg.block.NewLoad(types.I8Ptr, g), nil
	}
	if _, ok := cg.funcs[name]; ok {
		return cg.functionValue(name, node.Line)
	}
	return nil, errorf(node.Line, "undefined variable '%s'", name)
}

// loadCaptured reads one slot of the implicit environment parameter.
func (cg *CodeGen) loadCaptured(idx int) value.Value {
	env := cg.block.NewBitCast(cg.envParam, types.NewPointer(types.I8Ptr))
	slot := cg.block.NewGetElementPtr(types.I8Ptr, env, constant.NewInt(types.I64, int64(idx)))
	return cg.block.NewLoad(types.I8Ptr, slot)
}

// compileAssignment introduces or updates a binding. The representation is
// fixed when the binding is introduced; a re-assignment that produces a
// different representation converts the new value back to the original one,
// so every use site can keep trusting the tracker.
func (cg *CodeGen) compileAssignment(node *Node) (value.Value, error) {
	name := node.Children[0].Val
	valueNode := node.Children[1]

	if valueNode.Op == OpFunction {
		v, err := cg.compileClosureValue(valueNode, name)
		if err != nil {
			return nil, err
		}
		cg.vars[name] = v
		cg.reprs.Bind(name, ReprBoxed)
		cg.bindingFns[name] = valueNode
		return v, nil
	}

	v, err := cg.compileNode(valueNode)
	if err != nil {
		return nil, err
	}
	r := cg.classify(valueNode)

	if existing, ok := cg.reprs.Lookup(name); ok && existing != r {
		v, err = cg.ensure(v, r, existing, node.Line)
		if err != nil {
			return nil, err
		}
		r = existing
	}

	cg.vars[name] = v
	cg.reprs.Bind(name, r)
	return v, nil
}

// compileReturn emits a return, converting the value to the representation
// the enclosing function declares.
func (cg *CodeGen) compileReturn(node *Node) (value.Value, error) {
	child := node.Children[0]
	v, err := cg.compileNode(child)
	if err != nil {
		return nil, err
	}
	converted, err := cg.ensure(v, cg.classify(child), cg.retRepr, node.Line)
	if err != nil {
		return nil, err
	}
	cg.block.NewRet(converted)
	return v, nil
}

// compileListLiteral builds a boxed list from element boxes via
// franz_list_new(Generic**, length).
func (cg *CodeGen) compileListLiteral(node *Node) (value.Value, error) {
	n := len(node.Children)
	listNew := cg.runtimeFunc("franz_list_new")

	if n == 0 {
		null := constant.NewNull(types.NewPointer(types.I8Ptr))
		return cg.block.NewCall(listNew, null, constant.NewInt(types.I64, 0)), nil
	}

	arrType := types.NewArray(uint64(n), types.I8Ptr)
	arr := cg.block.NewAlloca(arrType)
	zero := constant.NewInt(types.I64, 0)

	for i, elem := range node.Children {
		boxed, err := cg.compileBoxedArg(elem)
		if err != nil {
			return nil, err
		}
		slot := cg.block.NewGetElementPtr(arrType, arr, zero, constant.NewInt(types.I64, int64(i)))
		cg.block.NewStore(boxed, slot)
	}

	base := cg.block.NewGetElementPtr(arrType, arr, zero, zero)
	return cg.block.NewCall(listNew, base, constant.NewInt(types.I64, int64(n))), nil
}

// compileApplication routes an application to the built-in compiler it
// belongs to, a direct call, or the uniform closure-invocation path.
func (cg *CodeGen) compileApplication(node *Node) (value.Value, error) {
	head := node.Children[0]
	args := node.Children[1:]

	// Immediate invocation of a function literal, and calls through an
	// expression that evaluates to a closure.
	if head.Op == OpFunction || head.Op == OpApplication {
		callee, err := cg.compileNode(head)
		if err != nil {
			return nil, err
		}
		if head.Op == OpFunction && head.ParamCount() != len(args) {
			return nil, arityErrorf(node.Line, "function literal", head.ParamCount(), len(args))
		}
		return cg.invokeClosure(callee, args, node.Line)
	}
	if head.Op != OpIdentifier {
		return nil, errorf(node.Line, "cannot call %s value", head.Op)
	}
	name := head.Val

	// Built-ins resolve through this fixed table at every use site; a local
	// binding never shadows them inside an application head.
	switch name {
	case "if":
		return cg.compileIf(node)
	case "map", "map2", "filter", "reduce":
		return cg.compileHigherOrder(name, node)
	case "is_int", "is_float", "is_string", "is_list", "is_function":
		return cg.compileTypeGuard(name, node)
	case "ref", "deref", "set!":
		return cg.compileRefOp(name, node)
	case "add", "subtract", "multiply", "divide":
		return cg.compileArith(name, node)
	case "is", "less_than", "greater_than":
		return cg.compileCompare(name, node)
	case "not":
		return cg.compileNot(node)
	case "and", "or":
		return cg.compileLogical(name, node)
	case "println", "print":
		return cg.compilePrint(node)
	case "head", "tail":
		return cg.compileListUnary(name, node)
	case "cons":
		return cg.compileCons(node)
	case "nth":
		return cg.compileNth(node)
	case "length":
		return cg.compileLength(node)
	}

	// Self-recursion inside a closure body: call our own function, passing
	// our own environment through.
	if name == cg.selfName && cg.envParam != nil {
		return cg.invokeSelf(args, node.Line)
	}

	// Direct call to a statically-known capture-free function.
	if fn, ok := cg.funcs[name]; ok {
		return cg.compileDirectCall(name, fn, args, node.Line)
	}

	// Anything else must be a binding holding a boxed closure.
	if v, ok := cg.vars[name]; ok {
		if r, _ := cg.reprs.Lookup(name); r != ReprBoxed {
			return nil, errorf(node.Line, "'%s' is not a function", name)
		}
		if fnNode, ok := cg.bindingFns[name]; ok && fnNode.ParamCount() != len(args) {
			return nil, arityErrorf(node.Line, name, fnNode.ParamCount(), len(args))
		}
		return cg.invokeClosure(v, args, node.Line)
	}
	if idx, ok := cg.envSlots[name]; ok {
		if fnNode, ok := cg.bindingFns[name]; ok && fnNode.ParamCount() != len(args) {
			return nil, arityErrorf(node.Line, name, fnNode.ParamCount(), len(args))
		}
		return cg.invokeClosure(cg.loadCaptured(idx), args, node.Line)
	}
	if g, ok := cg.closureGlobals[name]; ok {
		if fnNode, ok := cg.bindingFns[name]; ok && fnNode.ParamCount() != len(args) {
			return nil, arityErrorf(node.Line, name, fnNode.ParamCount(), len(args))
		}
		boxed := cg.block.NewLoad(types.I8Ptr, g)
		return cg.invokeClosure(boxed, args, node.Line)
	}

	return nil, errorf(node.Line, "unknown function '%s'", name)
}

// compileDirectCall emits a plain call with natively-typed arguments. This is
// the zero-overhead path: no closure record, no boxing.
func (cg *CodeGen) compileDirectCall(name string, fn *ir.Func, args []*Node, line int) (value.Value, error) {
	params := cg.paramReprs[name]
	if len(args) != len(params) {
		return nil, arityErrorf(line, name, len(params), len(args))
	}

	callArgs := make([]value.Value, len(args))
	for i, arg := range args {
		v, err := cg.compileNode(arg)
		if err != nil {
			return nil, err
		}
		conv, err := cg.ensure(v, cg.classify(arg), params[i], arg.Line)
		if err != nil {
			return nil, err
		}
		callArgs[i] = conv
	}
	return cg.block.NewCall(fn, callArgs...), nil
}

// compileArith compiles add/subtract/multiply/divide. The operand target kind
// is float if either operand classifies float, else int; boxed operands are
// unboxed to the target kind before the operation, raw natives are used
// as-is.
func (cg *CodeGen) compileArith(name string, node *Node) (value.Value, error) {
	args := node.Children[1:]
	if len(args) != 2 {
		return nil, arityErrorf(node.Line, name, 2, len(args))
	}

	target := ReprInt
	for _, arg := range args {
		if cg.classify(arg) == ReprFloat {
			target = ReprFloat
		}
	}

	operands := make([]value.Value, 2)
	for i, arg := range args {
		v, err := cg.compileNode(arg)
		if err != nil {
			return nil, err
		}
		conv, err := cg.ensure(v, cg.classify(arg), target, arg.Line)
		if err != nil {
			return nil, err
		}
		operands[i] = conv
	}

	x, y := operands[0], operands[1]
	if target == ReprFloat {
		switch name {
		case "add":
			return cg.block.NewFAdd(x, y), nil
		case "subtract":
			return cg.block.NewFSub(x, y), nil
		case "multiply":
			return cg.block.NewFMul(x, y), nil
		case "divide":
			return cg.block.NewFDiv(x, y), nil
		}
	}
	switch name {
	case "add":
		return cg.block.NewAdd(x, y), nil
	case "subtract":
		return cg.block.NewSub(x, y), nil
	case "multiply":
		return cg.block.NewMul(x, y), nil
	case "divide":
		return cg.block.NewSDiv(x, y), nil
	}
	return nil, errorf(node.Line, "unknown arithmetic operation %s", name)
}

// compileCompare compiles is/less_than/greater_than to an icmp or fcmp plus a
// widening back to i64 (Franz booleans are integers).
func (cg *CodeGen) compileCompare(name string, node *Node) (value.Value, error) {
	args := node.Children[1:]
	if len(args) != 2 {
		return nil, arityErrorf(node.Line, name, 2, len(args))
	}

	target := ReprInt
	for _, arg := range args {
		if cg.classify(arg) == ReprFloat {
			target = ReprFloat
		}
	}

	operands := make([]value.Value, 2)
	for i, arg := range args {
		v, err := cg.compileNode(arg)
		if err != nil {
			return nil, err
		}
		conv, err := cg.ensure(v, cg.classify(arg), target, arg.Line)
		if err != nil {
			return nil, err
		}
		operands[i] = conv
	}

	var bit value.Value
	if target == ReprFloat {
		var pred enum.FPred
		switch name {
		case "is":
			pred = enum.FPredOEQ
		case "less_than":
			pred = enum.FPredOLT
		case "greater_than":
			pred = enum.FPredOGT
		}
		bit = cg.block.NewFCmp(pred, operands[0], operands[1])
	} else {
		var pred enum.IPred
		switch name {
		case "is":
			pred = enum.IPredEQ
		case "less_than":
			pred = enum.IPredSLT
		case "greater_than":
			pred = enum.IPredSGT
		}
		bit = cg.block.NewICmp(pred, operands[0], operands[1])
	}
	return cg.block.NewZExt(bit, types.I64), nil
}

// compileNot compiles logical negation of a truthiness value.
func (cg *CodeGen) compileNot(node *Node) (value.Value, error) {
	args := node.Children[1:]
	if len(args) != 1 {
		return nil, arityErrorf(node.Line, "not", 1, len(args))
	}
	v, err := cg.compileTruthiness(args[0])
	if err != nil {
		return nil, err
	}
	flipped := cg.block.NewICmp(enum.IPredEQ, v, constant.NewInt(types.I1, 0))
	return cg.block.NewZExt(flipped, types.I64), nil
}

// compileLogical compiles and/or over truthiness bits. Both operands are
// evaluated: and/or do not short-circuit in this backend.
func (cg *CodeGen) compileLogical(name string, node *Node) (value.Value, error) {
	args := node.Children[1:]
	if len(args) != 2 {
		return nil, arityErrorf(node.Line, name, 2, len(args))
	}
	x, err := cg.compileTruthiness(args[0])
	if err != nil {
		return nil, err
	}
	y, err := cg.compileTruthiness(args[1])
	if err != nil {
		return nil, err
	}
	var bit value.Value
	if name == "and" {
		bit = cg.block.NewAnd(x, y)
	} else {
		bit = cg.block.NewOr(x, y)
	}
	return cg.block.NewZExt(bit, types.I64), nil
}

// compileTruthiness compiles an expression down to an i1: zero is false,
// anything else is true. Boxed values are unboxed as integers first.
func (cg *CodeGen) compileTruthiness(node *Node) (value.Value, error) {
	v, err := cg.compileNode(node)
	if err != nil {
		return nil, err
	}
	return cg.truthiness(v, cg.classify(node)), nil
}

func (cg *CodeGen) truthiness(v value.Value, r Repr) value.Value {
	switch r {
	case ReprFloat:
		return cg.block.NewFCmp(enum.FPredONE, v, constant.NewFloat(types.Double, 0))
	case ReprString:
		word := cg.block.NewPtrToInt(v, types.I64)
		return cg.block.NewICmp(enum.IPredNE, word, constant.NewInt(types.I64, 0))
	case ReprBoxed:
		unboxed := cg.unboxInt(v)
		return cg.block.NewICmp(enum.IPredNE, unboxed, constant.NewInt(types.I64, 0))
	default:
		return cg.block.NewICmp(enum.IPredNE, v, constant.NewInt(types.I64, 0))
	}
}

// compilePrint boxes the operand and hands it to the runtime printer, which
// dispatches on the tag.
func (cg *CodeGen) compilePrint(node *Node) (value.Value, error) {
	args := node.Children[1:]
	if len(args) != 1 {
		return nil, arityErrorf(node.Line, node.Children[0].Val, 1, len(args))
	}
	boxed, err := cg.compileBoxedArg(args[0])
	if err != nil {
		return nil, err
	}
	cg.block.NewCall(cg.runtimeFunc("franz_print_generic"), boxed)
	return constant.NewInt(types.I64, 0), nil
}

// compileListUnary compiles head/tail.
func (cg *CodeGen) compileListUnary(name string, node *Node) (value.Value, error) {
	args := node.Children[1:]
	if len(args) != 1 {
		return nil, arityErrorf(node.Line, name, 1, len(args))
	}
	list, err := cg.compileBoxedArg(args[0])
	if err != nil {
		return nil, err
	}
	return cg.block.NewCall(cg.runtimeFunc("franz_list_"+name), list), nil
}

// compileCons compiles (cons elem list).
func (cg *CodeGen) compileCons(node *Node) (value.Value, error) {
	args := node.Children[1:]
	if len(args) != 2 {
		return nil, arityErrorf(node.Line, "cons", 2, len(args))
	}
	elem, err := cg.compileBoxedArg(args[0])
	if err != nil {
		return nil, err
	}
	list, err := cg.compileBoxedArg(args[1])
	if err != nil {
		return nil, err
	}
	return cg.block.NewCall(cg.runtimeFunc("franz_list_cons"), elem, list), nil
}

// compileNth compiles (nth list index); the index stays native.
func (cg *CodeGen) compileNth(node *Node) (value.Value, error) {
	args := node.Children[1:]
	if len(args) != 2 {
		return nil, arityErrorf(node.Line, "nth", 2, len(args))
	}
	list, err := cg.compileBoxedArg(args[0])
	if err != nil {
		return nil, err
	}
	idx, err := cg.compileNode(args[1])
	if err != nil {
		return nil, err
	}
	idxConv, err := cg.ensure(idx, cg.classify(args[1]), ReprInt, args[1].Line)
	if err != nil {
		return nil, err
	}
	return cg.block.NewCall(cg.runtimeFunc("franz_list_nth"), list, idxConv), nil
}

// compileLength compiles (length list); the result is a native integer.
func (cg *CodeGen) compileLength(node *Node) (value.Value, error) {
	args := node.Children[1:]
	if len(args) != 1 {
		return nil, arityErrorf(node.Line, "length", 1, len(args))
	}
	list, err := cg.compileBoxedArg(args[0])
	if err != nil {
		return nil, err
	}
	return cg.block.NewCall(cg.runtimeFunc("franz_list_length"), list), nil
}

// compileBoxedArg compiles an argument and widens it to a box.
func (cg *CodeGen) compileBoxedArg(node *Node) (value.Value, error) {
	v, err := cg.compileNode(node)
	if err != nil {
		return nil, err
	}
	return cg.box(v, cg.classify(node), node.Line)
}

// stringConstant interns a NUL-terminated global and returns the i8* to its
// first byte.
func (cg *CodeGen) stringConstant(s string) value.Value {
	name := fmt.Sprintf(".str.%d", cg.strCount)
	cg.strCount++
	g := cg.module.NewGlobalDef(name, constant.NewCharArrayFromString(s+"\x00"))
	g.Immutable = true
	zero := constant.NewInt(types.I64, 0)
	return constant.NewGetElementPtr(g.ContentType, g, zero, zero)
}
