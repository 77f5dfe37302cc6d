package main

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Forward-declaration pass.
//
// Every top-level function binding gets its declaration before any body is
// compiled, so a body can call functions defined later in the file and two
// functions can call each other. Capture-free functions are declared with
// native parameter and return types and called directly; capturing functions
// are declared in the uniform closure convention (boxed parameters, trailing
// environment pointer, boxed result) and published through a module-level
// global holding the boxed closure record, initialised when their defining
// assignment executes.

// declareTopLevelFunctions registers and declares every top-level function
// binding of the program.
func (cg *CodeGen) declareTopLevelFunctions(program *Node) error {
	type decl struct {
		name   string
		fnNode *Node
	}
	var decls []decl

	// Register every name first: free-variable analysis must see the full
	// set of top-level functions so mutual references resolve by name
	// instead of forcing a capture.
	for _, child := range program.Children {
		if child.Op != OpAssignment || child.Children[1].Op != OpFunction {
			continue
		}
		name := child.Children[0].Val
		if _, dup := cg.funcNodes[name]; dup {
			return errorf(child.Line, "function '%s' defined twice", name)
		}
		cg.funcNodes[name] = child.Children[1]
		decls = append(decls, decl{name, child.Children[1]})
	}

	var directs, capturing []decl
	for _, d := range decls {
		cg.bindingFns[d.name] = d.fnNode
		if len(cg.freeVars(d.fnNode)) == 0 {
			directs = append(directs, d)
		} else {
			capturing = append(capturing, d)
		}
	}

	// Capturing functions use the uniform convention, so their signatures
	// are known up front and can feed direct-function inference.
	for _, d := range capturing {
		n := d.fnNode.ParamCount()
		boxed := make([]Repr, n)
		for i := range boxed {
			boxed[i] = ReprBoxed
		}
		cg.paramReprs[d.name] = boxed
		cg.returnReprs[d.name] = ReprBoxed
	}

	// Two inference rounds over the direct functions: the first round skips
	// call sites whose callee has no signature yet, the second sees every
	// round-one result, so mutually recursive pairs still infer native
	// returns.
	for round := 0; round < 2; round++ {
		for _, d := range directs {
			params, ret := cg.inferSignature(d.name, d.fnNode)
			cg.paramReprs[d.name] = params
			cg.returnReprs[d.name] = ret
		}
	}

	for _, d := range directs {
		params := cg.paramReprs[d.name]
		irParams := make([]*ir.Param, len(params))
		for i, pname := range d.fnNode.Params() {
			irParams[i] = ir.NewParam(pname, reprType(params[i]))
		}
		cg.funcs[d.name] = cg.module.NewFunc("_franz_"+d.name,
			reprType(cg.returnReprs[d.name]), irParams...)
	}
	for _, d := range capturing {
		irParams := make([]*ir.Param, 0, d.fnNode.ParamCount()+1)
		for _, pname := range d.fnNode.Params() {
			irParams = append(irParams, ir.NewParam(pname, types.I8Ptr))
		}
		irParams = append(irParams, ir.NewParam("env", types.I8Ptr))
		cg.closureFns[d.name] = cg.module.NewFunc("_franz_"+d.name, types.I8Ptr, irParams...)
		cg.closureGlobals[d.name] = cg.module.NewGlobalDef(d.name+".closure",
			constant.NewNull(types.I8Ptr))
	}
	return nil
}

// compileTopLevelFunction compiles the body behind a forward declaration.
// For a capturing function it also builds the closure record at the current
// point in main and publishes it through the function's global.
func (cg *CodeGen) compileTopLevelFunction(name string, fnNode *Node) error {
	if fn, ok := cg.funcs[name]; ok {
		return cg.compileFunctionBody(fn, fnNode, name, nil,
			cg.paramReprs[name], cg.returnReprs[name], false)
	}

	fn := cg.closureFns[name]
	fv := cg.freeVars(fnNode)
	if err := cg.compileFunctionBody(fn, fnNode, name, fv,
		cg.paramReprs[name], ReprBoxed, true); err != nil {
		return err
	}

	env, err := cg.buildEnv(fv, fnNode.Line)
	if err != nil {
		return err
	}
	boxed := cg.makeClosureRecord(fn, env)
	cg.block.NewStore(boxed, cg.closureGlobals[name])
	cg.vars[name] = boxed
	cg.reprs.Bind(name, ReprBoxed)
	return nil
}

// compileFunctionBody compiles a function literal's statements into fn,
// swapping the whole scope (insertion point, binding tables, environment
// layout) and restoring it afterwards. uniform selects the closure calling
// convention, where a trailing environment parameter follows the declared
// parameters and everything is boxed.
func (cg *CodeGen) compileFunctionBody(fn *ir.Func, fnNode *Node, name string,
	captured []string, params []Repr, ret Repr, uniform bool) error {

	savedFn, savedBlock := cg.fn, cg.block
	savedVars, savedReprs := cg.vars, cg.reprs
	savedEnvSlots, savedEnvParam := cg.envSlots, cg.envParam
	savedSelf, savedRet := cg.selfName, cg.retRepr
	savedBindings := cg.bindingFns
	restore := func() {
		cg.fn, cg.block = savedFn, savedBlock
		cg.vars, cg.reprs = savedVars, savedReprs
		cg.envSlots, cg.envParam = savedEnvSlots, savedEnvParam
		cg.selfName, cg.retRepr = savedSelf, savedRet
		cg.bindingFns = savedBindings
	}

	// Local function bindings inside the body must not leak into (or shadow
	// entries of) the enclosing scope's arity table.
	cg.bindingFns = make(map[string]*Node, len(savedBindings))
	for k, v := range savedBindings {
		cg.bindingFns[k] = v
	}

	cg.fn = fn
	cg.block = fn.NewBlock("entry")
	cg.vars = make(map[string]value.Value)
	cg.reprs = NewReprTracker()
	cg.vars["void"] = constant.NewInt(types.I64, 10)
	cg.reprs.Bind("void", ReprInt)

	for i, pname := range fnNode.Params() {
		cg.vars[pname] = fn.Params[i]
		cg.reprs.Bind(pname, params[i])
	}

	cg.envSlots = make(map[string]int)
	cg.envParam = nil
	if uniform {
		for i, fvName := range captured {
			cg.envSlots[fvName] = i
		}
		cg.envParam = fn.Params[len(fn.Params)-1]
	}
	cg.selfName = name
	cg.retRepr = ret

	body := fnNode.Body()
	var last value.Value = constant.NewInt(types.I64, 10)
	var lastNode *Node
	for _, stmt := range body {
		v, err := cg.compileNode(stmt)
		if err != nil {
			restore()
			return err
		}
		last = v
		lastNode = stmt
		if cg.block.Term != nil {
			break
		}
	}

	// The final statement's value is the implicit return.
	if cg.block.Term == nil {
		from := ReprInt
		if lastNode != nil {
			from = cg.classify(lastNode)
		}
		conv, err := cg.ensure(last, from, ret, fnNode.Line)
		if err != nil {
			restore()
			return err
		}
		cg.block.NewRet(conv)
	}

	restore()
	return nil
}
