package main

// Signature inference for capture-free top-level functions.
//
// Direct functions carry native parameter and return types, so the
// forward-declaration pass needs a signature before any body is compiled.
// Inference is deliberately simple and conservative: a parameter defaults to
// native i64, floats propagate through arithmetic contexts, and anything fed
// into a boxed-only position (list operands, callbacks, reference cells, or
// being called) forces the boxed representation. When inference is wrong in
// the boxed direction the code is still correct, just slower.

// inferSignature returns the parameter representations and the return
// representation for a capture-free function literal.
func (cg *CodeGen) inferSignature(name string, fnNode *Node) ([]Repr, Repr) {
	params := fnNode.Params()
	reprs := make(map[string]Repr, len(params))
	for _, p := range params {
		reprs[p] = ReprInt
	}

	// Two passes so a float discovered late still propagates into earlier
	// arithmetic siblings.
	for i := 0; i < 2; i++ {
		for _, stmt := range fnNode.Body() {
			cg.scanParamUses(stmt, reprs)
		}
	}

	out := make([]Repr, len(params))
	for i, p := range params {
		out[i] = reprs[p]
	}
	ret := cg.inferReturnRepr(name, fnNode, reprs)
	return out, ret
}

// widenParam raises a parameter's inferred representation; boxed wins over
// float, float over int.
func widenParam(reprs map[string]Repr, name string, r Repr) {
	cur, ok := reprs[name]
	if !ok {
		return
	}
	if cur == ReprBoxed || r == cur {
		return
	}
	if r == ReprBoxed || cur == ReprInt {
		reprs[name] = r
	}
}

// scanParamUses walks one statement looking for contexts that constrain a
// parameter's representation.
func (cg *CodeGen) scanParamUses(node *Node, reprs map[string]Repr) {
	if node.Op != OpApplication {
		for _, child := range node.Children {
			cg.scanParamUses(child, reprs)
		}
		return
	}

	head := node.Children[0]
	args := node.Children[1:]
	for _, arg := range args {
		cg.scanParamUses(arg, reprs)
	}

	// A parameter in call position holds a closure.
	if head.Op == OpIdentifier {
		if _, ok := reprs[head.Val]; ok {
			widenParam(reprs, head.Val, ReprBoxed)
		}
	}
	if head.Op != OpIdentifier {
		return
	}

	switch head.Val {
	case "add", "subtract", "multiply", "divide", "is", "less_than", "greater_than":
		hasFloat := false
		for _, arg := range args {
			if arg.Op == OpFloat {
				hasFloat = true
			}
			if arg.Op == OpIdentifier && reprs[arg.Val] == ReprFloat {
				hasFloat = true
			}
		}
		if hasFloat {
			for _, arg := range args {
				if arg.Op == OpIdentifier {
					widenParam(reprs, arg.Val, ReprFloat)
				}
			}
		}
	case "head", "tail", "length", "map", "map2", "filter", "reduce",
		"cons", "deref", "set!":
		// List, callback and reference operands are boxed.
		for _, arg := range args {
			if arg.Op == OpIdentifier {
				widenParam(reprs, arg.Val, ReprBoxed)
			}
		}
	case "nth":
		if len(args) > 0 && args[0].Op == OpIdentifier {
			widenParam(reprs, args[0].Val, ReprBoxed)
		}
	}
}

// inferReturnRepr statically classifies every return site of the body and
// unifies them. Self-recursive return sites are skipped; if every site is
// self-recursive the function cannot terminate anyway and i64 is as good an
// answer as any.
func (cg *CodeGen) inferReturnRepr(name string, fnNode *Node, params map[string]Repr) Repr {
	locals := make(map[string]Repr, len(params))
	for p, r := range params {
		locals[p] = r
	}

	var sites []Repr
	var classifyStatic func(n *Node) Repr
	classifyStatic = func(n *Node) Repr {
		switch n.Op {
		case OpInt:
			return ReprInt
		case OpFloat:
			return ReprFloat
		case OpString:
			return ReprString
		case OpList, OpFunction:
			return ReprBoxed
		case OpIdentifier:
			if n.Val == "void" {
				return ReprInt
			}
			if r, ok := locals[n.Val]; ok {
				return r
			}
			return ReprBoxed
		case OpStatement:
			if len(n.Children) == 0 {
				return ReprInt
			}
			return classifyStatic(n.Children[len(n.Children)-1])
		case OpApplication:
			head := n.Children[0]
			if head.Op != OpIdentifier {
				return ReprBoxed
			}
			args := n.Children[1:]
			switch head.Val {
			case "add", "subtract", "multiply", "divide":
				for _, arg := range args {
					if classifyStatic(arg) == ReprFloat {
						return ReprFloat
					}
				}
				return ReprInt
			case "is", "less_than", "greater_than", "not", "and", "or",
				"is_int", "is_float", "is_string", "is_list", "is_function",
				"length", "println", "print":
				return ReprInt
			case "if":
				if len(args) < 2 {
					return ReprInt
				}
				thenR := classifyStatic(args[1])
				elseR := ReprInt
				if len(args) > 2 {
					elseR = classifyStatic(args[2])
				}
				// An unresolved branch (self or not-yet-inferred callee)
				// defers to the other one.
				if thenR == ReprUnknown {
					return elseR
				}
				if elseR == ReprUnknown {
					return thenR
				}
				return unifyRepr(thenR, elseR)
			}
			if head.Val == name {
				return ReprUnknown // self-recursion, resolved by other sites
			}
			if r, ok := cg.returnReprs[head.Val]; ok {
				return r
			}
			if _, ok := cg.funcNodes[head.Val]; ok {
				// Top-level function with no inferred signature yet; a later
				// inference round fills it in.
				return ReprUnknown
			}
			return ReprBoxed
		default:
			return ReprInt
		}
	}

	var walk func(n *Node)
	walk = func(n *Node) {
		switch n.Op {
		case OpReturn:
			sites = append(sites, classifyStatic(n.Children[0]))
		case OpAssignment:
			locals[n.Children[0].Val] = classifyStatic(n.Children[1])
		case OpFunction:
			// Nested literals have their own return discipline.
		default:
			for _, child := range n.Children {
				walk(child)
			}
		}
	}
	body := fnNode.Body()
	for _, stmt := range body {
		walk(stmt)
	}
	// The final statement's value is the implicit return.
	if last := body[len(body)-1]; last.Op != OpReturn {
		sites = append(sites, classifyStatic(last))
	}

	ret := ReprUnknown
	for _, site := range sites {
		if site == ReprUnknown {
			continue
		}
		if ret == ReprUnknown {
			ret = site
			continue
		}
		ret = unifyRepr(ret, site)
	}
	if ret == ReprUnknown {
		ret = ReprInt
	}
	return ret
}
