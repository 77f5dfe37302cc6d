package main

// Free-variable analysis for closure conversion.
//
// A variable is free in a function literal when the body reads it and neither
// a parameter nor an earlier local assignment binds it. Built-in names and
// top-level function names are never free: built-ins resolve through the
// dispatch table and top-level functions through the module-level registries,
// so only values that live in an enclosing stack frame need an environment
// slot. The resulting list is ordered by first use, which fixes the slot
// layout of the environment.

var builtinNames = map[string]bool{
	"if":       true,
	"add":      true,
	"subtract": true,
	"multiply": true,
	"divide":   true,
	"is":       true, "less_than": true, "greater_than": true,
	"not": true, "and": true, "or": true,
	"println": true, "print": true,
	"head": true, "tail": true, "cons": true, "nth": true, "length": true,
	"map": true, "map2": true, "filter": true, "reduce": true,
	"is_int": true, "is_float": true, "is_string": true,
	"is_list": true, "is_function": true,
	"ref": true, "deref": true, "set!": true,
	"void": true,
}

func isBuiltin(name string) bool {
	return builtinNames[name]
}

// freeVars returns the free variables of a function literal, cached on the
// node. Nested function literals contribute their own free variables, minus
// whatever this function binds, so transitive captures flow outward.
func (cg *CodeGen) freeVars(fnNode *Node) []string {
	if fnNode.freeVarsDone {
		return fnNode.freeVars
	}

	bound := make(map[string]bool)
	for _, p := range fnNode.Params() {
		bound[p] = true
	}

	seen := make(map[string]bool)
	var free []string
	use := func(name string) {
		if bound[name] || seen[name] || isBuiltin(name) {
			return
		}
		if _, ok := cg.funcNodes[name]; ok {
			return
		}
		seen[name] = true
		free = append(free, name)
	}

	var walk func(n *Node)
	walk = func(n *Node) {
		switch n.Op {
		case OpIdentifier:
			use(n.Val)
		case OpAssignment:
			walk(n.Children[1])
			bound[n.Children[0].Val] = true
		case OpFunction:
			for _, name := range cg.freeVars(n) {
				use(name)
			}
		default:
			for _, child := range n.Children {
				walk(child)
			}
		}
	}
	for _, stmt := range fnNode.Body() {
		walk(stmt)
	}

	fnNode.freeVars = free
	fnNode.freeVarsDone = true
	return free
}
