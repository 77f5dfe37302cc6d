package main

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// Runtime helper ABI.
//
// The generated code leans on a small C runtime for everything that touches
// tagged heap values: boxing/unboxing, list iteration, reference cells and
// tag checks. Declarations are created lazily, once per module, the first
// time a helper is used, exactly like the C-library declarations in a
// hand-written module (printf, malloc).

// Boxed-value tags, shared with the runtime's Generic struct.
const (
	tagInt      = 0
	tagFloat    = 1
	tagString   = 2
	tagVoid     = 3
	tagFunction = 4
	tagList     = 6
	tagRef      = 10
)

// runtimeFunc returns the declaration for a runtime helper, creating it on
// first use.
func (cg *CodeGen) runtimeFunc(name string) *ir.Func {
	if f, ok := cg.runtime[name]; ok {
		return f
	}

	generic := types.I8Ptr
	var f *ir.Func
	switch name {
	// Boxing: native scalar -> Generic*
	case "franz_box_int":
		f = cg.module.NewFunc(name, generic, ir.NewParam("value", types.I64))
	case "franz_box_float":
		f = cg.module.NewFunc(name, generic, ir.NewParam("value", types.Double))
	case "franz_box_string":
		f = cg.module.NewFunc(name, generic, ir.NewParam("value", types.I8Ptr))
	case "franz_box_closure":
		f = cg.module.NewFunc(name, generic, ir.NewParam("closure", types.I8Ptr))

	// Unboxing: Generic* -> native scalar
	case "franz_unbox_int":
		f = cg.module.NewFunc(name, types.I64, ir.NewParam("generic", generic))
	case "franz_unbox_float":
		f = cg.module.NewFunc(name, types.Double, ir.NewParam("generic", generic))
	case "franz_unbox_string":
		f = cg.module.NewFunc(name, types.I8Ptr, ir.NewParam("generic", generic))

	// Closure record extraction: boxed closure -> { code, env }*
	case "franz_generic_to_closure_ptr":
		f = cg.module.NewFunc(name, types.I8Ptr, ir.NewParam("generic", generic))

	// Tag check: Generic* x tag -> 0/1
	case "franz_generic_is":
		f = cg.module.NewFunc(name, types.I64,
			ir.NewParam("generic", generic), ir.NewParam("tag", types.I64))

	// Lists
	case "franz_list_new":
		f = cg.module.NewFunc(name, generic,
			ir.NewParam("elements", types.NewPointer(types.I8Ptr)),
			ir.NewParam("length", types.I64))
	case "franz_list_head", "franz_list_tail":
		f = cg.module.NewFunc(name, generic, ir.NewParam("list", generic))
	case "franz_list_cons":
		f = cg.module.NewFunc(name, generic,
			ir.NewParam("elem", generic), ir.NewParam("list", generic))
	case "franz_list_nth":
		f = cg.module.NewFunc(name, generic,
			ir.NewParam("list", generic), ir.NewParam("index", types.I64))
	case "franz_list_length":
		f = cg.module.NewFunc(name, types.I64, ir.NewParam("list", generic))

	// Higher-order iteration helpers
	case "franz_llvm_map", "franz_llvm_filter":
		f = cg.module.NewFunc(name, generic,
			ir.NewParam("list", generic),
			ir.NewParam("callback", generic),
			ir.NewParam("line", types.I64))
	case "franz_llvm_map2":
		f = cg.module.NewFunc(name, generic,
			ir.NewParam("list1", generic),
			ir.NewParam("list2", generic),
			ir.NewParam("callback", generic),
			ir.NewParam("line", types.I64))
	case "franz_llvm_reduce":
		f = cg.module.NewFunc(name, generic,
			ir.NewParam("list", generic),
			ir.NewParam("callback", generic),
			ir.NewParam("initial", generic),
			ir.NewParam("line", types.I64))

	// Mutable reference cells
	case "franz_llvm_create_ref":
		f = cg.module.NewFunc(name, generic,
			ir.NewParam("value", generic), ir.NewParam("line", types.I64))
	case "franz_llvm_deref":
		f = cg.module.NewFunc(name, generic,
			ir.NewParam("ref", generic), ir.NewParam("line", types.I64))
	case "franz_llvm_set_ref":
		f = cg.module.NewFunc(name, generic,
			ir.NewParam("ref", generic),
			ir.NewParam("value", generic),
			ir.NewParam("line", types.I64))

	// Output
	case "franz_print_generic":
		f = cg.module.NewFunc(name, types.Void, ir.NewParam("value", generic))

	// Allocation for closure records
	case "malloc":
		f = cg.module.NewFunc(name, types.I8Ptr, ir.NewParam("size", types.I64))

	default:
		panic(fmt.Sprintf("unknown runtime helper %s", name))
	}

	cg.runtime[name] = f
	return f
}
