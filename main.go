package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/xyproto/env/v2"
)

// A compiler for the Franz language, emitting LLVM IR that links against the
// Franz C runtime.

const versionString = "franzc 0.3.0"

func main() {
	var output = flag.String("o", "", "output filename for the generated IR")
	var outputLong = flag.String("output", "", "output filename for the generated IR")
	var verbose = flag.Bool("v", false, "verbose mode")
	var quiet = flag.Bool("q", false, "quiet mode")
	var emitIR = flag.Bool("emit-ir", false, "write the generated IR to stdout")
	var dumpAST = flag.Bool("ast", false, "dump the parsed expression tree and exit")
	flag.Parse()

	outputPath := *output
	if outputPath == "" {
		outputPath = *outputLong
	}

	ctx := &CommandContext{
		Args:         flag.Args(),
		Verbose:      *verbose,
		Quiet:        *quiet,
		EmitIR:       *emitIR,
		DumpAST:      *dumpAST,
		OutputPath:   outputPath,
		Debug:        env.Bool("FRANZ_DEBUG"),
		TargetTriple: env.Str("FRANZ_TARGET_TRIPLE"),
		RuntimeLib:   env.Str("FRANZ_RUNTIME", "libfranz.a"),
	}

	if ctx.Verbose {
		fmt.Fprintf(os.Stderr, "----=[ %s ]=----\n", versionString)
	}

	if err := RunCLI(ctx); err != nil {
		log.Fatalln(err)
	}
}
