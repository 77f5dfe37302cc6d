package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// cli.go - command-line interface for franzc
//
// Subcommands, Go-style:
// - franzc build <file.franz> [-o out.ll]   compile to LLVM IR
// - franzc run <file.franz> [args...]       compile, link against the runtime, execute
// - franzc emit-ir <file.franz>             compile and write the IR to stdout
// - franzc repl                             interactive compile-and-inspect loop
// - franzc <file.franz>                     shorthand for build

// CommandContext holds the execution context for a CLI command.
type CommandContext struct {
	Args         []string
	Verbose      bool
	Quiet        bool
	EmitIR       bool
	DumpAST      bool
	OutputPath   string
	Debug        bool
	TargetTriple string
	RuntimeLib   string
}

// RunCLI dispatches to the requested subcommand.
func RunCLI(ctx *CommandContext) error {
	if len(ctx.Args) == 0 {
		return cmdHelp()
	}

	subcmd := ctx.Args[0]
	switch subcmd {
	case "build":
		if len(ctx.Args) < 2 {
			return fmt.Errorf("usage: franzc build <file.franz> [-o output.ll]")
		}
		return cmdBuild(ctx, ctx.Args[1:])

	case "run":
		if len(ctx.Args) < 2 {
			return fmt.Errorf("usage: franzc run <file.franz> [args...]")
		}
		return cmdRun(ctx, ctx.Args[1:])

	case "emit-ir":
		if len(ctx.Args) < 2 {
			return fmt.Errorf("usage: franzc emit-ir <file.franz>")
		}
		ctx.EmitIR = true
		return cmdBuild(ctx, ctx.Args[1:])

	case "repl":
		return cmdRepl(ctx)

	case "help", "--help", "-h":
		return cmdHelp()

	case "version", "--version", "-V":
		fmt.Println(versionString)
		return nil

	default:
		if strings.HasSuffix(subcmd, ".franz") {
			return cmdBuild(ctx, ctx.Args)
		}
		return fmt.Errorf("unknown command: %s\n\nRun 'franzc help' for usage information", subcmd)
	}
}

// CompileFranzSource parses and compiles one source unit to LLVM IR text.
func CompileFranzSource(source, name string, ctx *CommandContext) (string, error) {
	program, err := Parse(source)
	if err != nil {
		return "", err
	}
	if ctx.DumpAST {
		DumpAST(program, 0)
	}

	cg := NewCodeGen(name)
	cg.debug = ctx.Debug
	module, err := cg.Compile(program)
	if err != nil {
		return "", err
	}
	if ctx.TargetTriple != "" {
		module.TargetTriple = ctx.TargetTriple
	}
	return module.String(), nil
}

// compileFranzFile reads, compiles and returns the IR for one file.
func compileFranzFile(ctx *CommandContext, inputFile string) (string, error) {
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return "", err
	}
	return CompileFranzSource(string(data), filepath.Base(inputFile), ctx)
}

// cmdBuild compiles a Franz source file to an .ll file (or stdout).
func cmdBuild(ctx *CommandContext, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: franzc build <file.franz> [-o output.ll]")
	}

	inputFile := args[0]
	outputPath := ctx.OutputPath
	for i := 1; i < len(args); i++ {
		if args[i] == "-o" && i+1 < len(args) {
			outputPath = args[i+1]
			i++
		}
	}
	if outputPath == "" {
		outputPath = strings.TrimSuffix(filepath.Base(inputFile), ".franz") + ".ll"
	}

	if ctx.Verbose {
		fmt.Fprintf(os.Stderr, "Building %s -> %s\n", inputFile, outputPath)
	}

	irText, err := compileFranzFile(ctx, inputFile)
	if err != nil {
		return fmt.Errorf("compilation failed: %v", err)
	}
	if ctx.DumpAST {
		return nil
	}

	if ctx.EmitIR {
		fmt.Print(irText)
		return nil
	}
	if err := os.WriteFile(outputPath, []byte(irText), 0o644); err != nil {
		return err
	}
	if !ctx.Quiet {
		fmt.Printf("Built: %s\n", outputPath)
	}
	return nil
}

// cmdRun compiles a Franz source file, links it against the runtime with
// clang, and executes the result from a RAM disk when one is available.
func cmdRun(ctx *CommandContext, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: franzc run <file.franz> [args...]")
	}
	inputFile := args[0]
	programArgs := args[1:]

	clang, err := exec.LookPath("clang")
	if err != nil {
		return fmt.Errorf("franzc run requires clang on PATH: %v", err)
	}

	irText, err := compileFranzFile(ctx, inputFile)
	if err != nil {
		return fmt.Errorf("compilation failed: %v", err)
	}

	tmpDir := "/dev/shm"
	if _, err := os.Stat(tmpDir); os.IsNotExist(err) {
		tmpDir = os.TempDir()
	}
	baseName := strings.TrimSuffix(filepath.Base(inputFile), ".franz")
	tmpIR := filepath.Join(tmpDir, fmt.Sprintf("franzc_run_%s_%d.ll", baseName, os.Getpid()))
	tmpExec := filepath.Join(tmpDir, fmt.Sprintf("franzc_run_%s_%d", baseName, os.Getpid()))

	if err := os.WriteFile(tmpIR, []byte(irText), 0o644); err != nil {
		return err
	}
	defer os.Remove(tmpIR)

	if ctx.Verbose {
		fmt.Fprintf(os.Stderr, "Linking %s + %s -> %s\n", tmpIR, ctx.RuntimeLib, tmpExec)
	}
	link := exec.Command(clang, "-O2", "-o", tmpExec, tmpIR, ctx.RuntimeLib, "-lm")
	link.Stderr = os.Stderr
	if err := link.Run(); err != nil {
		return fmt.Errorf("linking failed: %v", err)
	}
	defer os.Remove(tmpExec)

	cmd := exec.Command(tmpExec, programArgs...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return fmt.Errorf("execution failed: %v", err)
	}
	return nil
}

// cmdHelp displays usage information.
func cmdHelp() error {
	fmt.Printf(`franzc - The Franz Compiler (%s)

USAGE:
    franzc <command> [arguments]

COMMANDS:
    build <file.franz>     Compile a Franz source file to LLVM IR
    run <file.franz>       Compile, link against the runtime, and run
    emit-ir <file.franz>   Compile and write the IR to stdout
    repl                   Interactive compile-and-inspect loop
    help                   Show this help message
    version                Show version information

SHORTHAND:
    franzc <file.franz>    Same as 'franzc build <file.franz>'

FLAGS:
    -o, --output <file>    Output filename (default: input name with .ll)
    -v                     Verbose mode
    -q                     Quiet mode
    --emit-ir              Write the generated IR to stdout instead of a file
    --ast                  Dump the parsed expression tree and exit

ENVIRONMENT:
    FRANZ_DEBUG            Enable code generator debug output
    FRANZ_TARGET_TRIPLE    Target triple stamped into the generated module
    FRANZ_RUNTIME          Runtime library linked by 'franzc run' (default: libfranz.a)

EXAMPLES:
    franzc build hello.franz
    franzc build hello.franz -o hello.ll
    franzc run hello.franz
    FRANZ_TARGET_TRIPLE=x86_64-pc-linux-gnu franzc build hello.franz

`, versionString)
	return nil
}
