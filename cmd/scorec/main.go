// Command scorec compiles and runs one script: lex, parse, emit, then
// execute the handler named "main" on the VM.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/scorelang/scorec/internal/config"
	"github.com/scorelang/scorec/internal/host"
	"github.com/scorelang/scorec/internal/parser"
	"github.com/scorelang/scorec/internal/vm"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: scorec [--no-line-numbers] [--config <path>] [--debug] <input> [<output>]")
	fmt.Fprintln(os.Stderr, "       use - for <input>/<output> to read/write standard streams")
}

// diagColor is true when stderr is an interactive terminal, the same check
// the toolchain uses before deciding whether to decorate diagnostic output.
func diagColor() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			os.Exit(config.ExitRunError)
		}
	}()

	keepLines := true
	debug := false
	var configPath string
	var positional []string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--no-line-numbers":
			keepLines = false
		case "--debug":
			debug = true
		case "--config":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "error: --config requires a path argument")
				os.Exit(config.ExitArgsError)
			}
			configPath = args[i]
		case "-h", "--help":
			usage()
			os.Exit(config.ExitOK)
		default:
			positional = append(positional, args[i])
		}
	}

	// Each run gets its own identity so --debug output from concurrent
	// invocations (e.g. in a test harness) can be told apart in a shared log.
	runID := uuid.New()
	if debug {
		fmt.Fprintf(os.Stderr, "run %s\n", runID)
	}

	var hostCfg config.HostConfig
	if configPath != "" {
		var err error
		hostCfg, err = config.LoadHostConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			os.Exit(config.ExitArgsError)
		}
	}

	if len(positional) < 1 || len(positional) > 2 {
		usage()
		os.Exit(config.ExitArgsError)
	}

	src, err := readInput(positional[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(config.ExitArgsError)
	}

	var out io.Writer = os.Stdout
	if len(positional) == 2 && positional[1] != "-" {
		f, err := os.Create(positional[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			os.Exit(config.ExitArgsError)
		}
		defer f.Close()
		out = f
	}

	script, err := parser.Parse(src)
	if err != nil {
		reportCompileError(err)
		os.Exit(config.ExitRunError)
	}

	chunks, order, err := vm.EmitScript(script, keepLines)
	if err != nil {
		reportCompileError(err)
		os.Exit(config.ExitRunError)
	}

	mainChunk, ok := chunks["main"]
	if !ok {
		fmt.Fprintln(os.Stderr, "error: script has no \"main\" handler")
		os.Exit(config.ExitRunError)
	}

	if debug {
		for _, name := range order {
			fmt.Fprint(os.Stderr, vm.Disassemble(chunks[name], nil))
		}
	}

	h := host.New(chunks, out, hostCfg)
	m := vm.New(h)
	if _, err := m.Call(mainChunk, h.Receiver, nil); err != nil {
		reportRuntimeError(err)
		os.Exit(config.ExitRunError)
	}
}

// reportRuntimeError prints a VM failure, bolding it when stderr is a
// terminal and leaving it plain when piped or redirected.
func reportRuntimeError(err error) {
	if diagColor() {
		fmt.Fprintf(os.Stderr, "\x1b[1merror:\x1b[0m %s\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "error: %s\n", err)
}

func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

// reportCompileError prints the `error L:C: message` diagnostic required
// for lex/parse/emit failures. LexError/ParseError/EmitError already
// render their own position prefix from Error().
func reportCompileError(err error) {
	if diagColor() {
		fmt.Fprintf(os.Stderr, "\x1b[1merror\x1b[0m %s\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "error %s\n", err)
}
