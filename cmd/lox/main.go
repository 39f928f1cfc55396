package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"loxvm/internal/compiler"
	"loxvm/internal/vm"
)

const Version = "v1.0.0"

func main() {
	showDisassembly := flag.Bool("disassembly", false, "Show bytecode disassembly")
	showVersion := flag.Bool("version", false, "Show version information")
	showHelp := flag.Bool("help", false, "Show help message")
	repl := flag.Bool("repl", false, "Start an interactive REPL instead of requiring a source file")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lox [options] <file>\n\nOptions:\n")
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(os.Stderr, "  --%s\n\t%s\n", f.Name, f.Usage)
		})
	}
	flag.Parse()

	if *showHelp {
		flag.Usage()
		return
	}
	if *showVersion {
		fmt.Printf("lox %s\n", Version)
		return
	}

	debug := os.Getenv("DEBUG") != ""
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	args := flag.Args()
	if len(args) < 1 {
		if *repl {
			startREPL(debug, *showDisassembly)
			return
		}
		flag.Usage()
		os.Exit(1)
	}

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		os.Exit(1)
	}

	os.Exit(run(string(content), debug, *showDisassembly))
}

// run compiles and executes one program, returning the process exit
// code spec.md §6 maps from interpret's result.
func run(source string, debug bool, showDisasm bool) int {
	c, err := compiler.Compile(source)
	if err != nil {
		return 65
	}

	if showDisasm {
		c.Disassemble("main")
	}

	machine := vm.New(debug)
	switch machine.Run(c) {
	case vm.Ok:
		return 0
	case vm.RuntimeError:
		return 70
	default:
		return 70
	}
}

func startREPL(debug bool, showDisasm bool) {
	fmt.Printf("lox %s\n", Version)
	fmt.Println("Type 'exit' to quit.")

	machine := vm.New(debug)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")

		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		if strings.TrimSpace(line) == "exit" {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		c, err := compiler.Compile(line)
		if err != nil {
			continue
		}

		if showDisasm {
			c.Disassemble("REPL")
		}

		machine.Run(c)
	}
}
