package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "relocate":
		err = cmdRelocate(os.Args[2:])
	case "table":
		err = cmdTable(os.Args[2:])
	case "verify":
		err = cmdVerify(os.Args[2:])
	case "graph":
		err = cmdGraph(os.Args[2:])
	case "refs":
		err = cmdRefs(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `rcmreloc — post-link relocation resolver for ARM RCM images

Usage:
  rcmreloc relocate --rcm <img> --relocs <file> --syms <file>   Resolve relocations, append table and thunks
  rcmreloc relocate <img> <relocs> <syms>                        Same, positional
  rcmreloc table    --rcm <img> [--json]                         Decode the embedded relocation table
  rcmreloc verify   --rcm <img> [--base <hex>]                   Simulate the loader and disassemble patched sites
  rcmreloc graph    --relocs <file> --syms <file> --out <dot>    Branch graph as Graphviz DOT
  rcmreloc refs     --relocs <file> --syms <file> [--min <n>]    Thunk consolidation candidates

Flags (relocate):
  --report <file>   Write the resolution report as JSON
  --dump            Pretty-print every relocation outcome
  --dry-run         Resolve and report without writing the image
  -v                Debug traces

Environment:
  RCMRELOC_DEBUG     Enable debug traces
  RCMRELOC_REF_MIN   Reference count reported by relocate and refs (default 3)
  RCMRELOC_BASE      Load address used by verify (default 02000000)
`)
}
