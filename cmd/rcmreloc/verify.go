package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"rcmreloc/internal/config"
	"rcmreloc/internal/disasm"
	"rcmreloc/internal/engine"
	"rcmreloc/internal/loader"
)

func cmdVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	rcm := fs.String("rcm", "", "path to a relocated RCM image")
	baseFlag := fs.String("base", "", "load address in hex (default $RCMRELOC_BASE or 02000000)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *rcm == "" {
		return fmt.Errorf("--rcm is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	base := cfg.Base
	if *baseFlag != "" {
		if base, err = config.ParseAddr(*baseFlag); err != nil {
			return fmt.Errorf("--base: %w", err)
		}
	}

	img, err := os.ReadFile(*rcm)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	return runVerify(os.Stdout, img, base)
}

// runVerify loads a copy of img at base and prints every relocated site
// and the thunk pool.
func runVerify(w io.Writer, img []byte, base uint32) error {
	d, err := readTable(img)
	if err != nil {
		return err
	}
	if d.Header.Relocated != 0 {
		return fmt.Errorf("image is already marked relocated")
	}
	poolStart := uint32(d.Header.RelocOffset) + uint32(d.Size)

	mem := append([]byte(nil), img...)
	applied, err := loader.Relocate(mem, base)
	if err != nil {
		return err
	}

	// thunk entries are named by pool position
	lookup := func(addr uint32) (string, bool) {
		if addr < base+poolStart || addr >= base+uint32(len(mem)) {
			return "", false
		}
		return fmt.Sprintf("thunk_%x", (addr-base-poolStart)/engine.ThunkSize), true
	}

	fmt.Fprintf(w, "Loaded at 0x%08x, %d records applied\n\n", base, len(applied))
	for _, a := range applied {
		if disasm.IsBranch(a.After) {
			insts := disasm.Disassemble(mem[a.Record.Offset:a.Record.Offset+4], disasm.Options{BaseAddr: a.Addr})
			fmt.Fprint(w, disasm.Format(insts, lookup))
			continue
		}
		fmt.Fprintf(w, "0x%08x  %08x -> %08x  %s\n", a.Addr, a.Before, a.After, a.Record.Type)
	}

	if int(poolStart) < len(mem) {
		fmt.Fprintf(w, "\nThunk pool at 0x%08x:\n", base+poolStart)
		insts := disasm.Disassemble(mem[poolStart:], disasm.Options{BaseAddr: base + poolStart})
		fmt.Fprint(w, disasm.Format(insts, nil))
	}
	return nil
}
