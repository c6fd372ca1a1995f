package main

import (
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"

	"rcmreloc/internal/engine"
	"rcmreloc/internal/listing"
	"rcmreloc/internal/reloc"
)

// setupLog routes the package logger to the terminal.
func setupLog(debug bool) {
	log.SetHandler(cli.Default)
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// loadListings reads the symbol and relocation listings and binds each
// relocation to the symbol table.
func loadListings(relocsPath, symsPath string) (*listing.SymbolTable, []reloc.Relocation, error) {
	sf, err := os.Open(symsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open symbols: %w", err)
	}
	defer sf.Close()
	syms, err := listing.ReadSymbols(sf)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", symsPath, err)
	}
	st := listing.NewSymbolTable(syms)

	rf, err := os.Open(relocsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open relocations: %w", err)
	}
	defer rf.Close()
	entries, err := listing.ReadRelocations(rf)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", relocsPath, err)
	}

	relocs, err := engine.Bind(entries, st)
	if err != nil {
		return nil, nil, err
	}
	return st, relocs, nil
}
