package main

import (
	"flag"
	"fmt"
	"os"

	"rcmreloc/internal/config"
	"rcmreloc/internal/engine"
)

func cmdRefs(args []string) error {
	fs := flag.NewFlagSet("refs", flag.ExitOnError)
	relocs := fs.String("relocs", "", "path to the readelf -r listing")
	syms := fs.String("syms", "", "path to the objdump -t listing")
	minRefs := fs.Int("min", 0, "minimum reference count (default $RCMRELOC_REF_MIN or 3)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *relocs == "" || *syms == "" {
		return fmt.Errorf("--relocs and --syms are required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *minRefs > 0 {
		cfg.RefMin = *minRefs
	}

	_, rs, err := loadListings(*relocs, *syms)
	if err != nil {
		return err
	}

	cands := engine.CountRefs(rs).Candidates(cfg.EffectiveRefMin())
	for _, c := range cands {
		fmt.Printf("%08X\t%d\n", c.Addr, c.Count)
	}
	fmt.Fprintf(os.Stderr, "%d target(s) referenced at least %d times\n", len(cands), cfg.EffectiveRefMin())
	return nil
}
