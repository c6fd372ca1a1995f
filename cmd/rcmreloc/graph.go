package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rcmreloc/internal/branchgraph"
	"rcmreloc/internal/output"
)

func cmdGraph(args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	relocs := fs.String("relocs", "", "path to the readelf -r listing")
	syms := fs.String("syms", "", "path to the objdump -t listing")
	out := fs.String("out", "", "output DOT file")
	title := fs.String("title", "", "graph title (default: relocation listing name)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *relocs == "" || *syms == "" {
		return fmt.Errorf("--relocs and --syms are required")
	}
	if *out == "" {
		return fmt.Errorf("--out is required")
	}
	if *title == "" {
		*title = strings.TrimSuffix(filepath.Base(*relocs), filepath.Ext(*relocs))
	}

	st, rs, err := loadListings(*relocs, *syms)
	if err != nil {
		return err
	}

	g, stats := branchgraph.Build(rs, st)
	if err := output.WriteDOT(*out, g, *title); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d nodes, %d edges)\n", *out, len(g.Nodes), len(g.Edges))
	fmt.Fprintf(os.Stderr, "%d branch sites: %d external, %d to THUMB code (%d symbols defined)\n",
		stats.Sites, stats.External, stats.Thumb, st.Len())
	return nil
}
