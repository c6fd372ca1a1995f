package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/k0kubun/pp/v3"

	"rcmreloc/internal/config"
	"rcmreloc/internal/engine"
	"rcmreloc/internal/output"
)

type relocateParams struct {
	rcm, relocs, syms string
	report            string
	dump              bool
	dryRun            bool
	refMin            int
	log               log.Interface
}

// relocateReport is the JSON document written by --report.
type relocateReport struct {
	Image       string            `json:"image"`
	ImageSize   int               `json:"image_size"`
	TableOffset int               `json:"table_offset"`
	TableSize   int               `json:"table_size"`
	Count       int               `json:"count"`
	PoolBase    uint32            `json:"pool_base"`
	Thunks      int               `json:"thunks"`
	Candidates  []engine.RefCount `json:"candidates"`
	Outcomes    []engine.Outcome  `json:"outcomes"`
}

func cmdRelocate(args []string) error {
	fs := flag.NewFlagSet("relocate", flag.ExitOnError)
	rcm := fs.String("rcm", "", "path to the RCM image (overwritten)")
	relocs := fs.String("relocs", "", "path to the readelf -r listing")
	syms := fs.String("syms", "", "path to the objdump -t listing")
	report := fs.String("report", "", "write a JSON resolution report")
	dump := fs.Bool("dump", false, "pretty-print relocation outcomes")
	dryRun := fs.Bool("dry-run", false, "do not write the image")
	verbose := fs.Bool("v", false, "debug traces")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 3 && *rcm == "" && *relocs == "" && *syms == "" {
		*rcm, *relocs, *syms = fs.Arg(0), fs.Arg(1), fs.Arg(2)
	}
	if *rcm == "" || *relocs == "" || *syms == "" {
		return fmt.Errorf("--rcm, --relocs and --syms are required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLog(*verbose || cfg.Debug)

	return runRelocate(os.Stdout, os.Stderr, relocateParams{
		rcm:    *rcm,
		relocs: *relocs,
		syms:   *syms,
		report: *report,
		dump:   *dump,
		dryRun: *dryRun,
		refMin: cfg.EffectiveRefMin(),
	})
}

func runRelocate(stdout, stderr io.Writer, p relocateParams) error {
	img, err := os.ReadFile(p.rcm)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	_, relocs, err := loadListings(p.relocs, p.syms)
	if err != nil {
		return err
	}

	for _, r := range relocs {
		fmt.Fprintln(stdout, r)
	}
	candidates := engine.CountRefs(relocs).Candidates(p.refMin)
	for _, c := range candidates {
		fmt.Fprintf(stdout, "%08X\t%d\n", c.Addr, c.Count)
	}

	res, err := engine.Resolve(img, relocs, engine.Options{Log: p.log})
	if err != nil {
		var ue *engine.UnresolvedError
		if errors.As(err, &ue) {
			for _, s := range ue.Symbols {
				fmt.Fprintf(stderr, "[ERROR] Unresolved external symbol %s\n", s)
			}
			return fmt.Errorf("%d unresolved external symbol(s), %s not written", len(ue.Symbols), p.rcm)
		}
		return err
	}

	out, err := res.Assemble()
	if err != nil {
		return err
	}

	if p.dump {
		pp.Fprintln(stderr, res.Outcomes)
	}
	if p.report != "" {
		rep := relocateReport{
			Image:       p.rcm,
			ImageSize:   len(img),
			TableOffset: len(res.Image),
			TableSize:   res.Table.Len(),
			Count:       res.Count(),
			PoolBase:    res.PoolBase,
			Thunks:      len(res.Thunks) / engine.ThunkSize,
			Candidates:  candidates,
			Outcomes:    res.Outcomes,
		}
		if err := output.WriteJSON(p.report, rep); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "wrote %s\n", p.report)
	}

	if p.dryRun {
		fmt.Fprintf(stderr, "dry run: %s not written (%d bytes, %d records, %d thunks)\n",
			p.rcm, len(out), res.Count(), len(res.Thunks)/engine.ThunkSize)
		return nil
	}
	if err := output.WriteImage(p.rcm, out); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "wrote %s (%d bytes, %d records, %d thunks)\n",
		p.rcm, len(out), res.Count(), len(res.Thunks)/engine.ThunkSize)
	return nil
}
