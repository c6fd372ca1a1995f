package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"rcmreloc/internal/image"
	"rcmreloc/internal/reloctab"
)

type tableDump struct {
	Header  image.Header      `json:"header"`
	Size    int               `json:"size"`
	Records []reloctab.Record `json:"records"`
}

func cmdTable(args []string) error {
	fs := flag.NewFlagSet("table", flag.ExitOnError)
	rcm := fs.String("rcm", "", "path to the RCM image")
	jsonOut := fs.Bool("json", false, "output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *rcm == "" {
		return fmt.Errorf("--rcm is required")
	}

	img, err := os.ReadFile(*rcm)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	return runTable(os.Stdout, img, *jsonOut)
}

func readTable(img []byte) (tableDump, error) {
	h, err := image.ReadHeader(img)
	if err != nil {
		return tableDump{}, err
	}
	if int(h.RelocOffset) > len(img) {
		return tableDump{}, fmt.Errorf("table offset 0x%x past end of %d-byte image", h.RelocOffset, len(img))
	}
	recs, err := reloctab.Decode(img[h.RelocOffset:], int(h.RelocCount))
	if err != nil {
		return tableDump{}, err
	}
	d := tableDump{Header: h, Records: recs}
	for _, r := range recs {
		d.Size += r.Size()
	}
	return d, nil
}

func runTable(w io.Writer, img []byte, jsonOut bool) error {
	d, err := readTable(img)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	fmt.Fprintf(w, "Header:\n")
	fmt.Fprintf(w, "  Hooks:      %d\n", d.Header.NumHooks)
	fmt.Fprintf(w, "  Relocated:  %v\n", d.Header.Relocated != 0)
	fmt.Fprintf(w, "  Table:      0x%04x (%d records, %d bytes)\n", d.Header.RelocOffset, d.Header.RelocCount, d.Size)
	fmt.Fprintf(w, "  Thunk pool: 0x%04x (%d bytes)\n", int(d.Header.RelocOffset)+d.Size, len(img)-int(d.Header.RelocOffset)-d.Size)

	if len(d.Records) > 0 {
		fmt.Fprintf(w, "\nRecords:\n")
		for _, r := range d.Records {
			fmt.Fprintf(w, "  %s\n", r)
		}
	}
	return nil
}
