// Package loader applies an RCM relocation table the way the runtime
// loader does once the module is placed in memory.
package loader

import (
	"errors"
	"fmt"

	"rcmreloc/internal/disasm"
	"rcmreloc/internal/image"
	"rcmreloc/internal/reloc"
	"rcmreloc/internal/reloctab"
)

// DefaultBase is where modules are typically loaded (main RAM).
const DefaultBase = 0x02000000

var ErrBadTable = errors.New("loader: relocation table out of range")

// Applied describes one relocated site.
type Applied struct {
	Record reloctab.Record
	Addr   uint32 // absolute address of the site
	Before uint32
	After  uint32
}

// Relocate processes the table of the module in mem loaded at base, in
// place, and marks the module relocated. A module already marked is left
// alone and nil is returned.
func Relocate(mem []byte, base uint32) ([]Applied, error) {
	h, err := image.ReadHeader(mem)
	if err != nil {
		return nil, err
	}
	if h.Relocated != 0 {
		return nil, nil
	}
	if int(h.RelocOffset) > len(mem) {
		return nil, fmt.Errorf("%w: offset 0x%x in %d bytes", ErrBadTable, h.RelocOffset, len(mem))
	}
	recs, err := reloctab.Decode(mem[h.RelocOffset:], int(h.RelocCount))
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	applied := make([]Applied, 0, len(recs))
	for _, rec := range recs {
		if !image.InBounds(mem, rec.Offset) {
			return applied, fmt.Errorf("%w: site 0x%x", ErrBadTable, rec.Offset)
		}
		a := Applied{Record: rec, Addr: base + rec.Offset, Before: image.Word(mem, rec.Offset)}
		a.After = apply(a.Before, rec, a.Addr, base)
		image.PutWord(mem, rec.Offset, a.After)
		applied = append(applied, a)
	}
	if err := image.SetRelocated(mem); err != nil {
		return applied, err
	}
	return applied, nil
}

// apply returns the relocated word at dest.
func apply(word uint32, rec reloctab.Record, dest, base uint32) uint32 {
	switch rec.Type {
	case reloc.ABS32:
		return word + rec.Addend
	case reloc.BASE_ABS:
		return word + rec.Addend + base
	case reloc.CALL, reloc.JUMP24:
		if rec.Addend&1 == 0 {
			return disasm.AdjustBranch(word, rec.Addend-dest)
		}
		// THUMB target: rewrite as BLX, whose H bit carries the halfword
		off := uint32(disasm.BranchOffset(word))
		if word>>28 == 0xF {
			off |= (word >> 24 & 1) << 1
		}
		off += rec.Addend&^1 - dest
		return word&0x0E000000 | 0xF0000000 | (off>>1&1)<<24 | off>>2&0x00FFFFFF
	}
	return word
}
