// Package disasm provides ARM-mode instruction encoding helpers and
// disassembly for RCM code images.
package disasm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/arch/arm/armasm"
)

// Inst is a decoded ARM instruction with address and raw bytes.
type Inst struct {
	Addr     uint32
	Raw      uint32
	Mnemonic string
	Operands string
	Text     string // full disassembly line
}

// SymbolLookup resolves an address to a symbolic name. Returns ("", false) if unknown.
type SymbolLookup func(addr uint32) (name string, ok bool)

// Options controls disassembly behavior.
type Options struct {
	BaseAddr uint32 // address of the first byte in data
	MaxSteps int    // maximum instructions to decode; 0 = 1M
}

const defaultMaxSteps = 1_000_000

func (o Options) effectiveMax() int {
	if o.MaxSteps > 0 {
		return o.MaxSteps
	}
	return defaultMaxSteps
}

// Disassemble decodes ARM-mode instructions from a byte region.
func Disassemble(data []byte, opts Options) []Inst {
	n := len(data) / 4
	if max := opts.effectiveMax(); n > max {
		n = max
	}

	result := make([]Inst, 0, n)
	for i := 0; i < n; i++ {
		off := i * 4
		raw := binary.LittleEndian.Uint32(data[off : off+4])
		result = append(result, decode(raw, opts.BaseAddr+uint32(off)))
	}
	return result
}

func decode(raw uint32, addr uint32) Inst {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], raw)

	inst := Inst{Addr: addr, Raw: raw}
	a, err := armasm.Decode(buf[:], armasm.ModeARM)
	if err != nil {
		inst.Mnemonic = ".word"
		inst.Operands = fmt.Sprintf("0x%08x", raw)
		inst.Text = ".word " + inst.Operands
		return inst
	}
	inst.Text = armasm.GNUSyntax(a)
	parts := strings.SplitN(inst.Text, " ", 2)
	inst.Mnemonic = parts[0]
	if len(parts) > 1 {
		inst.Operands = parts[1]
	}
	// armasm prints branch targets relative to PC; show the absolute address.
	if bi := DecodeBranch(raw, addr); bi != nil {
		inst.Operands = fmt.Sprintf("0x%08x", bi.Target)
		inst.Text = inst.Mnemonic + " " + inst.Operands
	}
	return inst
}

// Format renders instructions as stable text output.
// Each line: <addr>  <hex bytes>  <disasm>  ; <symbol>
func Format(insts []Inst, lookup SymbolLookup) string {
	var b strings.Builder
	for _, inst := range insts {
		fmt.Fprintf(&b, "0x%08x  ", inst.Addr)
		fmt.Fprintf(&b, "%02x %02x %02x %02x  ",
			byte(inst.Raw), byte(inst.Raw>>8), byte(inst.Raw>>16), byte(inst.Raw>>24))
		b.WriteString(inst.Text)
		if lookup != nil {
			if bi := DecodeBranch(inst.Raw, inst.Addr); bi != nil {
				if name, ok := lookup(bi.Target); ok {
					fmt.Fprintf(&b, "  ; <%s>", name)
				}
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// DisasmOne decodes a single ARM instruction from its raw encoding.
// Returns the disassembly text, or "" if decoding fails.
func DisasmOne(raw uint32, addr uint32) string {
	inst := decode(raw, addr)
	if inst.Mnemonic == ".word" {
		return ""
	}
	return inst.Text
}
